package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
)

// run is the frame worker. It is the only caller of Engine.Process, so frames
// are handled strictly one after another.
//
// The capture rate starts at the idle rate and switches to the active rate
// while the activity monitor sees motion or hands; detection runs on every
// frame at either rate.
func (a *App) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	fps := a.idleFPS
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			active := a.processFrame(now)

			want := a.idleFPS
			if active {
				want = a.activeFPS
			}
			if want != fps {
				fps = want
				a.camera.SetFPS(fps)
				ticker.Reset(time.Second / time.Duration(fps))
				a.logger.Debug("capture rate changed", zap.Int("fps", fps))
			}
		}
	}
}

// processFrame handles one camera frame and reports whether the scene is
// active.
func (a *App) processFrame(now time.Time) bool {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.logger.Debug("error reading frame", zap.Error(err))
		return a.activity.Active()
	}
	defer frame.Close()

	snap := a.holder.Load()
	if snap.MirrorView {
		capture.Mirror(frame)
	}

	if !a.IsEnabled() {
		return a.idleFrame(frame, now)
	}

	hands, err := a.detector.Detect(frame)
	if err != nil {
		// Without landmarks nothing can be re-evaluated, so the frame
		// counts as empty and pressed keys are released.
		a.logger.Warn("error detecting hands", zap.Error(err))
		hands = nil
	}

	status, ok := a.process(hands, now)
	if !ok {
		return a.idleFrame(frame, now)
	}
	a.setStatus(status)

	var active bool
	if len(hands) > 0 {
		active, _ = a.activity.Touch(now)
	} else {
		active, _ = a.activity.Observe(frame, now)
	}

	a.preview.publish(frame, hands, snap.DebugDraw)
	return active
}

// process runs the engine unless detection was disabled meanwhile.
func (a *App) process(hands []detector.HandLandmarks, now time.Time) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.enabled {
		return "", false
	}
	return a.engine.Process(hands, now), true
}

// idleFrame handles a frame while detection is disabled.
func (a *App) idleFrame(frame *gocv.Mat, now time.Time) bool {
	a.setStatus(StatusDisabled)
	active, _ := a.activity.Observe(frame, now)
	a.preview.publish(frame, nil, false)
	return active
}

// previewBuffer keeps the latest encoded preview frame.
type previewBuffer struct {
	mu       sync.RWMutex
	data     []byte
	seq      uint64
	watchers int
}

func (p *previewBuffer) watch() func() {
	p.mu.Lock()
	p.watchers++
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			p.watchers--
			p.mu.Unlock()
		})
	}
}

// publish encodes frame when someone is watching. The landmark overlay is
// drawn onto frame itself, so it must be the last use of the frame.
func (p *previewBuffer) publish(frame *gocv.Mat, hands []detector.HandLandmarks, draw bool) {
	p.mu.RLock()
	watched := p.watchers > 0
	p.mu.RUnlock()
	if !watched {
		return
	}

	if draw {
		capture.DrawLandmarks(frame, hands)
	}
	data, err := capture.EncodeJPEG(frame, capture.DefaultJPEGQuality)
	if err != nil {
		return
	}

	p.mu.Lock()
	p.data = data
	p.seq++
	p.mu.Unlock()
}

func (p *previewBuffer) latest() ([]byte, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data, p.seq
}

func (p *previewBuffer) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = nil
}
