package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Motion detection defaults.
const (
	// DefaultMotionPercent is the share of changed pixels that counts as motion.
	DefaultMotionPercent = 1.0
	// DefaultIdleAfter is how long without motion before the scene is idle.
	DefaultIdleAfter = 2 * time.Second

	blurKernel    = 21
	pixelDiffTrip = 25
)

// ActivityMonitor classifies the scene as active or idle from frame
// differences. A scene becomes active on the first frame with motion and
// turns idle once no motion has been seen for the idle timeout. Callers use
// it to lower the capture rate while nothing moves.
type ActivityMonitor struct {
	mu        sync.Mutex
	percent   float64
	idleAfter time.Duration

	prev       gocv.Mat
	hasPrev    bool
	lastMotion time.Time
	active     bool
}

// NewActivityMonitor creates a monitor. Non-positive arguments take the defaults.
func NewActivityMonitor(percent float64, idleAfter time.Duration) *ActivityMonitor {
	if percent <= 0 {
		percent = DefaultMotionPercent
	}
	if idleAfter <= 0 {
		idleAfter = DefaultIdleAfter
	}
	return &ActivityMonitor{
		percent:   percent,
		idleAfter: idleAfter,
		prev:      gocv.NewMat(),
	}
}

// Observe feeds a frame captured at now. It returns whether the scene is
// active and whether that changed with this frame.
func (m *ActivityMonitor) Observe(frame *gocv.Mat, now time.Time) (active, changed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.motion(frame) {
		m.lastMotion = now
	}
	return m.update(now)
}

// Touch marks the scene as active at now without a frame, for example while
// a gesture is held perfectly still.
func (m *ActivityMonitor) Touch(now time.Time) (active, changed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastMotion = now
	return m.update(now)
}

// Active reports the current classification.
func (m *ActivityMonitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Close releases the reference frame. The monitor starts over if used again.
func (m *ActivityMonitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prev.Close()
	m.prev = gocv.NewMat()
	m.hasPrev = false
	m.active = false
}

func (m *ActivityMonitor) update(now time.Time) (active, changed bool) {
	was := m.active
	m.active = !m.lastMotion.IsZero() && now.Sub(m.lastMotion) < m.idleAfter
	return m.active, m.active != was
}

// motion compares frame with the previous one. The first frame only sets the
// reference.
func (m *ActivityMonitor) motion(frame *gocv.Mat) bool {
	if frame == nil || frame.Empty() {
		return false
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}
	gocv.GaussianBlur(gray, &gray, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)

	defer gray.CopyTo(&m.prev)
	if !m.hasPrev || m.prev.Rows() != gray.Rows() || m.prev.Cols() != gray.Cols() {
		m.hasPrev = true
		return false
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray, m.prev, &diff)
	gocv.Threshold(diff, &diff, pixelDiffTrip, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	return changed > m.percent
}
