// Package app runs the mudra detection worker and wires the engine to its
// collaborators: camera, hand detector, configuration and persistence.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/engine"
	"github.com/ayusman/mudra/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when nothing moves in front of the camera.
	IdleFPS = 5
	// ActiveFPS is the frame rate while the scene is active.
	ActiveFPS = 15
)

// Statuses reported outside of frame processing.
const (
	StatusStopped  = "Stopped"
	StatusDisabled = "Detection disabled"
)

// Event log tuning.
const (
	eventBuffer = 256
	// EventRetention is the number of action events kept in the store.
	EventRetention = 10000
	pruneEvery     = 500
)

// Config holds the collaborators of an App. Only Camera, Detector and
// Emitter have fallbacks; Store and SettingsPath are optional.
type Config struct {
	// FPS is the capture rate while the scene is active; 0 takes ActiveFPS.
	FPS          int
	Holder       *config.Holder
	Store        *store.Store
	Camera       capture.Camera
	Detector     detector.Detector
	Emitter      engine.Emitter
	SettingsPath string
	Logger       *zap.Logger
}

// App owns the frame worker. Start and Stop may be called repeatedly.
type App struct {
	holder   *config.Holder
	store    *store.Store
	camera   capture.Camera
	detector detector.Detector
	engine   *engine.Engine
	activity *capture.ActivityMonitor
	watcher  *config.Watcher
	logger   *zap.Logger

	idleFPS   int
	activeFPS int

	// mu guards enabled and is held across Engine.Process so a disable
	// sweep cannot interleave with a frame.
	mu      sync.Mutex
	enabled bool

	runMu   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	recStop chan struct{}
	aux     sync.WaitGroup

	statusMu   sync.RWMutex
	status     string
	statusSubs map[int]func(string)
	nextSub    int

	preview previewBuffer

	events     chan store.Event
	unsubStore func()
}

// New creates an App. Detection starts enabled unless the store recorded it
// as disabled.
func New(cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	holder := cfg.Holder
	if holder == nil {
		holder = config.NewHolder(nil)
	}

	a := &App{
		holder:     holder,
		store:      cfg.Store,
		camera:     cfg.Camera,
		detector:   cfg.Detector,
		activity:   capture.NewActivityMonitor(0, 0),
		logger:     logger.Named("app"),
		enabled:    true,
		status:     StatusStopped,
		statusSubs: make(map[int]func(string)),
		events:     make(chan store.Event, eventBuffer),
		idleFPS:    IdleFPS,
		activeFPS:  ActiveFPS,
	}
	if cfg.FPS > 0 {
		a.activeFPS = cfg.FPS
		a.idleFPS = min(IdleFPS, cfg.FPS)
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(capture.DefaultOptions(), logger)
	}

	// Try MediaPipe first, fall back to mock detector
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), logger); err == nil {
			a.detector = mp
			a.logger.Info("using MediaPipe hand detection")
		} else {
			a.logger.Warn("MediaPipe not available, using mock detector", zap.Error(err))
			a.detector = detector.NewMockDetector()
		}
	}

	emitter := cfg.Emitter
	if emitter == nil {
		emitter = action.NewEmitter(action.NopBackend{}, logger)
	}
	a.engine = engine.New(holder, emitter, logger)

	if cfg.SettingsPath != "" {
		a.watcher = config.NewWatcher(cfg.SettingsPath, holder, logger)
	}

	if a.store != nil {
		a.enabled = a.store.Settings().GetBool(store.KeyDetectionEnabled, true)
		a.unsubStore = holder.Subscribe(func(s *config.Snapshot) {
			if err := a.store.Settings().SaveSnapshot(s); err != nil {
				a.logger.Warn("failed to persist configuration", zap.Error(err))
			}
		})
		a.engine.AddObserver(a.queueEvent)
	}

	return a
}

// InitialSnapshot picks the configuration to start with: the settings file
// if it exists, then the last snapshot applied to the store, then defaults.
// A settings file that cannot be read or decoded is logged and skipped; the
// watcher picks it up once it is fixed.
func InitialSnapshot(path string, st *store.Store, logger *zap.Logger) *config.Snapshot {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != "" {
		s, err := config.LoadFile(path)
		if err == nil {
			return s
		}
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("settings load error, using fallback", zap.String("path", path), zap.Error(err))
		}
	}
	if st != nil {
		s, err := st.Settings().LoadSnapshot()
		if err == nil {
			return s
		}
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn("stored configuration unusable, using defaults", zap.Error(err))
		}
	}
	return config.Default()
}

// Start opens the camera and launches the frame worker, the settings file
// watcher and the event recorder. Starting a running app is a no-op.
func (a *App) Start() error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if a.cancel != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("opening camera: %w", err)
	}
	a.camera.SetFPS(a.idleFPS)

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})
	a.recStop = make(chan struct{})

	go a.run(ctx, a.done)

	if a.watcher != nil {
		a.aux.Add(1)
		go func() {
			defer a.aux.Done()
			if err := a.watcher.Run(ctx); err != nil {
				a.logger.Warn("settings watcher stopped", zap.Error(err))
			}
		}()
	}
	if a.store != nil {
		a.aux.Add(1)
		go func(stop <-chan struct{}) {
			defer a.aux.Done()
			a.recordEvents(stop)
		}(a.recStop)
	}

	a.logger.Info("detection pipeline started")
	return nil
}

// Stop halts the worker, releases every pressed key and closes the camera.
func (a *App) Stop() {
	a.runMu.Lock()
	if a.cancel == nil {
		a.runMu.Unlock()
		return
	}

	a.cancel()
	<-a.done
	a.engine.Stop()

	close(a.recStop)
	a.aux.Wait()
	a.cancel = nil

	if err := a.camera.Close(); err != nil {
		a.logger.Warn("error closing camera", zap.Error(err))
	}
	a.activity.Close()
	a.preview.reset()
	a.runMu.Unlock()

	a.setStatus(StatusStopped)
	a.logger.Info("detection pipeline stopped")
}

// Close stops the app and releases the detector.
func (a *App) Close() error {
	a.Stop()
	if a.unsubStore != nil {
		a.unsubStore()
		a.unsubStore = nil
	}
	return a.detector.Close()
}

// Running reports whether the worker is running.
func (a *App) Running() bool {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	return a.cancel != nil
}

// SetEnabled enables or disables detection. Disabling releases every pressed
// key. The choice is persisted when a store is configured.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	was := a.enabled
	a.enabled = enabled
	if was && !enabled {
		a.engine.Stop()
	}
	a.mu.Unlock()

	if a.store != nil && was != enabled {
		if err := a.store.Settings().SetBool(store.KeyDetectionEnabled, enabled); err != nil {
			a.logger.Warn("failed to persist detection state", zap.Error(err))
		}
	}
	a.logger.Info("detection toggled", zap.Bool("enabled", enabled))
}

// IsEnabled returns whether detection is enabled.
func (a *App) IsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Engine returns the frame processor.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Stats returns the engine counters.
func (a *App) Stats() engine.Stats {
	return a.engine.Stats()
}

// Store returns the configured store, which may be nil.
func (a *App) Store() *store.Store {
	return a.store
}

// Config returns the active configuration snapshot.
func (a *App) Config() *config.Snapshot {
	return a.holder.Load()
}

// ApplyConfig publishes s as the active configuration and writes it to the
// settings file when one is configured.
func (a *App) ApplyConfig(s *config.Snapshot) error {
	if s == nil {
		return errors.New("nil configuration")
	}
	a.holder.Store(s)
	if a.watcher == nil {
		return nil
	}
	if err := config.SaveFile(a.watcher.Path(), s); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	return nil
}

// ReloadConfig re-reads the settings file. It reports whether the active
// configuration changed.
func (a *App) ReloadConfig() (bool, error) {
	if a.watcher == nil {
		return false, errors.New("no settings file configured")
	}
	return a.watcher.Reload()
}

// Status returns the latest status line.
func (a *App) Status() string {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return a.status
}

// SubscribeStatus registers fn for every status change. fn runs on the frame
// worker and must not block.
func (a *App) SubscribeStatus(fn func(string)) (cancel func()) {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()

	id := a.nextSub
	a.nextSub++
	a.statusSubs[id] = fn

	return func() {
		a.statusMu.Lock()
		defer a.statusMu.Unlock()
		delete(a.statusSubs, id)
	}
}

// setStatus publishes status when it differs from the previous one.
func (a *App) setStatus(status string) {
	a.statusMu.Lock()
	if status == a.status {
		a.statusMu.Unlock()
		return
	}
	a.status = status
	subs := make([]func(string), 0, len(a.statusSubs))
	for _, fn := range a.statusSubs {
		subs = append(subs, fn)
	}
	a.statusMu.Unlock()

	for _, fn := range subs {
		fn(status)
	}
}

// LatestFrame returns the most recent preview JPEG and its sequence number.
// Frames are only encoded while at least one watcher is registered.
func (a *App) LatestFrame() ([]byte, uint64) {
	return a.preview.latest()
}

// WatchFrames registers interest in preview frames until release is called.
func (a *App) WatchFrames() (release func()) {
	return a.preview.watch()
}

// queueEvent hands an emission to the recorder without blocking the worker.
func (a *App) queueEvent(em engine.Emission) {
	ev := store.Event{
		ID:         em.ID.String(),
		SessionID:  em.Session.String(),
		GestureKey: em.Key.String(),
		Kind:       em.Kind.String(),
		Action:     em.Action.String(),
		CreatedAt:  em.At,
	}
	if em.Err != nil {
		ev.Error = em.Err.Error()
	}

	select {
	case a.events <- ev:
	default:
		a.logger.Warn("event log full, dropping emission", zap.String("key", ev.GestureKey))
	}
}

// recordEvents writes queued emissions to the store until stop is closed,
// then drains what is left.
func (a *App) recordEvents(stop <-chan struct{}) {
	written := 0
	write := func(ev store.Event) {
		if err := a.store.Events().Create(&ev); err != nil {
			a.logger.Warn("failed to record action event", zap.Error(err))
			return
		}
		written++
		if written%pruneEvery == 0 {
			if _, err := a.store.Events().Prune(EventRetention); err != nil {
				a.logger.Warn("failed to prune action events", zap.Error(err))
			}
		}
	}

	for {
		select {
		case ev := <-a.events:
			write(ev)
		case <-stop:
			for {
				select {
				case ev := <-a.events:
					write(ev)
				default:
					return
				}
			}
		}
	}
}
