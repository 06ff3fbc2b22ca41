package action

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Backend performs physical input events.
type Backend interface {
	KeyDown(key string) error
	KeyUp(key string) error
	ButtonDown(b Button) error
	ButtonUp(b Button) error
}

// NopBackend discards every event. It is used when emission is disabled.
type NopBackend struct{}

func (NopBackend) KeyDown(string) error    { return nil }
func (NopBackend) KeyUp(string) error      { return nil }
func (NopBackend) ButtonDown(Button) error { return nil }
func (NopBackend) ButtonUp(Button) error   { return nil }

// Emitter turns IDs into backend calls.
//
// Taps press immediately and release from a timer, so the caller is never
// blocked for the tap duration. A pending release is completed before any
// further press or release of the same ID, which keeps events for one ID in
// press/release order.
//
// Holds are counted per ID. When several gestures share one action, the
// physical release is sent only after the last of them lets go, and a tap
// of an action that is already held sends nothing.
type Emitter struct {
	backend Backend
	logger  *zap.Logger

	mu      sync.Mutex
	pending map[ID]*time.Timer
	held    map[ID]int
}

// NewEmitter creates an Emitter on top of backend.
func NewEmitter(backend Backend, logger *zap.Logger) *Emitter {
	if backend == nil {
		backend = NopBackend{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{
		backend: backend,
		logger:  logger.Named("emitter"),
		pending: make(map[ID]*time.Timer),
		held:    make(map[ID]int),
	}
}

// Apply asserts (press) or releases the action. Failures are logged and
// returned for bookkeeping; they never leave the emitter in a bad state.
func (e *Emitter) Apply(id ID, press bool) error {
	if id.IsNone() {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if press {
		e.flushLocked(id)
		e.held[id]++
		if e.held[id] > 1 {
			return nil
		}
		return e.send(id, true)
	}

	switch n := e.held[id]; {
	case n > 1:
		e.held[id] = n - 1
		return nil
	case n == 1:
		delete(e.held, id)
	default:
		if e.flushLocked(id) {
			return nil
		}
	}
	return e.send(id, false)
}

// Tap presses the action and schedules its release after tapMs milliseconds.
func (e *Emitter) Tap(id ID, tapMs int) error {
	if id.IsNone() {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.held[id] > 0 {
		return nil
	}
	e.flushLocked(id)
	if err := e.send(id, true); err != nil {
		return err
	}

	var timer *time.Timer
	timer = time.AfterFunc(tapDuration(tapMs), func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.pending[id] != timer {
			return
		}
		delete(e.pending, id)
		e.send(id, false)
	})
	e.pending[id] = timer

	return nil
}

// Flush releases every action with a pending tap release.
func (e *Emitter) Flush() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id := range e.pending {
		e.flushLocked(id)
	}
}

// Held returns how many holds are outstanding for id.
func (e *Emitter) Held(id ID) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.held[id]
}

// Pending returns how many tap releases are scheduled.
func (e *Emitter) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// flushLocked completes a scheduled release for id. It reports whether one was pending.
func (e *Emitter) flushLocked(id ID) bool {
	timer, ok := e.pending[id]
	if !ok {
		return false
	}
	timer.Stop()
	delete(e.pending, id)
	e.send(id, false)
	return true
}

func (e *Emitter) send(id ID, press bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v", r)
		}
		if err != nil {
			e.logger.Warn("input emission failed",
				zap.String("action", id.String()),
				zap.Bool("press", press),
				zap.Error(err))
		}
	}()

	switch id.Kind {
	case KindButton:
		if press {
			return e.backend.ButtonDown(id.Button)
		}
		return e.backend.ButtonUp(id.Button)
	case KindKey:
		if press {
			return e.backend.KeyDown(id.Key)
		}
		return e.backend.KeyUp(id.Key)
	}
	return nil
}
