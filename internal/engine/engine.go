// Package engine turns per-frame hand landmarks into input actions. It
// resolves each hand's side, classifies its pose, advances the gesture state
// machine for every key and dispatches the resulting intents to an emitter.
package engine

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// StatusNoHands is the status reported for a frame without hands.
const StatusNoHands = "No hands"

// Emitter performs the physical side of an intent.
type Emitter interface {
	Apply(id action.ID, press bool) error
	Tap(id action.ID, tapMs int) error
	Flush()
}

// Emission describes one intent handed to the emitter.
type Emission struct {
	ID      uuid.UUID
	Session uuid.UUID
	Key     gesture.Key
	Kind    gesture.IntentKind
	Action  action.ID
	At      time.Time
	Err     error
}

// Observer is notified of every emission. It runs on the frame worker and
// must not block.
type Observer func(Emission)

// Stats counts engine activity since creation.
type Stats struct {
	Frames       uint64 `json:"frames"`
	Intents      uint64 `json:"intents"`
	EmitFailures uint64 `json:"emit_failures"`
}

// Engine processes frames one at a time. Process and Stop may be called from
// different goroutines; they are serialized internally.
type Engine struct {
	holder  *config.Holder
	emitter Emitter
	logger  *zap.Logger
	session uuid.UUID

	mu      sync.Mutex
	machine *gesture.Machine

	obsMu     sync.RWMutex
	observers []Observer

	frames   atomic.Uint64
	intents  atomic.Uint64
	failures atomic.Uint64
}

// New creates an engine reading configuration from holder and emitting
// through emitter.
func New(holder *config.Holder, emitter Emitter, logger *zap.Logger) *Engine {
	if holder == nil {
		holder = config.NewHolder(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	session := uuid.New()
	return &Engine{
		holder:  holder,
		emitter: emitter,
		logger:  logger.Named("engine").With(zap.String("session", session.String())),
		session: session,
		machine: gesture.NewMachine(),
	}
}

// Session identifies this engine's runtime state. State never carries over
// between sessions.
func (e *Engine) Session() uuid.UUID {
	return e.session
}

// AddObserver registers fn for every subsequent emission.
func (e *Engine) AddObserver(fn Observer) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.observers = append(e.observers, fn)
}

// Process handles one frame and returns its status line, for example
// "Left: Pinch | Right: Idle".
//
// The configuration snapshot is loaded once and used for the whole frame.
// Keys of a side with no hand in the frame are released; with no hands at
// all every key is released. Hands with an unknown handedness are ignored.
func (e *Engine) Process(hands []detector.HandLandmarks, now time.Time) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.frames.Add(1)
	snap := e.holder.Load()

	valid := 0
	for i := range hands {
		if hands[i].Handedness.Valid() {
			valid++
		}
	}

	if valid == 0 {
		e.dispatch(e.machine.ReleaseAll(), now)
		return StatusNoHands
	}

	var (
		preds [2]gesture.Predicates
		seen  [2]bool
		tags  = make([]string, 0, valid)
	)
	for i := range hands {
		hand := &hands[i]
		side := hand.Handedness
		if !side.Valid() {
			e.logger.Debug("ignoring hand with unknown handedness", zap.Int("handedness", int(side)))
			continue
		}
		if snap.MirrorControls {
			side = side.Opposite()
		}

		p := gesture.Classify(hand, snap.Thresholds)
		preds[side] = preds[side].Or(p)
		seen[side] = true
		tags = append(tags, side.String()+": "+p.String())
	}

	for _, side := range []detector.Handedness{detector.Left, detector.Right} {
		if !seen[side] {
			e.dispatch(e.machine.ReleaseSide(side), now)
			continue
		}
		for _, f := range gesture.Families {
			k := gesture.KeyFor(side, f)
			if in, ok := e.machine.Advance(k, preds[side].Active(f), snap.Descriptor(k), now); ok {
				e.dispatch([]gesture.Intent{in}, now)
			}
		}
	}

	return strings.Join(tags, " | ")
}

// Stop releases every pressed key and completes pending tap releases. It is
// safe to call more than once and the engine may keep processing afterwards.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.dispatch(e.machine.ReleaseAll(), time.Now())
	if e.emitter != nil {
		e.emitter.Flush()
	}
}

// State returns the runtime state of k.
func (e *Engine) State(k gesture.Key) gesture.RuntimeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.machine.State(k)
}

// Stats returns the activity counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Frames:       e.frames.Load(),
		Intents:      e.intents.Load(),
		EmitFailures: e.failures.Load(),
	}
}

// dispatch hands intents to the emitter. The state machine has already
// committed each transition, so a failed emission is counted and logged but
// never retried.
func (e *Engine) dispatch(intents []gesture.Intent, now time.Time) {
	for _, in := range intents {
		e.intents.Add(1)
		if in.Action.IsNone() || e.emitter == nil {
			continue
		}

		var err error
		switch in.Kind {
		case gesture.Press:
			err = e.emitter.Apply(in.Action, true)
		case gesture.Release:
			err = e.emitter.Apply(in.Action, false)
		case gesture.Tap:
			err = e.emitter.Tap(in.Action, in.TapMs)
		}

		if err != nil {
			e.failures.Add(1)
			e.logger.Warn("emission failed", zap.Stringer("intent", in), zap.Error(err))
		} else {
			e.logger.Debug("emitted", zap.Stringer("intent", in))
		}

		e.notify(Emission{
			ID:      uuid.New(),
			Session: e.session,
			Key:     in.Key,
			Kind:    in.Kind,
			Action:  in.Action,
			At:      now,
			Err:     err,
		})
	}
}

func (e *Engine) notify(em Emission) {
	e.obsMu.RLock()
	defer e.obsMu.RUnlock()
	for _, fn := range e.observers {
		fn(em)
	}
}
