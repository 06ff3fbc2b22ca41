package gesture

import (
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/detector"
)

// IntentKind is the physical effect an Intent asks for.
type IntentKind int

const (
	Press IntentKind = iota + 1
	Release
	Tap
)

func (k IntentKind) String() string {
	switch k {
	case Press:
		return "press"
	case Release:
		return "release"
	case Tap:
		return "tap"
	}
	return "unknown"
}

// Intent is an emission requested by the state machine.
type Intent struct {
	Key    Key
	Kind   IntentKind
	Action action.ID
	TapMs  int
}

func (in Intent) String() string {
	return fmt.Sprintf("%s %s %s", in.Key, in.Kind, in.Action)
}

// RuntimeState is the tracked state of one gesture key.
type RuntimeState struct {
	Pressed  bool
	LastFire time.Time
	// Mode is the mode the current press was started under.
	Mode action.Mode
	// Held is the action asserted by a Hold press, released on exit.
	Held action.ID
}

// Machine owns the runtime state of every gesture key. It is not safe for
// concurrent use; a single frame worker drives it.
type Machine struct {
	states [NumKeys]RuntimeState
}

// NewMachine returns a machine with every key released.
func NewMachine() *Machine {
	return &Machine{}
}

// State returns a copy of the state of k.
func (m *Machine) State(k Key) RuntimeState {
	return m.states[k]
}

// Advance feeds the current activity of k and returns the intent to emit, if any.
//
// Hold mode presses on activation and releases on deactivation. Repeat mode
// taps whenever a full period has elapsed since the last tap and forgets the
// last tap time once the gesture ends. A mode change while pressed resets the
// key, releasing a held action first.
func (m *Machine) Advance(k Key, active bool, d action.Descriptor, now time.Time) (Intent, bool) {
	s := &m.states[k]

	if s.Pressed && s.Mode != d.Mode {
		if in, ok := m.release(k); ok {
			s.Mode = d.Mode
			return in, true
		}
	}
	s.Mode = d.Mode

	switch d.Mode {
	case action.Repeat:
		if !active {
			s.Pressed = false
			s.LastFire = time.Time{}
			return Intent{}, false
		}
		s.Pressed = true
		if !s.LastFire.IsZero() && now.Sub(s.LastFire) < d.Period() {
			return Intent{}, false
		}
		s.LastFire = now
		return Intent{Key: k, Kind: Tap, Action: d.Action, TapMs: d.TapMs}, true

	default:
		if active && !s.Pressed {
			s.Pressed = true
			s.Held = d.Action
			return Intent{Key: k, Kind: Press, Action: d.Action}, true
		}
		if !active && s.Pressed {
			return m.release(k)
		}
		return Intent{}, false
	}
}

// ReleaseSide clears every key of one hand side, returning release intents
// for actions that were held.
func (m *Machine) ReleaseSide(side detector.Handedness) []Intent {
	var out []Intent
	for _, f := range Families {
		if in, ok := m.release(KeyFor(side, f)); ok {
			out = append(out, in)
		}
	}
	return out
}

// ReleaseAll clears every key, returning release intents for held actions.
func (m *Machine) ReleaseAll() []Intent {
	var out []Intent
	for k := Key(0); k < NumKeys; k++ {
		if in, ok := m.release(k); ok {
			out = append(out, in)
		}
	}
	return out
}

// release resets k. Only a held Hold-mode press yields an intent; repeat taps
// release themselves.
func (m *Machine) release(k Key) (Intent, bool) {
	s := &m.states[k]
	prev := *s
	*s = RuntimeState{Mode: prev.Mode}

	if prev.Pressed && prev.Mode == action.Hold {
		return Intent{Key: k, Kind: Release, Action: prev.Held}, true
	}
	return Intent{}, false
}
