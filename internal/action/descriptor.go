package action

import (
	"fmt"
	"strings"
	"time"
)

// Defaults applied to descriptors when a field is missing or invalid.
const (
	DefaultRepeatHz = 8.0
	DefaultTapMs    = 40
	MinRepeatHz     = 1.0
	// MaxTapMs bounds how long a single tap may hold its action down.
	MaxTapMs = 10000
)

// Mode selects how an action follows its gesture.
type Mode int

const (
	// Hold keeps the action asserted while the gesture is active.
	Hold Mode = iota
	// Repeat fires short taps at a fixed rate while the gesture is active.
	Repeat
)

func (m Mode) String() string {
	if m == Repeat {
		return "repeat"
	}
	return "hold"
}

// ParseMode parses "hold" or "repeat".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hold":
		return Hold, nil
	case "repeat":
		return Repeat, nil
	}
	return Hold, fmt.Errorf("unknown mode %q", s)
}

// Descriptor binds an action to a gesture key.
// RepeatHz and TapMs only matter in Repeat mode but always carry valid values.
type Descriptor struct {
	Action   ID
	Mode     Mode
	RepeatHz float64
	TapMs    int
}

// NewDescriptor returns a Hold descriptor for id with default repeat settings.
func NewDescriptor(id ID) Descriptor {
	return Descriptor{
		Action:   id,
		Mode:     Hold,
		RepeatHz: DefaultRepeatHz,
		TapMs:    DefaultTapMs,
	}
}

// Period is the minimum spacing between repeat taps.
func (d Descriptor) Period() time.Duration {
	hz := max(MinRepeatHz, d.RepeatHz)
	return time.Duration(float64(time.Second) / hz)
}

// TapDuration is how long a repeat tap holds the action down.
func (d Descriptor) TapDuration() time.Duration {
	return tapDuration(d.TapMs)
}

func tapDuration(ms int) time.Duration {
	if ms <= 0 {
		ms = DefaultTapMs
	}
	return time.Duration(ms) * time.Millisecond
}
