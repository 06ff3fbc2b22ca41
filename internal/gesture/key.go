// Package gesture classifies hand landmarks into gesture predicates and tracks
// the per-gesture press state that drives input actions.
package gesture

import "github.com/ayusman/mudra/internal/detector"

// Family is a gesture shape independent of the hand performing it.
type Family int

const (
	Pinch Family = iota
	Fist
	Two
	numFamilies
)

// Families lists every gesture family in evaluation order.
var Families = [numFamilies]Family{Pinch, Fist, Two}

func (f Family) String() string {
	switch f {
	case Pinch:
		return "Pinch"
	case Fist:
		return "Fist"
	default:
		return "Two"
	}
}

// Key identifies one of the six gesture slots (hand side x family).
type Key int

const (
	LeftPinch Key = iota
	RightPinch
	LeftFist
	RightFist
	LeftTwo
	RightTwo
	NumKeys
)

var keyNames = [NumKeys]string{
	"left_pinch",
	"right_pinch",
	"left_fist",
	"right_fist",
	"left_two",
	"right_two",
}

func (k Key) String() string {
	if k < 0 || k >= NumKeys {
		return "unknown"
	}
	return keyNames[k]
}

// ParseKey resolves a persisted gesture key name.
func ParseKey(name string) (Key, bool) {
	for k, n := range keyNames {
		if n == name {
			return Key(k), true
		}
	}
	return 0, false
}

// KeyFor returns the key for a hand side and gesture family.
func KeyFor(side detector.Handedness, f Family) Key {
	return Key(int(f)*2 + int(side))
}

// Side returns the hand side of the key.
func (k Key) Side() detector.Handedness {
	return detector.Handedness(int(k) % 2)
}

// Family returns the gesture family of the key.
func (k Key) Family() Family {
	return Family(int(k) / 2)
}
