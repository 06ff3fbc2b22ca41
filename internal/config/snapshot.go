// Package config holds the engine configuration snapshot: thresholds,
// mirroring flags and the action bound to every gesture key. Snapshots are
// immutable once published and are swapped whole through a Holder.
package config

import (
	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/gesture"
)

// Snapshot is one complete engine configuration.
type Snapshot struct {
	MirrorView     bool
	MirrorControls bool
	DebugDraw      bool
	Thresholds     gesture.Thresholds
	Assignments    [gesture.NumKeys]action.Descriptor

	// Warnings lists fields that were ignored or replaced by defaults while decoding.
	Warnings []string
}

// Default returns the stock configuration.
func Default() *Snapshot {
	s := &Snapshot{
		DebugDraw:  true,
		Thresholds: gesture.DefaultThresholds(),
	}

	s.Assignments[gesture.LeftPinch] = action.NewDescriptor(action.KeyID("w"))
	s.Assignments[gesture.RightPinch] = action.NewDescriptor(action.KeyID("s"))
	s.Assignments[gesture.LeftFist] = action.NewDescriptor(action.KeyID("d"))
	s.Assignments[gesture.RightFist] = action.NewDescriptor(action.KeyID("a"))

	two := action.Descriptor{
		Action:   action.None,
		Mode:     action.Repeat,
		RepeatHz: 5,
		TapMs:    action.DefaultTapMs,
	}
	s.Assignments[gesture.LeftTwo] = two
	s.Assignments[gesture.RightTwo] = two

	return s
}

// Descriptor returns the action bound to k.
func (s *Snapshot) Descriptor(k gesture.Key) action.Descriptor {
	return s.Assignments[k]
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	c.Warnings = append([]string(nil), s.Warnings...)
	return &c
}

// Equal reports whether a and b configure the engine identically. Warnings
// are not compared.
func Equal(a, b *Snapshot) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.MirrorView == b.MirrorView &&
		a.MirrorControls == b.MirrorControls &&
		a.DebugDraw == b.DebugDraw &&
		a.Thresholds == b.Thresholds &&
		a.Assignments == b.Assignments
}
