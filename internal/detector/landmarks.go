// Package detector provides hand landmark types and the detectors that produce them.
package detector

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Connections lists the landmark pairs that form the hand skeleton.
var Connections = [][2]int{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{MiddleMCP, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{RingMCP, PinkyMCP}, {Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

// Handedness is the left/right designation reported for a tracked hand.
type Handedness int

const (
	Left Handedness = iota
	Right
)

// Valid reports whether h is Left or Right.
func (h Handedness) Valid() bool {
	return h == Left || h == Right
}

// Opposite returns the other hand.
func (h Handedness) Opposite() Handedness {
	if h == Left {
		return Right
	}
	return Left
}

func (h Handedness) String() string {
	if h == Left {
		return "Left"
	}
	return "Right"
}

// ParseHandedness parses a "Left"/"Right" label, ignoring case.
func ParseHandedness(s string) (Handedness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return Left, fmt.Errorf("unknown handedness %q", s)
}

// MarshalJSON encodes the handedness as its label.
func (h Handedness) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes a "Left"/"Right" label.
func (h *Handedness) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseHandedness(s)
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// Point3D is a normalized landmark position. X and Y are in image space
// ([0,1], Y grows downward); Z is depth relative to the wrist.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance2D returns the Euclidean distance between p and q in the image plane.
func (p Point3D) Distance2D(q Point3D) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// HandLandmarks is the set of 21 landmarks for one detected hand in one frame.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness Handedness            `json:"handedness"`
	Score      float64               `json:"score"`
}
