package gesture

import (
	"math"
	"strings"

	"github.com/ayusman/mudra/internal/detector"
)

// Default classifier thresholds in normalized image units.
const (
	DefaultPinchDist   = 0.05
	DefaultTwoSplitMin = 0.02
)

// extendMargin absorbs landmark jitter when deciding whether a finger is extended.
const extendMargin = 0.01

// foldPairs pairs each non-thumb fingertip with its knuckle.
var foldPairs = [4][2]int{
	{detector.IndexTip, detector.IndexMCP},
	{detector.MiddleTip, detector.MiddleMCP},
	{detector.RingTip, detector.RingMCP},
	{detector.PinkyTip, detector.PinkyMCP},
}

// Thresholds tune the distance-based predicates.
type Thresholds struct {
	PinchDist   float64
	TwoSplitMin float64
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{PinchDist: DefaultPinchDist, TwoSplitMin: DefaultTwoSplitMin}
}

// IsPinch reports whether the thumb tip and index tip are closer than t.PinchDist.
func IsPinch(hand *detector.HandLandmarks, t Thresholds) bool {
	return hand.Points[detector.ThumbTip].Distance2D(hand.Points[detector.IndexTip]) < t.PinchDist
}

// IsFist reports whether all four fingertips are below their knuckles.
func IsFist(hand *detector.HandLandmarks) bool {
	for _, p := range foldPairs {
		if hand.Points[p[0]].Y <= hand.Points[p[1]].Y {
			return false
		}
	}
	return true
}

// FingerExtended reports whether the tip is clearly above the PIP joint.
func FingerExtended(hand *detector.HandLandmarks, tip, pip int) bool {
	return hand.Points[tip].Y+extendMargin < hand.Points[pip].Y
}

// IsTwoFingersSpread detects a "V" sign: index and middle extended and
// separated horizontally by more than t.TwoSplitMin, ring and pinky folded.
func IsTwoFingersSpread(hand *detector.HandLandmarks, t Thresholds) bool {
	indexExt := FingerExtended(hand, detector.IndexTip, detector.IndexPIP)
	middleExt := FingerExtended(hand, detector.MiddleTip, detector.MiddlePIP)
	ringFold := !FingerExtended(hand, detector.RingTip, detector.RingPIP)
	pinkyFold := !FingerExtended(hand, detector.PinkyTip, detector.PinkyPIP)
	split := math.Abs(hand.Points[detector.IndexTip].X-hand.Points[detector.MiddleTip].X) > t.TwoSplitMin

	return indexExt && middleExt && ringFold && pinkyFold && split
}

// Predicates holds the classifier output for one hand. Any combination may be true.
type Predicates [numFamilies]bool

// Classify evaluates every predicate for hand.
func Classify(hand *detector.HandLandmarks, t Thresholds) Predicates {
	var p Predicates
	p[Pinch] = IsPinch(hand, t)
	p[Fist] = IsFist(hand)
	p[Two] = IsTwoFingersSpread(hand, t)
	return p
}

// Active reports whether the family fired.
func (p Predicates) Active(f Family) bool {
	return p[f]
}

// Or merges two predicate sets.
func (p Predicates) Or(q Predicates) Predicates {
	for i := range p {
		p[i] = p[i] || q[i]
	}
	return p
}

// String lists the fired families ("Pinch,Fist") or "Idle".
func (p Predicates) String() string {
	var tags []string
	for _, f := range Families {
		if p[f] {
			tags = append(tags, f.String())
		}
	}
	if len(tags) == 0 {
		return "Idle"
	}
	return strings.Join(tags, ",")
}
