// Package gesture derives finger states and the open/closed hand signal from landmarks.
package gesture

import (
	"github.com/ayusman/handcast/internal/detector"
)

// Signal summarizes a hand pose for the receiver.
type Signal int

const (
	// SignalUnknown is sent for any pose that is neither fully open nor fully closed.
	SignalUnknown Signal = -1
	// SignalOpen is sent when all five fingers are extended.
	SignalOpen Signal = 0
	// SignalClosed is sent when all five fingers are curled.
	SignalClosed Signal = 1
)

// NumFingers is the length of a finger-state vector.
const NumFingers = 5

// String returns a short label for the signal.
func (s Signal) String() string {
	switch s {
	case SignalOpen:
		return "open"
	case SignalClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// FromFingers maps a finger-state vector (thumb, index, middle, ring, pinky;
// non-zero means extended) to a Signal. Vectors that are not exactly five
// long map to SignalUnknown.
func FromFingers(fingers []int) Signal {
	if len(fingers) != NumFingers {
		return SignalUnknown
	}

	up := 0
	for _, f := range fingers {
		if f != 0 {
			up++
		}
	}

	switch up {
	case 0:
		return SignalClosed
	case NumFingers:
		return SignalOpen
	default:
		return SignalUnknown
	}
}

var fingerTips = [NumFingers]int{
	detector.ThumbTip,
	detector.IndexTip,
	detector.MiddleTip,
	detector.RingTip,
	detector.PinkyTip,
}

// FingersUp returns the finger-state vector for a hand in image coordinates.
//
// The thumb counts as extended when its tip lies outside the IP joint along X
// (right of it for a right hand, left of it for a left hand). The other
// fingers count as extended when the tip is above the PIP joint, two
// landmarks below it. Landmark lists shorter than a full hand yield nil.
func FingersUp(handedness string, lm []detector.Pixel) []int {
	if len(lm) < detector.NumLandmarks {
		return nil
	}

	fingers := make([]int, NumFingers)

	thumbTip, thumbIP := lm[detector.ThumbTip], lm[detector.ThumbIP]
	if handedness == detector.HandRight {
		if thumbTip.X > thumbIP.X {
			fingers[0] = 1
		}
	} else if thumbTip.X < thumbIP.X {
		fingers[0] = 1
	}

	for i := 1; i < NumFingers; i++ {
		tip := fingerTips[i]
		if lm[tip].Y < lm[tip-2].Y {
			fingers[i] = 1
		}
	}

	return fingers
}

// Classify computes the signal for a detected hand in a frame of the given size.
func Classify(hand *detector.HandLandmarks, width, height int) Signal {
	if hand == nil {
		return SignalUnknown
	}
	return FromFingers(FingersUp(hand.Handedness, hand.Pixels(width, height)))
}
