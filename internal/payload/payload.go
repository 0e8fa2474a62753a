// Package payload builds the flat coordinate list sent to the game engine and
// encodes it in one of the supported wire formats.
package payload

import (
	"fmt"

	"github.com/ayusman/handcast/internal/detector"
	"github.com/ayusman/handcast/internal/gesture"
)

// ValuesPerLandmark is the number of coordinates emitted per landmark.
const ValuesPerLandmark = 3

// Payload is one frame's worth of data for the receiver.
type Payload struct {
	// Coords holds x, height-y, z for each landmark in order.
	Coords []int
	// Signal is the gesture signal appended in gesture mode; nil otherwise.
	Signal *gesture.Signal
}

// Coordinates flattens landmarks into x, height-y, z triples. The Y axis is
// flipped so that up is positive on the receiving side. Values outside the
// frame are passed through unclamped.
func Coordinates(lm []detector.Pixel, frameHeight int) []int {
	out := make([]int, 0, len(lm)*ValuesPerLandmark)
	for _, p := range lm {
		out = append(out, p.X, frameHeight-p.Y, p.Z)
	}
	return out
}

// New builds a payload without a gesture signal.
func New(lm []detector.Pixel, frameHeight int) Payload {
	return Payload{Coords: Coordinates(lm, frameHeight)}
}

// WithSignal builds a payload carrying a trailing gesture signal.
func WithSignal(lm []detector.Pixel, frameHeight int, s gesture.Signal) Payload {
	return Payload{Coords: Coordinates(lm, frameHeight), Signal: &s}
}

// Values returns the payload as the flat list seen by the receiver: the
// coordinates followed by the signal when present.
func (p Payload) Values() []int {
	out := make([]int, 0, len(p.Coords)+1)
	out = append(out, p.Coords...)
	if p.Signal != nil {
		out = append(out, int(*p.Signal))
	}
	return out
}

// Landmarks returns the number of landmarks encoded in the payload.
func (p Payload) Landmarks() int {
	return len(p.Coords) / ValuesPerLandmark
}

// Format encodes payloads for the wire.
type Format interface {
	Name() string
	Marshal(p Payload) ([]byte, error)
	Unmarshal(data []byte) (Payload, error)
}

// Format names accepted by FormatByName.
const (
	FormatList   = "list"
	FormatFramed = "framed"
)

// FormatByName returns the Format registered under name. withSignal tells
// formats that cannot mark the signal on the wire how to split the values
// when decoding.
func FormatByName(name string, withSignal bool) (Format, error) {
	switch name {
	case FormatList, "":
		return ListFormat{WithSignal: withSignal}, nil
	case FormatFramed:
		return FramedFormat{}, nil
	default:
		return nil, fmt.Errorf("unknown payload format %q", name)
	}
}

// splitValues separates a flat value list into coordinates and an optional
// trailing signal.
func splitValues(values []int, withSignal bool) (Payload, error) {
	if !withSignal {
		if len(values)%ValuesPerLandmark != 0 {
			return Payload{}, fmt.Errorf("%w: %d values is not a multiple of %d", ErrLength, len(values), ValuesPerLandmark)
		}
		return Payload{Coords: values}, nil
	}

	if len(values) == 0 || (len(values)-1)%ValuesPerLandmark != 0 {
		return Payload{}, fmt.Errorf("%w: %d values cannot hold coordinates plus a signal", ErrLength, len(values))
	}
	s := gesture.Signal(values[len(values)-1])
	return Payload{Coords: values[:len(values)-1], Signal: &s}, nil
}
