// Package detector provides hand detection interfaces and landmark types.
package detector

import "image"

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

// Handedness labels reported by detectors.
const (
	HandLeft  = "Left"
	HandRight = "Right"
)

// Connections lists the landmark pairs that form the hand skeleton.
var Connections = [][2]int{
	{Wrist, ThumbCMC}, {ThumbCMC, ThumbMCP}, {ThumbMCP, ThumbIP}, {ThumbIP, ThumbTip},
	{Wrist, IndexMCP}, {IndexMCP, IndexPIP}, {IndexPIP, IndexDIP}, {IndexDIP, IndexTip},
	{IndexMCP, MiddleMCP}, {MiddleMCP, MiddlePIP}, {MiddlePIP, MiddleDIP}, {MiddleDIP, MiddleTip},
	{MiddleMCP, RingMCP}, {RingMCP, RingPIP}, {RingPIP, RingDIP}, {RingDIP, RingTip},
	{RingMCP, PinkyMCP}, {Wrist, PinkyMCP}, {PinkyMCP, PinkyPIP}, {PinkyPIP, PinkyDIP}, {PinkyDIP, PinkyTip},
}

// Point3D represents a landmark in normalized image coordinates.
// X and Y are in [0, 1] relative to frame width and height; Z is depth
// relative to the wrist on roughly the same scale as X.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Pixel is a landmark in image coordinates.
type Pixel struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Pixels converts the normalized points into image coordinates for a frame of
// the given size. Values are truncated toward zero and Z is scaled by width.
func (h *HandLandmarks) Pixels(width, height int) []Pixel {
	if h == nil {
		return nil
	}

	out := make([]Pixel, NumLandmarks)
	for i, p := range h.Points {
		out[i] = Pixel{
			X: int(p.X * float64(width)),
			Y: int(p.Y * float64(height)),
			Z: int(p.Z * float64(width)),
		}
	}
	return out
}

// BoundingBox returns the smallest rectangle containing all landmarks of the
// hand, in image coordinates.
func (h *HandLandmarks) BoundingBox(width, height int) image.Rectangle {
	pixels := h.Pixels(width, height)
	if len(pixels) == 0 {
		return image.Rectangle{}
	}

	box := image.Rect(pixels[0].X, pixels[0].Y, pixels[0].X, pixels[0].Y)
	for _, p := range pixels[1:] {
		box.Min.X = min(box.Min.X, p.X)
		box.Min.Y = min(box.Min.Y, p.Y)
		box.Max.X = max(box.Max.X, p.X)
		box.Max.Y = max(box.Max.Y, p.Y)
	}
	return box
}
