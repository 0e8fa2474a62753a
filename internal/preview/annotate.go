// Package preview draws detected hands onto frames, shows them in a window,
// and fans the latest annotated frame and payload out to HTTP clients.
package preview

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/handcast/internal/detector"
)

var (
	pointColor = color.RGBA{R: 255, G: 0, B: 255, A: 0}
	lineColor  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
	boxColor   = color.RGBA{R: 255, G: 0, B: 255, A: 0}
)

const boxPadding = 20

// Annotate draws each hand's landmarks, skeleton, bounding box and
// handedness label onto frame in place.
func Annotate(frame *gocv.Mat, hands []detector.HandLandmarks) {
	if frame == nil || frame.Empty() {
		return
	}
	width, height := frame.Cols(), frame.Rows()

	for i := range hands {
		px := hands[i].Pixels(width, height)

		for _, c := range detector.Connections {
			gocv.Line(frame, point(px[c[0]]), point(px[c[1]]), lineColor, 2)
		}
		for _, p := range px {
			gocv.Circle(frame, point(p), 5, pointColor, -1)
		}

		box := hands[i].BoundingBox(width, height).Inset(-boxPadding)
		gocv.Rectangle(frame, box, boxColor, 2)

		label := hands[i].Handedness
		if label == "" {
			label = fmt.Sprintf("hand %d", i)
		}
		gocv.PutText(frame, label, image.Pt(box.Min.X, box.Min.Y-10), gocv.FontHersheyPlain, 2, boxColor, 2)
	}
}

func point(p detector.Pixel) image.Point {
	return image.Pt(p.X, p.Y)
}

// EncodeJPEG returns frame as JPEG bytes.
func EncodeJPEG(frame gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close; copy out first.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
