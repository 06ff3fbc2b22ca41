package capture

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
)

// DefaultJPEGQuality is used for preview frames.
const DefaultJPEGQuality = 80

var (
	landmarkColor = color.RGBA{R: 0, G: 220, B: 255, A: 0}
	boneColor     = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// Mirror flips frame horizontally in place.
func Mirror(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}
	gocv.Flip(*frame, frame, 1)
}

// DrawLandmarks draws each hand's skeleton and landmark points onto frame.
// Landmarks are in normalized image coordinates.
func DrawLandmarks(frame *gocv.Mat, hands []detector.HandLandmarks) {
	if frame == nil || frame.Empty() {
		return
	}
	w, h := frame.Cols(), frame.Rows()
	px := func(p detector.Point3D) image.Point {
		return image.Pt(int(p.X*float64(w)), int(p.Y*float64(h)))
	}

	for i := range hands {
		hand := &hands[i]
		for _, c := range detector.Connections {
			gocv.Line(frame, px(hand.Points[c[0]]), px(hand.Points[c[1]]), boneColor, 2)
		}
		for _, p := range hand.Points {
			gocv.Circle(frame, px(p), 4, landmarkColor, -1)
		}

		label := hand.Handedness.String()
		gocv.PutText(frame, label, px(hand.Points[detector.Wrist]).Add(image.Pt(-20, 25)),
			gocv.FontHersheySimplex, 0.6, landmarkColor, 2)
	}
}

// EncodeJPEG encodes frame as a JPEG of the given quality.
func EncodeJPEG(frame *gocv.Mat, quality int) ([]byte, error) {
	if frame == nil || frame.Empty() {
		return nil, ErrNoFrame
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *frame, []int{int(gocv.IMWriteJpegQuality), quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}
