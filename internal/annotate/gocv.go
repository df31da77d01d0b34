//go:build gocv
// +build gocv

package annotate

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/five82/molar/internal/dashboard"
)

// GoCVRenderer draws the overlay through OpenCV.
type GoCVRenderer struct{}

// Render mirrors DrawRenderer using OpenCV primitives.
func (GoCVRenderer) Render(img []byte, preds []dashboard.Prediction, width int) ([]byte, error) {
	if len(img) == 0 {
		return nil, ErrNoImage
	}
	mat, err := gocv.IMDecode(img, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer func() { _ = mat.Close() }()
	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	natural := Size{W: float64(mat.Cols()), H: float64(mat.Rows())}
	displayed := displaySize(natural, width)
	if displayed != natural {
		resized := gocv.NewMat()
		gocv.Resize(mat, &resized, image.Pt(int(displayed.W), int(displayed.H)), 0, 0, gocv.InterpolationArea)
		_ = mat.Close()
		mat = resized
	}

	overlay := mat.Clone()
	defer overlay.Close()

	type caption struct {
		text string
		at   image.Point
	}
	var captions []caption
	for _, p := range preds {
		r, ok := Scale(p.Box, natural, displayed)
		if !ok {
			continue
		}
		c := ColorFor(p.Class)
		left, top := int(r.Left), int(r.Top)
		gocv.Rectangle(&mat, image.Rect(left, top, int(r.Left+r.Width), int(r.Top+r.Height)), c, strokeWidth)
		gocv.Rectangle(&overlay, image.Rect(left, top, int(r.Left+r.Width), int(r.Top+r.Height)), c, strokeWidth)

		text := Label(p)
		size := gocv.GetTextSize(text, gocv.FontHersheySimplex, 0.45, 1)
		gocv.Rectangle(&overlay, image.Rect(left, top-labelHeight, left+size.X+2*labelPadX, top), c, -1)
		captions = append(captions, caption{text: text, at: image.Pt(left+labelPadX, top-labelBaseY)})
	}

	// Label backgrounds only differ in the overlay, so blending elsewhere is a no-op.
	gocv.AddWeighted(overlay, float64(labelAlpha)/255, mat, 1-float64(labelAlpha)/255, 0, &mat)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for _, c := range captions {
		gocv.PutText(&mat, c.text, c.at, gocv.FontHersheySimplex, 0.45, white, 1)
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	defer buf.Close()
	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
