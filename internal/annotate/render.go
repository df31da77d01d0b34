package annotate

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"github.com/five82/molar/internal/dashboard"
)

const (
	strokeWidth = 3
	labelHeight = 20
	labelPadX   = 4
	labelBaseY  = 5
	labelAlpha  = 204 // 80%
)

var (
	// ErrNoImage is returned when there are no bytes to draw on.
	ErrNoImage = errors.New("no image data")
	// ErrGoCVDisabled is returned by GoCVRenderer in builds without the gocv tag.
	ErrGoCVDisabled = errors.New("gocv build tag is not enabled")
)

// Renderer draws predictions over an image and returns PNG bytes.
type Renderer interface {
	Render(img []byte, preds []dashboard.Prediction, width int) ([]byte, error)
}

// NewRenderer picks a renderer by preference name. Unknown names get DrawRenderer.
func NewRenderer(name string) Renderer {
	if strings.EqualFold(strings.TrimSpace(name), "gocv") {
		return GoCVRenderer{}
	}
	return DrawRenderer{}
}

// NaturalSize reads the pixel dimensions of an encoded image without decoding it fully.
func NaturalSize(img []byte) (Size, error) {
	if len(img) == 0 {
		return Size{}, ErrNoImage
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return Size{}, fmt.Errorf("decode image config: %w", err)
	}
	return Size{W: float64(cfg.Width), H: float64(cfg.Height)}, nil
}

// DrawRenderer uses golang.org/x/image and needs no cgo.
type DrawRenderer struct{}

// Render scales the image to width (zero keeps the natural width) and strokes each box.
func (DrawRenderer) Render(img []byte, preds []dashboard.Prediction, width int) ([]byte, error) {
	if len(img) == 0 {
		return nil, ErrNoImage
	}
	src, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := src.Bounds()
	natural := Size{W: float64(bounds.Dx()), H: float64(bounds.Dy())}
	displayed := displaySize(natural, width)

	dst := image.NewRGBA(image.Rect(0, 0, int(displayed.W), int(displayed.H)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	for _, p := range preds {
		r, ok := Scale(p.Box, natural, displayed)
		if !ok {
			continue
		}
		c := ColorFor(p.Class)
		strokeRect(dst, r, c)
		drawLabel(dst, r, Label(p), c)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

func displaySize(natural Size, width int) Size {
	if width <= 0 || float64(width) == natural.W {
		return natural
	}
	ratio := float64(width) / natural.W
	h := natural.H * ratio
	if h < 1 {
		h = 1
	}
	return Size{W: float64(width), H: float64(int(h + 0.5))}
}

func strokeRect(dst draw.Image, r Rect, c color.RGBA) {
	x0, y0 := int(r.Left), int(r.Top)
	x1, y1 := int(r.Left+r.Width), int(r.Top+r.Height)
	fill := image.NewUniform(c)
	half := strokeWidth / 2
	edges := []image.Rectangle{
		image.Rect(x0-half, y0-half, x1+half+1, y0+half+1),
		image.Rect(x0-half, y1-half, x1+half+1, y1+half+1),
		image.Rect(x0-half, y0-half, x0+half+1, y1+half+1),
		image.Rect(x1-half, y0-half, x1+half+1, y1+half+1),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), fill, image.Point{}, draw.Over)
	}
}

func drawLabel(dst draw.Image, r Rect, text string, c color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.White, Face: face}
	tw := d.MeasureString(text).Ceil()

	left, top := int(r.Left), int(r.Top)
	bg := color.NRGBA{R: c.R, G: c.G, B: c.B, A: labelAlpha}
	box := image.Rect(left, top-labelHeight, left+tw+2*labelPadX, top)
	draw.Draw(dst, box.Intersect(dst.Bounds()), image.NewUniform(bg), image.Point{}, draw.Over)

	d.Dot = fixed.Point26_6{X: fixed.I(left + labelPadX), Y: fixed.I(top - labelBaseY)}
	d.DrawString(text)
}
