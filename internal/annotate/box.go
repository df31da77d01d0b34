package annotate

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/five82/molar/internal/dashboard"
)

// Size is a width and height in pixels (or cells for Grid).
type Size struct {
	W, H float64
}

// Valid reports whether both sides are positive.
func (s Size) Valid() bool {
	return s.W > 0 && s.H > 0
}

// Rect is a box in display space.
type Rect struct {
	Left, Top, Width, Height float64
}

// Scale maps a [x0, y0, x1, y1] box from natural image space into display
// space. It returns false when either size is unknown or the box is malformed.
func Scale(box []float64, natural, displayed Size) (Rect, bool) {
	if len(box) != 4 || !natural.Valid() || !displayed.Valid() {
		return Rect{}, false
	}
	sx := displayed.W / natural.W
	sy := displayed.H / natural.H
	x0, y0, x1, y1 := box[0], box[1], box[2], box[3]
	return Rect{
		Left:   x0 * sx,
		Top:    y0 * sy,
		Width:  (x1 - x0) * sx,
		Height: (y1 - y0) * sy,
	}, true
}

// Kind groups prediction classes for colouring.
type Kind int

const (
	KindOther Kind = iota
	KindHealthy
	KindPlaque
)

// KindOf matches on substrings so "healthy tooth" still counts as healthy.
func KindOf(class string) Kind {
	switch {
	case strings.Contains(class, "healthy"):
		return KindHealthy
	case strings.Contains(class, "plaque"):
		return KindPlaque
	default:
		return KindOther
	}
}

var (
	green  = color.RGBA{R: 0, G: 128, B: 0, A: 255}
	orange = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	red    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// ColorFor returns the stroke colour for a class.
func ColorFor(class string) color.RGBA {
	switch KindOf(class) {
	case KindHealthy:
		return green
	case KindPlaque:
		return orange
	default:
		return red
	}
}

// Percent rounds a [0,1] confidence to a whole percent, halves rounding up.
func Percent(confidence float64) int {
	return int(math.Floor(confidence*100 + 0.5))
}

// Label is the caption drawn above a box.
func Label(p dashboard.Prediction) string {
	return fmt.Sprintf("%s (%d%%)", p.Class, Percent(p.Confidence))
}
