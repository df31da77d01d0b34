package ui

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"

	"github.com/five82/molar/internal/annotate"
	"github.com/five82/molar/internal/dashboard"
)

// preview holds a decoded capture for half-block rendering.
type preview struct {
	img     image.Image
	natural annotate.Size
	err     error
}

// newPreview decodes capture bytes. Empty input yields an empty preview.
func newPreview(data []byte) preview {
	if len(data) == 0 {
		return preview{}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return preview{err: fmt.Errorf("decode preview: %w", err)}
	}
	b := img.Bounds()
	return preview{
		img:     img,
		natural: annotate.Size{W: float64(b.Dx()), H: float64(b.Dy())},
	}
}

// Ready reports whether the natural size is known.
func (p preview) Ready() bool {
	return p.img != nil && p.natural.Valid()
}

// previewSize fits the image into maxCols x maxRows terminal cells. Each cell
// shows two stacked pixels, so rows are half the scaled pixel height.
func previewSize(natural annotate.Size, maxCols, maxRows int) (cols, rows int) {
	if !natural.Valid() || maxCols <= 0 || maxRows <= 0 {
		return 0, 0
	}
	cols = maxCols
	rows = int(math.Floor(float64(cols)*natural.H/natural.W/2 + 0.5))
	if rows > maxRows {
		rows = maxRows
		cols = int(math.Floor(float64(rows)*2*natural.W/natural.H + 0.5))
	}
	return max(cols, 1), max(rows, 1)
}

// Render draws the preview with prediction outlines on top. preds may be nil.
func (p preview) Render(styles Styles, preds []dashboard.Prediction, maxCols, maxRows int) string {
	cols, rows := previewSize(p.natural, maxCols, maxRows)
	if p.img == nil || cols == 0 {
		return ""
	}

	scaled := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), p.img, p.img.Bounds(), draw.Src, nil)

	grid, _ := annotate.NewGrid(preds, p.natural, cols, rows)

	var b strings.Builder
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := hexColor(scaled.RGBAAt(x, y*2))
			cell := grid.At(x, y)
			if cell.Box {
				b.WriteString(lipgloss.NewStyle().
					Foreground(styles.ClassColor(cell.Kind)).
					Background(top).
					Bold(true).
					Render(string(cell.Rune)))
				continue
			}
			bottom := hexColor(scaled.RGBAAt(x, y*2+1))
			b.WriteString(lipgloss.NewStyle().
				Foreground(top).
				Background(bottom).
				Render("▀"))
		}
		if y < rows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
