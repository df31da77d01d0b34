package annotate

import (
	"math"

	"github.com/five82/molar/internal/dashboard"
)

// Cell is one character of a Grid.
type Cell struct {
	Rune rune
	Kind Kind
	Box  bool // part of a box outline
}

// Grid is a character raster of prediction boxes for terminal previews.
type Grid struct {
	Cols, Rows int
	Cells      []Cell
}

// NewGrid rasterises preds onto a cols x rows grid. Boxes are scaled from the
// natural image size to the grid size exactly as they would be for pixels.
// The top edge of each box carries as much of its label as fits.
func NewGrid(preds []dashboard.Prediction, natural Size, cols, rows int) (Grid, bool) {
	if cols <= 0 || rows <= 0 || !natural.Valid() {
		return Grid{}, false
	}
	g := Grid{Cols: cols, Rows: rows, Cells: make([]Cell, cols*rows)}
	for i := range g.Cells {
		g.Cells[i].Rune = ' '
	}
	displayed := Size{W: float64(cols), H: float64(rows)}
	for _, p := range preds {
		r, ok := Scale(p.Box, natural, displayed)
		if !ok {
			continue
		}
		g.outline(r, KindOf(p.Class), Label(p))
	}
	return g, true
}

// At returns the cell at column x, row y.
func (g Grid) At(x, y int) Cell {
	if x < 0 || y < 0 || x >= g.Cols || y >= g.Rows {
		return Cell{Rune: ' '}
	}
	return g.Cells[y*g.Cols+x]
}

// Lines returns the grid as plain strings.
func (g Grid) Lines() []string {
	lines := make([]string, g.Rows)
	for y := 0; y < g.Rows; y++ {
		row := make([]rune, g.Cols)
		for x := 0; x < g.Cols; x++ {
			row[x] = g.At(x, y).Rune
		}
		lines[y] = string(row)
	}
	return lines
}

func (g *Grid) set(x, y int, r rune, kind Kind) {
	if x < 0 || y < 0 || x >= g.Cols || y >= g.Rows {
		return
	}
	g.Cells[y*g.Cols+x] = Cell{Rune: r, Kind: kind, Box: true}
}

func (g *Grid) outline(r Rect, kind Kind, label string) {
	left, top := r.Left, r.Top
	right, bottom := r.Left+r.Width, r.Top+r.Height
	if right <= 0 || bottom <= 0 || left >= float64(g.Cols) || top >= float64(g.Rows) {
		return
	}

	// Edges past the grid stay one cell outside so they are never drawn.
	x0 := int(math.Floor(math.Max(left, -1)))
	y0 := int(math.Floor(math.Max(top, -1)))
	x1 := int(math.Ceil(math.Min(right, float64(g.Cols+1)))) - 1
	y1 := int(math.Ceil(math.Min(bottom, float64(g.Rows+1)))) - 1
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}

	for x := x0 + 1; x < x1; x++ {
		g.set(x, y0, '─', kind)
		g.set(x, y1, '─', kind)
	}
	for y := y0 + 1; y < y1; y++ {
		g.set(x0, y, '│', kind)
		g.set(x1, y, '│', kind)
	}
	g.set(x0, y0, '┌', kind)
	g.set(x1, y0, '┐', kind)
	g.set(x0, y1, '└', kind)
	g.set(x1, y1, '┘', kind)

	// Label sits inside the top edge, between the corners.
	x := x0 + 1
	for _, ch := range label {
		if x >= x1 {
			break
		}
		g.set(x, y0, ch, kind)
		x++
	}
}
