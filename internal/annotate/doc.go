// Package annotate turns prediction boxes into pixels and terminal cells.
//
// Boxes arrive as [x0, y0, x1, y1] in the natural pixel space of the captured
// image. Scale maps them into any display size, per axis, and is shared by the
// PNG renderers and the character Grid used by the TUI.
//
// DrawRenderer needs no cgo. GoCVRenderer needs OpenCV and the gocv build tag:
//
//	go build -tags gocv ./cmd/molar
package annotate
