//go:build !gocv
// +build !gocv

package annotate

import "github.com/five82/molar/internal/dashboard"

// GoCVRenderer is unavailable without the gocv build tag.
type GoCVRenderer struct{}

// Render always fails in this build.
func (GoCVRenderer) Render([]byte, []dashboard.Prediction, int) ([]byte, error) {
	return nil, ErrGoCVDisabled
}
