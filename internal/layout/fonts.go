package layout

import (
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// FaceSize is the point size a face is actually built at. Measurement and
// drawing both go through it so labels never outgrow their tokens.
func FaceSize(size float64) float64 {
	s := math.Round(size)
	if s < 1 {
		s = 1
	}
	return s
}

// LoadFont reads and parses a TrueType or OpenType file
func LoadFont(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return opentype.Parse(data)
}

// NewFace builds a face for f at FaceSize(size)
func NewFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    FaceSize(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
