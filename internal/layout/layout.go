// Package layout arranges team tokens on an ellipse around the log box and
// sizes them relative to the board container.
package layout

import (
	"math"

	"battle-board/internal/board"
)

// Sizing constants, fractions of the container unless noted
const (
	RingMargin    = 60.0 // px added to both ellipse radii
	RadiusXFactor = 0.35 // of container width
	RadiusXRef    = 1.2  // of reference width
	RadiusYFactor = 0.25 // of container height
	RadiusYRef    = 1.0  // of reference height

	BaseHeightFactor = 0.08  // token height per container height
	MaxBaseHeight    = 100.0 // px
	LogoFactor       = 0.9   // logo edge per token height
	TitleFontFactor  = 0.25
	MinTitleFont     = 10.0
	LifeFontFactor   = 0.15
	MinLifeFont      = 9.0
	InfoPadding      = 8.0 // px between logo and labels
	MaxTokenWidth    = 0.3 // of container width

	LogBoxHeight   = 0.4  // of container height
	LogBoxMaxWidth = 0.25 // of container width
	LogBoxAspect   = 2.0  // width per height before capping
)

// Engine computes token geometry. It holds no per-call state, so repeated
// calls with equal inputs produce equal geometry.
type Engine struct {
	measure Measurer
}

// NewEngine creates a layout engine. A nil measurer uses FixedMeasurer.
func NewEngine(m Measurer) *Engine {
	if m == nil {
		m = FixedMeasurer{}
	}
	return &Engine{measure: m}
}

// LogBox sizes the reference box for a container and centers it.
// The returned rect is relative to the container.
func LogBox(container board.Rect) board.Rect {
	h := container.H * LogBoxHeight
	w := math.Min(h*LogBoxAspect, container.W*LogBoxMaxWidth)
	return board.Rect{
		X: (container.W - w) / 2,
		Y: (container.H - h) / 2,
		W: w,
		H: h,
	}
}

// Radii returns the ellipse radii for a reference box inside a container
func Radii(ref, container board.Rect) (rx, ry float64) {
	rx = math.Min(container.W*RadiusXFactor, ref.W*RadiusXRef) + RingMargin
	ry = math.Min(container.H*RadiusYFactor, ref.H*RadiusYRef) + RingMargin
	return rx, ry
}

// Layout places every token evenly around the ellipse centered on ref and
// writes each token's Geometry. Coordinates are relative to the container.
func (e *Engine) Layout(tokens []*board.Token, ref, container board.Rect) {
	n := len(tokens)
	if n == 0 {
		return
	}

	cx, cy := ref.Center()
	rx, ry := Radii(ref, container)

	baseH := math.Min(container.H*BaseHeightFactor, MaxBaseHeight)
	logo := baseH * LogoFactor
	titleFont := math.Max(baseH*TitleFontFactor, MinTitleFont)
	lifeFont := math.Max(baseH*LifeFontFactor, MinLifeFont)
	step := 2 * math.Pi / float64(n)

	for i, tok := range tokens {
		infoW := math.Max(
			e.measure.Measure(tok.Team.Name, titleFont),
			e.measure.Measure(tok.Team.LifeDisplay(), lifeFont),
		)
		w := math.Min(logo+infoW+InfoPadding, container.W*MaxTokenWidth)

		angle := step * float64(i)
		tok.Geometry = board.Geometry{
			Rect: board.Rect{
				X: cx + rx*math.Cos(angle) - w/2,
				Y: cy + ry*math.Sin(angle) - baseH/2,
				W: w,
				H: baseH,
			},
			LogoSize:  logo,
			TitleFont: titleFont,
			LifeFont:  lifeFont,
			Angle:     angle,
		}
	}
}
