package layout

import (
	"log"
	"sync"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// Measurer reports the rendered width of a label at a font size (pixels)
type Measurer interface {
	Measure(text string, size float64) float64
}

// FixedMeasurer assumes every rune advances by Advance × size.
// Deterministic; used by tests and when no font is available.
type FixedMeasurer struct {
	Advance float64 // Em fraction per rune (0.6 when zero)
}

// Measure implements Measurer
func (m FixedMeasurer) Measure(text string, size float64) float64 {
	adv := m.Advance
	if adv == 0 {
		adv = 0.6
	}
	return float64(utf8.RuneCountInString(text)) * adv * size
}

// FontMeasurer measures with the same faces the renderer draws with. With a
// font file it keeps one face per FaceSize; otherwise every size measures as
// the built-in 7x13 face, which is what gets drawn.
type FontMeasurer struct {
	mu       sync.Mutex
	fontPath string
	font     *opentype.Font
	faces    map[float64]font.Face
	dc       *gg.Context
}

// NewFontMeasurer creates a measurer. An empty or unloadable path falls back
// to basicfont.
func NewFontMeasurer(fontPath string) *FontMeasurer {
	m := &FontMeasurer{
		faces: make(map[float64]font.Face),
		dc:    gg.NewContext(1, 1),
	}
	if fontPath != "" {
		f, err := LoadFont(fontPath)
		if err != nil {
			log.Printf("⚠️ Font %s unavailable, using basic face: %v", fontPath, err)
		} else {
			m.font = f
			m.fontPath = fontPath
		}
	}
	return m
}

// Measure implements Measurer
func (m *FontMeasurer) Measure(text string, size float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dc.SetFontFace(m.face(size))
	w, _ := m.dc.MeasureString(text)
	return w
}

func (m *FontMeasurer) face(size float64) font.Face {
	if m.font == nil {
		return basicfont.Face7x13
	}
	key := FaceSize(size)
	if f, ok := m.faces[key]; ok {
		return f
	}
	f, err := NewFace(m.font, key)
	if err != nil {
		return basicfont.Face7x13
	}
	m.faces[key] = f
	return f
}

// FontPath returns the font file in use, or "" for the basic face
func (m *FontMeasurer) FontPath() string {
	return m.fontPath
}
