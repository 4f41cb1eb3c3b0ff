// Package render draws board snapshots to images with gg.
package render

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"math"
	"sync"

	"battle-board/internal/battle"
	"battle-board/internal/board"
	"battle-board/internal/layout"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// LogoSource returns a decoded logo, or nil while it is not yet available
type LogoSource interface {
	GetOrFetch(url string) image.Image
}

// Drawing constants
const (
	ShakeAmplitude = 4.0  // px
	ShakeHz        = 12.0 // oscillations per second
	HeartRadius    = 0.35 // of the life font size
	ProjectileSize = 6.0  // px
	ExplosionSize  = 28.0 // px, ring radius when fully expanded
	LogLineSpacing = 1.5  // of the log font size
	LogFontSize    = 14.0
	PanelWidth     = 220.0
	PanelHeight    = 96.0
)

var (
	colorBackground  = color.RGBA{12, 12, 28, 255}
	colorLogBox      = color.RGBA{24, 26, 44, 230}
	colorLogBorder   = color.RGBA{70, 80, 130, 255}
	colorText        = color.RGBA{235, 235, 245, 255}
	colorHealText    = color.RGBA{110, 230, 140, 255}
	colorAttackText  = color.RGBA{255, 150, 110, 255}
	colorToken       = color.RGBA{36, 40, 66, 255}
	colorPlaceholder = color.RGBA{90, 96, 130, 255}
	colorHeart       = color.RGBA{230, 40, 60, 255}
	colorHeartEmpty  = color.RGBA{20, 20, 20, 255}
	colorHealGlow    = color.RGBA{80, 255, 140, 90}
	colorShakeEdge   = color.RGBA{255, 90, 60, 255}
	colorGreyout     = color.RGBA{110, 110, 110, 170}
	colorProjectile  = color.RGBA{255, 200, 60, 255}
	colorExplosion   = color.RGBA{255, 120, 40, 255}
	colorPanel       = color.RGBA{30, 34, 58, 235}
	colorPanelPin    = color.RGBA{255, 200, 60, 255}
)

// Renderer draws snapshots. Safe for concurrent use; draws are serialized
// because font faces keep glyph caches.
type Renderer struct {
	mu    sync.Mutex
	font  *opentype.Font // nil when only the basic face is available
	faces map[float64]font.Face
	logos LogoSource
}

// NewRenderer creates a renderer. An empty or unreadable font path falls back
// to basicfont; a nil logo source draws placeholders.
func NewRenderer(fontPath string, logos LogoSource) *Renderer {
	r := &Renderer{
		faces: make(map[float64]font.Face),
		logos: logos,
	}
	r.loadFont(fontPath)
	return r
}

func (r *Renderer) loadFont(fontPath string) {
	if fontPath == "" {
		log.Println("⚠️ No font configured, board text uses the basic face")
		return
	}

	parsed, err := layout.LoadFont(fontPath)
	if err != nil {
		log.Printf("⚠️ Failed to load font: %v", err)
		return
	}

	r.font = parsed
	log.Printf("✅ Board font loaded from: %s", fontPath)
}

// face returns a cached face for a point size, built exactly as the layout
// measured it
func (r *Renderer) face(size float64) font.Face {
	if r.font == nil {
		return basicfont.Face7x13
	}
	size = layout.FaceSize(size)
	if f, ok := r.faces[size]; ok {
		return f
	}
	f, err := layout.NewFace(r.font, size)
	if err != nil {
		log.Printf("⚠️ Failed to create %.0fpt font face: %v", size, err)
		return basicfont.Face7x13
	}
	r.faces[size] = f
	return f
}

// Render draws a snapshot at its viewport size
func (r *Renderer) Render(snap *battle.Snapshot) image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := max(1, int(math.Ceil(snap.Viewport.W)))
	h := max(1, int(math.Ceil(snap.Viewport.H)))
	dc := gg.NewContext(w, h)

	r.drawBackground(dc)
	r.drawLogBox(dc, snap)
	for _, t := range snap.Tokens {
		r.drawToken(dc, t, snap)
	}
	r.drawFlights(dc, snap.Flights)
	r.drawPanel(dc, snap)

	return dc.Image()
}

// EncodePNG renders a snapshot and writes it as PNG
func (r *Renderer) EncodePNG(w io.Writer, snap *battle.Snapshot) error {
	return png.Encode(w, r.Render(snap))
}

func (r *Renderer) drawBackground(dc *gg.Context) {
	dc.SetColor(colorBackground)
	dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
	dc.Fill()
}

// drawLogBox draws the centered log box, most recent entry at the top
func (r *Renderer) drawLogBox(dc *gg.Context, snap *battle.Snapshot) {
	box := snap.LogBox
	dc.SetColor(colorLogBox)
	dc.DrawRoundedRectangle(box.X, box.Y, box.W, box.H, 10)
	dc.Fill()
	dc.SetColor(colorLogBorder)
	dc.SetLineWidth(2)
	dc.DrawRoundedRectangle(box.X, box.Y, box.W, box.H, 10)
	dc.Stroke()

	dc.SetFontFace(r.face(LogFontSize + 4))
	dc.SetColor(colorText)
	dc.DrawStringAnchored("LOGS", box.X+box.W/2, box.Y+LogFontSize+4, 0.5, 0.5)

	dc.SetFontFace(r.face(LogFontSize))
	lineH := LogFontSize * LogLineSpacing
	y := box.Y + 2*(LogFontSize+4)
	for _, line := range snap.Logs {
		if y+lineH > box.Y+box.H {
			break
		}
		if line.Kind == "heal" {
			dc.SetColor(colorHealText)
		} else {
			dc.SetColor(colorAttackText)
		}
		dc.DrawStringAnchored(clip(dc, line.Text, box.W-16), box.X+8, y, 0, 0.5)
		y += lineH
	}
}

func (r *Renderer) drawToken(dc *gg.Context, t battle.TokenView, snap *battle.Snapshot) {
	rect := t.Rect
	if t.Shaking {
		rect.X += ShakeAmplitude * math.Sin(2*math.Pi*ShakeHz*snap.At.Seconds())
	}

	if t.Healing {
		dc.SetColor(colorHealGlow)
		dc.DrawRoundedRectangle(rect.X-6, rect.Y-6, rect.W+12, rect.H+12, 12)
		dc.Fill()
	}

	dc.SetColor(colorToken)
	dc.DrawRoundedRectangle(rect.X, rect.Y, rect.W, rect.H, 8)
	dc.Fill()
	if t.Shaking {
		dc.SetColor(colorShakeEdge)
		dc.SetLineWidth(2)
		dc.DrawRoundedRectangle(rect.X, rect.Y, rect.W, rect.H, 8)
		dc.Stroke()
	}

	// Logo, vertically centered on the left edge
	lx := rect.X + (rect.H-t.LogoSize)/2
	ly := rect.Y + (rect.H-t.LogoSize)/2
	r.drawLogo(dc, t.Logo, lx, ly, t.LogoSize)

	// Name and hearts to the right of the logo
	tx := lx + t.LogoSize + 8
	dc.SetFontFace(r.face(t.TitleFont))
	dc.SetColor(colorText)
	dc.DrawStringAnchored(t.Name, tx, rect.Y+rect.H*0.35, 0, 0.5)
	drawHearts(dc, t.Life, tx, rect.Y+rect.H*0.72, t.LifeFont)

	if t.Eliminated {
		dc.SetColor(colorGreyout)
		dc.DrawRoundedRectangle(rect.X, rect.Y, rect.W, rect.H, 8)
		dc.Fill()
	}
}

func (r *Renderer) drawLogo(dc *gg.Context, url string, x, y, size float64) {
	var img image.Image
	if r.logos != nil {
		img = r.logos.GetOrFetch(url)
	}
	if img == nil {
		dc.SetColor(colorPlaceholder)
		dc.DrawRoundedRectangle(x, y, size, size, 6)
		dc.Fill()
		return
	}

	b := img.Bounds()
	scale := size / float64(max(b.Dx(), b.Dy(), 1))
	dc.Push()
	dc.Translate(x, y)
	dc.Scale(scale, scale)
	dc.DrawImage(img, 0, 0)
	dc.Pop()
}

// drawHearts draws life as filled and empty dots from the left
func drawHearts(dc *gg.Context, life int, x, y, size float64) {
	radius := size * HeartRadius
	for i := 0; i < board.MaxLife; i++ {
		if i < life {
			dc.SetColor(colorHeart)
		} else {
			dc.SetColor(colorHeartEmpty)
		}
		dc.DrawCircle(x+radius+float64(i)*radius*2.6, y, radius)
		dc.Fill()
	}
}

func (r *Renderer) drawFlights(dc *gg.Context, flights []battle.FlightView) {
	for _, f := range flights {
		if f.Exploding {
			dc.SetColor(colorExplosion)
			dc.SetLineWidth(3)
			dc.DrawCircle(f.To.X, f.To.Y, ExplosionSize)
			dc.Stroke()
			continue
		}

		glow := colorProjectile
		glow.A = 100
		dc.SetColor(glow)
		dc.DrawCircle(f.Position.X, f.Position.Y, ProjectileSize*1.8)
		dc.Fill()

		dc.SetColor(colorProjectile)
		dc.DrawCircle(f.Position.X, f.Position.Y, ProjectileSize)
		dc.Fill()
	}
}

// drawPanel draws the info panel in the top-left corner
func (r *Renderer) drawPanel(dc *gg.Context, snap *battle.Snapshot) {
	p := snap.Panel
	if p.Empty {
		return
	}

	x, y := 16.0, 16.0
	dc.SetColor(colorPanel)
	dc.DrawRoundedRectangle(x, y, PanelWidth, PanelHeight, 10)
	dc.Fill()
	if p.Active {
		dc.SetColor(colorPanelPin)
		dc.SetLineWidth(3)
		dc.DrawRoundedRectangle(x, y, PanelWidth, PanelHeight, 10)
		dc.Stroke()
	}

	logo := PanelHeight - 24
	r.drawLogo(dc, p.Logo, x+12, y+12, logo)

	tx := x + logo + 24
	dc.SetFontFace(r.face(18))
	dc.SetColor(colorText)
	dc.DrawStringAnchored(clip(dc, p.Name, PanelWidth-logo-32), tx, y+24, 0, 0.5)
	dc.SetFontFace(r.face(13))
	dc.DrawStringAnchored(clip(dc, p.Affinity, PanelWidth-logo-32), tx, y+48, 0, 0.5)
	drawHearts(dc, p.Life, tx, y+72, 14)
}

// clip shortens s with an ellipsis until it fits width
func clip(dc *gg.Context, s string, width float64) string {
	if w, _ := dc.MeasureString(s); w <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		out := string(runes) + "..."
		if w, _ := dc.MeasureString(out); w <= width {
			return out
		}
	}
	return ""
}
