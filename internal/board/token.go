package board

import (
	"math"
	"time"

	"battle-board/internal/schedule"
)

// Rect is a screen rectangle relative to the board container
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the rectangle's center point
func (r Rect) Center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Distance returns the straight-line distance between two rect centers
func Distance(a, b Rect) float64 {
	ax, ay := a.Center()
	bx, by := b.Center()
	return math.Hypot(bx-ax, by-ay)
}

// Geometry is what the layout pass computes for one token
type Geometry struct {
	Rect      Rect    `json:"rect"`
	LogoSize  float64 `json:"logoSize"`
	TitleFont float64 `json:"titleFont"`
	LifeFont  float64 `json:"lifeFont"`
	Angle     float64 `json:"angle"` // Radians around the ellipse
}

// Flag is a token visual-state bit
type Flag uint8

const (
	FlagShaking Flag = 1 << iota
	FlagHealing
	FlagEliminated
)

// String returns the style name of the flag
func (f Flag) String() string {
	switch f {
	case FlagShaking:
		return "shaking"
	case FlagHealing:
		return "healing"
	case FlagEliminated:
		return "eliminated"
	default:
		return "idle"
	}
}

// transient flags are mutually exclusive
const transientFlags = FlagShaking | FlagHealing

// Token is the on-board representative of one team.
// Tokens are recreated wholesale on every roster refresh.
type Token struct {
	Team     Team
	Geometry Geometry

	flags Flag
	// pulse generation per transient flag; a clear only applies to its own pulse
	gen map[Flag]uint64
}

// NewToken creates a token for a team. Eliminated is set from the team's life.
func NewToken(team Team) *Token {
	t := &Token{
		Team: team,
		gen:  make(map[Flag]uint64, 2),
	}
	if team.Eliminated() {
		t.flags |= FlagEliminated
	}
	return t
}

// Name returns the team identifier
func (t *Token) Name() string { return t.Team.Name }

// Has reports whether flag is set
func (t *Token) Has(f Flag) bool { return t.flags&f != 0 }

// Flags returns the current flag set
func (t *Token) Flags() Flag { return t.flags }

// States returns the active flag names, or ["idle"] when none is set
func (t *Token) States() []string {
	var out []string
	for _, f := range []Flag{FlagShaking, FlagHealing, FlagEliminated} {
		if t.Has(f) {
			out = append(out, f.String())
		}
	}
	if len(out) == 0 {
		out = append(out, "idle")
	}
	return out
}

// raise sets a transient flag, dropping the other one
func (t *Token) raise(f Flag) uint64 {
	t.flags &^= transientFlags
	t.flags |= f
	for other := range t.gen {
		if other != f {
			t.gen[other]++ // pending clears of the dropped flag become stale
		}
	}
	t.gen[f]++
	return t.gen[f]
}

// clear drops a transient flag if gen is still its latest pulse
func (t *Token) clear(f Flag, gen uint64) {
	if t.gen[f] != gen {
		return
	}
	t.flags &^= f
}

// Pulse raises a transient flag (Shaking or Healing) on the token and clears
// it after d. A later pulse on the same token supersedes the pending clear.
func Pulse(s schedule.Scheduler, t *Token, f Flag, d time.Duration) {
	if t == nil || f&transientFlags == 0 {
		return
	}
	gen := t.raise(f)
	s.After(d, func() { t.clear(f, gen) })
}
