package battle

import (
	"time"

	"battle-board/internal/animation"
	"battle-board/internal/board"
	"battle-board/internal/infopanel"
)

// TokenView is an immutable copy of one token for rendering
type TokenView struct {
	Name       string     `json:"name"`
	Life       int        `json:"life"`
	Hearts     string     `json:"hearts"`
	Affinity   string     `json:"affinity"`
	Logo       string     `json:"logo"`
	Rect       board.Rect `json:"rect"`
	LogoSize   float64    `json:"logoSize"`
	TitleFont  float64    `json:"titleFont"`
	LifeFont   float64    `json:"lifeFont"`
	Angle      float64    `json:"angle"`
	States     []string   `json:"states"`
	Shaking    bool       `json:"shaking"`
	Healing    bool       `json:"healing"`
	Eliminated bool       `json:"eliminated"`
}

// LogLine is one log entry as shown in the log box
type LogLine struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Kind     string `json:"kind"`
	Attacker string `json:"attacker"`
	Game     string `json:"game"`
}

// FlightView is a projectile in flight or exploding
type FlightView struct {
	ID        uint64          `json:"id"`
	Position  animation.Point `json:"position"`
	To        animation.Point `json:"to"`
	Progress  float64         `json:"progress"`
	Exploding bool            `json:"exploding"`
}

// Snapshot is an immutable copy of the board, produced on the loop goroutine
// and read lock-free by the HTTP and rendering side.
type Snapshot struct {
	Sequence uint64         `json:"sequence"`
	At       time.Duration  `json:"at"` // Scheduler time
	Viewport board.Rect     `json:"viewport"`
	LogBox   board.Rect     `json:"logBox"`
	Tokens   []TokenView    `json:"tokens"`
	Logs     []LogLine      `json:"logs"` // Most recent first
	Flights  []FlightView   `json:"flights"`
	Panel    infopanel.View `json:"panel"`
	Session  string         `json:"session"`
}

// Token finds a token view by team name
func (s *Snapshot) Token(name string) (TokenView, bool) {
	for _, t := range s.Tokens {
		if t.Name == name {
			return t, true
		}
	}
	return TokenView{}, false
}

func tokenView(t *board.Token) TokenView {
	g := t.Geometry
	return TokenView{
		Name:       t.Team.Name,
		Life:       t.Team.Life,
		Hearts:     t.Team.LifeDisplay(),
		Affinity:   t.Team.Affinity,
		Logo:       t.Team.LogoOrDefault(),
		Rect:       g.Rect,
		LogoSize:   g.LogoSize,
		TitleFont:  g.TitleFont,
		LifeFont:   g.LifeFont,
		Angle:      g.Angle,
		States:     t.States(),
		Shaking:    t.Has(board.FlagShaking),
		Healing:    t.Has(board.FlagHealing),
		Eliminated: t.Has(board.FlagEliminated),
	}
}

func logLine(e board.LogEntry) LogLine {
	return LogLine{
		ID:       e.ID,
		Text:     e.Text(),
		Kind:     e.Kind(),
		Attacker: e.Attacker,
		Game:     e.Game,
	}
}

func flightView(f animation.Flight) FlightView {
	return FlightView{
		ID:        f.ID,
		Position:  f.Position,
		To:        f.To,
		Progress:  f.Progress,
		Exploding: f.Exploding,
	}
}
