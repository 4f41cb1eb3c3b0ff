package board

import (
	"strings"
)

// MaxLife is the heart cap per team
const MaxLife = 7

// DefaultLogo is used when a team has no logo reference
const DefaultLogo = "https://via.placeholder.com/80"

// Life display glyphs
const (
	heartFull  = "❤️"
	heartEmpty = "🖤"
)

// Team is one roster record as delivered by the feed
type Team struct {
	Name     string `json:"name"`
	Life     int    `json:"life"`
	Affinity string `json:"affinity"` // Recovery-game label used for event matching
	Logo     string `json:"logo"`
}

// Eliminated reports whether the team has no hearts left
func (t Team) Eliminated() bool {
	return t.Life <= 0
}

// LifeDisplay renders red hearts for remaining life and black hearts for the rest
func (t Team) LifeDisplay() string {
	life := clampLife(t.Life)
	return strings.Repeat(heartFull, life) + strings.Repeat(heartEmpty, MaxLife-life)
}

// LogoOrDefault returns the logo reference, falling back to DefaultLogo
func (t Team) LogoOrDefault() string {
	if strings.TrimSpace(t.Logo) == "" {
		return DefaultLogo
	}
	return t.Logo
}

// NormalizeTeams drops records with an empty name and clamps life to [0, MaxLife].
// Order is preserved.
func NormalizeTeams(teams []Team) []Team {
	out := make([]Team, 0, len(teams))
	for _, t := range teams {
		if strings.TrimSpace(t.Name) == "" {
			continue
		}
		t.Life = clampLife(t.Life)
		t.Logo = t.LogoOrDefault()
		out = append(out, t)
	}
	return out
}

func clampLife(life int) int {
	if life < 0 {
		return 0
	}
	if life > MaxLife {
		return MaxLife
	}
	return life
}
