package board

import (
	"fmt"
	"strings"
)

// HealMarker classifies an outcome descriptor as a heal.
// The feed vocabulary is external, so classification stays a plain substring test.
const HealMarker = "회복"

// LogEntry is one match event from the log feed
type LogEntry struct {
	ID       string `json:"id"` // Assigned by the replay engine, stable per refresh
	Attacker string `json:"attacker"`
	Game     string `json:"game"`
	Outcome  string `json:"outcome"`
}

// IsHeal reports whether the outcome contains the heal marker
func (e LogEntry) IsHeal() bool {
	return strings.Contains(e.Outcome, HealMarker)
}

// Kind returns "heal" or "attack"
func (e LogEntry) Kind() string {
	if e.IsHeal() {
		return "heal"
	}
	return "attack"
}

// Text renders the log line shown on the board
func (e LogEntry) Text() string {
	return fmt.Sprintf("%s 팀이 (%s)%s", e.Attacker, e.Game, e.Outcome)
}

// MatchesGame reports whether a token affinity accepts an event game label.
// Comparison is trimmed, case-insensitive and directional: affinity contains label.
func MatchesGame(affinity, label string) bool {
	a := strings.ToLower(strings.TrimSpace(affinity))
	l := strings.ToLower(strings.TrimSpace(label))
	return strings.Contains(a, l)
}
