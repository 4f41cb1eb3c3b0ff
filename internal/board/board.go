// Package board holds the league board data model: teams, tokens with their
// visual-state flags, and log entries.
package board

// Board is the ordered token set for the current roster.
// All access happens on the scheduler goroutine.
type Board struct {
	teams  []Team
	tokens []*Token
	byName map[string]*Token
}

// New creates an empty board
func New() *Board {
	return &Board{byName: make(map[string]*Token)}
}

// Refresh replaces the roster. Every token is destroyed and recreated in
// roster order; records with empty names are dropped. Duplicate names keep
// the first record.
func (b *Board) Refresh(teams []Team) {
	teams = NormalizeTeams(teams)

	b.teams = b.teams[:0]
	b.tokens = make([]*Token, 0, len(teams))
	b.byName = make(map[string]*Token, len(teams))

	for _, t := range teams {
		if _, dup := b.byName[t.Name]; dup {
			continue
		}
		tok := NewToken(t)
		b.teams = append(b.teams, t)
		b.tokens = append(b.tokens, tok)
		b.byName[t.Name] = tok
	}
}

// Token returns the token for a team name, or nil
func (b *Board) Token(name string) *Token {
	return b.byName[name]
}

// Tokens returns the tokens in roster order. The slice is shared; do not modify.
func (b *Board) Tokens() []*Token {
	return b.tokens
}

// Teams returns a copy of the normalized roster
func (b *Board) Teams() []Team {
	out := make([]Team, len(b.teams))
	copy(out, b.teams)
	return out
}

// Len returns the number of tokens
func (b *Board) Len() int {
	return len(b.tokens)
}

// Targets returns the tokens whose affinity matches the game label, excluding
// the attacker, in roster order.
func (b *Board) Targets(attacker, game string) []*Token {
	var out []*Token
	for _, t := range b.tokens {
		if t.Name() == attacker {
			continue
		}
		if MatchesGame(t.Team.Affinity, game) {
			out = append(out, t)
		}
	}
	return out
}
