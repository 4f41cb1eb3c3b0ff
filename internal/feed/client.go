// Package feed fetches the team roster and match log from the league's JSON
// feeds and keeps them refreshed.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"battle-board/internal/board"
	"battle-board/internal/config"
)

// teamRecord matches one entry of the roster feed
type teamRecord struct {
	Name     string  `json:"팀명"`
	Hearts   flexInt `json:"하트"`
	Affinity string  `json:"회복에 필요한 게임"`
	Logo     string  `json:"로고"`
}

// logRecord matches one entry of the match log feed
type logRecord struct {
	Attacker string `json:"공격 팀"`
	Game     string `json:"게임"`
	Outcome  string `json:"공격 / 회복 판단"`
}

// flexInt accepts a JSON number, a numeric string, or null
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		data = []byte(s)
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		// Non-numeric values count as no hearts
		*f = 0
		return nil
	}
	*f = flexInt(math.Trunc(v))
	return nil
}

// Client reads the two league feeds
type Client struct {
	teamsURL string
	logsURL  string
	client   *http.Client
}

// NewClient creates a feed client
func NewClient(cfg config.FeedConfig) *Client {
	return &Client{
		teamsURL: cfg.TeamsURL,
		logsURL:  cfg.LogsURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FetchTeams downloads the roster. Records with an empty name are dropped.
func (c *Client) FetchTeams(ctx context.Context) ([]board.Team, error) {
	var records []teamRecord
	if err := c.getJSON(ctx, c.teamsURL, &records); err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}

	teams := make([]board.Team, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		teams = append(teams, board.Team{
			Name:     r.Name,
			Life:     int(r.Hearts),
			Affinity: r.Affinity,
			Logo:     r.Logo,
		})
	}
	return board.NormalizeTeams(teams), nil
}

// FetchLogs downloads the match log in feed order
func (c *Client) FetchLogs(ctx context.Context) ([]board.LogEntry, error) {
	var records []logRecord
	if err := c.getJSON(ctx, c.logsURL, &records); err != nil {
		return nil, fmt.Errorf("fetch logs: %w", err)
	}

	entries := make([]board.LogEntry, len(records))
	for i, r := range records {
		entries[i] = board.LogEntry{
			Attacker: r.Attacker,
			Game:     r.Game,
			Outcome:  r.Outcome,
		}
	}
	return entries, nil
}

// getJSON issues a GET and decodes the body into out
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("feed error %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// truncate cuts s to at most n bytes on a rune boundary
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
