package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"battle-board/internal/board"
	"battle-board/internal/config"
)

const teamsJSON = `[
	{"팀명": "Red", "하트": 3, "회복에 필요한 게임": "Chess", "로고": "https://example.com/red.png"},
	{"팀명": "  ", "하트": 5, "회복에 필요한 게임": "Go", "로고": ""},
	{"팀명": "Blue", "하트": "9", "회복에 필요한 게임": "Speed Race"},
	{"팀명": "Green", "하트": null, "회복에 필요한 게임": "Tetris"},
	{"팀명": "Gray", "하트": "many"}
]`

const logsJSON = `[
	{"공격 팀": "Red", "게임": "Race", "공격 / 회복 판단": " 공격 성공"},
	{"공격 팀": "Blue", "게임": "Chess", "공격 / 회복 판단": " 회복"}
]`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/data.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(teamsJSON))
	})
	mux.HandleFunc("/logs.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(logsJSON))
	})
	mux.HandleFunc("/broken.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testFeedConfig(base string) config.FeedConfig {
	return config.FeedConfig{
		TeamsURL: base + "/data.json",
		LogsURL:  base + "/logs.json",
		Timeout:  2 * time.Second,
	}
}

// TestFetchTeams verifies key mapping, filtering and life parsing
func TestFetchTeams(t *testing.T) {
	srv := newFeedServer(t)
	c := NewClient(testFeedConfig(srv.URL))

	teams, err := c.FetchTeams(context.Background())
	if err != nil {
		t.Fatalf("FetchTeams: %v", err)
	}

	tests := []struct {
		name     string
		life     int
		affinity string
		logo     string
	}{
		{"Red", 3, "Chess", "https://example.com/red.png"},
		{"Blue", board.MaxLife, "Speed Race", board.DefaultLogo},
		{"Green", 0, "Tetris", board.DefaultLogo},
		{"Gray", 0, "", board.DefaultLogo},
	}
	if len(teams) != len(tests) {
		t.Fatalf("got %d teams, want %d: %+v", len(teams), len(tests), teams)
	}
	for i, tt := range tests {
		got := teams[i]
		if got.Name != tt.name || got.Life != tt.life || got.Affinity != tt.affinity || got.Logo != tt.logo {
			t.Errorf("team %d = %+v, want %+v", i, got, tt)
		}
	}
}

// TestFetchLogs verifies log records keep feed order
func TestFetchLogs(t *testing.T) {
	srv := newFeedServer(t)
	c := NewClient(testFeedConfig(srv.URL))

	logs, err := c.FetchLogs(context.Background())
	if err != nil {
		t.Fatalf("FetchLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if logs[0].Attacker != "Red" || logs[0].IsHeal() {
		t.Errorf("first log = %+v", logs[0])
	}
	if !logs[1].IsHeal() {
		t.Errorf("second log should be a heal: %+v", logs[1])
	}
	if got := logs[0].Text(); got != "Red 팀이 (Race) 공격 성공" {
		t.Errorf("text = %q", got)
	}
}

// TestFetchErrors verifies status and decode failures are returned wrapped
func TestFetchErrors(t *testing.T) {
	srv := newFeedServer(t)
	cfg := testFeedConfig(srv.URL)
	cfg.TeamsURL = srv.URL + "/broken.json"

	c := NewClient(cfg)
	if _, err := c.FetchTeams(context.Background()); err == nil {
		t.Error("expected an error for a 404 feed")
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"}`))
	}))
	defer bad.Close()

	c = NewClient(config.FeedConfig{TeamsURL: bad.URL, LogsURL: bad.URL, Timeout: time.Second})
	_, err := c.FetchLogs(context.Background())
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		t.Errorf("expected a wrapped decode error, got %v", err)
	}
}

// TestFlexInt verifies numeric leniency
func TestFlexInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{`3`, 3},
		{`"4"`, 4},
		{`" 5 "`, 5},
		{`2.9`, 2},
		{`null`, 0},
		{`""`, 0},
		{`"x"`, 0},
	}
	for _, tt := range tests {
		var f flexInt
		if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		if int(f) != tt.want {
			t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, f, tt.want)
		}
	}
}

// stubSource serves canned results
type stubSource struct {
	mu    sync.Mutex
	teams []board.Team
	err   error
	calls int
}

func (s *stubSource) FetchTeams(ctx context.Context) ([]board.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.teams, s.err
}

func (s *stubSource) FetchLogs(ctx context.Context) ([]board.LogEntry, error) {
	return []board.LogEntry{{Attacker: "Red", Game: "Chess", Outcome: "공격"}}, nil
}

// TestPollerKeepsLastOnFailure verifies a failed refresh leaves the snapshot alone
func TestPollerKeepsLastOnFailure(t *testing.T) {
	src := &stubSource{teams: []board.Team{{Name: "Red", Life: 3}}}
	var updates []Snapshot
	p := NewPoller(src, 0, func(s Snapshot) { updates = append(updates, s) })

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	src.err = errors.New("network down")
	var errs int
	p.OnError = func(error) { errs++ }
	if err := p.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}

	if len(updates) != 1 {
		t.Errorf("updates = %d, want 1", len(updates))
	}
	if last := p.Last(); len(last.Teams) != 1 || last.Teams[0].Name != "Red" {
		t.Errorf("last snapshot lost: %+v", last)
	}
	if p.Failures() != 1 || errs != 1 {
		t.Errorf("failures = %d errs = %d", p.Failures(), errs)
	}
}

// TestPollerStartStop verifies the loop refreshes on its interval and stops cleanly
func TestPollerStartStop(t *testing.T) {
	src := &stubSource{teams: []board.Team{{Name: "Red", Life: 3}}}
	got := make(chan Snapshot, 16)
	p := NewPoller(src, 10*time.Millisecond, func(s Snapshot) {
		select {
		case got <- s:
		default:
		}
	})

	p.Start(context.Background())
	for i := 0; i < 2; i++ {
		select {
		case <-got:
		case <-time.After(2 * time.Second):
			t.Fatalf("refresh %d never arrived", i)
		}
	}
	p.Stop()
	p.Stop() // idempotent
}

func TestTruncateKeepsRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc..."},
		{"팀명하트", 4, "팀..."}, // 3-byte runes: cut falls inside the second
		{"팀명", 2, "..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}
