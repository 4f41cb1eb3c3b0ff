package feed

import (
	"context"
	"log"
	"sync"
	"time"

	"battle-board/internal/board"
)

// Snapshot is one consistent read of both feeds
type Snapshot struct {
	Teams     []board.Team
	Logs      []board.LogEntry
	FetchedAt time.Time
}

// Source is what the poller reads from
type Source interface {
	FetchTeams(ctx context.Context) ([]board.Team, error)
	FetchLogs(ctx context.Context) ([]board.LogEntry, error)
}

// Poller refreshes both feeds on an interval and hands each successful
// snapshot to a callback. A failed refresh keeps the previous state.
type Poller struct {
	source   Source
	interval time.Duration
	onUpdate func(Snapshot)

	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	mu       sync.Mutex
	last     Snapshot
	failures int

	// OnError is called for every failed refresh (metrics)
	OnError func(err error)
}

// NewPoller creates a poller. An interval of zero fetches only once.
func NewPoller(source Source, interval time.Duration, onUpdate func(Snapshot)) *Poller {
	return &Poller{
		source:   source,
		interval: interval,
		onUpdate: onUpdate,
		quit:     make(chan struct{}),
	}
}

// Refresh fetches both feeds once
func (p *Poller) Refresh(ctx context.Context) error {
	teams, err := p.source.FetchTeams(ctx)
	if err != nil {
		return p.fail(err)
	}
	logs, err := p.source.FetchLogs(ctx)
	if err != nil {
		return p.fail(err)
	}

	snap := Snapshot{Teams: teams, Logs: logs, FetchedAt: time.Now()}
	p.mu.Lock()
	p.last = snap
	p.failures = 0
	p.mu.Unlock()

	log.Printf("📥 Feed refreshed: %d teams, %d log entries", len(teams), len(logs))
	if p.onUpdate != nil {
		p.onUpdate(snap)
	}
	return nil
}

func (p *Poller) fail(err error) error {
	p.mu.Lock()
	p.failures++
	p.mu.Unlock()

	log.Printf("⚠️ Feed refresh failed: %v", err)
	if p.OnError != nil {
		p.OnError(err)
	}
	return err
}

// Last returns the most recent successful snapshot
func (p *Poller) Last() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Failures returns the number of consecutive failed refreshes
func (p *Poller) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

// Start runs the first refresh immediately and then one per interval
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
	log.Printf("📡 Feed poller started (interval %v)", p.interval)
}

// Stop halts polling and waits for an in-flight refresh to finish
func (p *Poller) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
	log.Println("📡 Feed poller stopped")
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	p.Refresh(ctx)
	if p.interval <= 0 {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}
