// Package infopanel drives the team summary panel: it cycles through the
// roster on a fixed interval and shows a pinned team for a while when one
// is selected.
package infopanel

import (
	"errors"
	"fmt"
	"time"

	"battle-board/internal/board"
	"battle-board/internal/schedule"
)

// ErrUnknownTeam is returned when pinning a team that is not on the roster
var ErrUnknownTeam = errors.New("unknown team")

// View is the panel content
type View struct {
	Name       string `json:"name"`
	Life       int    `json:"life"`
	Hearts     string `json:"hearts"`
	Affinity   string `json:"affinity"`
	Logo       string `json:"logo"`
	Eliminated bool   `json:"eliminated"`
	Active     bool   `json:"active"` // Panel highlighted by a pin
	Pinned     bool   `json:"pinned"`
	Empty      bool   `json:"empty"`
}

// Controller owns the panel state. All methods run on the scheduler goroutine.
type Controller struct {
	sched      schedule.Scheduler
	cycle      time.Duration
	pinTimeout time.Duration

	teams   []board.Team
	index   int
	shown   board.Team
	hasShow bool

	pinned bool
	pinGen uint64

	started bool
}

// NewController creates a panel controller
func NewController(s schedule.Scheduler, cycle, pinTimeout time.Duration) *Controller {
	return &Controller{
		sched:      s,
		cycle:      cycle,
		pinTimeout: pinTimeout,
	}
}

// Start begins auto-cycling. Calling it again does nothing.
func (c *Controller) Start() {
	if c.started {
		return
	}
	c.started = true
	c.sched.After(c.cycle, c.tick)
}

// tick advances the cycle unless a team is pinned; the interval keeps running
// either way.
func (c *Controller) tick() {
	if !c.pinned && len(c.teams) > 0 {
		c.index = (c.index + 1) % len(c.teams)
		c.show(c.teams[c.index])
	}
	c.sched.After(c.cycle, c.tick)
}

// SetTeams replaces the roster after a refresh
func (c *Controller) SetTeams(teams []board.Team) {
	c.teams = append(c.teams[:0:0], teams...)
	if len(c.teams) == 0 {
		c.index = 0
		if !c.pinned {
			c.hasShow = false
		}
		return
	}
	if c.index >= len(c.teams) {
		c.index = len(c.teams) - 1
	}
	if !c.pinned {
		c.show(c.teams[c.index])
	}
}

// Pin shows a team's summary and marks the panel active. The pin lapses after
// the pin timeout; a newer pin restarts the timeout.
func (c *Controller) Pin(name string) error {
	team, ok := c.find(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, name)
	}

	c.show(team)
	c.pinned = true
	c.pinGen++
	gen := c.pinGen
	c.sched.After(c.pinTimeout, func() {
		if c.pinGen == gen {
			c.pinned = false
		}
	})
	return nil
}

// Pinned reports whether a pin is in effect
func (c *Controller) Pinned() bool { return c.pinned }

// Index returns the position of the cycle counter
func (c *Controller) Index() int { return c.index }

// View returns the current panel content
func (c *Controller) View() View {
	if !c.hasShow {
		return View{Empty: true, Active: c.pinned, Pinned: c.pinned}
	}
	t := c.shown
	return View{
		Name:       t.Name,
		Life:       t.Life,
		Hearts:     t.LifeDisplay(),
		Affinity:   t.Affinity,
		Logo:       t.LogoOrDefault(),
		Eliminated: t.Eliminated(),
		Active:     c.pinned,
		Pinned:     c.pinned,
	}
}

func (c *Controller) show(t board.Team) {
	c.shown = t
	c.hasShow = true
}

func (c *Controller) find(name string) (board.Team, bool) {
	for _, t := range c.teams {
		if t.Name == name {
			return t, true
		}
	}
	return board.Team{}, false
}
