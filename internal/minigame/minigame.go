// Package minigame holds the catalog of playable minigames, the
// played-this-session bookkeeping and the pluggable selection strategies.
package minigame

import (
	"errors"
	"fmt"
	"time"

	"github.com/playperu/animaparty/internal/party"
)

var (
	ErrEmptyCatalog    = errors.New("minigame catalog is empty")
	ErrDuplicateName   = errors.New("duplicate minigame name")
	ErrNoCompatible    = errors.New("no minigame supports this player count")
	ErrUnknownMinigame = errors.New("unknown minigame")
)

// Input is polled once per tick for each eligible player.
type Input interface {
	Pressed(playerID int) bool
}

// Instance is one running minigame. It must call the completion callback
// handed to its constructor exactly once, and never after Abort.
type Instance interface {
	Start()
	Tick(dt time.Duration) error
	Abort()
	Phase() string
}

// PlayerState is one player's standing inside a running minigame.
type PlayerState struct {
	ID           int    `json:"id"`
	Active       bool   `json:"active"`
	Pressed      bool   `json:"pressed"`
	EliminatedIn int    `json:"eliminatedIn,omitempty"`
	Reason       string `json:"reason,omitempty"`
	ReactionMS   int64  `json:"reactionMs,omitempty"`
}

// Status is what a minigame shows clients besides its phase.
type Status struct {
	Round   int           `json:"round,omitempty"`
	Winner  int           `json:"winner"`
	Players []PlayerState `json:"players"`
}

// Reporter is implemented by instances that track per-player state.
type Reporter interface {
	Status() Status
}

// Factory constructs a fresh instance for the given players.
type Factory func(players []party.Player, input Input, onComplete func(party.RoundResult)) (Instance, error)

type Definition struct {
	Name        string
	Description string
	MinPlayers  int
	MaxPlayers  int
	New         Factory
}

// Supports reports whether n players can play this minigame. Zero bounds
// are unbounded.
func (d Definition) Supports(n int) bool {
	if d.MinPlayers > 0 && n < d.MinPlayers {
		return false
	}
	if d.MaxPlayers > 0 && n > d.MaxPlayers {
		return false
	}
	return true
}

// Catalog is the ordered list of available minigames.
type Catalog []Definition

// Validate checks the catalog can serve a session of playerCount players.
func (c Catalog) Validate(playerCount int) error {
	if len(c) == 0 {
		return ErrEmptyCatalog
	}
	seen := make(map[string]bool, len(c))
	compatible := false
	for _, d := range c {
		if seen[d.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateName, d.Name)
		}
		seen[d.Name] = true
		if d.Supports(playerCount) {
			compatible = true
		}
	}
	if !compatible {
		return fmt.Errorf("%w: %d players", ErrNoCompatible, playerCount)
	}
	return nil
}

func (c Catalog) Lookup(name string) (Definition, bool) {
	for _, d := range c {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, d := range c {
		names[i] = d.Name
	}
	return names
}

// Played tracks minigames already selected in the current session.
type Played map[string]struct{}

func (p Played) Mark(name string) { p[name] = struct{}{} }

func (p Played) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// Candidates returns the unplayed definitions that support playerCount, in
// catalog order. Once every compatible definition has been played the set
// is cleared and the full compatible list is returned.
func (p Played) Candidates(c Catalog, playerCount int) []Definition {
	var compatible, fresh []Definition
	for _, d := range c {
		if !d.Supports(playerCount) {
			continue
		}
		compatible = append(compatible, d)
		if !p.Has(d.Name) {
			fresh = append(fresh, d)
		}
	}
	if len(fresh) > 0 {
		return fresh
	}
	clear(p)
	return compatible
}
