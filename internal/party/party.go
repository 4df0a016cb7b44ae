// Package party defines the core domain types shared by the round engine
// and the session orchestrator. It has zero external dependencies.
package party

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrLogicFault marks states the core must never reach. Callers treat it as
// fatal for the session rather than continuing with corrupted scores.
var ErrLogicFault = errors.New("logic fault")

// NoPlayer is returned wherever a player id is expected but none qualifies.
const NoPlayer = -1

type Player struct {
	ID         int
	Name       string
	Eliminated bool
}

// NewPlayers builds a registry with ids assigned in order. Empty names get
// the "Player N" default.
func NewPlayers(names []string) []Player {
	players := make([]Player, len(names))
	for i, name := range names {
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		players[i] = Player{ID: i, Name: name}
	}
	return players
}

// RoundResult maps player id to points earned in one minigame run.
type RoundResult map[int]int

// Clone returns a copy that is safe to hand to observers.
func (r RoundResult) Clone() RoundResult {
	return maps.Clone(r)
}

// Scores maps player id to a running total (points or round wins).
type Scores map[int]int

// Fold adds every entry of result into s. Players absent from result are
// left unchanged.
func (s Scores) Fold(result RoundResult) {
	for id, pts := range result {
		s[id] += pts
	}
}

func (s Scores) Clone() Scores {
	return maps.Clone(s)
}

// Argmax returns the id holding the maximum value. Ties resolve to the
// lowest id so repeated runs over the same data always agree. Returns
// NoPlayer for an empty map.
func Argmax(values map[int]int) int {
	best, bestVal := NoPlayer, 0
	for _, id := range slices.Sorted(maps.Keys(values)) {
		if v := values[id]; best == NoPlayer || v > bestVal {
			best, bestVal = id, v
		}
	}
	return best
}

// StrictArgmax is like Argmax but returns NoPlayer when the maximum is
// shared by more than one id.
func StrictArgmax(values map[int]int) int {
	best := Argmax(values)
	if best == NoPlayer {
		return NoPlayer
	}
	for id, v := range values {
		if id != best && v == values[best] {
			return NoPlayer
		}
	}
	return best
}
