package minigame

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Selector picks one of the eligible candidates. ok is false while no
// choice is available yet; the caller polls again on the next tick.
type Selector interface {
	Select(candidates []Definition) (d Definition, ok bool)
}

// RandomSelector picks uniformly among candidates.
type RandomSelector struct {
	rng *rand.Rand
}

func NewRandomSelector(src rand.Source) *RandomSelector {
	if src == nil {
		src = rand.NewPCG(newSeed(), newSeed())
	}
	return &RandomSelector{rng: rand.New(src)}
}

func (s *RandomSelector) Select(candidates []Definition) (Definition, bool) {
	if len(candidates) == 0 {
		return Definition{}, false
	}
	return candidates[s.rng.IntN(len(candidates))], true
}

// ChoiceSelector waits for a player to pick a minigame by name.
type ChoiceSelector struct {
	mu     sync.Mutex
	choice string
}

func NewChoiceSelector() *ChoiceSelector {
	return &ChoiceSelector{}
}

// Choose records the pending pick. It is consumed by the next Select that
// finds it among the candidates.
func (s *ChoiceSelector) Choose(name string) {
	s.mu.Lock()
	s.choice = name
	s.mu.Unlock()
}

func (s *ChoiceSelector) Select(candidates []Definition) (Definition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.choice == "" {
		return Definition{}, false
	}
	for _, d := range candidates {
		if d.Name == s.choice {
			s.choice = ""
			return d, true
		}
	}
	s.choice = ""
	return Definition{}, false
}

func newSeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return rand.Uint64()
	}
	return binary.LittleEndian.Uint64(b[:])
}
