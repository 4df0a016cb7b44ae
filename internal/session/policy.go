package session

import (
	"errors"

	"github.com/playperu/animaparty/internal/minigame"
	"github.com/playperu/animaparty/internal/party"
)

var ErrChoiceUnsupported = errors.New("this session selects minigames automatically")

// Standings is the cumulative state of one session. Only the session's
// policy mutates it, once per completed round.
type Standings struct {
	Score   party.Scores
	Wins    party.Scores
	Played  minigame.Played
	History []RoundRecord
}

type RoundRecord struct {
	Round    int               `json:"round"`
	Minigame string            `json:"minigame"`
	Result   party.RoundResult `json:"result"`
	Winner   int               `json:"winner"`
	TimedOut bool              `json:"timedOut,omitempty"`
}

func newStandings(players []party.Player) Standings {
	st := Standings{
		Score:  make(party.Scores, len(players)),
		Wins:   make(party.Scores, len(players)),
		Played: minigame.Played{},
	}
	for _, p := range players {
		st.Score[p.ID] = 0
		st.Wins[p.ID] = 0
	}
	return st
}

// Policy customizes how a game mode runs its session.
type Policy interface {
	// SelectNextMinigame picks among eligible candidates. ok is false while
	// the choice is still pending.
	SelectNextMinigame(candidates []minigame.Definition) (d minigame.Definition, ok bool)
	// OnRoundCompleted folds a result into the standings and returns the
	// round winner, or party.NoPlayer.
	OnRoundCompleted(st *Standings, result party.RoundResult) int
	IsSessionOver(round, totalRounds int) bool
}

// PartyPolicy is the minigame-party mode: a fixed number of rounds, a win
// counted only for a strict round maximum, points summed across rounds.
type PartyPolicy struct {
	Selector minigame.Selector
}

func NewPartyPolicy(sel minigame.Selector) *PartyPolicy {
	if sel == nil {
		sel = minigame.NewRandomSelector(nil)
	}
	return &PartyPolicy{Selector: sel}
}

func (p *PartyPolicy) SelectNextMinigame(candidates []minigame.Definition) (minigame.Definition, bool) {
	return p.Selector.Select(candidates)
}

func (p *PartyPolicy) OnRoundCompleted(st *Standings, result party.RoundResult) int {
	winner := party.StrictArgmax(result)
	if winner != party.NoPlayer {
		st.Wins[winner]++
	}
	st.Score.Fold(result)
	return winner
}

func (p *PartyPolicy) IsSessionOver(round, totalRounds int) bool {
	return round > totalRounds
}

// Choose forwards a player's pick when the selector supports it.
func (p *PartyPolicy) Choose(name string) error {
	cs, ok := p.Selector.(*minigame.ChoiceSelector)
	if !ok {
		return ErrChoiceUnsupported
	}
	cs.Choose(name)
	return nil
}
