package session_test

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/animaparty/internal/dictator"
	"github.com/playperu/animaparty/internal/minigame"
	"github.com/playperu/animaparty/internal/party"
	"github.com/playperu/animaparty/internal/session"
)

const dt = 100 * time.Millisecond

// scripted completes after a fixed number of ticks with the next queued
// result. A negative tick count never completes.
type scripted struct {
	ticks      int
	result     party.RoundResult
	err        error
	onComplete func(party.RoundResult)
	aborted    bool
	done       bool
	n          int
}

func (s *scripted) Start() {}

func (s *scripted) Tick(time.Duration) error {
	if s.aborted || s.done {
		return nil
	}
	if s.err != nil {
		return s.err
	}
	s.n++
	if s.ticks >= 0 && s.n >= s.ticks {
		s.done = true
		s.onComplete(s.result)
	}
	return nil
}

func (s *scripted) Abort() { s.aborted = true }

func (s *scripted) Phase() string {
	if s.done {
		return "done"
	}
	return "running"
}

type game struct {
	name      string
	ticks     int
	results   []party.RoundResult
	err       error
	instances []*scripted
}

func (g *game) definition() minigame.Definition {
	return minigame.Definition{
		Name: g.name,
		New: func(players []party.Player, _ minigame.Input, onComplete func(party.RoundResult)) (minigame.Instance, error) {
			var r party.RoundResult
			if i := len(g.instances); i < len(g.results) {
				r = g.results[i]
			}
			inst := &scripted{ticks: g.ticks, result: r, err: g.err, onComplete: onComplete}
			g.instances = append(g.instances, inst)
			return inst, nil
		},
	}
}

type recorder struct {
	states  []string
	results []party.RoundResult
	winners []int
	ended   int
	final   party.Scores
	champ   int
}

func (r *recorder) RoundStateChanged(_, _ int, name string) { r.states = append(r.states, name) }

func (r *recorder) RoundResultsReady(_ int, result party.RoundResult, winner int) {
	r.results = append(r.results, result)
	r.winners = append(r.winners, winner)
}

func (r *recorder) SessionEnded(score party.Scores, winner int) {
	r.ended++
	r.final, r.champ = score, winner
}

func players(n int) []party.Player {
	return party.NewPlayers(make([]string, n))
}

func newSession(t *testing.T, cfg session.Config, n int, catalog minigame.Catalog) (*session.Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	s, err := session.New(cfg, players(n), session.Deps{
		Catalog:  catalog,
		Policy:   session.NewPartyPolicy(minigame.NewRandomSelector(rand.NewPCG(1, 2))),
		Observer: rec,
	})
	require.NoError(t, err)
	return s, rec
}

func run(t *testing.T, s *session.Session) {
	t.Helper()
	for range 10000 {
		if s.State() == session.StateGameResults {
			return
		}
		require.NoError(t, s.Tick(dt))
	}
	t.Fatalf("session stuck in %s", s.State())
}

func TestNewValidation(t *testing.T) {
	_, err := session.New(session.Config{TotalRounds: 0}, players(1), session.Deps{})
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrNoRounds)
	assert.ErrorIs(t, err, session.ErrNotEnoughPlayers)
	assert.ErrorIs(t, err, minigame.ErrEmptyCatalog)

	g := &game{name: "a"}
	_, err = session.New(session.Config{TotalRounds: 1, ResultsDelay: -1}, players(2), session.Deps{
		Catalog: minigame.Catalog{g.definition()},
	})
	assert.ErrorIs(t, err, session.ErrInvalidTiming)
}

func TestScoreFoldAcrossRounds(t *testing.T) {
	g := &game{name: "a", ticks: 2, results: []party.RoundResult{
		{0: 10, 1: 5, 2: 1},
		{0: 1, 1: 10, 2: 10},
		{0: 2, 1: 1, 2: 10},
	}}
	s, rec := newSession(t, session.Config{TotalRounds: 3, ResultsDelay: dt}, 3, minigame.Catalog{g.definition()})

	require.NoError(t, s.Start())
	run(t, s)

	assert.Equal(t, []int{0, party.NoPlayer, 2}, rec.winners)
	assert.Equal(t, party.Scores{0: 13, 1: 16, 2: 21}, rec.final)
	assert.Equal(t, party.Scores{0: 1, 1: 0, 2: 1}, s.Wins())
	assert.Equal(t, 2, rec.champ)
	assert.Equal(t, 1, rec.ended)
	assert.Len(t, s.History(), 3)
	assert.Equal(t, 3, s.Round())
}

func TestSessionWinnerTieGoesToLowestID(t *testing.T) {
	g := &game{name: "a", ticks: 1, results: []party.RoundResult{{0: 5, 1: 7}, {0: 7, 1: 5}}}
	s, rec := newSession(t, session.Config{TotalRounds: 2, ResultsDelay: dt}, 2, minigame.Catalog{g.definition()})

	require.NoError(t, s.Start())
	run(t, s)

	assert.Equal(t, party.Scores{0: 12, 1: 12}, rec.final)
	assert.Equal(t, 0, s.Winner())
}

func TestNoRepeatUntilCatalogExhausted(t *testing.T) {
	var catalog minigame.Catalog
	for _, name := range []string{"a", "b", "c"} {
		g := &game{name: name, ticks: 1}
		catalog = append(catalog, g.definition())
	}
	s, rec := newSession(t, session.Config{TotalRounds: 6, ResultsDelay: dt}, 2, catalog)

	require.NoError(t, s.Start())
	run(t, s)

	var played []string
	for _, name := range rec.states {
		if name != "" {
			played = append(played, name)
		}
	}
	require.Len(t, played, 6)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, played[:3])
	assert.ElementsMatch(t, []string{"a", "b", "c"}, played[3:])
}

func TestIncompatibleMinigamesSkipped(t *testing.T) {
	big := minigame.Definition{Name: "big", MinPlayers: 4, New: func([]party.Player, minigame.Input, func(party.RoundResult)) (minigame.Instance, error) {
		t.Fatal("incompatible minigame loaded")
		return nil, nil
	}}
	small := &game{name: "small", ticks: 1}
	s, rec := newSession(t, session.Config{TotalRounds: 3, ResultsDelay: dt}, 2, minigame.Catalog{big, small.definition()})

	require.NoError(t, s.Start())
	run(t, s)

	assert.Len(t, small.instances, 3)
	assert.Equal(t, 1, rec.ended)
}

func TestContinueSkipsResultsDelay(t *testing.T) {
	g := &game{name: "a", ticks: 1}
	s, _ := newSession(t, session.Config{TotalRounds: 2}, 2, minigame.Catalog{g.definition()})

	require.NoError(t, s.Start())
	require.NoError(t, s.Tick(dt))
	require.Equal(t, session.StateRoundResults, s.State())

	for range 100 {
		require.NoError(t, s.Tick(dt))
	}
	assert.Equal(t, session.StateRoundResults, s.State(), "zero delay waits for continue")

	require.NoError(t, s.Continue())
	assert.Equal(t, session.StatePlaying, s.State())
	assert.Equal(t, 2, s.Round())

	assert.ErrorIs(t, s.Continue(), session.ErrNotShowingResult)
}

func TestChoiceSelection(t *testing.T) {
	a, b := &game{name: "a", ticks: 1}, &game{name: "b", ticks: 1}
	s, err := session.New(session.Config{TotalRounds: 2, ResultsDelay: dt}, players(2), session.Deps{
		Catalog: minigame.Catalog{a.definition(), b.definition()},
		Policy:  session.NewPartyPolicy(minigame.NewChoiceSelector()),
	})
	require.NoError(t, err)
	require.NoError(t, s.Start())

	for range 5 {
		require.NoError(t, s.Tick(dt))
	}
	assert.Equal(t, session.StateSelection, s.State())
	assert.Equal(t, []string{"a", "b"}, s.Snapshot().Candidates)

	assert.ErrorIs(t, s.Choose("zzz"), minigame.ErrUnknownMinigame)
	require.NoError(t, s.Choose("b"))
	assert.Equal(t, session.StatePlaying, s.State())
	assert.Equal(t, "b", s.Snapshot().Minigame)

	require.NoError(t, s.Tick(dt))
	require.NoError(t, s.Tick(dt))
	require.Equal(t, session.StateSelection, s.State())
	assert.Equal(t, []string{"a"}, s.Snapshot().Candidates)
	assert.ErrorIs(t, s.Choose("b"), minigame.ErrUnknownMinigame)
}

func TestChooseWithRandomPolicy(t *testing.T) {
	g := &game{name: "a", ticks: -1}
	s, _ := newSession(t, session.Config{TotalRounds: 1}, 2, minigame.Catalog{g.definition()})
	require.NoError(t, s.Start())

	assert.ErrorIs(t, s.Choose("a"), session.ErrNotSelecting)
}

func TestWatchdogFoldsEmptyResult(t *testing.T) {
	g := &game{name: "stuck", ticks: -1}
	s, rec := newSession(t, session.Config{TotalRounds: 1, ResultsDelay: dt, RoundTimeout: time.Second}, 2, minigame.Catalog{g.definition()})

	require.NoError(t, s.Start())
	run(t, s)

	require.Len(t, g.instances, 1)
	assert.True(t, g.instances[0].aborted)
	require.Len(t, rec.results, 1)
	assert.Empty(t, rec.results[0])
	assert.Equal(t, party.NoPlayer, rec.winners[0])
	assert.True(t, s.History()[0].TimedOut)
	assert.Equal(t, party.Scores{0: 0, 1: 0}, rec.final)
}

func TestForceEndDuringPlay(t *testing.T) {
	g := &game{name: "a", ticks: 3, results: []party.RoundResult{{0: 10, 1: 1}, {0: 1, 1: 10}}}
	s, rec := newSession(t, session.Config{TotalRounds: 3, ResultsDelay: dt}, 2, minigame.Catalog{g.definition()})

	require.NoError(t, s.Start())
	for s.Round() < 2 || s.State() != session.StatePlaying {
		require.NoError(t, s.Tick(dt))
	}
	s.ForceEnd()

	assert.Equal(t, session.StateGameResults, s.State())
	assert.True(t, g.instances[1].aborted)
	assert.Equal(t, party.Scores{0: 10, 1: 1}, rec.final, "partial round is not scored")
	assert.Equal(t, 0, rec.champ)

	s.ForceEnd()
	require.NoError(t, s.Tick(dt))
	assert.Equal(t, 1, rec.ended)
}

func TestMinigameErrorStopsSession(t *testing.T) {
	g := &game{name: "broken", ticks: 5, err: fmt.Errorf("boom: %w", party.ErrLogicFault)}
	s, rec := newSession(t, session.Config{TotalRounds: 2, ResultsDelay: dt}, 2, minigame.Catalog{g.definition()})

	require.NoError(t, s.Start())
	err := s.Tick(dt)
	require.Error(t, err)
	assert.ErrorIs(t, err, party.ErrLogicFault)
	assert.Equal(t, session.StateGameResults, s.State())
	assert.ErrorIs(t, s.Err(), party.ErrLogicFault)
	assert.Zero(t, rec.ended)
}

func TestPressUnknownPlayer(t *testing.T) {
	g := &game{name: "a", ticks: 1}
	s, _ := newSession(t, session.Config{TotalRounds: 1}, 2, minigame.Catalog{g.definition()})

	assert.NoError(t, s.Press(1))
	assert.True(t, errors.Is(s.Press(7), session.ErrUnknownPlayer))
}

func TestStartTwice(t *testing.T) {
	g := &game{name: "a", ticks: 1}
	s, _ := newSession(t, session.Config{TotalRounds: 1}, 2, minigame.Catalog{g.definition()})

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), session.ErrAlreadyStarted)
}

func TestDictatorRoundEndToEnd(t *testing.T) {
	cfg := dictator.Config{
		TotalRounds:      3,
		PromptDelay:      300 * time.Millisecond,
		AppearDelay:      100 * time.Millisecond,
		ReactionWindow:   500 * time.Millisecond,
		EliminationDelay: 100 * time.Millisecond,
		RoundEndDelay:    100 * time.Millisecond,
	}
	s, rec := newSession(t, session.Config{TotalRounds: 1, ResultsDelay: dt}, 2, minigame.Catalog{dictator.Definition(cfg)})
	require.NoError(t, s.Start())

	// Player 1 jumps the gun on the first tick.
	require.NoError(t, s.Press(1))
	run(t, s)

	require.Len(t, rec.results, 1)
	assert.Equal(t, party.RoundResult{0: 10, 1: 1}, rec.results[0])
	assert.Equal(t, []int{0}, rec.winners)
	assert.Equal(t, 0, s.Winner())
	assert.Equal(t, []string{"", dictator.Name}, rec.states)
}

func TestSnapshotCarriesMinigameStatus(t *testing.T) {
	cfg := dictator.Config{
		TotalRounds:      3,
		PromptDelay:      300 * time.Millisecond,
		AppearDelay:      100 * time.Millisecond,
		ReactionWindow:   500 * time.Millisecond,
		EliminationDelay: 100 * time.Millisecond,
		RoundEndDelay:    100 * time.Millisecond,
	}
	s, _ := newSession(t, session.Config{TotalRounds: 2}, 2, minigame.Catalog{dictator.Definition(cfg)})
	require.NoError(t, s.Start())

	snap := s.Snapshot()
	require.NotNil(t, snap.MinigameStatus)
	assert.Equal(t, 1, snap.MinigameStatus.Round)
	assert.Len(t, snap.MinigameStatus.Players, 2)

	require.NoError(t, s.Press(1))
	for s.State() == session.StatePlaying {
		require.NoError(t, s.Tick(dt))
	}
	require.Equal(t, session.StateRoundResults, s.State())

	snap = s.Snapshot()
	require.NotNil(t, snap.MinigameStatus, "status stays up with the round results")
	assert.Equal(t, 0, snap.MinigameStatus.Winner)
	assert.Equal(t, "early", snap.MinigameStatus.Players[1].Reason)
	assert.False(t, snap.MinigameStatus.Players[1].Active)
}

func TestSnapshotWithoutReporter(t *testing.T) {
	g := &game{name: "plain", ticks: -1}
	s, _ := newSession(t, session.Config{TotalRounds: 1}, 2, minigame.Catalog{g.definition()})
	require.NoError(t, s.Start())

	snap := s.Snapshot()
	assert.Equal(t, "running", snap.Phase)
	assert.Nil(t, snap.MinigameStatus)
}
