// Package session runs a multi-round party: it picks a minigame per round,
// drives it to completion, folds its result into the standings and declares
// the overall winner once the policy says the session is over.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/playperu/animaparty/internal/minigame"
	"github.com/playperu/animaparty/internal/party"
)

// MinPlayers is the smallest party a session accepts.
const MinPlayers = 2

var (
	ErrNoRounds         = errors.New("total rounds must be positive")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrInvalidTiming    = errors.New("delays must not be negative")
	ErrUnknownPlayer    = errors.New("unknown player")
	ErrNotSelecting     = errors.New("session is not waiting for a minigame choice")
	ErrNotShowingResult = errors.New("session is not showing round results")
	ErrAlreadyStarted   = errors.New("session already started")
)

type Config struct {
	TotalRounds int
	// ResultsDelay is how long round results stay up before the next round.
	// Zero waits for Continue.
	ResultsDelay time.Duration
	// RoundTimeout aborts a minigame that has not completed in time. Zero
	// disables the watchdog.
	RoundTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		TotalRounds:  5,
		ResultsDelay: 3 * time.Second,
		RoundTimeout: 2 * time.Minute,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.TotalRounds <= 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrNoRounds, c.TotalRounds))
	}
	if c.ResultsDelay < 0 || c.RoundTimeout < 0 {
		errs = append(errs, ErrInvalidTiming)
	}
	return errors.Join(errs...)
}

// Deps are the collaborators of a session. Only Catalog is required.
type Deps struct {
	Catalog  minigame.Catalog
	Policy   Policy
	Observer Observer
	Logger   *slog.Logger
}

// Session is single-threaded: every method except Press must be called from
// one goroutine, or serialized by the caller.
type Session struct {
	cfg      Config
	players  []party.Player
	catalog  minigame.Catalog
	policy   Policy
	observer Observer
	logger   *slog.Logger
	input    *minigame.InputBuffer

	state      State
	round      int
	standings  Standings
	candidates []minigame.Definition

	current     minigame.Instance
	currentName string
	gen         int
	completed   bool
	pending     party.RoundResult
	elapsed     time.Duration

	lastResult party.RoundResult
	lastWinner int
	lastStatus *minigame.Status
	winner     int
	err        error
}

func New(cfg Config, players []party.Player, deps Deps) (*Session, error) {
	errs := []error{cfg.Validate()}
	if len(players) < MinPlayers {
		errs = append(errs, fmt.Errorf("%w: need %d, got %d", ErrNotEnoughPlayers, MinPlayers, len(players)))
	}
	if err := deps.Catalog.Validate(len(players)); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if deps.Policy == nil {
		deps.Policy = NewPartyPolicy(nil)
	}
	if deps.Observer == nil {
		deps.Observer = NopObserver{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	return &Session{
		cfg:        cfg,
		players:    slices.Clone(players),
		catalog:    deps.Catalog,
		policy:     deps.Policy,
		observer:   deps.Observer,
		logger:     deps.Logger,
		input:      minigame.NewInputBuffer(),
		state:      StateLobby,
		standings:  newStandings(players),
		lastWinner: party.NoPlayer,
		winner:     party.NoPlayer,
	}, nil
}

// Start leaves the lobby and begins round 1.
func (s *Session) Start() error {
	if s.state != StateLobby {
		return ErrAlreadyStarted
	}
	s.logger.Info("session started", "players", len(s.players), "rounds", s.cfg.TotalRounds)
	return s.nextRound()
}

// Press queues a player action for the next tick. Safe for concurrent use.
func (s *Session) Press(playerID int) error {
	if !s.hasPlayer(playerID) {
		return fmt.Errorf("%w: %d", ErrUnknownPlayer, playerID)
	}
	s.input.Press(playerID)
	return nil
}

// Tick advances the session by dt. A non-nil error is a logic fault; the
// session is over once one is returned.
func (s *Session) Tick(dt time.Duration) error {
	if s.state == StateLobby || s.state == StateGameResults {
		return nil
	}
	s.input.Advance()

	switch s.state {
	case StateSelection:
		return s.trySelect()

	case StatePlaying:
		s.elapsed += dt
		if err := s.current.Tick(dt); err != nil {
			return s.fail(fmt.Errorf("round %d %s: %w", s.round, s.currentName, err))
		}
		if s.completed {
			s.completeRound(s.pending, false)
			return nil
		}
		if s.cfg.RoundTimeout > 0 && s.elapsed >= s.cfg.RoundTimeout {
			s.logger.Warn("minigame timed out", "round", s.round, "minigame", s.currentName, "elapsed", s.elapsed)
			s.abortCurrent()
			s.completeRound(party.RoundResult{}, true)
		}

	case StateRoundResults:
		s.elapsed += dt
		if s.cfg.ResultsDelay > 0 && s.elapsed >= s.cfg.ResultsDelay {
			return s.nextRound()
		}
	}
	return nil
}

// Choose records a minigame pick while the session is selecting.
func (s *Session) Choose(name string) error {
	if s.state != StateSelection {
		return ErrNotSelecting
	}
	if !slices.ContainsFunc(s.candidates, func(d minigame.Definition) bool { return d.Name == name }) {
		return fmt.Errorf("%w: %q", minigame.ErrUnknownMinigame, name)
	}
	c, ok := s.policy.(interface{ Choose(string) error })
	if !ok {
		return ErrChoiceUnsupported
	}
	if err := c.Choose(name); err != nil {
		return err
	}
	return s.trySelect()
}

// Continue skips the rest of the round results display.
func (s *Session) Continue() error {
	if s.state != StateRoundResults {
		return ErrNotShowingResult
	}
	return s.nextRound()
}

// ForceEnd stops the session immediately. A minigame in progress is aborted
// and its partial round is not scored.
func (s *Session) ForceEnd() {
	if s.state == StateGameResults {
		return
	}
	s.logger.Info("session force-ended", "round", s.round, "state", s.state.String())
	s.abortCurrent()
	s.end()
}

func (s *Session) nextRound() error {
	s.round++
	if s.policy.IsSessionOver(s.round, s.cfg.TotalRounds) {
		s.round = s.cfg.TotalRounds
		s.end()
		return nil
	}
	s.state = StateSelection
	s.currentName = ""
	s.candidates = s.standings.Played.Candidates(s.catalog, len(s.players))
	if len(s.candidates) == 0 {
		return s.fail(fmt.Errorf("round %d: %w: %w", s.round, party.ErrLogicFault, minigame.ErrNoCompatible))
	}
	s.observer.RoundStateChanged(s.round, s.cfg.TotalRounds, "")
	return s.trySelect()
}

func (s *Session) trySelect() error {
	d, ok := s.policy.SelectNextMinigame(s.candidates)
	if !ok {
		return nil
	}
	return s.load(d)
}

func (s *Session) load(d minigame.Definition) error {
	s.state = StateLoading
	s.standings.Played.Mark(d.Name)
	s.gen++
	gen := s.gen
	s.completed, s.pending = false, nil

	inst, err := d.New(slices.Clone(s.players), s.input, func(r party.RoundResult) {
		if gen != s.gen || s.completed {
			return
		}
		s.completed, s.pending = true, r.Clone()
	})
	if err != nil {
		return s.fail(fmt.Errorf("loading %s: %w: %w", d.Name, party.ErrLogicFault, err))
	}

	s.current, s.currentName = inst, d.Name
	s.elapsed = 0
	s.state = StatePlaying
	s.logger.Info("round started", "round", s.round, "minigame", d.Name)
	s.observer.RoundStateChanged(s.round, s.cfg.TotalRounds, d.Name)
	inst.Start()
	return nil
}

func (s *Session) completeRound(result party.RoundResult, timedOut bool) {
	s.gen++
	s.lastStatus = statusOf(s.current)
	s.current = nil
	s.completed, s.pending = false, nil
	if result == nil {
		result = party.RoundResult{}
	}

	winner := s.policy.OnRoundCompleted(&s.standings, result)
	s.standings.History = append(s.standings.History, RoundRecord{
		Round:    s.round,
		Minigame: s.currentName,
		Result:   result.Clone(),
		Winner:   winner,
		TimedOut: timedOut,
	})
	s.lastResult, s.lastWinner = result.Clone(), winner

	s.state = StateRoundResults
	s.elapsed = 0
	s.logger.Info("round completed", "round", s.round, "minigame", s.currentName, "winner", winner)
	s.observer.RoundResultsReady(s.round, result.Clone(), winner)
}

func (s *Session) abortCurrent() {
	if s.current == nil {
		return
	}
	s.gen++
	s.current.Abort()
	s.current = nil
	s.completed, s.pending = false, nil
}

func (s *Session) end() {
	s.state = StateGameResults
	s.winner = party.Argmax(s.standings.Score)
	s.logger.Info("session ended", "winner", s.winner, "rounds", len(s.standings.History))
	s.observer.SessionEnded(s.standings.Score.Clone(), s.winner)
}

func (s *Session) fail(err error) error {
	s.abortCurrent()
	s.state = StateGameResults
	s.err = err
	s.logger.Error("session failed", "round", s.round, "error", err)
	return err
}

func statusOf(inst minigame.Instance) *minigame.Status {
	r, ok := inst.(minigame.Reporter)
	if !ok {
		return nil
	}
	st := r.Status()
	return &st
}

func (s *Session) hasPlayer(id int) bool {
	return slices.ContainsFunc(s.players, func(p party.Player) bool { return p.ID == id })
}

func (s *Session) State() State        { return s.state }
func (s *Session) Round() int          { return s.round }
func (s *Session) TotalRounds() int    { return s.cfg.TotalRounds }
func (s *Session) Winner() int         { return s.winner }
func (s *Session) Err() error          { return s.err }
func (s *Session) Score() party.Scores { return s.standings.Score.Clone() }
func (s *Session) Wins() party.Scores  { return s.standings.Wins.Clone() }

func (s *Session) Players() []party.Player { return slices.Clone(s.players) }

func (s *Session) History() []RoundRecord { return slices.Clone(s.standings.History) }

// Snapshot is a point-in-time view of the session for clients.
type Snapshot struct {
	State       string            `json:"state"`
	Round       int               `json:"round"`
	TotalRounds int               `json:"totalRounds"`
	Minigame    string            `json:"minigame,omitempty"`
	Phase       string            `json:"phase,omitempty"`
	Candidates  []string          `json:"candidates,omitempty"`
	Players     []PlayerView      `json:"players"`
	LastResult  party.RoundResult `json:"lastResult,omitempty"`
	LastWinner  int               `json:"lastWinner"`
	Winner      int               `json:"winner"`

	// MinigameStatus is the running minigame's per-player view, kept while
	// the round results are shown.
	MinigameStatus *minigame.Status `json:"minigameStatus,omitempty"`
}

type PlayerView struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Wins  int    `json:"wins"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:       s.state.String(),
		Round:       s.round,
		TotalRounds: s.cfg.TotalRounds,
		Minigame:    s.currentName,
		LastResult:  s.lastResult.Clone(),
		LastWinner:  s.lastWinner,
		Winner:      s.winner,
	}
	if s.current != nil {
		snap.Phase = s.current.Phase()
		snap.MinigameStatus = statusOf(s.current)
	} else if s.state == StateRoundResults {
		snap.MinigameStatus = s.lastStatus
	}
	if s.state == StateSelection {
		for _, d := range s.candidates {
			snap.Candidates = append(snap.Candidates, d.Name)
		}
	}
	for _, p := range s.players {
		snap.Players = append(snap.Players, PlayerView{
			ID:    p.ID,
			Name:  p.Name,
			Score: s.standings.Score[p.ID],
			Wins:  s.standings.Wins[p.ID],
		})
	}
	return snap
}
