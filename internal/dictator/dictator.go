// Package dictator implements Dictator Switch, a reaction-speed elimination
// minigame. Each round players wait for a prompt and press their button as
// fast as possible once it is live; pressing too early, not at all, or
// slowest gets a player eliminated.
//
// The engine is tick driven and never blocks: the host calls Tick with the
// elapsed frame time and the engine polls its Input once per eligible
// player. All methods must be called from the same goroutine.
package dictator

import (
	"errors"
	"fmt"
	"time"

	"github.com/playperu/animaparty/internal/minigame"
	"github.com/playperu/animaparty/internal/party"
)

const Name = "Dictator Switch"

// Point values awarded at game end.
const (
	PointsWinner          = 10
	PointsSurvivor        = 5
	PointsEliminatedLater = 2
	PointsEliminatedFirst = 1
)

var ErrInvalidConfig = errors.New("invalid dictator switch config")

type Config struct {
	TotalRounds      int
	PromptDelay      time.Duration
	AppearDelay      time.Duration
	ReactionWindow   time.Duration
	EliminationDelay time.Duration
	RoundEndDelay    time.Duration
}

func DefaultConfig() Config {
	return Config{
		TotalRounds:      3,
		PromptDelay:      time.Second,
		AppearDelay:      500 * time.Millisecond,
		ReactionWindow:   500 * time.Millisecond,
		EliminationDelay: time.Second,
		RoundEndDelay:    1500 * time.Millisecond,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.TotalRounds <= 0 {
		errs = append(errs, fmt.Errorf("%w: total rounds must be positive, got %d", ErrInvalidConfig, c.TotalRounds))
	}
	if c.PromptDelay <= 0 {
		errs = append(errs, fmt.Errorf("%w: prompt delay must be positive, got %s", ErrInvalidConfig, c.PromptDelay))
	}
	if c.ReactionWindow <= 0 {
		errs = append(errs, fmt.Errorf("%w: reaction window must be positive, got %s", ErrInvalidConfig, c.ReactionWindow))
	}
	if c.AppearDelay < 0 || c.EliminationDelay < 0 || c.RoundEndDelay < 0 {
		errs = append(errs, fmt.Errorf("%w: display delays must not be negative", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// Definition registers Dictator Switch in a minigame catalog.
func Definition(cfg Config) minigame.Definition {
	return minigame.Definition{
		Name:        Name,
		Description: "Press when the prompt lights up. Too early, too late or slowest is out.",
		MinPlayers:  2,
		MaxPlayers:  4,
		New: func(players []party.Player, input minigame.Input, onComplete func(party.RoundResult)) (minigame.Instance, error) {
			return New(cfg, players, input, onComplete)
		},
	}
}

type Reason string

const (
	ReasonEarly      Reason = "early"
	ReasonNoReaction Reason = "no_reaction"
	ReasonSlowest    Reason = "slowest"
)

type Elimination struct {
	PlayerID int
	Round    int
	Reason   Reason
	Reaction time.Duration
}

type playerState struct {
	party.Player
	pressed       bool
	early         bool
	reaction      time.Duration
	totalReaction time.Duration
	eliminatedIn  int
}

func (p *playerState) active() bool { return p.eliminatedIn == 0 }

type Engine struct {
	cfg        Config
	input      minigame.Input
	onComplete func(party.RoundResult)

	players      []*playerState
	phase        Phase
	timer        time.Duration
	round        int
	finished     bool
	aborted      bool
	winner       int
	eliminations []Elimination
}

// New prepares an engine for players. Elimination flags on the incoming
// players are ignored; every player starts the minigame active.
func New(cfg Config, players []party.Player, input minigame.Input, onComplete func(party.RoundResult)) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: dictator switch started with no active players", party.ErrLogicFault)
	}
	if input == nil {
		return nil, fmt.Errorf("%w: input source is required", ErrInvalidConfig)
	}

	states := make([]*playerState, len(players))
	for i, p := range players {
		p.Eliminated = false
		states[i] = &playerState{Player: p}
	}

	return &Engine{
		cfg:        cfg,
		input:      input,
		onComplete: onComplete,
		players:    states,
		phase:      PhaseIdle,
		winner:     party.NoPlayer,
	}, nil
}

// Start leaves Idle and begins round one. Calling it twice has no effect.
func (e *Engine) Start() {
	if e.phase != PhaseIdle || e.aborted {
		return
	}
	e.startRound()
}

// Abort force-ends the engine. No result is delivered afterwards.
func (e *Engine) Abort() {
	if e.finished {
		return
	}
	e.aborted = true
	e.finished = true
}

// Tick advances the phase timer by dt. Input is sampled against the phase
// that was current when the tick began, then at most one transition runs.
func (e *Engine) Tick(dt time.Duration) error {
	if e.finished || e.phase == PhaseIdle {
		return nil
	}

	e.timer -= dt
	e.sampleInput()
	if e.timer > 0 {
		return nil
	}

	switch e.phase {
	case PhaseCountdown:
		e.enter(PhasePromptAppearing, e.cfg.AppearDelay)
	case PhasePromptAppearing:
		e.enter(PhasePromptActive, e.cfg.ReactionWindow)
	case PhasePromptActive:
		if err := e.eliminate(); err != nil {
			return err
		}
		e.enter(PhaseEliminating, e.cfg.EliminationDelay)
	case PhaseEliminating:
		e.enter(PhaseRoundEnd, e.cfg.RoundEndDelay)
		if e.activeCount() <= 1 {
			e.finish()
		}
	case PhaseRoundEnd:
		if e.round < e.cfg.TotalRounds {
			e.startRound()
		} else {
			e.finish()
		}
	}
	return nil
}

func (e *Engine) enter(p Phase, d time.Duration) {
	e.phase = p
	e.timer = d
}

func (e *Engine) startRound() {
	e.round++
	if e.round > e.cfg.TotalRounds {
		e.finish()
		return
	}
	for _, p := range e.players {
		p.pressed = false
		p.early = false
		p.reaction = 0
	}
	e.enter(PhaseCountdown, e.cfg.PromptDelay)
}

func (e *Engine) sampleInput() {
	switch e.phase {
	case PhaseCountdown, PhasePromptAppearing, PhasePromptActive:
	default:
		return
	}

	for _, p := range e.players {
		if !p.active() || p.pressed {
			continue
		}
		if !e.input.Pressed(p.ID) {
			continue
		}
		p.pressed = true
		if e.phase != PhasePromptActive {
			p.early = true
			continue
		}
		p.reaction = e.cfg.ReactionWindow - max(e.timer, 0)
		p.totalReaction += p.reaction
	}
}

// eliminate applies exactly one of three rules: every early presser, else
// every non-responder, else the single slowest responder.
func (e *Engine) eliminate() error {
	active := e.activePlayers()
	if len(active) == 0 {
		return fmt.Errorf("%w: elimination in round %d with no active players", party.ErrLogicFault, e.round)
	}

	var early, silent []*playerState
	for _, p := range active {
		switch {
		case p.early:
			early = append(early, p)
		case !p.pressed:
			silent = append(silent, p)
		}
	}

	if len(early) > 0 {
		for _, p := range early {
			e.eliminatePlayer(p, ReasonEarly)
		}
		return nil
	}
	if len(silent) > 0 {
		for _, p := range silent {
			e.eliminatePlayer(p, ReasonNoReaction)
		}
		return nil
	}

	// Strict comparison: on equal reaction times the player listed first
	// in the registry is the one eliminated.
	slowest := active[0]
	for _, p := range active[1:] {
		if p.reaction > slowest.reaction {
			slowest = p
		}
	}
	e.eliminatePlayer(slowest, ReasonSlowest)
	return nil
}

func (e *Engine) eliminatePlayer(p *playerState, reason Reason) {
	p.eliminatedIn = e.round
	p.Eliminated = true
	e.eliminations = append(e.eliminations, Elimination{
		PlayerID: p.ID,
		Round:    e.round,
		Reason:   reason,
		Reaction: p.reaction,
	})
}

func (e *Engine) finish() {
	e.phase = PhaseGameEnd
	e.timer = 0
	e.finished = true
	e.winner = e.pickWinner()
	result := e.assignPoints()
	if e.onComplete != nil {
		e.onComplete(result)
	}
}

// pickWinner returns the sole survivor. When the round limit leaves several
// survivors, the one with the lowest total reaction time wins, then the
// lowest player id, rather than simply the first survivor listed.
func (e *Engine) pickWinner() int {
	var best *playerState
	for _, p := range e.activePlayers() {
		if best == nil || p.totalReaction < best.totalReaction ||
			(p.totalReaction == best.totalReaction && p.ID < best.ID) {
			best = p
		}
	}
	if best == nil {
		return party.NoPlayer
	}
	return best.ID
}

func (e *Engine) assignPoints() party.RoundResult {
	result := make(party.RoundResult, len(e.players))
	for _, p := range e.players {
		switch {
		case p.ID == e.winner:
			result[p.ID] = PointsWinner
		case p.active():
			result[p.ID] = PointsSurvivor
		case p.eliminatedIn >= 2:
			result[p.ID] = PointsEliminatedLater
		default:
			result[p.ID] = PointsEliminatedFirst
		}
	}
	return result
}

func (e *Engine) activePlayers() []*playerState {
	active := make([]*playerState, 0, len(e.players))
	for _, p := range e.players {
		if p.active() {
			active = append(active, p)
		}
	}
	return active
}

func (e *Engine) activeCount() int {
	n := 0
	for _, p := range e.players {
		if p.active() {
			n++
		}
	}
	return n
}

func (e *Engine) Phase() string {
	if e.aborted {
		return "aborted"
	}
	return e.phase.String()
}

func (e *Engine) Round() int  { return e.round }
func (e *Engine) Winner() int { return e.winner }

func (e *Engine) Eliminations() []Elimination {
	return append([]Elimination(nil), e.eliminations...)
}

// Players reports each player's state, in registry order.
func (e *Engine) Players() []PlayerStatus {
	out := make([]PlayerStatus, len(e.players))
	for i, p := range e.players {
		out[i] = PlayerStatus{
			Player:       p.Player,
			Pressed:      p.pressed,
			Early:        p.early,
			Reaction:     p.reaction,
			EliminatedIn: p.eliminatedIn,
		}
	}
	return out
}

type PlayerStatus struct {
	party.Player
	Pressed      bool
	Early        bool
	Reaction     time.Duration
	EliminatedIn int
}

// Status reports the current round and every player's state, with the
// reason and reaction time of each elimination.
func (e *Engine) Status() minigame.Status {
	reasons := make(map[int]Elimination, len(e.eliminations))
	for _, el := range e.Eliminations() {
		reasons[el.PlayerID] = el
	}

	st := minigame.Status{Round: e.round, Winner: e.Winner(), Players: make([]minigame.PlayerState, 0, len(e.players))}
	for _, p := range e.Players() {
		ps := minigame.PlayerState{
			ID:           p.ID,
			Active:       p.EliminatedIn == 0,
			Pressed:      p.Pressed,
			EliminatedIn: p.EliminatedIn,
			ReactionMS:   p.Reaction.Milliseconds(),
		}
		if el, ok := reasons[p.ID]; ok {
			ps.Reason = string(el.Reason)
			ps.ReactionMS = el.Reaction.Milliseconds()
		}
		st.Players = append(st.Players, ps)
	}
	return st
}
