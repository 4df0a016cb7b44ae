package server

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/animaparty/internal/party"
	"github.com/playperu/animaparty/internal/session"
)

var errInvalidHostKey = errors.New("invalid host key")

// Runner owns one session and drives it from its own goroutine. Commands
// from HTTP handlers and websockets are serialized on mu.
type Runner struct {
	ID        string
	StartedAt time.Time

	hostHash []byte
	interval time.Duration
	broker   *Broker
	store    Store
	profiles ProfileStore
	logger   *slog.Logger

	mu     sync.Mutex
	sess   *session.Session
	forced bool
	endAt  time.Time

	done chan struct{}
}

// RoundStateChanged, RoundResultsReady and SessionEnded run on the runner
// goroutine with mu held.

func (r *Runner) RoundStateChanged(round, totalRounds int, minigame string) {
	r.broker.Publish(r.ID, Event{Type: EventRoundState, Round: round, TotalRounds: totalRounds, Minigame: minigame})
}

func (r *Runner) RoundResultsReady(round int, result party.RoundResult, winner int) {
	r.broker.Publish(r.ID, Event{Type: EventRoundResults, Round: round, Result: result, Winner: &winner})
}

func (r *Runner) SessionEnded(score party.Scores, winner int) {
	r.endAt = time.Now()
	r.broker.Publish(r.ID, Event{Type: EventSessionEnded, Score: score, Winner: &winner})
}

func (r *Runner) checkHost(key string) error {
	if key == "" || bcrypt.CompareHashAndPassword(r.hostHash, []byte(key)) != nil {
		return errInvalidHostKey
	}
	return nil
}

// HasPlayer reports whether playerID belongs to the session. The player list
// never changes after creation.
func (r *Runner) HasPlayer(playerID int) bool {
	return slices.ContainsFunc(r.sess.Players(), func(p party.Player) bool { return p.ID == playerID })
}

func (r *Runner) Press(playerID int) error {
	return r.sess.Press(playerID)
}

func (r *Runner) Choose(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sess.Choose(name)
}

func (r *Runner) Continue() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sess.Continue()
}

func (r *Runner) ForceEnd() session.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sess.State() != session.StateGameResults {
		r.forced = true
	}
	r.sess.ForceEnd()
	return r.sess.Snapshot()
}

func (r *Runner) Snapshot() session.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sess.Snapshot()
}

// Done is closed once the session has ended and been persisted.
func (r *Runner) Done() <-chan struct{} { return r.done }

func (r *Runner) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			r.ForceEnd()
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			r.finish(ctx)
			cancel()
			return

		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			r.mu.Lock()
			err := r.sess.Tick(dt)
			over := r.sess.State() == session.StateGameResults
			r.mu.Unlock()

			if err != nil {
				r.mu.Lock()
				r.endAt = time.Now()
				r.mu.Unlock()
				r.logger.Error("session stopped", "session", r.ID, "error", err)
				r.broker.Publish(r.ID, Event{Type: EventSessionFailed, Error: err.Error()})
				return
			}
			if over {
				r.finish(ctx)
				return
			}
		}
	}
}

// finish persists the ended session. Profiles only count sessions that
// were played to the end.
func (r *Runner) finish(ctx context.Context) {
	r.mu.Lock()
	rec := r.record()
	players := r.sess.Players()
	score := r.sess.Score()
	winner := r.sess.Winner()
	forced := r.forced
	r.mu.Unlock()

	if err := r.store.SaveSession(ctx, rec); err != nil {
		r.logger.Error("saving session", "session", r.ID, "error", err)
	}
	if forced || r.profiles == nil {
		return
	}
	if err := r.profiles.RecordSession(ctx, players, score, winner); err != nil {
		r.logger.Error("recording profiles", "session", r.ID, "error", err)
	}
}

func (r *Runner) record() SessionRecord {
	history := r.sess.History()
	score, wins := r.sess.Score(), r.sess.Wins()
	endAt := r.endAt
	if endAt.IsZero() {
		endAt = time.Now()
	}

	rec := SessionRecord{
		ID:           r.ID,
		TotalRounds:  r.sess.TotalRounds(),
		RoundsPlayed: len(history),
		Winner:       r.sess.Winner(),
		Forced:       r.forced,
		StartedAt:    r.StartedAt,
		EndedAt:      endAt,
		Rounds:       history,
	}
	for _, p := range r.sess.Players() {
		rec.Players = append(rec.Players, PlayerRecord{ID: p.ID, Name: p.Name, Score: score[p.ID], Wins: wins[p.ID]})
	}
	return rec
}
