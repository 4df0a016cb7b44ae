package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/animaparty/internal/config"
	"github.com/playperu/animaparty/internal/minigame"
	"github.com/playperu/animaparty/internal/party"
	"github.com/playperu/animaparty/internal/profile"
	"github.com/playperu/animaparty/internal/session"
)

var (
	errTooManyPlayers = errors.New("too many players")
	errBadSelection   = errors.New("selection must be random or choice")
	errShuttingDown   = errors.New("server is shutting down")
	errDuplicateName  = errors.New("player names must be unique")
)

// retainEnded is how long a finished session stays reachable by id.
const retainEnded = 10 * time.Minute

// Settings configure the sessions a Registry creates.
type Settings struct {
	Catalog      minigame.Catalog
	Session      session.Config
	TickInterval time.Duration
	Selection    string
	MaxPlayers   int
}

type CreateOptions struct {
	Players     []string
	TotalRounds int
	Selection   string
}

// Registry tracks running sessions and owns their goroutines.
type Registry struct {
	settings Settings
	broker   *Broker
	store    Store
	profiles ProfileStore
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	runners map[string]*Runner
}

func NewRegistry(settings Settings, broker *Broker, store Store, profiles ProfileStore, logger *slog.Logger) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		settings: settings,
		broker:   broker,
		store:    store,
		profiles: profiles,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		runners:  make(map[string]*Runner),
	}
}

// Create builds a session, starts it and returns its runner together with
// the host key that authorizes host-only commands.
func (r *Registry) Create(opts CreateOptions) (*Runner, string, error) {
	if r.ctx.Err() != nil {
		return nil, "", errShuttingDown
	}
	if len(opts.Players) > r.settings.MaxPlayers {
		return nil, "", fmt.Errorf("%w: at most %d", errTooManyPlayers, r.settings.MaxPlayers)
	}

	cfg := r.settings.Session
	if opts.TotalRounds > 0 {
		cfg.TotalRounds = opts.TotalRounds
	}
	selection := r.settings.Selection
	if opts.Selection != "" {
		selection = opts.Selection
	}
	var sel minigame.Selector
	switch selection {
	case config.SelectionRandom:
		sel = minigame.NewRandomSelector(nil)
	case config.SelectionChoice:
		sel = minigame.NewChoiceSelector()
	default:
		return nil, "", errBadSelection
	}

	hostKey := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(hostKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing host key: %w", err)
	}

	id := uuid.NewString()
	logger := r.logger.With("session", id)
	runner := &Runner{
		ID:        id,
		StartedAt: time.Now(),
		hostHash:  hash,
		interval:  r.settings.TickInterval,
		broker:    r.broker,
		store:     r.store,
		profiles:  r.profiles,
		logger:    logger,
		done:      make(chan struct{}),
	}

	players := party.NewPlayers(opts.Players)
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		key := profile.Normalize(p.Name)
		if seen[key] {
			return nil, "", fmt.Errorf("%w: %q", errDuplicateName, p.Name)
		}
		seen[key] = true
	}

	sess, err := session.New(cfg, players, session.Deps{
		Catalog:  r.settings.Catalog,
		Policy:   session.NewPartyPolicy(sel),
		Observer: runner,
		Logger:   logger,
	})
	if err != nil {
		return nil, "", err
	}
	runner.sess = sess

	runner.mu.Lock()
	err = sess.Start()
	runner.mu.Unlock()
	if err != nil {
		return nil, "", fmt.Errorf("starting session: %w", err)
	}

	// Close cancels under mu, so a runner registered here is always
	// counted before Close starts waiting.
	r.mu.Lock()
	if r.ctx.Err() != nil {
		r.mu.Unlock()
		return nil, "", errShuttingDown
	}
	r.reapLocked()
	r.runners[id] = runner
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		runner.run(r.ctx)
	}()

	return runner, hostKey, nil
}

func (r *Registry) Get(id string) (*Runner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	runner, ok := r.runners[id]
	if !ok {
		return nil, ErrNotFound
	}
	return runner, nil
}

// Len reports the number of sessions currently tracked.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runners)
}

// Run blocks until ctx is done, then force-ends every session and waits
// for the runners to persist them.
func (r *Registry) Run(ctx context.Context) error {
	<-ctx.Done()
	r.Close()
	return nil
}

func (r *Registry) Close() {
	r.mu.Lock()
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
}

// reapLocked drops sessions that ended more than retainEnded ago.
func (r *Registry) reapLocked() {
	for id, runner := range r.runners {
		select {
		case <-runner.done:
			runner.mu.Lock()
			endAt := runner.endAt
			runner.mu.Unlock()
			if !endAt.IsZero() && time.Since(endAt) > retainEnded {
				delete(r.runners, id)
			}
		default:
		}
	}
}
