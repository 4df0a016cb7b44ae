package server

import (
	"context"
	"errors"
	"time"

	"github.com/playperu/animaparty/internal/party"
	"github.com/playperu/animaparty/internal/profile"
	"github.com/playperu/animaparty/internal/session"
)

var ErrNotFound = errors.New("not found")

// SessionRecord is a finished session as persisted.
type SessionRecord struct {
	ID           string                `json:"id"`
	TotalRounds  int                   `json:"totalRounds"`
	RoundsPlayed int                   `json:"roundsPlayed"`
	Winner       int                   `json:"winner"`
	Forced       bool                  `json:"forced"`
	StartedAt    time.Time             `json:"startedAt"`
	EndedAt      time.Time             `json:"endedAt"`
	Players      []PlayerRecord        `json:"players"`
	Rounds       []session.RoundRecord `json:"rounds"`
}

type PlayerRecord struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Wins  int    `json:"wins"`
}

// Store persists finished sessions.
type Store interface {
	SaveSession(ctx context.Context, rec SessionRecord) error
	SessionHistory(ctx context.Context, id string) (SessionRecord, error)
}

// ProfileStore accumulates lifetime player statistics.
type ProfileStore interface {
	RecordSession(ctx context.Context, players []party.Player, score party.Scores, winner int) error
	Leaderboard(ctx context.Context, limit int) ([]profile.Profile, error)
	Get(ctx context.Context, name string) (profile.Profile, error)
}
