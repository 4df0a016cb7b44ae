package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playperu/animaparty/internal/party"
	"github.com/playperu/animaparty/internal/session"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) SaveSession(ctx context.Context, rec SessionRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	forced := 0
	if rec.Forced {
		forced = 1
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, total_rounds, rounds_played, winner_id, forced, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.TotalRounds, rec.RoundsPlayed, rec.Winner, forced,
		rec.StartedAt.UTC().Format(time.RFC3339Nano), rec.EndedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	for _, p := range rec.Players {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO session_players (session_id, player_id, name, score, wins)
			VALUES (?, ?, ?, ?, ?)
		`, rec.ID, p.ID, p.Name, p.Score, p.Wins)
		if err != nil {
			return fmt.Errorf("inserting player %d: %w", p.ID, err)
		}
	}

	for _, r := range rec.Rounds {
		points, err := json.Marshal(r.Result)
		if err != nil {
			return fmt.Errorf("encoding round %d: %w", r.Round, err)
		}
		timedOut := 0
		if r.TimedOut {
			timedOut = 1
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO round_results (session_id, round, minigame, winner_id, timed_out, points)
			VALUES (?, ?, ?, ?, ?, ?)
		`, rec.ID, r.Round, r.Minigame, r.Winner, timedOut, string(points))
		if err != nil {
			return fmt.Errorf("inserting round %d: %w", r.Round, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) SessionHistory(ctx context.Context, id string) (SessionRecord, error) {
	rec := SessionRecord{ID: id}
	var forced int
	var startedAt, endedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT total_rounds, rounds_played, winner_id, forced, started_at, ended_at
		FROM sessions
		WHERE id = ?
	`, id).Scan(&rec.TotalRounds, &rec.RoundsPlayed, &rec.Winner, &forced, &startedAt, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("reading session: %w", err)
	}
	rec.Forced = forced == 1
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return rec, fmt.Errorf("parsing started_at: %w", err)
	}
	if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
		return rec, fmt.Errorf("parsing ended_at: %w", err)
	}

	if rec.Players, err = s.sessionPlayers(ctx, id); err != nil {
		return rec, err
	}
	if rec.Rounds, err = s.sessionRounds(ctx, id); err != nil {
		return rec, err
	}
	return rec, nil
}

func (s *SQLiteStore) sessionPlayers(ctx context.Context, id string) ([]PlayerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id, name, score, wins
		FROM session_players
		WHERE session_id = ?
		ORDER BY player_id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("reading players: %w", err)
	}
	defer rows.Close()

	var players []PlayerRecord
	for rows.Next() {
		var p PlayerRecord
		if err := rows.Scan(&p.ID, &p.Name, &p.Score, &p.Wins); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *SQLiteStore) sessionRounds(ctx context.Context, id string) ([]session.RoundRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT round, minigame, winner_id, timed_out, points
		FROM round_results
		WHERE session_id = ?
		ORDER BY round
	`, id)
	if err != nil {
		return nil, fmt.Errorf("reading rounds: %w", err)
	}
	defer rows.Close()

	var rounds []session.RoundRecord
	for rows.Next() {
		var r session.RoundRecord
		var timedOut int
		var points string
		if err := rows.Scan(&r.Round, &r.Minigame, &r.Winner, &timedOut, &points); err != nil {
			return nil, err
		}
		r.TimedOut = timedOut == 1
		r.Result = party.RoundResult{}
		if err := json.Unmarshal([]byte(points), &r.Result); err != nil {
			return nil, fmt.Errorf("decoding round %d: %w", r.Round, err)
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}
