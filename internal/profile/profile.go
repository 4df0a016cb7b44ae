// Package profile keeps lifetime player statistics in redis: one hash per
// player name and a sorted set ranking players by total points.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/animaparty/internal/party"
)

var ErrNotFound = errors.New("profile not found")

const (
	keyPrefix      = "animaparty:profile:"
	leaderboardKey = "animaparty:leaderboard"
)

type Profile struct {
	Name        string `json:"name"`
	GamesPlayed int    `json:"gamesPlayed"`
	Wins        int    `json:"wins"`
	Points      int    `json:"points"`
}

type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Normalize folds display names so "Ana" and " ana " share a profile.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func profileKey(name string) string {
	return keyPrefix + Normalize(name)
}

// RecordSession adds one finished session to every participant's profile.
// Players sharing a normalized name count once, as the first of them.
func (s *Store) RecordSession(ctx context.Context, players []party.Player, score party.Scores, winner int) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, p := range distinct(players) {
			key := profileKey(p.Name)
			pipe.HSet(ctx, key, "name", p.Name)
			pipe.HIncrBy(ctx, key, "games_played", 1)
			pipe.HIncrBy(ctx, key, "points", int64(score[p.ID]))
			if p.ID == winner {
				pipe.HIncrBy(ctx, key, "wins", 1)
			}
			pipe.ZIncrBy(ctx, leaderboardKey, float64(score[p.ID]), Normalize(p.Name))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("recording session profiles: %w", err)
	}
	return nil
}

func distinct(players []party.Player) []party.Player {
	seen := make(map[string]struct{}, len(players))
	out := make([]party.Player, 0, len(players))
	for _, p := range players {
		key := Normalize(p.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (s *Store) Get(ctx context.Context, name string) (Profile, error) {
	fields, err := s.rdb.HGetAll(ctx, profileKey(name)).Result()
	if err != nil {
		return Profile{}, fmt.Errorf("reading profile %q: %w", name, err)
	}
	if len(fields) == 0 {
		return Profile{}, ErrNotFound
	}
	return parseProfile(fields), nil
}

// Leaderboard returns up to limit profiles ordered by total points.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Profile, error) {
	if limit <= 0 {
		return nil, nil
	}
	members, err := s.rdb.ZRevRange(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading leaderboard: %w", err)
	}

	cmds := make([]*redis.MapStringStringCmd, len(members))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, m := range members {
			cmds[i] = pipe.HGetAll(ctx, keyPrefix+m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading leaderboard profiles: %w", err)
	}

	profiles := make([]Profile, 0, len(members))
	for _, cmd := range cmds {
		if fields := cmd.Val(); len(fields) > 0 {
			profiles = append(profiles, parseProfile(fields))
		}
	}
	return profiles, nil
}

func parseProfile(fields map[string]string) Profile {
	atoi := func(k string) int {
		n, _ := strconv.Atoi(fields[k])
		return n
	}
	return Profile{
		Name:        fields["name"],
		GamesPlayed: atoi("games_played"),
		Wins:        atoi("wins"),
		Points:      atoi("points"),
	}
}
