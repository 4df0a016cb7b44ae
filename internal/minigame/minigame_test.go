package minigame_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/animaparty/internal/minigame"
)

func testCatalog(names ...string) minigame.Catalog {
	c := make(minigame.Catalog, len(names))
	for i, n := range names {
		c[i] = minigame.Definition{Name: n, MinPlayers: 2, MaxPlayers: 4}
	}
	return c
}

func TestCatalogValidate(t *testing.T) {
	tests := []struct {
		name    string
		catalog minigame.Catalog
		players int
		wantErr error
	}{
		{"ok", testCatalog("a", "b"), 2, nil},
		{"empty", minigame.Catalog{}, 2, minigame.ErrEmptyCatalog},
		{"duplicate", testCatalog("a", "a"), 2, minigame.ErrDuplicateName},
		{"too many players", testCatalog("a"), 5, minigame.ErrNoCompatible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate(tt.players)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCandidatesCycleWithoutRepeat(t *testing.T) {
	catalog := testCatalog("a", "b", "c", "d")
	played := minigame.Played{}
	sel := minigame.NewRandomSelector(rand.NewPCG(1, 2))

	seen := map[string]bool{}
	for range len(catalog) {
		d, ok := sel.Select(played.Candidates(catalog, 3))
		require.True(t, ok)
		assert.False(t, seen[d.Name], "repeat of %q before catalog exhausted", d.Name)
		seen[d.Name] = true
		played.Mark(d.Name)
	}
	assert.Len(t, seen, len(catalog))

	// The next selection starts a fresh cycle.
	candidates := played.Candidates(catalog, 3)
	assert.Len(t, candidates, len(catalog))
	assert.Empty(t, played)
}

func TestCandidatesSkipsIncompatible(t *testing.T) {
	catalog := minigame.Catalog{
		{Name: "duel", MinPlayers: 2, MaxPlayers: 2},
		{Name: "brawl", MinPlayers: 3},
		{Name: "any"},
	}
	played := minigame.Played{}

	got := played.Candidates(catalog, 3)
	assert.Equal(t, []string{"brawl", "any"}, minigame.Catalog(got).Names())

	played.Mark("brawl")
	played.Mark("any")
	got = played.Candidates(catalog, 3)
	assert.Equal(t, []string{"brawl", "any"}, minigame.Catalog(got).Names())
}

func TestChoiceSelector(t *testing.T) {
	catalog := testCatalog("a", "b")
	sel := minigame.NewChoiceSelector()

	_, ok := sel.Select(catalog)
	assert.False(t, ok, "no choice made yet")

	sel.Choose("b")
	d, ok := sel.Select(catalog)
	require.True(t, ok)
	assert.Equal(t, "b", d.Name)

	_, ok = sel.Select(catalog)
	assert.False(t, ok, "choice is consumed")

	sel.Choose("zzz")
	_, ok = sel.Select(catalog)
	assert.False(t, ok, "choice outside candidates is dropped")
}

func TestInputBuffer(t *testing.T) {
	buf := minigame.NewInputBuffer()
	buf.Press(1)
	assert.False(t, buf.Pressed(1), "not visible before Advance")

	buf.Advance()
	assert.True(t, buf.Pressed(1))
	assert.False(t, buf.Pressed(0))

	buf.Advance()
	assert.False(t, buf.Pressed(1), "presses last one tick")
}
