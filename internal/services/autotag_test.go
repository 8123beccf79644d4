package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashmitsharp/moneybook-api/internal/models"
	"github.com/ashmitsharp/moneybook-api/internal/store"
)

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"UPI reference digits", "UPI/John/123456", "UPI/John/"},
		{"different reference same key", "UPI/John/987654", "UPI/John/"},
		{"digits inside words", "POS 4521XXXX SWIGGY", "POS XXXX SWIGGY"},
		{"no digits", "NEFT SALARY", "NEFT SALARY"},
		{"only digits", "0123456789", ""},
		{"empty", "", ""},
		{"truncated after stripping", strings.Repeat("AB1", 40), strings.Repeat("AB", 25)},
		{"multibyte characters count once", strings.Repeat("é", 60), strings.Repeat("é", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveKey(tt.description)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), MaxPatternKeyLength)
		})
	}
}

func TestAutoTagger_ApplyMatchesSubstring(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	_, err := s.UpsertTagPattern(ctx, models.TagPattern{ID: "p1", Pattern: "SWIGGY", CategoryID: "food"})
	require.NoError(t, err)

	tagger, err := NewAutoTagger(s, 0, zerolog.Nop())
	require.NoError(t, err)
	defer tagger.Close()

	txs := tagger.Apply(ctx, []models.Transaction{
		{ID: "t1", Description: "SWIGGY ORDER 4521"},
		{ID: "t2", Description: "UBER TRIP"},
		{ID: "t3", Description: "SWIGGY ORDER 99", CategoryID: "already"},
	})

	assert.Equal(t, "food", txs[0].CategoryID)
	assert.Empty(t, txs[1].CategoryID)
	assert.Equal(t, "already", txs[2].CategoryID)
}

func TestAutoTagger_MatchOrder(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	patterns := []models.TagPattern{
		{ID: "short", Pattern: "UPI", CategoryID: "transfers", UpdatedAt: base.Add(time.Hour)},
		{ID: "long", Pattern: "UPI/SWIGGY", CategoryID: "food", UpdatedAt: base},
		{ID: "old-tie", Pattern: "UPI/ZOMATO", CategoryID: "old", UpdatedAt: base},
		{ID: "new-tie", Pattern: "ZOMATO/UPI", CategoryID: "new", UpdatedAt: base.Add(time.Minute)},
	}
	for _, p := range patterns {
		_, err := s.UpsertTagPattern(ctx, p)
		require.NoError(t, err)
	}

	tagger, err := NewAutoTagger(s, 0, zerolog.Nop())
	require.NoError(t, err)
	defer tagger.Close()

	tests := []struct {
		name        string
		description string
		wantID      string
		wantMatch   bool
	}{
		{"longest pattern wins over earlier short one", "UPI/SWIGGY/1234", "long", true},
		{"short pattern still matches alone", "UPI/RAVI/1234", "short", true},
		{"equal length prefers most recently updated", "UPI/ZOMATO/UPI", "new", true},
		{"no match", "NEFT SALARY", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok, err := tagger.Match(ctx, tt.description)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMatch, ok)
			assert.Equal(t, tt.wantID, p.ID)
		})
	}
}

func TestAutoTagger_LearnUpserts(t *testing.T) {
	ctx := context.Background()
	tagger, err := NewAutoTagger(store.NewMemory(), 0, zerolog.Nop())
	require.NoError(t, err)
	defer tagger.Close()

	tagger.Learn(ctx, "NETFLIX 123", "entertainment", "")
	tagger.Learn(ctx, "NETFLIX 456", "subscriptions", "")
	tagger.Learn(ctx, "12345", "ignored", "")
	tagger.Learn(ctx, "NOTHING TO LEARN", "", "")

	patterns, err := tagger.ListPatterns(ctx)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, "NETFLIX ", patterns[0].Pattern)
	assert.Equal(t, "subscriptions", patterns[0].CategoryID)
}

func TestAutoTagger_CacheSeesWrites(t *testing.T) {
	ctx := context.Background()
	tagger, err := NewAutoTagger(store.NewMemory(), time.Minute, zerolog.Nop())
	require.NoError(t, err)
	defer tagger.Close()

	_, ok, err := tagger.Match(ctx, "AIRTEL RECHARGE 399")
	require.NoError(t, err)
	assert.False(t, ok)

	tagger.Learn(ctx, "AIRTEL RECHARGE 199", "mobile", "")

	p, ok, err := tagger.Match(ctx, "AIRTEL RECHARGE 399")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "mobile", p.CategoryID)

	require.NoError(t, tagger.DeletePattern(ctx, p.ID))
	_, ok, err = tagger.Match(ctx, "AIRTEL RECHARGE 399")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, tagger.DeletePattern(ctx, p.ID), ErrNotFound)
}

func TestAutoTagger_RelearnReplacesOriginalKey(t *testing.T) {
	ctx := context.Background()
	tagger, err := NewAutoTagger(store.NewMemory(), 0, zerolog.Nop())
	require.NoError(t, err)
	defer tagger.Close()

	tagger.Learn(ctx, "ATM WDL 001", "cash", "")
	tagger.Relearn(ctx, "ATM WDL 001", models.Transaction{Description: "ATM CASH 001", CategoryID: "cash"})

	patterns, err := tagger.ListPatterns(ctx)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, "ATM CASH ", patterns[0].Pattern)
}
