package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/moneybook-api/internal/models"
	"github.com/ashmitsharp/moneybook-api/internal/store"
)

// MaxPatternKeyLength is the number of characters kept by DeriveKey
const MaxPatternKeyLength = 50

// DeriveKey normalizes a bank narration into a pattern key: every digit is
// removed and the result is cut to the first MaxPatternKeyLength characters.
// "UPI/John/123456" and "UPI/John/987654" both become "UPI/John/".
func DeriveKey(description string) string {
	var b strings.Builder
	n := 0
	for _, r := range description {
		if unicode.IsDigit(r) {
			continue
		}
		if n == MaxPatternKeyLength {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

// AutoTagger learns description -> classification mappings from tagged
// transactions and applies them to untagged ones.
//
// The ordered pattern list is cached in ristretto under a generation-stamped
// key. Every write bumps the generation so a snapshot loaded before a write
// can never be served after it.
type AutoTagger struct {
	store      store.Store
	cache      *ristretto.Cache
	cacheTTL   time.Duration
	generation atomic.Uint64
	log        zerolog.Logger
	now        func() time.Time
}

// NewAutoTagger creates a tagger. A zero ttl disables caching.
func NewAutoTagger(s store.Store, ttl time.Duration, log zerolog.Logger) (*AutoTagger, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pattern cache: %w", err)
	}

	return &AutoTagger{
		store:    s,
		cache:    cache,
		cacheTTL: ttl,
		log:      log.With().Str("component", "autotag").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close releases the cache goroutines
func (a *AutoTagger) Close() {
	a.cache.Close()
}

func (a *AutoTagger) cacheKey(gen uint64) string {
	return fmt.Sprintf("tag_patterns:%d", gen)
}

// invalidate drops the cached snapshot after any pattern write
func (a *AutoTagger) invalidate() {
	old := a.generation.Add(1) - 1
	a.cache.Del(a.cacheKey(old))
}

// sortPatterns orders patterns for matching: longest pattern first, then the
// most recently updated, then by id.
func sortPatterns(patterns []models.TagPattern) {
	sort.SliceStable(patterns, func(i, j int) bool {
		li, lj := len([]rune(patterns[i].Pattern)), len([]rune(patterns[j].Pattern))
		if li != lj {
			return li > lj
		}
		if !patterns[i].UpdatedAt.Equal(patterns[j].UpdatedAt) {
			return patterns[i].UpdatedAt.After(patterns[j].UpdatedAt)
		}
		return patterns[i].ID < patterns[j].ID
	})
}

// patterns returns the stored patterns in match order
func (a *AutoTagger) patterns(ctx context.Context) ([]models.TagPattern, error) {
	gen := a.generation.Load()
	key := a.cacheKey(gen)

	if a.cacheTTL > 0 {
		if cached, ok := a.cache.Get(key); ok {
			return cached.([]models.TagPattern), nil
		}
	}

	patterns, err := a.store.ListTagPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tag patterns: %w", err)
	}
	sortPatterns(patterns)

	if a.cacheTTL > 0 && a.generation.Load() == gen {
		a.cache.SetWithTTL(key, patterns, 1, a.cacheTTL)
		a.cache.Wait()
	}
	return patterns, nil
}

// ListPatterns returns every stored pattern in match order
func (a *AutoTagger) ListPatterns(ctx context.Context) ([]models.TagPattern, error) {
	patterns, err := a.patterns(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.TagPattern, len(patterns))
	copy(out, patterns)
	return out, nil
}

// DeletePattern removes a pattern by id
func (a *AutoTagger) DeletePattern(ctx context.Context, id string) error {
	err := a.store.DeleteTagPattern(ctx, id)
	a.invalidate()
	return translate(err, "tag pattern "+id)
}

// Match returns the first pattern, in match order, that is a substring of
// the description's key.
func (a *AutoTagger) Match(ctx context.Context, description string) (models.TagPattern, bool, error) {
	patterns, err := a.patterns(ctx)
	if err != nil {
		return models.TagPattern{}, false, err
	}
	p, ok := matchKey(DeriveKey(description), patterns)
	return p, ok, nil
}

func matchKey(key string, patterns []models.TagPattern) (models.TagPattern, bool) {
	for _, p := range patterns {
		if strings.TrimSpace(p.Pattern) == "" {
			continue
		}
		if strings.Contains(key, p.Pattern) {
			return p, true
		}
	}
	return models.TagPattern{}, false
}

// Learn upserts the pattern for description. Nothing is learned when both ids
// are empty or the key is blank. Failures are logged, never returned.
func (a *AutoTagger) Learn(ctx context.Context, description, categoryID, payeeID string) {
	if categoryID == "" && payeeID == "" {
		return
	}
	key := DeriveKey(description)
	if strings.TrimSpace(key) == "" {
		return
	}

	now := a.now()
	_, err := a.store.UpsertTagPattern(ctx, models.TagPattern{
		ID:         uuid.New().String(),
		Pattern:    key,
		CategoryID: categoryID,
		PayeeID:    payeeID,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	a.invalidate()
	if err != nil {
		a.log.Warn().Err(err).Str("pattern", key).Msg("Failed to learn tag pattern")
		return
	}
	a.log.Debug().Str("pattern", key).Str("category_id", categoryID).Str("payee_id", payeeID).Msg("Learned tag pattern")
}

// Relearn forgets the pattern keyed by the original description, then learns
// the transaction's current classification.
func (a *AutoTagger) Relearn(ctx context.Context, originalDescription string, t models.Transaction) {
	if key := DeriveKey(originalDescription); strings.TrimSpace(key) != "" {
		if err := a.store.DeleteTagPatternByKey(ctx, key); err != nil {
			a.log.Warn().Err(err).Str("pattern", key).Msg("Failed to forget tag pattern")
		}
		a.invalidate()
	}
	a.Learn(ctx, t.Description, t.CategoryID, t.PayeeID)
}

// Apply fills category and payee of unclassified transactions from the first
// matching pattern. Already classified rows and rows without a match are
// returned unchanged. If patterns cannot be loaded the batch is returned as is.
func (a *AutoTagger) Apply(ctx context.Context, txs []models.Transaction) []models.Transaction {
	patterns, err := a.patterns(ctx)
	if err != nil {
		a.log.Warn().Err(err).Int("rows", len(txs)).Msg("Auto-tagging skipped")
		return txs
	}

	matched := 0
	for i := range txs {
		if txs[i].IsClassified() {
			continue
		}
		p, ok := matchKey(DeriveKey(txs[i].Description), patterns)
		if !ok {
			continue
		}
		if txs[i].CategoryID == "" {
			txs[i].CategoryID = p.CategoryID
		}
		if txs[i].PayeeID == "" {
			txs[i].PayeeID = p.PayeeID
		}
		matched++
	}

	a.log.Debug().Int("rows", len(txs)).Int("matched", matched).Msg("Applied tag patterns")
	return txs
}
