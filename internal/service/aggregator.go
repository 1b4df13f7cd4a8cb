package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"tokenagg/internal/cache"
	"tokenagg/internal/models"
	"tokenagg/internal/repository"
	"tokenagg/internal/source"
)

// CachePattern matches every aggregated result in the cache.
const CachePattern = "tokens:*"

// CacheKey returns the cache entry for one query; an empty query is "all".
func CacheKey(query string) string {
	q := strings.TrimSpace(query)
	if q == "" {
		q = "all"
	}
	return "tokens:" + q
}

// DefaultFetchTimeout covers the slowest source: the popular-query loop with retries.
const DefaultFetchTimeout = 2 * time.Minute

var ErrTokenNotFound = errors.New("token not found")

// AddressLookup resolves one token address directly against an upstream.
type AddressLookup interface {
	TokenByAddress(ctx context.Context, address string) []models.Token
}

// AggregatorService fans a query out to every source, merges the results and
// caches the merged list for the cache TTL.
type AggregatorService struct {
	Sources []source.Source
	Cache   *cache.Cache
	// Store is optional; when set, per-source fetch state is persisted.
	Store repository.Repository
	// Lookup is consulted by FindToken when a search misses the address.
	Lookup AddressLookup
	Logger *zap.Logger
	TTL    time.Duration
	// FetchTimeout bounds one shared fetch burst; zero means DefaultFetchTimeout.
	FetchTimeout time.Duration
	Now          func() time.Time

	// group collapses concurrent misses on one key into a single fetch.
	group singleflight.Group

	mu     sync.RWMutex
	states map[string]models.SourceState
}

type sourceResult struct {
	tokens   []models.Token
	started  time.Time
	duration time.Duration
}

// Aggregate returns the merged token list for query, serving from cache when possible.
func (s *AggregatorService) Aggregate(ctx context.Context, query string) ([]models.Token, error) {
	query = strings.TrimSpace(query)
	key := CacheKey(query)
	if s.Cache != nil {
		if tokens, ok := s.Cache.GetTokens(ctx, key); ok {
			s.logger().Debug("cache hit", zap.String("key", key))
			return tokens, nil
		}
	}

	// The shared fetch outlives any single caller; each caller only waits on its own ctx.
	ch := s.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout())
		defer cancel()
		return s.fetch(fetchCtx, query, key)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.Token), nil
	}
}

func (s *AggregatorService) fetch(ctx context.Context, query, key string) ([]models.Token, error) {
	s.logger().Info("fetching tokens from sources", zap.String("query", query), zap.Int("sources", len(s.Sources)))
	results := make([]sourceResult, len(s.Sources))
	var wg sync.WaitGroup
	for i, src := range s.Sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started := s.now()
			tokens := src.SearchTokens(ctx, query)
			results[i] = sourceResult{tokens: tokens, started: started, duration: s.now().Sub(started)}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []models.Token
	for i, res := range results {
		all = append(all, res.tokens...)
		s.recordSource(ctx, s.Sources[i].Name(), query, res)
	}
	merged := Merge(all)

	if s.Cache != nil {
		s.Cache.SetTokens(ctx, key, merged, s.TTL)
	}
	s.logger().Info("aggregated tokens",
		zap.String("query", query),
		zap.Int("raw", len(all)),
		zap.Int("unique", len(merged)),
	)
	return merged, nil
}

// FindToken resolves address (case-insensitive) by searching for it, then by
// direct lookup, then from the latest persisted snapshot.
func (s *AggregatorService) FindToken(ctx context.Context, address string) (*models.Token, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrTokenNotFound
	}
	tokens, err := s.Aggregate(ctx, address)
	if err != nil {
		return nil, err
	}
	if t := findByAddress(tokens, address); t != nil {
		return t, nil
	}
	if s.Lookup != nil {
		if t := findByAddress(Merge(s.Lookup.TokenByAddress(ctx, address)), address); t != nil {
			return t, nil
		}
	}
	if s.Store != nil {
		snaps, err := s.Store.FindTokenSnapshotsByAddress(ctx, address)
		if err != nil {
			s.logger().Warn("snapshot lookup failed", zap.String("address", address), zap.Error(err))
		}
		for _, snap := range snaps {
			t, err := snap.Token()
			if err != nil {
				continue
			}
			return &t, nil
		}
	}
	return nil, ErrTokenNotFound
}

func findByAddress(tokens []models.Token, address string) *models.Token {
	for i := range tokens {
		if strings.EqualFold(tokens[i].Address, address) {
			t := tokens[i]
			return &t
		}
	}
	return nil
}

// SourceStates reports the latest fetch outcome per source, from the store
// when configured and from memory otherwise.
func (s *AggregatorService) SourceStates(ctx context.Context) ([]models.SourceState, error) {
	if s.Store != nil {
		states, err := s.Store.ListSourceStates(ctx)
		if err != nil {
			return nil, err
		}
		if len(states) > 0 {
			return states, nil
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SourceState, 0, len(s.Sources))
	for _, src := range s.Sources {
		if state, ok := s.states[src.Name()]; ok {
			out = append(out, state)
			continue
		}
		out = append(out, models.SourceState{Source: src.Name()})
	}
	return out, nil
}

func (s *AggregatorService) recordSource(ctx context.Context, name, query string, res sourceResult) {
	attempted := res.started
	state := models.SourceState{
		Source:         name,
		LastAttemptAt:  &attempted,
		LastCount:      len(res.tokens),
		LastDurationMs: res.duration.Milliseconds(),
		Query:          query,
	}
	if len(res.tokens) > 0 {
		state.LastSuccessAt = &attempted
	}

	s.mu.Lock()
	if s.states == nil {
		s.states = make(map[string]models.SourceState)
	}
	if prev, ok := s.states[name]; ok && state.LastSuccessAt == nil {
		state.LastSuccessAt = prev.LastSuccessAt
	}
	s.states[name] = state
	s.mu.Unlock()

	if s.Store == nil {
		return
	}
	stats, _ := json.Marshal(map[string]any{
		"count":       state.LastCount,
		"duration_ms": state.LastDurationMs,
		"query":       query,
	})
	state.StatsJSON = datatypes.JSON(stats)
	if err := s.Store.SaveSourceState(ctx, &state); err != nil {
		s.logger().Warn("save source state failed", zap.String("source", name), zap.Error(err))
	}
}

func (s *AggregatorService) fetchTimeout() time.Duration {
	if s.FetchTimeout > 0 {
		return s.FetchTimeout
	}
	return DefaultFetchTimeout
}

func (s *AggregatorService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AggregatorService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
