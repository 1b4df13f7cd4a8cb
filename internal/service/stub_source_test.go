package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tokenagg/internal/models"
)

type stubSource struct {
	name   string
	tokens []models.Token
	delay  time.Duration
	calls  atomic.Int32

	mu      sync.Mutex
	queries []string
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) SearchTokens(ctx context.Context, query string) []models.Token {
	s.calls.Add(1)
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return []models.Token{}
		}
	}
	out := make([]models.Token, len(s.tokens))
	copy(out, s.tokens)
	return out
}

type stubLookup struct {
	tokens []models.Token
}

func (l stubLookup) TokenByAddress(context.Context, string) []models.Token {
	return l.tokens
}

type stubRepo struct {
	mu        sync.Mutex
	snapshots []models.TokenSnapshot
	states    map[string]models.SourceState
}

func (r *stubRepo) UpsertTokenSnapshots(_ context.Context, items []models.TokenSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, items...)
	return nil
}

func (r *stubRepo) FindTokenSnapshotsByAddress(_ context.Context, address string) ([]models.TokenSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TokenSnapshot
	for _, s := range r.snapshots {
		if strings.EqualFold(s.Address, address) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *stubRepo) SaveSourceState(_ context.Context, state *models.SourceState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.states == nil {
		r.states = map[string]models.SourceState{}
	}
	r.states[state.Source] = *state
	return nil
}

func (r *stubRepo) ListSourceStates(context.Context) ([]models.SourceState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.SourceState, 0, len(r.states))
	for _, s := range r.states {
		out = append(out, s)
	}
	return out, nil
}
