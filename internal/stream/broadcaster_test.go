package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"tokenagg/internal/models"
)

type stubAggregator struct {
	mu     sync.Mutex
	tokens []models.Token
	calls  int
}

func (s *stubAggregator) Aggregate(context.Context, string) ([]models.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return append([]models.Token(nil), s.tokens...), nil
}

func (s *stubAggregator) set(tokens ...models.Token) {
	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()
}

func (s *stubAggregator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestDiffThresholds(t *testing.T) {
	b := NewBroadcaster(&stubAggregator{}, nil)
	b.remember([]models.Token{
		{Address: "small", PriceNative: 100, VolumeNative: 1000},
		{Address: "big", PriceNative: 100, VolumeNative: 1000},
	})

	deltas := b.Diff([]models.Token{
		{Address: "small", PriceNative: 100.5, VolumeNative: 1010},
		{Address: "big", PriceNative: 102, VolumeNative: 1000},
	})
	require.Len(t, deltas, 1)
	assert.Equal(t, "big", deltas[0].Address)
	require.NotNil(t, deltas[0].PriceNative)
	assert.Equal(t, 102.0, *deltas[0].PriceNative)
}

func TestDiffNewTokenAlwaysEmitsAndStateUpdates(t *testing.T) {
	b := NewBroadcaster(&stubAggregator{}, nil)

	first := b.Diff([]models.Token{{Address: "new", PriceNative: 1, VolumeNative: 1}})
	require.Len(t, first, 1)

	// unchanged on the next cycle
	assert.Empty(t, b.Diff([]models.Token{{Address: "new", PriceNative: 1, VolumeNative: 1}}))

	// small drifts are absorbed into state, so a later comparison uses the latest value
	assert.Empty(t, b.Diff([]models.Token{{Address: "new", PriceNative: 1.009, VolumeNative: 1}}))
	assert.Empty(t, b.Diff([]models.Token{{Address: "new", PriceNative: 1.018, VolumeNative: 1}}))
}

func TestSignificantVolumeAgainstZero(t *testing.T) {
	prev := models.Token{PriceNative: 1, VolumeNative: 0}
	assert.False(t, Significant(prev, models.Token{PriceNative: 1, VolumeNative: 0.04}))
	assert.True(t, Significant(prev, models.Token{PriceNative: 1, VolumeNative: 0.06}))
	assert.True(t, Significant(models.Token{PriceNative: 0}, models.Token{PriceNative: 1}))
	assert.False(t, Significant(models.Token{PriceNative: 0}, models.Token{PriceNative: 0}))
}

func TestTickWithoutClientsSkipsAggregation(t *testing.T) {
	agg := &stubAggregator{}
	b := NewBroadcaster(agg, nil)
	n, err := b.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, agg.callCount())
}

type snapshotMsg struct {
	Event string          `json:"event"`
	Data  SnapshotPayload `json:"data"`
}

type updateMsg struct {
	Event string        `json:"event"`
	Data  UpdatePayload `json:"data"`
}

func TestWebsocketSnapshotThenUpdates(t *testing.T) {
	agg := &stubAggregator{}
	agg.set(models.Token{Address: "A", PriceNative: 10, VolumeNative: 100})
	b := NewBroadcaster(agg, nil)

	srv := httptest.NewServer(b)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var snap snapshotMsg
	require.NoError(t, wsjson.Read(ctx, conn, &snap))
	assert.Equal(t, EventInitialSnapshot, snap.Event)
	require.Len(t, snap.Data.Tokens, 1)
	assert.Equal(t, 1, b.ConnectedClientCount())

	require.NoError(t, wsjson.Write(ctx, conn, map[string]any{"event": EventSubscribe, "data": map[string]string{"protocol": "raydium"}}))

	// unchanged: nothing is sent
	n, err := b.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	agg.set(
		models.Token{Address: "A", PriceNative: 11, VolumeNative: 100},
		models.Token{Address: "B", PriceNative: 1, VolumeNative: 1},
	)
	n, err = b.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var upd updateMsg
	require.NoError(t, wsjson.Read(ctx, conn, &upd))
	assert.Equal(t, EventUpdateBatch, upd.Event)
	require.Len(t, upd.Data.Updates, 2)
	assert.Equal(t, "A", upd.Data.Updates[0].Address)
	assert.Equal(t, "B", upd.Data.Updates[1].Address)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool { return b.ConnectedClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestCloseDisconnectsClients(t *testing.T) {
	b := NewBroadcaster(&stubAggregator{}, nil)
	srv := httptest.NewServer(b)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var snap snapshotMsg
	require.NoError(t, wsjson.Read(ctx, conn, &snap))
	assert.NotNil(t, snap.Data.Tokens)

	b.Close()
	require.Eventually(t, func() bool { return b.ConnectedClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
