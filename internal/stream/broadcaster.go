package stream

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"tokenagg/internal/models"
)

// Event names on the wire.
const (
	EventInitialSnapshot = "initial-snapshot"
	EventUpdateBatch     = "update-batch"
	EventSubscribe       = "subscribe"
	EventError           = "error"
)

// Relative change above which a known token is re-sent.
const (
	PriceThreshold  = 0.01
	VolumeThreshold = 0.05
)

const (
	DefaultInterval = 5 * time.Second
	sendBuffer      = 16
	writeTimeout    = 5 * time.Second
)

// Aggregator supplies the current merged token list.
type Aggregator interface {
	Aggregate(ctx context.Context, query string) ([]models.Token, error)
}

type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type SnapshotPayload struct {
	Tokens    []models.Token `json:"tokens"`
	Timestamp time.Time      `json:"timestamp"`
}

type UpdatePayload struct {
	Updates   []models.TokenDelta `json:"updates"`
	Timestamp time.Time           `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type client struct {
	id     string
	conn   *websocket.Conn
	send   chan Envelope
	cancel context.CancelFunc
}

// Broadcaster pushes the token list to websocket clients: a full snapshot on
// connect, then only tokens whose price or volume moved materially.
type Broadcaster struct {
	agg    Aggregator
	logger *zap.Logger
	now    func() time.Time

	// mu guards last, the last-broadcast state per token key.
	mu   sync.Mutex
	last map[string]models.Token

	clientsMu sync.RWMutex
	clients   map[string]*client
}

func NewBroadcaster(agg Aggregator, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		agg:     agg,
		logger:  logger,
		now:     time.Now,
		last:    make(map[string]models.Token),
		clients: make(map[string]*client),
	}
}

func (b *Broadcaster) ConnectedClientCount() int {
	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()
	return len(b.clients)
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		b.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	b.serve(r.Context(), conn)
}

func (b *Broadcaster) serve(parent context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(parent)
	c := &client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan Envelope, sendBuffer),
		cancel: cancel,
	}
	b.register(c)
	defer func() {
		b.unregister(c)
		cancel()
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	go b.readLoop(ctx, c)

	tokens, err := b.agg.Aggregate(ctx, "")
	if err != nil {
		b.logger.Error("initial snapshot failed", zap.String("client", c.id), zap.Error(err))
		_ = b.write(ctx, c, Envelope{Event: EventError, Data: ErrorPayload{Message: "failed to load initial data"}})
	} else {
		b.remember(tokens)
		if tokens == nil {
			tokens = []models.Token{}
		}
		snapshot := Envelope{Event: EventInitialSnapshot, Data: SnapshotPayload{Tokens: tokens, Timestamp: b.now()}}
		if err := b.write(ctx, c, snapshot); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-c.send:
			if err := b.write(ctx, c, env); err != nil {
				return
			}
		}
	}
}

// readLoop drains inbound frames; subscribe requests are only logged.
func (b *Broadcaster) readLoop(ctx context.Context, c *client) {
	defer c.cancel()
	for {
		var msg inbound
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				b.logger.Debug("websocket read ended", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
		if msg.Event == EventSubscribe {
			b.logger.Debug("client subscribed", zap.String("client", c.id), zap.ByteString("filters", msg.Data))
		}
	}
}

func (b *Broadcaster) write(ctx context.Context, c *client, env Envelope) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, c.conn, env); err != nil {
		b.logger.Debug("websocket write failed", zap.String("client", c.id), zap.Error(err))
		return err
	}
	return nil
}

func (b *Broadcaster) register(c *client) {
	b.clientsMu.Lock()
	b.clients[c.id] = c
	n := len(b.clients)
	b.clientsMu.Unlock()
	b.logger.Info("client connected", zap.String("client", c.id), zap.Int("total", n))
}

func (b *Broadcaster) unregister(c *client) {
	b.clientsMu.Lock()
	delete(b.clients, c.id)
	n := len(b.clients)
	b.clientsMu.Unlock()
	b.logger.Info("client disconnected", zap.String("client", c.id), zap.Int("total", n))
}

// Run ticks every interval until ctx ends.
func (b *Broadcaster) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.Tick(ctx); err != nil && ctx.Err() == nil {
				b.logger.Error("broadcast cycle failed", zap.Error(err))
			}
		}
	}
}

// Tick re-aggregates and sends one update batch when anything changed. It is
// a no-op while no client is connected.
func (b *Broadcaster) Tick(ctx context.Context) (int, error) {
	if b.ConnectedClientCount() == 0 {
		return 0, nil
	}
	tokens, err := b.agg.Aggregate(ctx, "")
	if err != nil {
		return 0, err
	}
	deltas := b.Diff(tokens)
	if len(deltas) == 0 {
		return 0, nil
	}
	b.logger.Debug("broadcasting token updates", zap.Int("updates", len(deltas)))
	b.Broadcast(Envelope{Event: EventUpdateBatch, Data: UpdatePayload{Updates: deltas, Timestamp: b.now()}})
	return len(deltas), nil
}

// Diff returns deltas for new and materially changed tokens and records
// every token as the new last-known state.
func (b *Broadcaster) Diff(tokens []models.Token) []models.TokenDelta {
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()
	var deltas []models.TokenDelta
	for _, t := range tokens {
		key := t.Key()
		prev, ok := b.last[key]
		if !ok || Significant(prev, t) {
			deltas = append(deltas, models.DeltaFromToken(t, now))
		}
		b.last[key] = t
	}
	return deltas
}

// Broadcast queues env for every client. A client whose buffer is full misses it.
func (b *Broadcaster) Broadcast(env Envelope) {
	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()
	for _, c := range b.clients {
		select {
		case c.send <- env:
		default:
			b.logger.Warn("client send buffer full, dropping message", zap.String("client", c.id))
		}
	}
}

// Close disconnects every client.
func (b *Broadcaster) Close() {
	b.clientsMu.RLock()
	defer b.clientsMu.RUnlock()
	for _, c := range b.clients {
		c.cancel()
	}
}

func (b *Broadcaster) remember(tokens []models.Token) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range tokens {
		b.last[t.Key()] = t
	}
}

// Significant reports whether cur moved more than 1% in price or 5% in volume
// from prev. A zero previous volume is compared against 1.
func Significant(prev, cur models.Token) bool {
	priceChange := math.Abs((cur.PriceNative - prev.PriceNative) / prev.PriceNative)
	volumeBase := prev.VolumeNative
	if volumeBase == 0 {
		volumeBase = 1
	}
	volumeChange := math.Abs((cur.VolumeNative - prev.VolumeNative) / volumeBase)
	return priceChange > PriceThreshold || volumeChange > VolumeThreshold
}
