package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyPublisher fails the first failures calls, then succeeds.
type flakyPublisher struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (p *flakyPublisher) Publish(ctx context.Context, event OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		return errors.New("broker unavailable")
	}
	return nil
}

func (p *flakyPublisher) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func testEvent() OutboxEvent {
	return OutboxEvent{
		ID:        uuid.New(),
		EventType: "PlayerSold",
		Payload:   json.RawMessage(`{"final_price": 100}`),
		CreatedAt: time.Now(),
	}
}

func TestPublishWithRetry_FirstAttemptSucceeds(t *testing.T) {
	publisher := &flakyPublisher{}
	w := NewWorker(nil, publisher, DefaultConfig(), clockwork.NewFakeClock())

	err := w.publishWithRetry(context.Background(), testEvent())

	require.NoError(t, err)
	assert.Equal(t, 1, publisher.callCount())
}

func TestPublishWithRetry_RecoversAfterFailures(t *testing.T) {
	publisher := &flakyPublisher{failures: 2}
	clock := clockwork.NewFakeClock()
	cfg := Config{MaxRetries: 3, RetryDelay: 100 * time.Millisecond}
	w := NewWorker(nil, publisher, cfg, clock)

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.publishWithRetry(context.Background(), testEvent())
	}()

	// Linear backoff: attempt n waits n * RetryDelay.
	for attempt := 1; attempt <= 2; attempt++ {
		clock.BlockUntil(1)
		clock.Advance(cfg.RetryDelay * time.Duration(attempt))
	}

	require.NoError(t, <-errCh)
	assert.Equal(t, 3, publisher.callCount())
}

func TestPublishWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	publisher := &flakyPublisher{failures: 100}
	clock := clockwork.NewFakeClock()
	cfg := Config{MaxRetries: 2, RetryDelay: 100 * time.Millisecond}
	w := NewWorker(nil, publisher, cfg, clock)

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.publishWithRetry(context.Background(), testEvent())
	}()

	for attempt := 1; attempt <= 2; attempt++ {
		clock.BlockUntil(1)
		clock.Advance(cfg.RetryDelay * time.Duration(attempt))
	}

	err := <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, 3, publisher.callCount())
}

func TestPublishWithRetry_ContextCancelled(t *testing.T) {
	publisher := &flakyPublisher{failures: 100}
	clock := clockwork.NewFakeClock()
	cfg := Config{MaxRetries: 5, RetryDelay: time.Second}
	w := NewWorker(nil, publisher, cfg, clock)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.publishWithRetry(ctx, testEvent())
	}()

	clock.BlockUntil(1)
	cancel()

	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestNewEnvelope(t *testing.T) {
	roundID := uuid.New()
	event := OutboxEvent{
		ID:        uuid.New(),
		RoundID:   &roundID,
		EventType: "RoundStarted",
		Payload:   json.RawMessage(`{"round": 2}`),
		CreatedAt: time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC),
	}

	env := NewEnvelope(event)

	assert.Equal(t, event.ID.String(), env.EventID)
	assert.Equal(t, "RoundStarted", env.EventType)
	assert.Equal(t, roundID.String(), env.RoundID)
	assert.Equal(t, event.CreatedAt, env.Timestamp)
	assert.JSONEq(t, `{"round": 2}`, string(env.Payload))
}

func TestNewEnvelope_WireFormat(t *testing.T) {
	event := testEvent()
	data, err := json.Marshal(NewEnvelope(event))
	require.NoError(t, err)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &wire))

	assert.Contains(t, wire, "eventId")
	assert.Contains(t, wire, "eventType")
	assert.Contains(t, wire, "timestamp")
	assert.Contains(t, wire, "payload")
	// No round attached, so the field is elided.
	assert.NotContains(t, wire, "roundId")
}
