package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "donorhub/pkg/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisherEmit(t *testing.T) {
	store := NewMemoryStore()
	pub := NewPublisher(store)
	owner := id.UserID(uuid.New())

	err := pub.Emit(context.Background(), Event{
		UserID: owner.String(),
		Action: ActionProfileUpdated,
		Detail: map[string]string{"addressChanged": "true"},
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEqual(t, uuid.Nil, events[0].ID, "emit assigns an event id")
	assert.False(t, events[0].Timestamp.IsZero(), "emit stamps the time")
	assert.Equal(t, ActionProfileUpdated, events[0].Action)
}

func TestPublisherEmit_KeepsExplicitFields(t *testing.T) {
	store := NewMemoryStore()
	pub := NewPublisher(store)
	eventID := uuid.New()

	require.NoError(t, pub.Emit(context.Background(), Event{
		ID:     eventID,
		UserID: "u1",
		Action: ActionLoginSucceeded,
	}))

	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, eventID, all[0].ID)
}

// stubOutbox serves a fixed batch and records which rows got marked.
type stubOutbox struct {
	mu     sync.Mutex
	rows   []OutboxRow
	marked []int64
}

func (s *stubOutbox) NextBatch(_ context.Context, limit int) ([]OutboxRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rows) < limit {
		limit = len(s.rows)
	}
	return s.rows[:limit], nil
}

func (s *stubOutbox) MarkPublished(_ context.Context, seqs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, seqs...)
	remaining := s.rows[:0]
	for _, row := range s.rows {
		keep := true
		for _, seq := range seqs {
			if row.Seq == seq {
				keep = false
				break
			}
		}
		if keep {
			remaining = append(remaining, row)
		}
	}
	s.rows = remaining
	return nil
}

// stubSink fails publishes for actions in failOn.
type stubSink struct {
	mu        sync.Mutex
	published []Event
	failOn    map[string]bool
}

func (s *stubSink) Publish(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn[event.Action] {
		return errors.New("broker unavailable")
	}
	s.published = append(s.published, event)
	return nil
}

func (s *stubSink) Close() {}

func outboxRow(seq int64, action string) OutboxRow {
	return OutboxRow{Seq: seq, Event: Event{ID: uuid.New(), UserID: "u1", Action: action}}
}

func TestWorkerDrain(t *testing.T) {
	outbox := &stubOutbox{rows: []OutboxRow{
		outboxRow(1, ActionAccountCreated),
		outboxRow(2, ActionProfileUpdated),
	}}
	sink := &stubSink{}

	w := NewWorker(outbox, sink, testLogger(), nil)
	w.drain(context.Background())

	assert.Len(t, sink.published, 2)
	assert.Equal(t, []int64{1, 2}, outbox.marked)
	assert.Empty(t, outbox.rows, "published rows leave the pending set")
}

func TestWorkerDrain_StopsAtFirstFailure(t *testing.T) {
	outbox := &stubOutbox{rows: []OutboxRow{
		outboxRow(1, ActionAccountCreated),
		outboxRow(2, ActionProfileUpdated),
		outboxRow(3, ActionLoginSucceeded),
	}}
	sink := &stubSink{failOn: map[string]bool{ActionProfileUpdated: true}}

	w := NewWorker(outbox, sink, testLogger(), nil)
	w.drain(context.Background())

	// Row 1 published and marked; rows 2 and 3 stay pending in order.
	require.Len(t, sink.published, 1)
	assert.Equal(t, ActionAccountCreated, sink.published[0].Action)
	assert.Equal(t, []int64{1}, outbox.marked)
	require.Len(t, outbox.rows, 2)
	assert.Equal(t, int64(2), outbox.rows[0].Seq)

	// Next tick retries from the failed row.
	sink.failOn = nil
	w.drain(context.Background())
	assert.Len(t, sink.published, 3)
	assert.Empty(t, outbox.rows)
}

func TestMemoryStore_ListByUser(t *testing.T) {
	store := NewMemoryStore()
	a := id.UserID(uuid.New())
	b := id.UserID(uuid.New())

	require.NoError(t, store.Append(context.Background(), Event{ID: uuid.New(), UserID: a.String(), Action: ActionAccountCreated}))
	require.NoError(t, store.Append(context.Background(), Event{ID: uuid.New(), UserID: b.String(), Action: ActionAccountCreated}))
	require.NoError(t, store.Append(context.Background(), Event{ID: uuid.New(), UserID: a.String(), Action: ActionProfileUpdated}))

	events, err := store.ListByUser(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionAccountCreated, events[0].Action)
	assert.Equal(t, ActionProfileUpdated, events[1].Action)
}
