package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	id "donorhub/pkg/domain"
)

// OutboxSchema creates the audit outbox table. Applied by the operator or a
// migration tool, kept here so the layout lives next to the queries.
const OutboxSchema = `
CREATE TABLE IF NOT EXISTS audit_outbox (
    seq          BIGSERIAL PRIMARY KEY,
    event_id     UUID        NOT NULL UNIQUE,
    occurred_at  TIMESTAMPTZ NOT NULL,
    user_id      TEXT        NOT NULL,
    action       TEXT        NOT NULL,
    actor        TEXT        NOT NULL DEFAULT '',
    detail       JSONB,
    published_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS audit_outbox_unpublished_idx
    ON audit_outbox (seq) WHERE published_at IS NULL;
CREATE INDEX IF NOT EXISTS audit_outbox_user_idx ON audit_outbox (user_id);
`

// OutboxRow is an event plus its outbox sequence number.
type OutboxRow struct {
	Seq   int64
	Event Event
}

// PostgresStore persists events in the audit_outbox table. Append and the
// worker's batch reads share the table; published rows stay behind as the
// queryable audit trail.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open connects to Postgres with the lib/pq driver and verifies the
// connection.
func Open(ctx context.Context, url string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open audit store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping audit store: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	detail, err := marshalDetail(event.Detail)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_outbox (event_id, occurred_at, user_id, action, actor, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING
	`, event.ID, event.Timestamp, event.UserID, event.Action, event.Actor, detail)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, occurred_at, user_id, action, actor, detail
		FROM audit_outbox
		WHERE user_id = $1
		ORDER BY seq
	`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

// NextBatch returns up to limit unpublished rows in sequence order. Delivery
// is at-least-once: a crash between publish and MarkPublished redelivers.
func (s *PostgresStore) NextBatch(ctx context.Context, limit int) ([]OutboxRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, event_id, occurred_at, user_id, action, actor, detail
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim outbox batch: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []OutboxRow
	for rows.Next() {
		var row OutboxRow
		var detail []byte
		if err := rows.Scan(&row.Seq, &row.Event.ID, &row.Event.Timestamp,
			&row.Event.UserID, &row.Event.Action, &row.Event.Actor, &detail); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		if err := unmarshalDetail(detail, &row.Event); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MarkPublished stamps the given rows so the worker never redelivers them.
func (s *PostgresStore) MarkPublished(ctx context.Context, seqs []int64) error {
	if len(seqs) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE audit_outbox SET published_at = $1 WHERE seq = ANY($2)
	`, time.Now().UTC(), pq.Array(seqs))
	if err != nil {
		return fmt.Errorf("mark outbox rows published: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close(context.Context) error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(r rowScanner) (Event, error) {
	var event Event
	var detail []byte
	if err := r.Scan(&event.ID, &event.Timestamp, &event.UserID,
		&event.Action, &event.Actor, &detail); err != nil {
		return Event{}, fmt.Errorf("scan audit event: %w", err)
	}
	if err := unmarshalDetail(detail, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

func marshalDetail(detail map[string]string) ([]byte, error) {
	if len(detail) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(detail)
	if err != nil {
		return nil, fmt.Errorf("marshal audit detail: %w", err)
	}
	return b, nil
}

func unmarshalDetail(raw []byte, event *Event) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &event.Detail); err != nil {
		return fmt.Errorf("unmarshal audit detail: %w", err)
	}
	return nil
}
