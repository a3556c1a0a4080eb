package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"donorhub/internal/profile/models"
	id "donorhub/pkg/domain"
)

// Schema creates the profiles table. Applied by migrations in deployment and
// by integration tests directly.
const Schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id                 UUID PRIMARY KEY,
	email              TEXT NOT NULL,
	email_verified     BOOLEAN NOT NULL DEFAULT FALSE,
	first_name         TEXT NOT NULL DEFAULT '',
	last_name          TEXT NOT NULL DEFAULT '',
	phone              TEXT NOT NULL DEFAULT '',
	address            JSONB,
	billing_account_id TEXT NOT NULL DEFAULT '',
	crm_account_id     TEXT NOT NULL DEFAULT '',
	last_login         TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);
`

// PostgresStore persists profiles in PostgreSQL via a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pool and verifies the connection.
func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreFromPool wraps an existing pool (integration tests).
func NewPostgresStoreFromPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const profileColumns = `id, email, email_verified, first_name, last_name, phone,
	address, billing_account_id, crm_account_id, last_login, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`,
		uuid.UUID(userID),
	)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return profile, nil
}

func (s *PostgresStore) Create(ctx context.Context, profile *models.Profile) error {
	addr, err := marshalAddress(profile.Address)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(profile.ID),
		profile.Email,
		profile.EmailVerified,
		profile.FirstName,
		profile.LastName,
		profile.Phone,
		addr,
		profile.BillingAccountID,
		profile.CRMAccountID,
		profile.LastLogin,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, profile *models.Profile) error {
	addr, err := marshalAddress(profile.Address)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE profiles SET
			email = $2,
			email_verified = $3,
			first_name = $4,
			last_name = $5,
			phone = $6,
			address = $7,
			last_login = $8,
			updated_at = $9
		WHERE id = $1`,
		uuid.UUID(profile.ID),
		profile.Email,
		profile.EmailVerified,
		profile.FirstName,
		profile.LastName,
		profile.Phone,
		addr,
		profile.LastLogin,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var (
		p       models.Profile
		rawID   uuid.UUID
		rawAddr []byte
	)
	err := row.Scan(
		&rawID,
		&p.Email,
		&p.EmailVerified,
		&p.FirstName,
		&p.LastName,
		&p.Phone,
		&rawAddr,
		&p.BillingAccountID,
		&p.CRMAccountID,
		&p.LastLogin,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.ID = id.UserID(rawID)
	if len(rawAddr) > 0 {
		if err := json.Unmarshal(rawAddr, &p.Address); err != nil {
			return nil, fmt.Errorf("decode address: %w", err)
		}
	}
	return &p, nil
}

func marshalAddress(addr models.Address) ([]byte, error) {
	if len(addr) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(addr)
	if err != nil {
		return nil, fmt.Errorf("encode address: %w", err)
	}
	return raw, nil
}

// isUniqueViolation detects PostgreSQL error 23505 without importing pgconn
// internals at every call site.
func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
