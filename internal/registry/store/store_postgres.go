package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"attestry/internal/registry/models"
	id "attestry/pkg/domain"
	"attestry/pkg/platform/sentinel"
)

// Schema is the registry table. Applied by admin bootstrap, not at startup:
// the registry instance does not exist until bootstrap has run.
const Schema = `
CREATE TABLE IF NOT EXISTS identity_records (
	principal_id UUID PRIMARY KEY,
	name         TEXT NOT NULL,
	verified     BOOLEAN NOT NULL DEFAULT FALSE,
	attested_at  BIGINT NOT NULL DEFAULT 0,
	attested_by  UUID
)`

// EnsureSchema creates the registry table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure registry schema: %w", err)
	}
	return nil
}

// Postgres persists identity records in PostgreSQL. Atomicity comes from
// single statements: ON CONFLICT DO NOTHING for registration and a keyed
// UPDATE for attestation, so no explicit transaction or row lock is needed.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registry store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, record *models.IdentityRecord) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO identity_records (principal_id, name, verified, attested_at, attested_by)
		 VALUES ($1, $2, FALSE, 0, NULL)
		 ON CONFLICT (principal_id) DO NOTHING`,
		record.Principal.String(), record.Name,
	)
	if err != nil {
		return fmt.Errorf("create identity record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create identity record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *Postgres) Attest(ctx context.Context, principal id.PrincipalID, attestation models.Attestation) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE identity_records
		 SET verified = TRUE, attested_at = $2, attested_by = $3
		 WHERE principal_id = $1`,
		principal.String(), attestation.AttestedAt, attestation.AttestedBy.String(),
	)
	if err != nil {
		return fmt.Errorf("attest identity record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attest identity record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, principal id.PrincipalID) (*models.IdentityRecord, error) {
	var (
		name       string
		verified   bool
		attestedAt int64
		attestedBy sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT name, verified, attested_at, attested_by
		 FROM identity_records WHERE principal_id = $1`,
		principal.String(),
	).Scan(&name, &verified, &attestedAt, &attestedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity record: %w", err)
	}

	record := &models.IdentityRecord{
		Principal:  principal,
		Name:       name,
		Verified:   verified,
		AttestedAt: attestedAt,
	}
	if attestedBy.Valid {
		attester, err := id.ParsePrincipalID(attestedBy.String)
		if err != nil {
			return nil, fmt.Errorf("find identity record: corrupt attester: %w", err)
		}
		record.AttestedBy = attester
	}
	return record, nil
}
