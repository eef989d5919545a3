package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gridpulse/fantasy-api/internal/domain/credential"
)

// CredentialRepository stores one OAuth credential record per owner. Writes
// replace the whole record; tokens and expiry always move together.
type CredentialRepository struct {
	db *sqlx.DB
}

func NewCredentialRepository(db *sqlx.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

type credentialRow struct {
	OwnerID      string    `db:"owner_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *CredentialRepository) Get(ctx context.Context, ownerID string) (credential.Stored, bool, error) {
	const query = `SELECT owner_id, access_token, refresh_token, expires_at, updated_at
FROM credentials WHERE owner_id = $1`

	var row credentialRow
	if err := r.db.GetContext(ctx, &row, query, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return credential.Stored{}, false, nil
		}
		return credential.Stored{}, false, fmt.Errorf("select credential owner=%s: %w", ownerID, err)
	}

	return credential.Stored{
		OwnerID:      row.OwnerID,
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		ExpiresAt:    row.ExpiresAt,
	}, true, nil
}

func (r *CredentialRepository) Save(ctx context.Context, record credential.Stored) error {
	if record.OwnerID == "" {
		return fmt.Errorf("credential owner id cannot be empty")
	}

	const query = `INSERT INTO credentials (owner_id, access_token, refresh_token, expires_at, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (owner_id)
DO UPDATE SET
    access_token = EXCLUDED.access_token,
    refresh_token = EXCLUDED.refresh_token,
    expires_at = EXCLUDED.expires_at,
    updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, record.OwnerID, record.AccessToken, record.RefreshToken, record.ExpiresAt); err != nil {
		return fmt.Errorf("upsert credential owner=%s: %w", record.OwnerID, err)
	}

	return nil
}

func (r *CredentialRepository) Delete(ctx context.Context, ownerID string) error {
	const query = `DELETE FROM credentials WHERE owner_id = $1`

	if _, err := r.db.ExecContext(ctx, query, ownerID); err != nil {
		return fmt.Errorf("delete credential owner=%s: %w", ownerID, err)
	}

	return nil
}
