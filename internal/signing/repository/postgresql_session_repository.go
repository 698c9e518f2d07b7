// Package repository implements signing session persistence. Consumption uses
// a guarded update so exactly one caller can win a concurrent commit race.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/database"
	apperrors "github.com/gsPatrick/garimponos-sign/internal/errors"
	signingDomain "github.com/gsPatrick/garimponos-sign/internal/signing/domain"
)

// PostgreSQLSessionRepository implements Session persistence for PostgreSQL databases.
type PostgreSQLSessionRepository struct {
	db *sql.DB
}

// Create inserts a new signing session into the PostgreSQL database.
func (p *PostgreSQLSessionRepository) Create(ctx context.Context, session *signingDomain.Session) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO signing_sessions (id, document_id, signer_id, token_hash, expires_at, consumed_at, revoked_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := querier.ExecContext(
		ctx,
		query,
		session.ID,
		session.DocumentID,
		session.SignerID,
		session.TokenHash,
		session.ExpiresAt,
		session.ConsumedAt,
		session.RevokedAt,
		session.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create signing session")
	}

	return nil
}

// GetByTokenHash retrieves a session by its token hash regardless of state.
// The caller distinguishes expired, consumed and revoked sessions.
func (p *PostgreSQLSessionRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*signingDomain.Session, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, document_id, signer_id, token_hash, expires_at, consumed_at, revoked_at, created_at
			  FROM signing_sessions
			  WHERE token_hash = $1
			  LIMIT 1`

	var session signingDomain.Session
	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&session.ID,
		&session.DocumentID,
		&session.SignerID,
		&session.TokenHash,
		&session.ExpiresAt,
		&session.ConsumedAt,
		&session.RevokedAt,
		&session.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get signing session by token hash")
	}

	return &session, nil
}

// Consume marks a session as consumed. The guarded update succeeds for exactly
// one caller; a second attempt returns ErrConflict and the caller re-fetches
// the session to diagnose why.
func (p *PostgreSQLSessionRepository) Consume(ctx context.Context, sessionID uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE signing_sessions
			  SET consumed_at = $1
			  WHERE id = $2 AND consumed_at IS NULL AND revoked_at IS NULL AND expires_at > $1`

	result, err := querier.ExecContext(ctx, query, now.UTC(), sessionID)
	if err != nil {
		return apperrors.Wrap(err, "failed to consume signing session")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read consume result")
	}
	if affected == 0 {
		return apperrors.ErrConflict
	}

	return nil
}

// RevokeActiveBySigner revokes every active session of a signer. Used when a
// new invitation supersedes the previous link.
func (p *PostgreSQLSessionRepository) RevokeActiveBySigner(ctx context.Context, signerID uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE signing_sessions
			  SET revoked_at = $1
			  WHERE signer_id = $2 AND consumed_at IS NULL AND revoked_at IS NULL`

	if _, err := querier.ExecContext(ctx, query, now.UTC(), signerID); err != nil {
		return apperrors.Wrap(err, "failed to revoke signer sessions")
	}

	return nil
}

// RevokeActiveByDocument revokes every active session of a document. Used on
// cancellation and expiry.
func (p *PostgreSQLSessionRepository) RevokeActiveByDocument(ctx context.Context, documentID uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE signing_sessions
			  SET revoked_at = $1
			  WHERE document_id = $2 AND consumed_at IS NULL AND revoked_at IS NULL`

	if _, err := querier.ExecContext(ctx, query, now.UTC(), documentID); err != nil {
		return apperrors.Wrap(err, "failed to revoke document sessions")
	}

	return nil
}

// NewPostgreSQLSessionRepository creates a new PostgreSQL Session repository instance.
func NewPostgreSQLSessionRepository(db *sql.DB) *PostgreSQLSessionRepository {
	return &PostgreSQLSessionRepository{db: db}
}
