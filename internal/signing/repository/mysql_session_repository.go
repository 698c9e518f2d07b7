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

// MySQLSessionRepository implements Session persistence for MySQL databases.
type MySQLSessionRepository struct {
	db *sql.DB
}

// Create inserts a new signing session into the MySQL database.
func (m *MySQLSessionRepository) Create(ctx context.Context, session *signingDomain.Session) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO signing_sessions (id, document_id, signer_id, token_hash, expires_at, consumed_at, revoked_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := session.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}

	documentID, err := session.DocumentID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal document id")
	}

	signerID, err := session.SignerID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal signer id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		documentID,
		signerID,
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
func (m *MySQLSessionRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*signingDomain.Session, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, document_id, signer_id, token_hash, expires_at, consumed_at, revoked_at, created_at
			  FROM signing_sessions
			  WHERE token_hash = ?
			  LIMIT 1`

	var session signingDomain.Session
	var id, documentID, signerID []byte

	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&id,
		&documentID,
		&signerID,
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

	if err := session.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal session id")
	}
	if err := session.DocumentID.UnmarshalBinary(documentID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal document id")
	}
	if err := session.SignerID.UnmarshalBinary(signerID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal signer id")
	}

	return &session, nil
}

// Consume marks a session as consumed. The guarded update succeeds for exactly
// one caller; a second attempt returns ErrConflict.
func (m *MySQLSessionRepository) Consume(ctx context.Context, sessionID uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, m.db)

	id, err := sessionID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}

	query := `UPDATE signing_sessions
			  SET consumed_at = ?
			  WHERE id = ? AND consumed_at IS NULL AND revoked_at IS NULL AND expires_at > ?`

	result, err := querier.ExecContext(ctx, query, now.UTC(), id, now.UTC())
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

// RevokeActiveBySigner revokes every active session of a signer.
func (m *MySQLSessionRepository) RevokeActiveBySigner(ctx context.Context, signerID uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, m.db)

	id, err := signerID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal signer id")
	}

	query := `UPDATE signing_sessions
			  SET revoked_at = ?
			  WHERE signer_id = ? AND consumed_at IS NULL AND revoked_at IS NULL`

	if _, err := querier.ExecContext(ctx, query, now.UTC(), id); err != nil {
		return apperrors.Wrap(err, "failed to revoke signer sessions")
	}

	return nil
}

// RevokeActiveByDocument revokes every active session of a document.
func (m *MySQLSessionRepository) RevokeActiveByDocument(ctx context.Context, documentID uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, m.db)

	id, err := documentID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal document id")
	}

	query := `UPDATE signing_sessions
			  SET revoked_at = ?
			  WHERE document_id = ? AND consumed_at IS NULL AND revoked_at IS NULL`

	if _, err := querier.ExecContext(ctx, query, now.UTC(), id); err != nil {
		return apperrors.Wrap(err, "failed to revoke document sessions")
	}

	return nil
}

// NewMySQLSessionRepository creates a new MySQL Session repository instance.
func NewMySQLSessionRepository(db *sql.DB) *MySQLSessionRepository {
	return &MySQLSessionRepository{db: db}
}
