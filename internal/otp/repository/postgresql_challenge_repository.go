// Package repository implements OTP challenge persistence.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/database"
	apperrors "github.com/gsPatrick/garimponos-sign/internal/errors"
	otpDomain "github.com/gsPatrick/garimponos-sign/internal/otp/domain"
)

// PostgreSQLChallengeRepository implements Challenge persistence for PostgreSQL databases.
type PostgreSQLChallengeRepository struct {
	db *sql.DB
}

// Create inserts a new OTP challenge into the PostgreSQL database.
func (p *PostgreSQLChallengeRepository) Create(ctx context.Context, challenge *otpDomain.Challenge) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO otp_challenges (id, signer_id, document_id, code_hash, channel, attempts, max_attempts, expires_at, consumed_at, superseded_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := querier.ExecContext(
		ctx,
		query,
		challenge.ID,
		challenge.SignerID,
		challenge.DocumentID,
		challenge.CodeHash,
		challenge.Channel,
		challenge.Attempts,
		challenge.MaxAttempts,
		challenge.ExpiresAt,
		challenge.ConsumedAt,
		challenge.SupersededAt,
		challenge.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create otp challenge")
	}

	return nil
}

// GetLatestBySigner retrieves the most recent challenge for a signer.
func (p *PostgreSQLChallengeRepository) GetLatestBySigner(
	ctx context.Context,
	signerID uuid.UUID,
) (*otpDomain.Challenge, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, signer_id, document_id, code_hash, channel, attempts, max_attempts, expires_at, consumed_at, superseded_at, created_at
			  FROM otp_challenges
			  WHERE signer_id = $1
			  ORDER BY created_at DESC
			  LIMIT 1`

	var challenge otpDomain.Challenge
	err := querier.QueryRowContext(ctx, query, signerID).Scan(
		&challenge.ID,
		&challenge.SignerID,
		&challenge.DocumentID,
		&challenge.CodeHash,
		&challenge.Channel,
		&challenge.Attempts,
		&challenge.MaxAttempts,
		&challenge.ExpiresAt,
		&challenge.ConsumedAt,
		&challenge.SupersededAt,
		&challenge.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get latest otp challenge")
	}

	return &challenge, nil
}

// Update persists attempt counts and consumption marks of a challenge.
func (p *PostgreSQLChallengeRepository) Update(ctx context.Context, challenge *otpDomain.Challenge) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE otp_challenges
			  SET attempts = $1, consumed_at = $2, superseded_at = $3
			  WHERE id = $4`

	_, err := querier.ExecContext(
		ctx,
		query,
		challenge.Attempts,
		challenge.ConsumedAt,
		challenge.SupersededAt,
		challenge.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update otp challenge")
	}

	return nil
}

// SupersedeLiveBySigner marks every live challenge of a signer as superseded.
// Called before issuing a new code so only the newest is verifiable.
func (p *PostgreSQLChallengeRepository) SupersedeLiveBySigner(ctx context.Context, signerID uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE otp_challenges
			  SET superseded_at = $1
			  WHERE signer_id = $2 AND consumed_at IS NULL AND superseded_at IS NULL`

	if _, err := querier.ExecContext(ctx, query, now.UTC(), signerID); err != nil {
		return apperrors.Wrap(err, "failed to supersede otp challenges")
	}

	return nil
}

// NewPostgreSQLChallengeRepository creates a new PostgreSQL Challenge repository instance.
func NewPostgreSQLChallengeRepository(db *sql.DB) *PostgreSQLChallengeRepository {
	return &PostgreSQLChallengeRepository{db: db}
}
