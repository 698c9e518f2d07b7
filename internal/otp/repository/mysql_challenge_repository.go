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

// MySQLChallengeRepository implements Challenge persistence for MySQL databases.
type MySQLChallengeRepository struct {
	db *sql.DB
}

// Create inserts a new OTP challenge into the MySQL database.
func (m *MySQLChallengeRepository) Create(ctx context.Context, challenge *otpDomain.Challenge) error {
	querier := database.GetTx(ctx, m.db)

	id, err := challenge.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal challenge id")
	}

	signerID, err := challenge.SignerID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal signer id")
	}

	documentID, err := challenge.DocumentID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal document id")
	}

	query := `INSERT INTO otp_challenges (id, signer_id, document_id, code_hash, channel, attempts, max_attempts, expires_at, consumed_at, superseded_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		signerID,
		documentID,
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
func (m *MySQLChallengeRepository) GetLatestBySigner(
	ctx context.Context,
	signerID uuid.UUID,
) (*otpDomain.Challenge, error) {
	querier := database.GetTx(ctx, m.db)

	sid, err := signerID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal signer id")
	}

	query := `SELECT id, signer_id, document_id, code_hash, channel, attempts, max_attempts, expires_at, consumed_at, superseded_at, created_at
			  FROM otp_challenges
			  WHERE signer_id = ?
			  ORDER BY created_at DESC
			  LIMIT 1`

	var challenge otpDomain.Challenge
	var id, signer, document []byte

	err = querier.QueryRowContext(ctx, query, sid).Scan(
		&id,
		&signer,
		&document,
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

	if err := challenge.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal challenge id")
	}
	if err := challenge.SignerID.UnmarshalBinary(signer); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal signer id")
	}
	if err := challenge.DocumentID.UnmarshalBinary(document); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal document id")
	}

	return &challenge, nil
}

// Update persists attempt counts and consumption marks of a challenge.
func (m *MySQLChallengeRepository) Update(ctx context.Context, challenge *otpDomain.Challenge) error {
	querier := database.GetTx(ctx, m.db)

	id, err := challenge.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal challenge id")
	}

	query := `UPDATE otp_challenges
			  SET attempts = ?, consumed_at = ?, superseded_at = ?
			  WHERE id = ?`

	_, err = querier.ExecContext(
		ctx,
		query,
		challenge.Attempts,
		challenge.ConsumedAt,
		challenge.SupersededAt,
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update otp challenge")
	}

	return nil
}

// SupersedeLiveBySigner marks every live challenge of a signer as superseded.
func (m *MySQLChallengeRepository) SupersedeLiveBySigner(ctx context.Context, signerID uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, m.db)

	id, err := signerID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal signer id")
	}

	query := `UPDATE otp_challenges
			  SET superseded_at = ?
			  WHERE signer_id = ? AND consumed_at IS NULL AND superseded_at IS NULL`

	if _, err := querier.ExecContext(ctx, query, now.UTC(), id); err != nil {
		return apperrors.Wrap(err, "failed to supersede otp challenges")
	}

	return nil
}

// NewMySQLChallengeRepository creates a new MySQL Challenge repository instance.
func NewMySQLChallengeRepository(db *sql.DB) *MySQLChallengeRepository {
	return &MySQLChallengeRepository{db: db}
}
