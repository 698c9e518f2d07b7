package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/database"
	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	apperrors "github.com/gsPatrick/garimponos-sign/internal/errors"
)

// PostgreSQLSignerRepository implements Signer persistence for PostgreSQL databases.
type PostgreSQLSignerRepository struct {
	db *sql.DB
}

const postgresSignerColumns = `id, document_id, name, email, phone, tax_id, qualification, auth_channels, status,
	position_page, position_x, position_y, artifact_key, client_fingerprint, delivery_status,
	otp_verified_at, committed_at, created_at, updated_at`

// Create inserts a new signer into the PostgreSQL database.
func (p *PostgreSQLSignerRepository) Create(ctx context.Context, signer *documentDomain.Signer) error {
	querier := database.GetTx(ctx, p.db)

	channels, err := json.Marshal(signer.AuthChannels)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal auth channels")
	}

	var page, x, y any
	if signer.Position != nil {
		page, x, y = signer.Position.Page, signer.Position.X, signer.Position.Y
	}

	query := `INSERT INTO signers (id, document_id, name, email, phone, tax_id, qualification, auth_channels, status,
				position_page, position_x, position_y, artifact_key, client_fingerprint, delivery_status,
				otp_verified_at, committed_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err = querier.ExecContext(
		ctx,
		query,
		signer.ID,
		signer.DocumentID,
		signer.Name,
		signer.Email,
		signer.Phone,
		signer.TaxID,
		signer.Qualification,
		channels,
		signer.Status,
		page,
		x,
		y,
		signer.ArtifactKey,
		signer.ClientFingerprint,
		signer.DeliveryStatus,
		signer.OtpVerifiedAt,
		signer.CommittedAt,
		signer.CreatedAt,
		signer.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create signer")
	}

	return nil
}

func scanPostgresSigner(scan func(dest ...any) error) (*documentDomain.Signer, error) {
	var signer documentDomain.Signer
	var channels []byte
	var page sql.NullInt64
	var x, y sql.NullFloat64

	err := scan(
		&signer.ID,
		&signer.DocumentID,
		&signer.Name,
		&signer.Email,
		&signer.Phone,
		&signer.TaxID,
		&signer.Qualification,
		&channels,
		&signer.Status,
		&page,
		&x,
		&y,
		&signer.ArtifactKey,
		&signer.ClientFingerprint,
		&signer.DeliveryStatus,
		&signer.OtpVerifiedAt,
		&signer.CommittedAt,
		&signer.CreatedAt,
		&signer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(channels, &signer.AuthChannels); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal auth channels")
	}

	if page.Valid {
		signer.Position = &documentDomain.SignaturePosition{
			Page: int(page.Int64),
			X:    x.Float64,
			Y:    y.Float64,
		}
	}

	return &signer, nil
}

// Get retrieves a signer by its ID.
func (p *PostgreSQLSignerRepository) Get(ctx context.Context, signerID uuid.UUID) (*documentDomain.Signer, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresSignerColumns + ` FROM signers WHERE id = $1`

	signer, err := scanPostgresSigner(querier.QueryRowContext(ctx, query, signerID).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get signer")
	}

	return signer, nil
}

// ListByDocument retrieves all signers of a document in attach order.
func (p *PostgreSQLSignerRepository) ListByDocument(
	ctx context.Context,
	documentID uuid.UUID,
) ([]*documentDomain.Signer, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresSignerColumns + `
			  FROM signers
			  WHERE document_id = $1
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list signers")
	}
	defer rows.Close()

	var signers []*documentDomain.Signer
	for rows.Next() {
		signer, err := scanPostgresSigner(rows.Scan)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan signer")
		}
		signers = append(signers, signer)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate signers")
	}

	return signers, nil
}

// Update persists all mutable signer fields.
func (p *PostgreSQLSignerRepository) Update(ctx context.Context, signer *documentDomain.Signer) error {
	querier := database.GetTx(ctx, p.db)

	channels, err := json.Marshal(signer.AuthChannels)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal auth channels")
	}

	var page, x, y any
	if signer.Position != nil {
		page, x, y = signer.Position.Page, signer.Position.X, signer.Position.Y
	}

	query := `UPDATE signers
			  SET name = $1, email = $2, phone = $3, tax_id = $4, qualification = $5, auth_channels = $6,
				  status = $7, position_page = $8, position_x = $9, position_y = $10, artifact_key = $11,
				  client_fingerprint = $12, delivery_status = $13, otp_verified_at = $14, committed_at = $15,
				  updated_at = $16
			  WHERE id = $17`

	_, err = querier.ExecContext(
		ctx,
		query,
		signer.Name,
		signer.Email,
		signer.Phone,
		signer.TaxID,
		signer.Qualification,
		channels,
		signer.Status,
		page,
		x,
		y,
		signer.ArtifactKey,
		signer.ClientFingerprint,
		signer.DeliveryStatus,
		signer.OtpVerifiedAt,
		signer.CommittedAt,
		signer.UpdatedAt,
		signer.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update signer")
	}

	return nil
}

// CountNotCommitted returns the number of signers that have not committed yet.
// Zero means the document can complete.
func (p *PostgreSQLSignerRepository) CountNotCommitted(ctx context.Context, documentID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM signers WHERE document_id = $1 AND status != 'committed'`

	var count int64
	if err := querier.QueryRowContext(ctx, query, documentID).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count pending signers")
	}

	return count, nil
}

// NewPostgreSQLSignerRepository creates a new PostgreSQL Signer repository instance.
func NewPostgreSQLSignerRepository(db *sql.DB) *PostgreSQLSignerRepository {
	return &PostgreSQLSignerRepository{db: db}
}
