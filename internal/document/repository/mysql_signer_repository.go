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

// MySQLSignerRepository implements Signer persistence for MySQL databases.
type MySQLSignerRepository struct {
	db *sql.DB
}

const mysqlSignerColumns = `id, document_id, name, email, phone, tax_id, qualification, auth_channels, status,
	position_page, position_x, position_y, artifact_key, client_fingerprint, delivery_status,
	otp_verified_at, committed_at, created_at, updated_at`

// Create inserts a new signer into the MySQL database.
func (m *MySQLSignerRepository) Create(ctx context.Context, signer *documentDomain.Signer) error {
	querier := database.GetTx(ctx, m.db)

	id, err := signer.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal signer id")
	}

	documentID, err := signer.DocumentID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal document id")
	}

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
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		documentID,
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

func scanMySQLSigner(scan func(dest ...any) error) (*documentDomain.Signer, error) {
	var signer documentDomain.Signer
	var id, documentID, channels []byte
	var page sql.NullInt64
	var x, y sql.NullFloat64

	err := scan(
		&id,
		&documentID,
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

	if err := signer.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal signer id")
	}
	if err := signer.DocumentID.UnmarshalBinary(documentID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal document id")
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
func (m *MySQLSignerRepository) Get(ctx context.Context, signerID uuid.UUID) (*documentDomain.Signer, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := signerID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal signer id")
	}

	query := `SELECT ` + mysqlSignerColumns + ` FROM signers WHERE id = ?`

	signer, err := scanMySQLSigner(querier.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get signer")
	}

	return signer, nil
}

// ListByDocument retrieves all signers of a document in attach order.
func (m *MySQLSignerRepository) ListByDocument(
	ctx context.Context,
	documentID uuid.UUID,
) ([]*documentDomain.Signer, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := documentID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal document id")
	}

	query := `SELECT ` + mysqlSignerColumns + `
			  FROM signers
			  WHERE document_id = ?
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list signers")
	}
	defer rows.Close()

	var signers []*documentDomain.Signer
	for rows.Next() {
		signer, err := scanMySQLSigner(rows.Scan)
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
func (m *MySQLSignerRepository) Update(ctx context.Context, signer *documentDomain.Signer) error {
	querier := database.GetTx(ctx, m.db)

	id, err := signer.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal signer id")
	}

	channels, err := json.Marshal(signer.AuthChannels)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal auth channels")
	}

	var page, x, y any
	if signer.Position != nil {
		page, x, y = signer.Position.Page, signer.Position.X, signer.Position.Y
	}

	query := `UPDATE signers
			  SET name = ?, email = ?, phone = ?, tax_id = ?, qualification = ?, auth_channels = ?,
				  status = ?, position_page = ?, position_x = ?, position_y = ?, artifact_key = ?,
				  client_fingerprint = ?, delivery_status = ?, otp_verified_at = ?, committed_at = ?,
				  updated_at = ?
			  WHERE id = ?`

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
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update signer")
	}

	return nil
}

// CountNotCommitted returns the number of signers that have not committed yet.
func (m *MySQLSignerRepository) CountNotCommitted(ctx context.Context, documentID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := documentID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal document id")
	}

	query := `SELECT COUNT(*) FROM signers WHERE document_id = ? AND status != 'committed'`

	var count int64
	if err := querier.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count pending signers")
	}

	return count, nil
}

// NewMySQLSignerRepository creates a new MySQL Signer repository instance.
func NewMySQLSignerRepository(db *sql.DB) *MySQLSignerRepository {
	return &MySQLSignerRepository{db: db}
}
