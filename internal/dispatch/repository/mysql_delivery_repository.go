package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/database"
	dispatchDomain "github.com/gsPatrick/garimponos-sign/internal/dispatch/domain"
	apperrors "github.com/gsPatrick/garimponos-sign/internal/errors"
)

// MySQLDeliveryRepository implements Delivery persistence for MySQL databases.
type MySQLDeliveryRepository struct {
	db *sql.DB
}

const mysqlDeliveryColumns = `id, document_id, signer_id, kind, channel, recipient, payload, status, attempts,
	last_error, dispatched_at, created_at, updated_at`

// Create inserts a new delivery into the MySQL database.
func (m *MySQLDeliveryRepository) Create(ctx context.Context, delivery *dispatchDomain.Delivery) error {
	querier := database.GetTx(ctx, m.db)

	id, err := delivery.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal delivery id")
	}

	documentID, err := delivery.DocumentID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal document id")
	}

	signerID, err := delivery.SignerID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal signer id")
	}

	query := `INSERT INTO deliveries (id, document_id, signer_id, kind, channel, recipient, payload, status, attempts,
				last_error, dispatched_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		documentID,
		signerID,
		delivery.Kind,
		delivery.Channel,
		delivery.Recipient,
		delivery.Payload,
		delivery.Status,
		delivery.Attempts,
		delivery.LastError,
		delivery.DispatchedAt,
		delivery.CreatedAt,
		delivery.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create delivery")
	}

	return nil
}

func scanMySQLDelivery(scan func(dest ...any) error) (*dispatchDomain.Delivery, error) {
	var delivery dispatchDomain.Delivery
	var id, documentID, signerID []byte

	err := scan(
		&id,
		&documentID,
		&signerID,
		&delivery.Kind,
		&delivery.Channel,
		&delivery.Recipient,
		&delivery.Payload,
		&delivery.Status,
		&delivery.Attempts,
		&delivery.LastError,
		&delivery.DispatchedAt,
		&delivery.CreatedAt,
		&delivery.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := delivery.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal delivery id")
	}
	if err := delivery.DocumentID.UnmarshalBinary(documentID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal document id")
	}
	if err := delivery.SignerID.UnmarshalBinary(signerID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal signer id")
	}

	return &delivery, nil
}

// Get retrieves a delivery by its ID.
func (m *MySQLDeliveryRepository) Get(ctx context.Context, deliveryID uuid.UUID) (*dispatchDomain.Delivery, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := deliveryID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal delivery id")
	}

	query := `SELECT ` + mysqlDeliveryColumns + ` FROM deliveries WHERE id = ?`

	delivery, err := scanMySQLDelivery(querier.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get delivery")
	}

	return delivery, nil
}

// GetPending retrieves pending deliveries oldest first, locking the rows so
// concurrent workers never pick the same batch.
func (m *MySQLDeliveryRepository) GetPending(ctx context.Context, limit int) ([]*dispatchDomain.Delivery, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlDeliveryColumns + `
			  FROM deliveries
			  WHERE status = 'pending'
			  ORDER BY created_at ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get pending deliveries")
	}
	defer rows.Close()

	var deliveries []*dispatchDomain.Delivery
	for rows.Next() {
		delivery, err := scanMySQLDelivery(rows.Scan)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan delivery")
		}
		deliveries = append(deliveries, delivery)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate deliveries")
	}

	return deliveries, nil
}

// Update persists delivery status changes.
func (m *MySQLDeliveryRepository) Update(ctx context.Context, delivery *dispatchDomain.Delivery) error {
	querier := database.GetTx(ctx, m.db)

	id, err := delivery.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal delivery id")
	}

	query := `UPDATE deliveries
			  SET status = ?, attempts = ?, last_error = ?, dispatched_at = ?, updated_at = ?
			  WHERE id = ?`

	_, err = querier.ExecContext(
		ctx,
		query,
		delivery.Status,
		delivery.Attempts,
		delivery.LastError,
		delivery.DispatchedAt,
		delivery.UpdatedAt,
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update delivery")
	}

	return nil
}

// NewMySQLDeliveryRepository creates a new MySQL Delivery repository instance.
func NewMySQLDeliveryRepository(db *sql.DB) *MySQLDeliveryRepository {
	return &MySQLDeliveryRepository{db: db}
}
