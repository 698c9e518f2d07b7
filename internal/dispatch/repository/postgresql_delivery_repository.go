// Package repository implements delivery persistence for the dispatch outbox.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/database"
	dispatchDomain "github.com/gsPatrick/garimponos-sign/internal/dispatch/domain"
	apperrors "github.com/gsPatrick/garimponos-sign/internal/errors"
)

// PostgreSQLDeliveryRepository implements Delivery persistence for PostgreSQL databases.
type PostgreSQLDeliveryRepository struct {
	db *sql.DB
}

const postgresDeliveryColumns = `id, document_id, signer_id, kind, channel, recipient, payload, status, attempts,
	last_error, dispatched_at, created_at, updated_at`

// Create inserts a new delivery into the PostgreSQL database.
func (p *PostgreSQLDeliveryRepository) Create(ctx context.Context, delivery *dispatchDomain.Delivery) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO deliveries (id, document_id, signer_id, kind, channel, recipient, payload, status, attempts,
				last_error, dispatched_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := querier.ExecContext(
		ctx,
		query,
		delivery.ID,
		delivery.DocumentID,
		delivery.SignerID,
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

func scanPostgresDelivery(scan func(dest ...any) error) (*dispatchDomain.Delivery, error) {
	var delivery dispatchDomain.Delivery
	err := scan(
		&delivery.ID,
		&delivery.DocumentID,
		&delivery.SignerID,
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
	return &delivery, nil
}

// Get retrieves a delivery by its ID.
func (p *PostgreSQLDeliveryRepository) Get(ctx context.Context, deliveryID uuid.UUID) (*dispatchDomain.Delivery, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresDeliveryColumns + ` FROM deliveries WHERE id = $1`

	delivery, err := scanPostgresDelivery(querier.QueryRowContext(ctx, query, deliveryID).Scan)
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
func (p *PostgreSQLDeliveryRepository) GetPending(ctx context.Context, limit int) ([]*dispatchDomain.Delivery, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresDeliveryColumns + `
			  FROM deliveries
			  WHERE status = 'pending'
			  ORDER BY created_at ASC
			  LIMIT $1
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get pending deliveries")
	}
	defer rows.Close()

	var deliveries []*dispatchDomain.Delivery
	for rows.Next() {
		delivery, err := scanPostgresDelivery(rows.Scan)
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
func (p *PostgreSQLDeliveryRepository) Update(ctx context.Context, delivery *dispatchDomain.Delivery) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE deliveries
			  SET status = $1, attempts = $2, last_error = $3, dispatched_at = $4, updated_at = $5
			  WHERE id = $6`

	_, err := querier.ExecContext(
		ctx,
		query,
		delivery.Status,
		delivery.Attempts,
		delivery.LastError,
		delivery.DispatchedAt,
		delivery.UpdatedAt,
		delivery.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update delivery")
	}

	return nil
}

// NewPostgreSQLDeliveryRepository creates a new PostgreSQL Delivery repository instance.
func NewPostgreSQLDeliveryRepository(db *sql.DB) *PostgreSQLDeliveryRepository {
	return &PostgreSQLDeliveryRepository{db: db}
}
