// Package repository implements timeline event persistence. Events are
// append-only; the per-document sequence is computed at insert time and must
// run while the caller holds the document row lock.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/database"
	apperrors "github.com/gsPatrick/garimponos-sign/internal/errors"
	timelineDomain "github.com/gsPatrick/garimponos-sign/internal/timeline/domain"
)

// PostgreSQLEventRepository implements timeline Event persistence for PostgreSQL databases.
type PostgreSQLEventRepository struct {
	db *sql.DB
}

// Append inserts a new event, assigning the next per-document sequence number.
// The caller must hold the document row lock so the MAX(sequence) read cannot
// race with another append for the same document.
func (p *PostgreSQLEventRepository) Append(ctx context.Context, event *timelineDomain.Event) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO timeline_events (id, document_id, signer_id, sequence, event_type, actor_type, payload, created_at)
			  VALUES ($1, $2, $3, (SELECT COALESCE(MAX(sequence), 0) + 1 FROM timeline_events WHERE document_id = $2), $4, $5, $6, $7)
			  RETURNING sequence`

	err := querier.QueryRowContext(
		ctx,
		query,
		event.ID,
		event.DocumentID,
		event.SignerID,
		event.Type,
		event.ActorType,
		event.Payload,
		event.CreatedAt,
	).Scan(&event.Sequence)
	if err != nil {
		return apperrors.Wrap(err, "failed to append timeline event")
	}

	return nil
}

// ListByDocument retrieves events for a document ordered by sequence ascending.
func (p *PostgreSQLEventRepository) ListByDocument(
	ctx context.Context,
	documentID uuid.UUID,
	offset, limit uint,
) ([]*timelineDomain.Event, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, document_id, signer_id, sequence, event_type, actor_type, payload, created_at
			  FROM timeline_events
			  WHERE document_id = $1
			  ORDER BY sequence ASC
			  OFFSET $2 LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, documentID, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list timeline events")
	}
	defer rows.Close()

	var events []*timelineDomain.Event
	for rows.Next() {
		var event timelineDomain.Event
		err := rows.Scan(
			&event.ID,
			&event.DocumentID,
			&event.SignerID,
			&event.Sequence,
			&event.Type,
			&event.ActorType,
			&event.Payload,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan timeline event")
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate timeline events")
	}

	return events, nil
}

// CountByDocument returns the number of events recorded for a document.
func (p *PostgreSQLEventRepository) CountByDocument(ctx context.Context, documentID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM timeline_events WHERE document_id = $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, documentID).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count timeline events")
	}

	return count, nil
}

// NewPostgreSQLEventRepository creates a new PostgreSQL timeline Event repository instance.
func NewPostgreSQLEventRepository(db *sql.DB) *PostgreSQLEventRepository {
	return &PostgreSQLEventRepository{db: db}
}
