package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/database"
	apperrors "github.com/gsPatrick/garimponos-sign/internal/errors"
	timelineDomain "github.com/gsPatrick/garimponos-sign/internal/timeline/domain"
)

// MySQLEventRepository implements timeline Event persistence for MySQL databases.
type MySQLEventRepository struct {
	db *sql.DB
}

// Append inserts a new event, assigning the next per-document sequence number.
// MySQL cannot select from the target table inside an INSERT, so the sequence
// is read first; the caller's document row lock keeps the pair atomic.
func (m *MySQLEventRepository) Append(ctx context.Context, event *timelineDomain.Event) error {
	querier := database.GetTx(ctx, m.db)

	id, err := event.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal event id")
	}

	documentID, err := event.DocumentID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal document id")
	}

	var signerID []byte
	if event.SignerID != nil {
		signerID, err = event.SignerID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal signer id")
		}
	}

	seqQuery := `SELECT COALESCE(MAX(sequence), 0) + 1 FROM timeline_events WHERE document_id = ?`
	if err := querier.QueryRowContext(ctx, seqQuery, documentID).Scan(&event.Sequence); err != nil {
		return apperrors.Wrap(err, "failed to compute next timeline sequence")
	}

	query := `INSERT INTO timeline_events (id, document_id, signer_id, sequence, event_type, actor_type, payload, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		documentID,
		signerID,
		event.Sequence,
		event.Type,
		event.ActorType,
		event.Payload,
		event.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to append timeline event")
	}

	return nil
}

// ListByDocument retrieves events for a document ordered by sequence ascending.
func (m *MySQLEventRepository) ListByDocument(
	ctx context.Context,
	documentID uuid.UUID,
	offset, limit uint,
) ([]*timelineDomain.Event, error) {
	querier := database.GetTx(ctx, m.db)

	docID, err := documentID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal document id")
	}

	query := `SELECT id, document_id, signer_id, sequence, event_type, actor_type, payload, created_at
			  FROM timeline_events
			  WHERE document_id = ?
			  ORDER BY sequence ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, docID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list timeline events")
	}
	defer rows.Close()

	var events []*timelineDomain.Event
	for rows.Next() {
		var event timelineDomain.Event
		var id, document, signer []byte

		err := rows.Scan(
			&id,
			&document,
			&signer,
			&event.Sequence,
			&event.Type,
			&event.ActorType,
			&event.Payload,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan timeline event")
		}

		if err := event.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal event id")
		}
		if err := event.DocumentID.UnmarshalBinary(document); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal document id")
		}
		if len(signer) > 0 {
			var signerID uuid.UUID
			if err := signerID.UnmarshalBinary(signer); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal signer id")
			}
			event.SignerID = &signerID
		}

		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate timeline events")
	}

	return events, nil
}

// CountByDocument returns the number of events recorded for a document.
func (m *MySQLEventRepository) CountByDocument(ctx context.Context, documentID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	docID, err := documentID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal document id")
	}

	query := `SELECT COUNT(*) FROM timeline_events WHERE document_id = ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, docID).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count timeline events")
	}

	return count, nil
}

// NewMySQLEventRepository creates a new MySQL timeline Event repository instance.
func NewMySQLEventRepository(db *sql.DB) *MySQLEventRepository {
	return &MySQLEventRepository{db: db}
}
