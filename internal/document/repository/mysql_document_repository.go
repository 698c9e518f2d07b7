package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/database"
	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	apperrors "github.com/gsPatrick/garimponos-sign/internal/errors"
)

// MySQLDocumentRepository implements Document persistence for MySQL databases.
type MySQLDocumentRepository struct {
	db *sql.DB
}

const mysqlDocumentColumns = `id, title, status, deadline_at, page_count, owner_id, version, created_at, updated_at`

// Create inserts a new document into the MySQL database.
func (m *MySQLDocumentRepository) Create(ctx context.Context, document *documentDomain.Document) error {
	querier := database.GetTx(ctx, m.db)

	id, err := document.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal document id")
	}

	ownerID, err := document.OwnerID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal owner id")
	}

	query := `INSERT INTO documents (id, title, status, deadline_at, page_count, owner_id, version, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		document.Title,
		document.Status,
		document.DeadlineAt,
		document.PageCount,
		ownerID,
		document.Version,
		document.CreatedAt,
		document.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create document")
	}

	return nil
}

func (m *MySQLDocumentRepository) get(ctx context.Context, documentID uuid.UUID, forUpdate bool) (*documentDomain.Document, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := documentID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal document id")
	}

	query := `SELECT ` + mysqlDocumentColumns + ` FROM documents WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var document documentDomain.Document
	var docID, ownerID []byte

	err = querier.QueryRowContext(ctx, query, id).Scan(
		&docID,
		&document.Title,
		&document.Status,
		&document.DeadlineAt,
		&document.PageCount,
		&ownerID,
		&document.Version,
		&document.CreatedAt,
		&document.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get document")
	}

	if err := document.ID.UnmarshalBinary(docID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal document id")
	}
	if err := document.OwnerID.UnmarshalBinary(ownerID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal owner id")
	}

	return &document, nil
}

// Get retrieves a document by its ID.
func (m *MySQLDocumentRepository) Get(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error) {
	return m.get(ctx, documentID, false)
}

// GetForUpdate retrieves a document and locks its row until the surrounding
// transaction ends.
func (m *MySQLDocumentRepository) GetForUpdate(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error) {
	return m.get(ctx, documentID, true)
}

// Update persists document changes. The version guard fails with ErrConflict
// when another transaction modified the row in between.
func (m *MySQLDocumentRepository) Update(ctx context.Context, document *documentDomain.Document) error {
	querier := database.GetTx(ctx, m.db)

	id, err := document.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal document id")
	}

	query := `UPDATE documents
			  SET title = ?, status = ?, deadline_at = ?, page_count = ?, version = version + 1, updated_at = ?
			  WHERE id = ? AND version = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		document.Title,
		document.Status,
		document.DeadlineAt,
		document.PageCount,
		document.UpdatedAt,
		id,
		document.Version,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update document")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read update result")
	}
	if affected == 0 {
		return documentDomain.ErrConcurrencyConflict
	}

	document.Version++
	return nil
}

// ListByOwner retrieves documents of an owner ordered by creation, newest first.
func (m *MySQLDocumentRepository) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	offset, limit uint,
) ([]*documentDomain.Document, error) {
	querier := database.GetTx(ctx, m.db)

	owner, err := ownerID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal owner id")
	}

	query := `SELECT ` + mysqlDocumentColumns + `
			  FROM documents
			  WHERE owner_id = ?
			  ORDER BY created_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, owner, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list documents")
	}
	defer rows.Close()

	var documents []*documentDomain.Document
	for rows.Next() {
		var document documentDomain.Document
		var docID, docOwnerID []byte

		err := rows.Scan(
			&docID,
			&document.Title,
			&document.Status,
			&document.DeadlineAt,
			&document.PageCount,
			&docOwnerID,
			&document.Version,
			&document.CreatedAt,
			&document.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan document")
		}

		if err := document.ID.UnmarshalBinary(docID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal document id")
		}
		if err := document.OwnerID.UnmarshalBinary(docOwnerID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal owner id")
		}

		documents = append(documents, &document)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate documents")
	}

	return documents, nil
}

// ListExpirable retrieves documents whose deadline passed but are still open.
func (m *MySQLDocumentRepository) ListExpirable(ctx context.Context, limit uint) ([]uuid.UUID, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id
			  FROM documents
			  WHERE deadline_at IS NOT NULL
			    AND deadline_at < UTC_TIMESTAMP()
			    AND status IN ('draft', 'awaiting_signatures')
			  ORDER BY deadline_at ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list expirable documents")
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan document id")
		}

		var id uuid.UUID
		if err := id.UnmarshalBinary(raw); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal document id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate expirable documents")
	}

	return ids, nil
}

// NewMySQLDocumentRepository creates a new MySQL Document repository instance.
func NewMySQLDocumentRepository(db *sql.DB) *MySQLDocumentRepository {
	return &MySQLDocumentRepository{db: db}
}
