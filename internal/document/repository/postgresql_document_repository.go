// Package repository implements document and signer persistence. Mutating
// flows lock the document row with SELECT FOR UPDATE; a version column backs
// that up with optimistic concurrency on every update.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/database"
	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	apperrors "github.com/gsPatrick/garimponos-sign/internal/errors"
)

// PostgreSQLDocumentRepository implements Document persistence for PostgreSQL databases.
type PostgreSQLDocumentRepository struct {
	db *sql.DB
}

const postgresDocumentColumns = `id, title, status, deadline_at, page_count, owner_id, version, created_at, updated_at`

// Create inserts a new document into the PostgreSQL database.
func (p *PostgreSQLDocumentRepository) Create(ctx context.Context, document *documentDomain.Document) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO documents (id, title, status, deadline_at, page_count, owner_id, version, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		document.ID,
		document.Title,
		document.Status,
		document.DeadlineAt,
		document.PageCount,
		document.OwnerID,
		document.Version,
		document.CreatedAt,
		document.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create document")
	}

	return nil
}

func (p *PostgreSQLDocumentRepository) get(ctx context.Context, documentID uuid.UUID, forUpdate bool) (*documentDomain.Document, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresDocumentColumns + ` FROM documents WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var document documentDomain.Document
	err := querier.QueryRowContext(ctx, query, documentID).Scan(
		&document.ID,
		&document.Title,
		&document.Status,
		&document.DeadlineAt,
		&document.PageCount,
		&document.OwnerID,
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

	return &document, nil
}

// Get retrieves a document by its ID.
func (p *PostgreSQLDocumentRepository) Get(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error) {
	return p.get(ctx, documentID, false)
}

// GetForUpdate retrieves a document and locks its row until the surrounding
// transaction ends. Every mutating flow goes through this lock, which
// serializes concurrent operations on the same document.
func (p *PostgreSQLDocumentRepository) GetForUpdate(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error) {
	return p.get(ctx, documentID, true)
}

// Update persists document changes. The version guard fails with ErrConflict
// when another transaction modified the row in between.
func (p *PostgreSQLDocumentRepository) Update(ctx context.Context, document *documentDomain.Document) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE documents
			  SET title = $1, status = $2, deadline_at = $3, page_count = $4, version = version + 1, updated_at = $5
			  WHERE id = $6 AND version = $7`

	result, err := querier.ExecContext(
		ctx,
		query,
		document.Title,
		document.Status,
		document.DeadlineAt,
		document.PageCount,
		document.UpdatedAt,
		document.ID,
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
func (p *PostgreSQLDocumentRepository) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	offset, limit uint,
) ([]*documentDomain.Document, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresDocumentColumns + `
			  FROM documents
			  WHERE owner_id = $1
			  ORDER BY created_at DESC
			  OFFSET $2 LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, ownerID, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list documents")
	}
	defer rows.Close()

	var documents []*documentDomain.Document
	for rows.Next() {
		var document documentDomain.Document
		err := rows.Scan(
			&document.ID,
			&document.Title,
			&document.Status,
			&document.DeadlineAt,
			&document.PageCount,
			&document.OwnerID,
			&document.Version,
			&document.CreatedAt,
			&document.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan document")
		}
		documents = append(documents, &document)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate documents")
	}

	return documents, nil
}

// ListExpirable retrieves documents whose deadline passed but are still open.
// Used by the deadline sweeper.
func (p *PostgreSQLDocumentRepository) ListExpirable(ctx context.Context, limit uint) ([]uuid.UUID, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id
			  FROM documents
			  WHERE deadline_at IS NOT NULL
			    AND deadline_at < NOW()
			    AND status IN ('draft', 'awaiting_signatures')
			  ORDER BY deadline_at ASC
			  LIMIT $1`

	rows, err := querier.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list expirable documents")
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan document id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate expirable documents")
	}

	return ids, nil
}

// NewPostgreSQLDocumentRepository creates a new PostgreSQL Document repository instance.
func NewPostgreSQLDocumentRepository(db *sql.DB) *PostgreSQLDocumentRepository {
	return &PostgreSQLDocumentRepository{db: db}
}
