// Package http provides HTTP handlers for the owner-facing document API:
// document lifecycle, signer management and the audit timeline.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	"github.com/gsPatrick/garimponos-sign/internal/document/http/dto"
	documentUseCase "github.com/gsPatrick/garimponos-sign/internal/document/usecase"
	"github.com/gsPatrick/garimponos-sign/internal/httputil"
	timelineUseCase "github.com/gsPatrick/garimponos-sign/internal/timeline/usecase"
	customValidation "github.com/gsPatrick/garimponos-sign/internal/validation"
)

// DocumentHandler handles HTTP requests for document management operations.
type DocumentHandler struct {
	documentUseCase documentUseCase.DocumentUseCase
	timelineUseCase timelineUseCase.TimelineUseCase
	logger          *slog.Logger
}

// NewDocumentHandler creates a new document handler with required dependencies.
func NewDocumentHandler(
	docUseCase documentUseCase.DocumentUseCase,
	tlUseCase timelineUseCase.TimelineUseCase,
	logger *slog.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		documentUseCase: docUseCase,
		timelineUseCase: tlUseCase,
		logger:          logger,
	}
}

// parseUUIDParam extracts and parses a UUID path parameter.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s parameter: must be a valid uuid", name)
	}
	return id, nil
}

// CreateHandler creates a new document in draft.
// POST /v1/documents
// Returns 201 Created with the document.
func (h *DocumentHandler) CreateHandler(c *gin.Context) {
	var req dto.CreateDocumentRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid owner_id: must be a valid uuid"), h.logger)
		return
	}

	document, err := h.documentUseCase.Create(c.Request.Context(), documentUseCase.CreateDocumentInput{
		Title:      req.Title,
		OwnerID:    ownerID,
		PageCount:  req.PageCount,
		DeadlineAt: req.DeadlineAt,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapDocumentToResponse(document))
}

// GetHandler retrieves a document with its signers.
// GET /v1/documents/:documentId
// Returns 200 OK with the document and signer list.
func (h *DocumentHandler) GetHandler(c *gin.Context) {
	documentID, err := parseUUIDParam(c, "documentId")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	result, err := h.documentUseCase.Get(c.Request.Context(), documentID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDocumentWithSignersToResponse(result.Document, result.Signers))
}

// ListHandler retrieves documents of an owner with pagination support.
// GET /v1/documents?owner_id=X&offset=0&limit=50
// Returns 200 OK with the document list, newest first.
func (h *DocumentHandler) ListHandler(c *gin.Context) {
	ownerID, err := uuid.Parse(c.Query("owner_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid owner_id parameter: must be a valid uuid"), h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	documents, err := h.documentUseCase.List(c.Request.Context(), ownerID, uint(offset), uint(limit))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDocumentsToListResponse(documents))
}

// UpdateHandler changes document title or deadline while the document is mutable.
// PATCH /v1/documents/:documentId
// Returns 200 OK with the updated document.
func (h *DocumentHandler) UpdateHandler(c *gin.Context) {
	documentID, err := parseUUIDParam(c, "documentId")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	document, err := h.documentUseCase.Update(c.Request.Context(), documentID, documentUseCase.UpdateDocumentInput{
		Title:      req.Title,
		DeadlineAt: req.DeadlineAt,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDocumentToResponse(document))
}

// CancelHandler cancels a document and invalidates every live signing session.
// POST /v1/documents/:documentId/cancel
// Returns 200 OK with the cancelled document.
func (h *DocumentHandler) CancelHandler(c *gin.Context) {
	documentID, err := parseUUIDParam(c, "documentId")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	document, err := h.documentUseCase.Cancel(c.Request.Context(), documentID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDocumentToResponse(document))
}

// AttachSignerHandler adds a signer to a document that still accepts signers.
// POST /v1/documents/:documentId/signers
// Returns 201 Created with the signer.
func (h *DocumentHandler) AttachSignerHandler(c *gin.Context) {
	documentID, err := parseUUIDParam(c, "documentId")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.AttachSignerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	channels := make([]documentDomain.AuthChannel, 0, len(req.AuthChannels))
	for _, channel := range req.AuthChannels {
		channels = append(channels, documentDomain.AuthChannel(channel))
	}

	signer, err := h.documentUseCase.AttachSigner(c.Request.Context(), documentID, documentUseCase.AttachSignerInput{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		TaxID:         req.TaxID,
		Qualification: req.Qualification,
		AuthChannels:  channels,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapSignerToResponse(signer))
}

// InviteSignerHandler issues a signing session and queues the invitation.
// POST /v1/documents/:documentId/signers/:signerId/invite
// Returns 200 OK with the signer.
func (h *DocumentHandler) InviteSignerHandler(c *gin.Context) {
	h.invite(c, h.documentUseCase.InviteSigner)
}

// ResendInvitationHandler supersedes the previous signing link with a fresh one.
// POST /v1/documents/:documentId/signers/:signerId/resend
// Returns 200 OK with the signer.
func (h *DocumentHandler) ResendInvitationHandler(c *gin.Context) {
	h.invite(c, h.documentUseCase.ResendInvitation)
}

func (h *DocumentHandler) invite(
	c *gin.Context,
	op func(ctx context.Context, documentID, signerID uuid.UUID) (*documentDomain.Signer, error),
) {
	documentID, err := parseUUIDParam(c, "documentId")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	signerID, err := parseUUIDParam(c, "signerId")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	signer, err := op(c.Request.Context(), documentID, signerID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSignerToResponse(signer))
}

// TimelineHandler retrieves the timeline of a document ordered by sequence.
// GET /v1/documents/:documentId/timeline?offset=0&limit=50
// Returns 200 OK with the event list and total count.
func (h *DocumentHandler) TimelineHandler(c *gin.Context) {
	documentID, err := parseUUIDParam(c, "documentId")
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	events, total, err := h.timelineUseCase.ListByDocument(c.Request.Context(), documentID, uint(offset), uint(limit))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEventsToTimelineResponse(events, total))
}
