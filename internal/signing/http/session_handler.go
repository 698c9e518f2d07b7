// Package http provides the public token-addressed signing endpoints. All
// routes hang off /sign/:token; the token is the only credential a signer has.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	"github.com/gsPatrick/garimponos-sign/internal/httputil"
	"github.com/gsPatrick/garimponos-sign/internal/signing/http/dto"
	signingUseCase "github.com/gsPatrick/garimponos-sign/internal/signing/usecase"
	customValidation "github.com/gsPatrick/garimponos-sign/internal/validation"
)

// SessionHandler handles HTTP requests for the signing flow.
type SessionHandler struct {
	sessionUseCase signingUseCase.SignerSessionUseCase
	logger         *slog.Logger
}

// NewSessionHandler creates a new session handler with required dependencies.
func NewSessionHandler(
	sessionUseCase signingUseCase.SignerSessionUseCase,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessionUseCase: sessionUseCase,
		logger:         logger,
	}
}

// ResolveHandler returns the current flow state for a signing token.
// GET /sign/:token
// Returns 200 OK with the document and signer state.
func (h *SessionHandler) ResolveHandler(c *gin.Context) {
	view, err := h.sessionUseCase.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapViewToSessionResponse(view))
}

// IdentifyHandler confirms the signer's identity data.
// POST /sign/:token/identify
// Returns 200 OK with the updated flow state.
func (h *SessionHandler) IdentifyHandler(c *gin.Context) {
	var req dto.IdentifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	view, err := h.sessionUseCase.Identify(c.Request.Context(), c.Param("token"), signingUseCase.IdentifyInput{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		TaxID:         req.TaxID,
		Qualification: req.Qualification,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapViewToSessionResponse(view))
}

// CaptureSignatureHandler stores the signature image.
// POST /sign/:token/signature
// Returns 200 OK with the updated flow state.
func (h *SessionHandler) CaptureSignatureHandler(c *gin.Context) {
	var req dto.CaptureSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	image, err := customValidation.DecodeBase64Image(req.Image)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	view, err := h.sessionUseCase.CaptureSignature(c.Request.Context(), c.Param("token"), image, req.ContentType)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapViewToSessionResponse(view))
}

// PlaceSignatureHandler validates and records the signature placement.
// POST /sign/:token/position
// Returns 200 OK with the updated flow state.
func (h *SessionHandler) PlaceSignatureHandler(c *gin.Context) {
	var req dto.PlaceSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	view, err := h.sessionUseCase.PlaceSignature(c.Request.Context(), c.Param("token"), documentDomain.SignaturePosition{
		Page: req.Page,
		X:    req.X,
		Y:    req.Y,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapViewToSessionResponse(view))
}

// StartOtpHandler requests a one-time code on the chosen channel. Calling it
// again resends a fresh code and invalidates the previous one.
// POST /sign/:token/otp/start
// Returns 200 OK with the updated flow state.
func (h *SessionHandler) StartOtpHandler(c *gin.Context) {
	var req dto.StartOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	channel := documentDomain.AuthChannel(req.Channel)
	if req.Channel == "" {
		channel = documentDomain.AuthChannelEmail
	}

	view, err := h.sessionUseCase.StartOtp(c.Request.Context(), c.Param("token"), channel)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapViewToSessionResponse(view))
}

// VerifyOtpHandler checks a submitted one-time code.
// POST /sign/:token/otp/verify
// Returns 200 OK with the updated flow state.
func (h *SessionHandler) VerifyOtpHandler(c *gin.Context) {
	var req dto.VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	view, err := h.sessionUseCase.VerifyOtp(c.Request.Context(), c.Param("token"), req.Code)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapViewToSessionResponse(view))
}

// CommitHandler finalizes the signature and consumes the token.
// POST /sign/:token/commit
// Returns 200 OK with the final flow state.
func (h *SessionHandler) CommitHandler(c *gin.Context) {
	var req dto.CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	view, err := h.sessionUseCase.Commit(c.Request.Context(), c.Param("token"), req.Fingerprint)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapViewToSessionResponse(view))
}

// DeclineHandler refuses the signature.
// POST /sign/:token/decline
// Returns 200 OK with the final flow state.
func (h *SessionHandler) DeclineHandler(c *gin.Context) {
	var req dto.DeclineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	view, err := h.sessionUseCase.Decline(c.Request.Context(), c.Param("token"), req.Reason)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapViewToSessionResponse(view))
}
