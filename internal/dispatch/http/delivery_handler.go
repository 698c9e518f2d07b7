// Package http provides the delivery result webhook called back by the
// external notification service.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/dispatch/http/dto"
	dispatchUseCase "github.com/gsPatrick/garimponos-sign/internal/dispatch/usecase"
	"github.com/gsPatrick/garimponos-sign/internal/httputil"
	customValidation "github.com/gsPatrick/garimponos-sign/internal/validation"
)

// DeliveryHandler handles HTTP requests for delivery result callbacks.
type DeliveryHandler struct {
	dispatchUseCase dispatchUseCase.DispatchUseCase
	logger          *slog.Logger
}

// NewDeliveryHandler creates a new delivery handler with required dependencies.
func NewDeliveryHandler(
	useCase dispatchUseCase.DispatchUseCase,
	logger *slog.Logger,
) *DeliveryHandler {
	return &DeliveryHandler{
		dispatchUseCase: useCase,
		logger:          logger,
	}
}

// ResultHandler applies the outcome the notification service reports for a
// delivery. The callback is idempotent per delivery: a second result for a
// finalized delivery is rejected with 409.
// POST /v1/deliveries/:deliveryId/result
// Returns 200 OK with the updated delivery.
func (h *DeliveryHandler) ResultHandler(c *gin.Context) {
	deliveryID, err := uuid.Parse(c.Param("deliveryId"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid deliveryId parameter: must be a valid uuid"), h.logger)
		return
	}

	var req dto.DeliveryResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	delivery, err := h.dispatchUseCase.HandleResult(c.Request.Context(), deliveryID, req.Delivered, req.Reason)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDeliveryToResponse(delivery))
}
