package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	dispatchDomain "github.com/gsPatrick/garimponos-sign/internal/dispatch/domain"
	"github.com/gsPatrick/garimponos-sign/internal/dispatch/http/dto"
	dispatchUseCase "github.com/gsPatrick/garimponos-sign/internal/dispatch/usecase"
	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
)

// MockDispatchUseCase is a mock implementation of dispatchUseCase.DispatchUseCase.
type MockDispatchUseCase struct {
	mock.Mock
}

var _ dispatchUseCase.DispatchUseCase = (*MockDispatchUseCase)(nil)

func (m *MockDispatchUseCase) EnqueueInvitation(ctx context.Context, document *documentDomain.Document, signer *documentDomain.Signer, signingLink string, resend bool) (*dispatchDomain.Delivery, error) {
	args := m.Called(ctx, document, signer, signingLink, resend)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatchDomain.Delivery), args.Error(1)
}

func (m *MockDispatchUseCase) SendCode(ctx context.Context, signer *documentDomain.Signer, channel documentDomain.AuthChannel, code string) error {
	args := m.Called(ctx, signer, channel, code)
	return args.Error(0)
}

func (m *MockDispatchUseCase) HandleResult(ctx context.Context, deliveryID uuid.UUID, delivered bool, reason string) (*dispatchDomain.Delivery, error) {
	args := m.Called(ctx, deliveryID, delivered, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatchDomain.Delivery), args.Error(1)
}

func (m *MockDispatchUseCase) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDispatchUseCase) ProcessDeliveries(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// setupTestHandler creates a test handler with mocked dependencies.
func setupTestHandler(t *testing.T) (*DeliveryHandler, *MockDispatchUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := new(MockDispatchUseCase)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewDeliveryHandler(mockUseCase, logger)

	return handler, mockUseCase
}

// createTestContext creates a gin test context with an optional JSON body.
func createTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

func TestDeliveryHandler_ResultHandler(t *testing.T) {
	t.Run("Success_Delivered", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		delivery := dispatchDomain.NewDelivery(
			uuid.Must(uuid.NewV7()),
			uuid.Must(uuid.NewV7()),
			dispatchDomain.DeliveryKindInvitation,
			"email",
			"ana@example.com",
			`{"signing_link":"https://sign.example.com/sign/token"}`,
		)
		delivery.Status = dispatchDomain.DeliveryStatusDelivered

		request := dto.DeliveryResultRequest{Delivered: true}

		mockUseCase.On("HandleResult", mock.Anything, delivery.ID, true, "").
			Return(delivery, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/deliveries/"+delivery.ID.String()+"/result", request)
		c.Params = gin.Params{{Key: "deliveryId", Value: delivery.ID.String()}}

		handler.ResultHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.DeliveryResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, delivery.ID.String(), response.ID)
		assert.Equal(t, "delivered", response.Status)
	})

	t.Run("Success_FailedWithReason", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		delivery := dispatchDomain.NewDelivery(
			uuid.Must(uuid.NewV7()),
			uuid.Must(uuid.NewV7()),
			dispatchDomain.DeliveryKindInvitation,
			"whatsapp",
			"+5511999990000",
			`{}`,
		)
		delivery.Status = dispatchDomain.DeliveryStatusFailed
		reason := "number unreachable"
		delivery.LastError = &reason

		request := dto.DeliveryResultRequest{Delivered: false, Reason: reason}

		mockUseCase.On("HandleResult", mock.Anything, delivery.ID, false, reason).
			Return(delivery, nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/deliveries/"+delivery.ID.String()+"/result", request)
		c.Params = gin.Params{{Key: "deliveryId", Value: delivery.ID.String()}}

		handler.ResultHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.DeliveryResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "failed", response.Status)
		assert.NotNil(t, response.LastError)
		assert.Equal(t, reason, *response.LastError)
	})

	t.Run("Error_InvalidDeliveryID", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		request := dto.DeliveryResultRequest{Delivered: true}

		c, w := createTestContext(http.MethodPost, "/v1/deliveries/not-a-uuid/result", request)
		c.Params = gin.Params{{Key: "deliveryId", Value: "not-a-uuid"}}

		handler.ResultHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		deliveryID := uuid.Must(uuid.NewV7())

		c, w := createTestContext(http.MethodPost, "/v1/deliveries/"+deliveryID.String()+"/result", nil)
		c.Params = gin.Params{{Key: "deliveryId", Value: deliveryID.String()}}
		c.Request.Body = io.NopCloser(bytes.NewReader([]byte("invalid json")))

		handler.ResultHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_FailureWithoutReason", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		deliveryID := uuid.Must(uuid.NewV7())
		request := dto.DeliveryResultRequest{Delivered: false}

		c, w := createTestContext(http.MethodPost, "/v1/deliveries/"+deliveryID.String()+"/result", request)
		c.Params = gin.Params{{Key: "deliveryId", Value: deliveryID.String()}}

		handler.ResultHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "validation_error", response["error"])
	})

	t.Run("Error_DeliveryNotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		deliveryID := uuid.Must(uuid.NewV7())
		request := dto.DeliveryResultRequest{Delivered: true}

		mockUseCase.On("HandleResult", mock.Anything, deliveryID, true, "").
			Return(nil, dispatchDomain.ErrDeliveryNotFound).Once()

		c, w := createTestContext(http.MethodPost, "/v1/deliveries/"+deliveryID.String()+"/result", request)
		c.Params = gin.Params{{Key: "deliveryId", Value: deliveryID.String()}}

		handler.ResultHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Error_AlreadyFinalized", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		deliveryID := uuid.Must(uuid.NewV7())
		request := dto.DeliveryResultRequest{Delivered: true}

		mockUseCase.On("HandleResult", mock.Anything, deliveryID, true, "").
			Return(nil, dispatchDomain.ErrDeliveryFinalized).Once()

		c, w := createTestContext(http.MethodPost, "/v1/deliveries/"+deliveryID.String()+"/result", request)
		c.Params = gin.Params{{Key: "deliveryId", Value: deliveryID.String()}}

		handler.ResultHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
