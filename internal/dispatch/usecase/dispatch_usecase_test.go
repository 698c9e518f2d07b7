package usecase

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	dispatchDomain "github.com/gsPatrick/garimponos-sign/internal/dispatch/domain"
	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	timelineDomain "github.com/gsPatrick/garimponos-sign/internal/timeline/domain"
)

// MockTxManager is a mock implementation of database.TxManager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

// MockDeliveryRepository is a mock implementation of DeliveryRepository
type MockDeliveryRepository struct {
	mock.Mock
}

func (m *MockDeliveryRepository) Create(ctx context.Context, delivery *dispatchDomain.Delivery) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}

func (m *MockDeliveryRepository) Get(ctx context.Context, deliveryID uuid.UUID) (*dispatchDomain.Delivery, error) {
	args := m.Called(ctx, deliveryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatchDomain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) GetPending(ctx context.Context, limit int) ([]*dispatchDomain.Delivery, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dispatchDomain.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) Update(ctx context.Context, delivery *dispatchDomain.Delivery) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}

// MockSignerRepository is a mock implementation of SignerRepository
type MockSignerRepository struct {
	mock.Mock
}

func (m *MockSignerRepository) Get(ctx context.Context, signerID uuid.UUID) (*documentDomain.Signer, error) {
	args := m.Called(ctx, signerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Signer), args.Error(1)
}

func (m *MockSignerRepository) Update(ctx context.Context, signer *documentDomain.Signer) error {
	args := m.Called(ctx, signer)
	return args.Error(0)
}

// MockDocumentRepository is a mock implementation of DocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) GetForUpdate(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Document), args.Error(1)
}

// MockTimelineRecorder is a mock implementation of TimelineRecorder
type MockTimelineRecorder struct {
	mock.Mock
}

func (m *MockTimelineRecorder) Record(
	ctx context.Context,
	documentID uuid.UUID,
	signerID *uuid.UUID,
	eventType timelineDomain.EventType,
	actor timelineDomain.ActorType,
	payload any,
) (*timelineDomain.Event, error) {
	args := m.Called(ctx, documentID, signerID, eventType, actor, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*timelineDomain.Event), args.Error(1)
}

// MockNotifier is a mock implementation of service.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, delivery *dispatchDomain.Delivery) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDispatchSigner(documentID uuid.UUID) *documentDomain.Signer {
	return documentDomain.NewSigner(
		documentID,
		"Maria Souza",
		"maria@example.com",
		"+5511999990000",
		"12345678901",
		"contractor",
		[]documentDomain.AuthChannel{documentDomain.AuthChannelEmail, documentDomain.AuthChannelWhatsApp},
	)
}

func newUseCase(
	deliveryRepo *MockDeliveryRepository,
	signerRepo *MockSignerRepository,
	documentRepo *MockDocumentRepository,
	timeline *MockTimelineRecorder,
	notifier *MockNotifier,
	txManager *MockTxManager,
) DispatchUseCase {
	return NewDispatchUseCase(
		Config{Interval: 10 * time.Millisecond, BatchSize: 10, MaxAttempts: 3},
		txManager,
		deliveryRepo,
		signerRepo,
		documentRepo,
		timeline,
		notifier,
		testLogger(),
	)
}

func TestDispatchUseCase_EnqueueInvitation(t *testing.T) {
	ctx := context.Background()
	document := documentDomain.NewDocument("Contract", uuid.Must(uuid.NewV7()), 3, nil)
	signer := newDispatchSigner(document.ID)

	deliveryRepo := &MockDeliveryRepository{}
	useCase := newUseCase(deliveryRepo, &MockSignerRepository{}, &MockDocumentRepository{}, &MockTimelineRecorder{}, &MockNotifier{}, &MockTxManager{})

	var created []*dispatchDomain.Delivery
	deliveryRepo.On("Create", ctx, mock.AnythingOfType("*domain.Delivery")).
		Run(func(args mock.Arguments) {
			created = append(created, args.Get(1).(*dispatchDomain.Delivery))
		}).
		Return(nil)

	first, err := useCase.EnqueueInvitation(ctx, document, signer, "https://sign.example.com/sign/tok123", false)
	require.NoError(t, err)

	// One delivery per enabled channel.
	require.Len(t, created, 2)
	assert.Equal(t, created[0], first)
	assert.Equal(t, dispatchDomain.DeliveryKindInvitation, created[0].Kind)
	assert.Equal(t, "email", created[0].Channel)
	assert.Equal(t, "maria@example.com", created[0].Recipient)
	assert.Equal(t, "whatsapp", created[1].Channel)
	assert.Equal(t, "+5511999990000", created[1].Recipient)

	var payload invitationPayload
	require.NoError(t, json.Unmarshal([]byte(created[0].Payload), &payload))
	assert.Equal(t, "https://sign.example.com/sign/tok123", payload.SigningLink)
	assert.Equal(t, "Contract", payload.DocumentTitle)
}

func TestDispatchUseCase_EnqueueInvitation_Resend(t *testing.T) {
	ctx := context.Background()
	document := documentDomain.NewDocument("Contract", uuid.Must(uuid.NewV7()), 3, nil)
	signer := newDispatchSigner(document.ID)

	deliveryRepo := &MockDeliveryRepository{}
	useCase := newUseCase(deliveryRepo, &MockSignerRepository{}, &MockDocumentRepository{}, &MockTimelineRecorder{}, &MockNotifier{}, &MockTxManager{})

	deliveryRepo.On("Create", ctx, mock.MatchedBy(func(d *dispatchDomain.Delivery) bool {
		return d.Kind == dispatchDomain.DeliveryKindInvitationResend
	})).Return(nil)

	_, err := useCase.EnqueueInvitation(ctx, document, signer, "https://sign.example.com/sign/tok456", true)
	require.NoError(t, err)
	deliveryRepo.AssertExpectations(t)
}

func TestDispatchUseCase_SendCode(t *testing.T) {
	ctx := context.Background()
	signer := newDispatchSigner(uuid.Must(uuid.NewV7()))

	deliveryRepo := &MockDeliveryRepository{}
	useCase := newUseCase(deliveryRepo, &MockSignerRepository{}, &MockDocumentRepository{}, &MockTimelineRecorder{}, &MockNotifier{}, &MockTxManager{})

	deliveryRepo.On("Create", ctx, mock.MatchedBy(func(d *dispatchDomain.Delivery) bool {
		return d.Kind == dispatchDomain.DeliveryKindOtpCode && d.Channel == "whatsapp" && d.Recipient == signer.Phone
	})).Return(nil)

	err := useCase.SendCode(ctx, signer, documentDomain.AuthChannelWhatsApp, "123456")
	require.NoError(t, err)
	deliveryRepo.AssertExpectations(t)
}

func TestDispatchUseCase_ProcessDeliveries(t *testing.T) {
	ctx := context.Background()
	documentID := uuid.Must(uuid.NewV7())
	signer := newDispatchSigner(documentID)

	t.Run("successful dispatch marks delivery requested", func(t *testing.T) {
		deliveryRepo := &MockDeliveryRepository{}
		signerRepo := &MockSignerRepository{}
		notifier := &MockNotifier{}
		txManager := &MockTxManager{}
		useCase := newUseCase(deliveryRepo, signerRepo, &MockDocumentRepository{}, &MockTimelineRecorder{}, notifier, txManager)

		delivery := dispatchDomain.NewDelivery(documentID, signer.ID, dispatchDomain.DeliveryKindInvitation, "email", signer.Email, "{}")

		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		deliveryRepo.On("GetPending", ctx, 10).Return([]*dispatchDomain.Delivery{delivery}, nil)
		notifier.On("Notify", ctx, delivery).Return(nil)
		deliveryRepo.On("Update", ctx, delivery).Return(nil)
		signerRepo.On("Get", ctx, signer.ID).Return(signer, nil)
		signerRepo.On("Update", ctx, signer).Return(nil)

		err := useCase.ProcessDeliveries(ctx)
		require.NoError(t, err)

		assert.Equal(t, dispatchDomain.DeliveryStatusRequested, delivery.Status)
		require.NotNil(t, delivery.DispatchedAt)
		assert.Equal(t, documentDomain.DeliveryStatusRequested, signer.DeliveryStatus)
	})

	t.Run("notify failure burns an attempt and keeps pending", func(t *testing.T) {
		deliveryRepo := &MockDeliveryRepository{}
		notifier := &MockNotifier{}
		txManager := &MockTxManager{}
		useCase := newUseCase(deliveryRepo, &MockSignerRepository{}, &MockDocumentRepository{}, &MockTimelineRecorder{}, notifier, txManager)

		delivery := dispatchDomain.NewDelivery(documentID, signer.ID, dispatchDomain.DeliveryKindInvitation, "email", signer.Email, "{}")

		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		deliveryRepo.On("GetPending", ctx, 10).Return([]*dispatchDomain.Delivery{delivery}, nil)
		notifier.On("Notify", ctx, delivery).Return(assert.AnError)
		deliveryRepo.On("Update", ctx, delivery).Return(nil)

		err := useCase.ProcessDeliveries(ctx)
		require.NoError(t, err)

		assert.Equal(t, dispatchDomain.DeliveryStatusPending, delivery.Status)
		assert.Equal(t, 1, delivery.Attempts)
		require.NotNil(t, delivery.LastError)
	})

	t.Run("exhausted attempts fail the delivery", func(t *testing.T) {
		deliveryRepo := &MockDeliveryRepository{}
		notifier := &MockNotifier{}
		txManager := &MockTxManager{}
		useCase := newUseCase(deliveryRepo, &MockSignerRepository{}, &MockDocumentRepository{}, &MockTimelineRecorder{}, notifier, txManager)

		delivery := dispatchDomain.NewDelivery(documentID, signer.ID, dispatchDomain.DeliveryKindInvitation, "email", signer.Email, "{}")
		delivery.Attempts = 2

		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		deliveryRepo.On("GetPending", ctx, 10).Return([]*dispatchDomain.Delivery{delivery}, nil)
		notifier.On("Notify", ctx, delivery).Return(assert.AnError)
		deliveryRepo.On("Update", ctx, delivery).Return(nil)

		err := useCase.ProcessDeliveries(ctx)
		require.NoError(t, err)

		assert.Equal(t, dispatchDomain.DeliveryStatusFailed, delivery.Status)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		deliveryRepo := &MockDeliveryRepository{}
		txManager := &MockTxManager{}
		useCase := newUseCase(deliveryRepo, &MockSignerRepository{}, &MockDocumentRepository{}, &MockTimelineRecorder{}, &MockNotifier{}, txManager)

		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		deliveryRepo.On("GetPending", ctx, 10).Return([]*dispatchDomain.Delivery{}, nil)

		require.NoError(t, useCase.ProcessDeliveries(ctx))
	})
}

func TestDispatchUseCase_HandleResult(t *testing.T) {
	ctx := context.Background()
	document := documentDomain.NewDocument("Contract", uuid.Must(uuid.NewV7()), 3, nil)
	signer := newDispatchSigner(document.ID)

	setup := func() (*MockDeliveryRepository, *MockSignerRepository, *MockDocumentRepository, *MockTimelineRecorder, DispatchUseCase) {
		deliveryRepo := &MockDeliveryRepository{}
		signerRepo := &MockSignerRepository{}
		documentRepo := &MockDocumentRepository{}
		timeline := &MockTimelineRecorder{}
		txManager := &MockTxManager{}
		txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		useCase := newUseCase(deliveryRepo, signerRepo, documentRepo, timeline, &MockNotifier{}, txManager)
		return deliveryRepo, signerRepo, documentRepo, timeline, useCase
	}

	t.Run("delivered result updates delivery, signer and timeline", func(t *testing.T) {
		deliveryRepo, signerRepo, documentRepo, timeline, useCase := setup()

		delivery := dispatchDomain.NewDelivery(document.ID, signer.ID, dispatchDomain.DeliveryKindInvitation, "email", signer.Email, "{}")
		delivery.MarkRequested(time.Now())

		deliveryRepo.On("Get", ctx, delivery.ID).Return(delivery, nil)
		documentRepo.On("GetForUpdate", ctx, document.ID).Return(document, nil)
		deliveryRepo.On("Update", ctx, delivery).Return(nil)
		signerRepo.On("Get", ctx, signer.ID).Return(signer, nil)
		signerRepo.On("Update", ctx, signer).Return(nil)
		timeline.On("Record", ctx, document.ID, &delivery.SignerID, timelineDomain.EventDeliveryUpdated, timelineDomain.ActorSystem, mock.Anything).
			Return(&timelineDomain.Event{}, nil)

		result, err := useCase.HandleResult(ctx, delivery.ID, true, "")
		require.NoError(t, err)

		assert.Equal(t, dispatchDomain.DeliveryStatusDelivered, result.Status)
		assert.Equal(t, documentDomain.DeliveryStatusDelivered, signer.DeliveryStatus)
		timeline.AssertExpectations(t)
	})

	t.Run("failure result records the reason", func(t *testing.T) {
		deliveryRepo, signerRepo, documentRepo, timeline, useCase := setup()

		failedSigner := newDispatchSigner(document.ID)
		delivery := dispatchDomain.NewDelivery(document.ID, failedSigner.ID, dispatchDomain.DeliveryKindInvitation, "email", failedSigner.Email, "{}")
		delivery.MarkRequested(time.Now())

		deliveryRepo.On("Get", ctx, delivery.ID).Return(delivery, nil)
		documentRepo.On("GetForUpdate", ctx, document.ID).Return(document, nil)
		deliveryRepo.On("Update", ctx, delivery).Return(nil)
		signerRepo.On("Get", ctx, failedSigner.ID).Return(failedSigner, nil)
		signerRepo.On("Update", ctx, failedSigner).Return(nil)
		timeline.On("Record", ctx, document.ID, &delivery.SignerID, timelineDomain.EventDeliveryUpdated, timelineDomain.ActorSystem, mock.Anything).
			Return(&timelineDomain.Event{}, nil)

		result, err := useCase.HandleResult(ctx, delivery.ID, false, "mailbox full")
		require.NoError(t, err)

		assert.Equal(t, dispatchDomain.DeliveryStatusFailed, result.Status)
		require.NotNil(t, result.LastError)
		assert.Equal(t, "mailbox full", *result.LastError)
		assert.Equal(t, documentDomain.DeliveryStatusFailed, failedSigner.DeliveryStatus)
	})

	t.Run("finalized delivery rejects a second result", func(t *testing.T) {
		deliveryRepo, _, documentRepo, _, useCase := setup()

		delivery := dispatchDomain.NewDelivery(document.ID, signer.ID, dispatchDomain.DeliveryKindInvitation, "email", signer.Email, "{}")
		require.NoError(t, delivery.ApplyResult(true, ""))

		deliveryRepo.On("Get", ctx, delivery.ID).Return(delivery, nil)
		documentRepo.On("GetForUpdate", ctx, document.ID).Return(document, nil)

		_, err := useCase.HandleResult(ctx, delivery.ID, false, "late failure")
		assert.ErrorIs(t, err, dispatchDomain.ErrDeliveryFinalized)
	})

	t.Run("unknown delivery", func(t *testing.T) {
		deliveryRepo, _, _, _, useCase := setup()

		unknownID := uuid.Must(uuid.NewV7())
		deliveryRepo.On("Get", ctx, unknownID).Return(nil, dispatchDomain.ErrDeliveryNotFound)

		_, err := useCase.HandleResult(ctx, unknownID, true, "")
		assert.ErrorIs(t, err, dispatchDomain.ErrDeliveryNotFound)
	})
}

func TestDispatchUseCase_StartStopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	deliveryRepo := &MockDeliveryRepository{}
	txManager := &MockTxManager{}
	useCase := newUseCase(deliveryRepo, &MockSignerRepository{}, &MockDocumentRepository{}, &MockTimelineRecorder{}, &MockNotifier{}, txManager)

	txManager.On("WithTx", mock.Anything, mock.AnythingOfType("func(context.Context) error")).Return(nil).Maybe()
	deliveryRepo.On("GetPending", mock.Anything, 10).Return([]*dispatchDomain.Delivery{}, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- useCase.Start(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
