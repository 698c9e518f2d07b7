package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	"github.com/gsPatrick/garimponos-sign/internal/metrics"
)

// mockBusinessMetrics is a mock implementation of metrics.BusinessMetrics for testing.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

// MockDocumentUseCase is a mock implementation of DocumentUseCase
type MockDocumentUseCase struct {
	mock.Mock
}

func (m *MockDocumentUseCase) Create(ctx context.Context, input CreateDocumentInput) (*documentDomain.Document, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Document), args.Error(1)
}

func (m *MockDocumentUseCase) Get(ctx context.Context, documentID uuid.UUID) (*DocumentWithSigners, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DocumentWithSigners), args.Error(1)
}

func (m *MockDocumentUseCase) List(ctx context.Context, ownerID uuid.UUID, offset, limit uint) ([]*documentDomain.Document, error) {
	args := m.Called(ctx, ownerID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*documentDomain.Document), args.Error(1)
}

func (m *MockDocumentUseCase) Update(ctx context.Context, documentID uuid.UUID, input UpdateDocumentInput) (*documentDomain.Document, error) {
	args := m.Called(ctx, documentID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Document), args.Error(1)
}

func (m *MockDocumentUseCase) AttachSigner(ctx context.Context, documentID uuid.UUID, input AttachSignerInput) (*documentDomain.Signer, error) {
	args := m.Called(ctx, documentID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Signer), args.Error(1)
}

func (m *MockDocumentUseCase) InviteSigner(ctx context.Context, documentID, signerID uuid.UUID) (*documentDomain.Signer, error) {
	args := m.Called(ctx, documentID, signerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Signer), args.Error(1)
}

func (m *MockDocumentUseCase) ResendInvitation(ctx context.Context, documentID, signerID uuid.UUID) (*documentDomain.Signer, error) {
	args := m.Called(ctx, documentID, signerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Signer), args.Error(1)
}

func (m *MockDocumentUseCase) Cancel(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Document), args.Error(1)
}

func (m *MockDocumentUseCase) SweepExpired(ctx context.Context, batchSize uint) (int, error) {
	args := m.Called(ctx, batchSize)
	return args.Int(0), args.Error(1)
}

func TestMetricsDecorator_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("records success metrics", func(t *testing.T) {
		mockUseCase := &MockDocumentUseCase{}
		mockMetrics := &mockBusinessMetrics{}

		input := CreateDocumentInput{Title: "Service agreement", OwnerID: uuid.Must(uuid.NewV7()), PageCount: 3}
		expected := documentDomain.NewDocument(input.Title, input.OwnerID, input.PageCount, nil)

		mockUseCase.On("Create", ctx, input).Return(expected, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "document", "document_create", "success").Once()
		mockMetrics.On("RecordDuration", ctx, "document", "document_create", mock.AnythingOfType("time.Duration"), "success").Once()

		decorator := NewDocumentUseCaseWithMetrics(mockUseCase, mockMetrics)
		result, err := decorator.Create(ctx, input)

		assert.NoError(t, err)
		assert.Equal(t, expected, result)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("records error metrics", func(t *testing.T) {
		mockUseCase := &MockDocumentUseCase{}
		mockMetrics := &mockBusinessMetrics{}

		input := CreateDocumentInput{Title: "Service agreement", OwnerID: uuid.Must(uuid.NewV7()), PageCount: 3}
		expectedError := errors.New("database error")

		mockUseCase.On("Create", ctx, input).Return(nil, expectedError).Once()
		mockMetrics.On("RecordOperation", ctx, "document", "document_create", "error").Once()
		mockMetrics.On("RecordDuration", ctx, "document", "document_create", mock.AnythingOfType("time.Duration"), "error").Once()

		decorator := NewDocumentUseCaseWithMetrics(mockUseCase, mockMetrics)
		result, err := decorator.Create(ctx, input)

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, expectedError, err)
		mockMetrics.AssertExpectations(t)
	})
}

func TestMetricsDecorator_InviteSigner(t *testing.T) {
	ctx := context.Background()

	t.Run("records success metrics", func(t *testing.T) {
		mockUseCase := &MockDocumentUseCase{}
		mockMetrics := &mockBusinessMetrics{}

		documentID := uuid.Must(uuid.NewV7())
		signer := newTestSigner(documentID)

		mockUseCase.On("InviteSigner", ctx, documentID, signer.ID).Return(signer, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "document", "signer_invite", "success").Once()
		mockMetrics.On("RecordDuration", ctx, "document", "signer_invite", mock.AnythingOfType("time.Duration"), "success").Once()

		decorator := NewDocumentUseCaseWithMetrics(mockUseCase, mockMetrics)
		result, err := decorator.InviteSigner(ctx, documentID, signer.ID)

		assert.NoError(t, err)
		assert.Equal(t, signer, result)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("records error metrics", func(t *testing.T) {
		mockUseCase := &MockDocumentUseCase{}
		mockMetrics := &mockBusinessMetrics{}

		documentID := uuid.Must(uuid.NewV7())
		signerID := uuid.Must(uuid.NewV7())

		mockUseCase.On("InviteSigner", ctx, documentID, signerID).
			Return(nil, documentDomain.ErrSignerNotFound).Once()
		mockMetrics.On("RecordOperation", ctx, "document", "signer_invite", "error").Once()
		mockMetrics.On("RecordDuration", ctx, "document", "signer_invite", mock.AnythingOfType("time.Duration"), "error").Once()

		decorator := NewDocumentUseCaseWithMetrics(mockUseCase, mockMetrics)
		_, err := decorator.InviteSigner(ctx, documentID, signerID)

		assert.ErrorIs(t, err, documentDomain.ErrSignerNotFound)
		mockMetrics.AssertExpectations(t)
	})
}

func TestMetricsDecorator_SweepExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("records success metrics", func(t *testing.T) {
		mockUseCase := &MockDocumentUseCase{}
		mockMetrics := &mockBusinessMetrics{}

		mockUseCase.On("SweepExpired", ctx, uint(50)).Return(3, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "document", "document_sweep_expired", "success").Once()
		mockMetrics.On("RecordDuration", ctx, "document", "document_sweep_expired", mock.AnythingOfType("time.Duration"), "success").Once()

		decorator := NewDocumentUseCaseWithMetrics(mockUseCase, mockMetrics)
		expired, err := decorator.SweepExpired(ctx, 50)

		assert.NoError(t, err)
		assert.Equal(t, 3, expired)
		mockMetrics.AssertExpectations(t)
	})
}
