package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	dispatchDomain "github.com/gsPatrick/garimponos-sign/internal/dispatch/domain"
	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	apperrors "github.com/gsPatrick/garimponos-sign/internal/errors"
	signingDomain "github.com/gsPatrick/garimponos-sign/internal/signing/domain"
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

// MockDocumentRepository is a mock implementation of DocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, document *documentDomain.Document) error {
	args := m.Called(ctx, document)
	return args.Error(0)
}

func (m *MockDocumentRepository) Get(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Document), args.Error(1)
}

func (m *MockDocumentRepository) GetForUpdate(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Document), args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, document *documentDomain.Document) error {
	args := m.Called(ctx, document)
	return args.Error(0)
}

func (m *MockDocumentRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit uint) ([]*documentDomain.Document, error) {
	args := m.Called(ctx, ownerID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*documentDomain.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListExpirable(ctx context.Context, limit uint) ([]uuid.UUID, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockSignerRepository is a mock implementation of SignerRepository
type MockSignerRepository struct {
	mock.Mock
}

func (m *MockSignerRepository) Create(ctx context.Context, signer *documentDomain.Signer) error {
	args := m.Called(ctx, signer)
	return args.Error(0)
}

func (m *MockSignerRepository) Get(ctx context.Context, signerID uuid.UUID) (*documentDomain.Signer, error) {
	args := m.Called(ctx, signerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentDomain.Signer), args.Error(1)
}

func (m *MockSignerRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*documentDomain.Signer, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*documentDomain.Signer), args.Error(1)
}

func (m *MockSignerRepository) Update(ctx context.Context, signer *documentDomain.Signer) error {
	args := m.Called(ctx, signer)
	return args.Error(0)
}

func (m *MockSignerRepository) CountNotCommitted(ctx context.Context, documentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).(int64), args.Error(1)
}

// MockSessionManager is a mock implementation of SessionManager
type MockSessionManager struct {
	mock.Mock
}

func (m *MockSessionManager) Issue(ctx context.Context, document *documentDomain.Document, signer *documentDomain.Signer) (*signingDomain.Session, string, error) {
	args := m.Called(ctx, document, signer)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*signingDomain.Session), args.String(1), args.Error(2)
}

func (m *MockSessionManager) RevokeActiveByDocument(ctx context.Context, documentID uuid.UUID, now time.Time) error {
	args := m.Called(ctx, documentID, now)
	return args.Error(0)
}

// MockInvitationDispatcher is a mock implementation of InvitationDispatcher
type MockInvitationDispatcher struct {
	mock.Mock
}

func (m *MockInvitationDispatcher) EnqueueInvitation(ctx context.Context, document *documentDomain.Document, signer *documentDomain.Signer, signingLink string, resend bool) (*dispatchDomain.Delivery, error) {
	args := m.Called(ctx, document, signer, signingLink, resend)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatchDomain.Delivery), args.Error(1)
}

// MockTimelineRecorder is a mock implementation of TimelineRecorder
type MockTimelineRecorder struct {
	mock.Mock
}

func (m *MockTimelineRecorder) Record(ctx context.Context, documentID uuid.UUID, signerID *uuid.UUID, eventType timelineDomain.EventType, actor timelineDomain.ActorType, payload any) (*timelineDomain.Event, error) {
	args := m.Called(ctx, documentID, signerID, eventType, actor, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*timelineDomain.Event), args.Error(1)
}

type documentFixture struct {
	txManager  *MockTxManager
	docRepo    *MockDocumentRepository
	signerRepo *MockSignerRepository
	sessions   *MockSessionManager
	dispatcher *MockInvitationDispatcher
	timeline   *MockTimelineRecorder
	useCase    DocumentUseCase
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()
	f := &documentFixture{
		txManager:  &MockTxManager{},
		docRepo:    &MockDocumentRepository{},
		signerRepo: &MockSignerRepository{},
		sessions:   &MockSessionManager{},
		dispatcher: &MockInvitationDispatcher{},
		timeline:   &MockTimelineRecorder{},
	}
	f.useCase = NewDocumentUseCase(
		f.txManager, f.docRepo, f.signerRepo, f.sessions, f.dispatcher, f.timeline,
		"https://sign.example.com",
	)
	return f
}

func (f *documentFixture) expectTx(ctx context.Context) {
	f.txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
}

func newTestSigner(documentID uuid.UUID) *documentDomain.Signer {
	return documentDomain.NewSigner(
		documentID,
		"Maria Souza",
		"maria@example.com",
		"+5511999990000",
		"12345678901",
		"contractor",
		[]documentDomain.AuthChannel{documentDomain.AuthChannelEmail},
	)
}

func TestDocumentUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a draft with creation event", func(t *testing.T) {
		f := newDocumentFixture(t)
		f.expectTx(ctx)
		f.docRepo.On("Create", ctx, mock.AnythingOfType("*domain.Document")).Return(nil)
		f.timeline.On("Record", ctx, mock.AnythingOfType("uuid.UUID"), (*uuid.UUID)(nil),
			timelineDomain.EventDocumentCreated, timelineDomain.ActorOwner, mock.Anything).
			Return(&timelineDomain.Event{}, nil)

		document, err := f.useCase.Create(ctx, CreateDocumentInput{
			Title:     "Service agreement",
			OwnerID:   uuid.Must(uuid.NewV7()),
			PageCount: 5,
		})

		require.NoError(t, err)
		assert.Equal(t, documentDomain.DocumentStatusDraft, document.Status)
		assert.Equal(t, int64(1), document.Version)
		f.docRepo.AssertExpectations(t)
		f.timeline.AssertExpectations(t)
	})

	t.Run("rejects a deadline in the past", func(t *testing.T) {
		f := newDocumentFixture(t)
		past := time.Now().Add(-time.Hour)

		_, err := f.useCase.Create(ctx, CreateDocumentInput{
			Title:      "Service agreement",
			OwnerID:    uuid.Must(uuid.NewV7()),
			PageCount:  5,
			DeadlineAt: &past,
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		f.docRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestDocumentUseCase_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("updates title while mutable", func(t *testing.T) {
		f := newDocumentFixture(t)
		document := documentDomain.NewDocument("Old title", uuid.Must(uuid.NewV7()), 5, nil)

		f.expectTx(ctx)
		f.docRepo.On("GetForUpdate", ctx, document.ID).Return(document, nil)
		f.docRepo.On("Update", ctx, document).Return(nil)
		f.timeline.On("Record", ctx, document.ID, (*uuid.UUID)(nil),
			timelineDomain.EventDocumentUpdated, timelineDomain.ActorOwner,
			map[string]any{"title": "New title"}).
			Return(&timelineDomain.Event{}, nil)

		title := "New title"
		updated, err := f.useCase.Update(ctx, document.ID, UpdateDocumentInput{Title: &title})

		require.NoError(t, err)
		assert.Equal(t, "New title", updated.Title)
	})

	t.Run("rejects update on a cancelled document", func(t *testing.T) {
		f := newDocumentFixture(t)
		document := documentDomain.NewDocument("Old title", uuid.Must(uuid.NewV7()), 5, nil)
		require.NoError(t, document.Cancel())

		f.expectTx(ctx)
		f.docRepo.On("GetForUpdate", ctx, document.ID).Return(document, nil)

		title := "New title"
		_, err := f.useCase.Update(ctx, document.ID, UpdateDocumentInput{Title: &title})

		assert.ErrorIs(t, err, documentDomain.ErrInvalidDocumentState)
		f.docRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("no-op update skips persistence", func(t *testing.T) {
		f := newDocumentFixture(t)
		document := documentDomain.NewDocument("Old title", uuid.Must(uuid.NewV7()), 5, nil)

		f.expectTx(ctx)
		f.docRepo.On("GetForUpdate", ctx, document.ID).Return(document, nil)

		_, err := f.useCase.Update(ctx, document.ID, UpdateDocumentInput{})

		require.NoError(t, err)
		f.docRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		f.timeline.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown document", func(t *testing.T) {
		f := newDocumentFixture(t)
		documentID := uuid.Must(uuid.NewV7())

		f.expectTx(ctx)
		f.docRepo.On("GetForUpdate", ctx, documentID).Return(nil, apperrors.ErrNotFound)

		title := "New title"
		_, err := f.useCase.Update(ctx, documentID, UpdateDocumentInput{Title: &title})

		assert.ErrorIs(t, err, documentDomain.ErrDocumentNotFound)
	})
}

func TestDocumentUseCase_AttachSigner(t *testing.T) {
	ctx := context.Background()

	t.Run("attaches a signer to a draft", func(t *testing.T) {
		f := newDocumentFixture(t)
		document := documentDomain.NewDocument("Service agreement", uuid.Must(uuid.NewV7()), 5, nil)

		f.expectTx(ctx)
		f.docRepo.On("GetForUpdate", ctx, document.ID).Return(document, nil)
		f.signerRepo.On("Create", ctx, mock.AnythingOfType("*domain.Signer")).Return(nil)
		f.timeline.On("Record", ctx, document.ID, mock.AnythingOfType("*uuid.UUID"),
			timelineDomain.EventSignerAttached, timelineDomain.ActorOwner, mock.Anything).
			Return(&timelineDomain.Event{}, nil)

		signer, err := f.useCase.AttachSigner(ctx, document.ID, AttachSignerInput{
			Name:  "Maria Souza",
			Email: "maria@example.com",
		})

		require.NoError(t, err)
		assert.Equal(t, documentDomain.SignerStatusInvited, signer.Status)
		assert.Equal(t, document.ID, signer.DocumentID)
	})

	t.Run("rejects attaching to a completed document", func(t *testing.T) {
		f := newDocumentFixture(t)
		document := documentDomain.NewDocument("Service agreement", uuid.Must(uuid.NewV7()), 5, nil)
		require.NoError(t, document.MarkAwaitingSignatures())
		require.NoError(t, document.Complete())

		f.expectTx(ctx)
		f.docRepo.On("GetForUpdate", ctx, document.ID).Return(document, nil)

		_, err := f.useCase.AttachSigner(ctx, document.ID, AttachSignerInput{Name: "Maria Souza"})

		assert.ErrorIs(t, err, documentDomain.ErrInvalidDocumentState)
		f.signerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestDocumentUseCase_InviteSigner(t *testing.T) {
	ctx := context.Background()

	t.Run("first invite issues a session and moves the document", func(t *testing.T) {
		f := newDocumentFixture(t)
		document := documentDomain.NewDocument("Service agreement", uuid.Must(uuid.NewV7()), 5, nil)
		signer := newTestSigner(document.ID)
		session := signingDomain.NewSession(document.ID, signer.ID, "hash", time.Now().Add(time.Hour))

		f.expectTx(ctx)
		f.docRepo.On("GetForUpdate", ctx, document.ID).Return(document, nil)
		f.signerRepo.On("Get", ctx, signer.ID).Return(signer, nil)
		f.docRepo.On("Update", ctx, document).Return(nil)
		f.sessions.On("Issue", ctx, document, signer).Return(session, "plain-token", nil)
		f.dispatcher.On("EnqueueInvitation", ctx, document, signer,
			"https://sign.example.com/sign/plain-token", false).
			Return(&dispatchDomain.Delivery{}, nil)
		f.signerRepo.On("Update", ctx, signer).Return(nil)
		f.timeline.On("Record", ctx, document.ID, &signer.ID,
			timelineDomain.EventSignerInvited, timelineDomain.ActorOwner, nil).
			Return(&timelineDomain.Event{}, nil)

		invited, err := f.useCase.InviteSigner(ctx, document.ID, signer.ID)

		require.NoError(t, err)
		assert.Equal(t, documentDomain.DocumentStatusAwaitingSignatures, document.Status)
		assert.Equal(t, documentDomain.DeliveryStatusPending, invited.DeliveryStatus)
		f.dispatcher.AssertExpectations(t)
	})

	t.Run("resend supersedes the previous link", func(t *testing.T) {
		f := newDocumentFixture(t)
		document := documentDomain.NewDocument("Service agreement", uuid.Must(uuid.NewV7()), 5, nil)
		require.NoError(t, document.MarkAwaitingSignatures())
		signer := newTestSigner(document.ID)
		session := signingDomain.NewSession(document.ID, signer.ID, "hash-2", time.Now().Add(time.Hour))

		f.expectTx(ctx)
		f.docRepo.On("GetForUpdate", ctx, document.ID).Return(document, nil)
		f.signerRepo.On("Get", ctx, signer.ID).Return(signer, nil)
		f.docRepo.On("Update", ctx, document).Return(nil)
		f.sessions.On("Issue", ctx, document, signer).Return(session, "fresh-token", nil)
		f.dispatcher.On("EnqueueInvitation", ctx, document, signer,
			"https://sign.example.com/sign/fresh-token", true).
			Return(&dispatchDomain.Delivery{}, nil)
		f.signerRepo.On("Update", ctx, signer).Return(nil)
		f.timeline.On("Record", ctx, document.ID, &signer.ID,
			timelineDomain.EventInvitationResent, timelineDomain.ActorOwner, nil).
			Return(&timelineDomain.Event{}, nil)

		_, err := f.useCase.ResendInvitation(ctx, document.ID, signer.ID)

		require.NoError(t, err)
		f.sessions.AssertExpectations(t)
	})

	t.Run("rejects inviting a signer who already started", func(t *testing.T) {
		f := newDocumentFixture(t)
		document := documentDomain.NewDocument("Service agreement", uuid.Must(uuid.NewV7()), 5, nil)
		require.NoError(t, document.MarkAwaitingSignatures())
		signer := newTestSigner(document.ID)
		require.NoError(t, signer.Identify())

		f.expectTx(ctx)
		f.docRepo.On("GetForUpdate", ctx, document.ID).Return(document, nil)
		f.signerRepo.On("Get", ctx, signer.ID).Return(signer, nil)

		_, err := f.useCase.ResendInvitation(ctx, document.ID, signer.ID)

		assert.ErrorIs(t, err, documentDomain.ErrInvalidStateTransition)
		f.sessions.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a signer belonging to another document", func(t *testing.T) {
		f := newDocumentFixture(t)
		document := documentDomain.NewDocument("Service agreement", uuid.Must(uuid.NewV7()), 5, nil)
		signer := newTestSigner(uuid.Must(uuid.NewV7()))

		f.expectTx(ctx)
		f.docRepo.On("GetForUpdate", ctx, document.ID).Return(document, nil)
		f.signerRepo.On("Get", ctx, signer.ID).Return(signer, nil)

		_, err := f.useCase.InviteSigner(ctx, document.ID, signer.ID)

		assert.ErrorIs(t, err, documentDomain.ErrSignerNotFound)
	})
}

func TestDocumentUseCase_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels and revokes live sessions", func(t *testing.T) {
		f := newDocumentFixture(t)
		document := documentDomain.NewDocument("Service agreement", uuid.Must(uuid.NewV7()), 5, nil)
		require.NoError(t, document.MarkAwaitingSignatures())

		f.expectTx(ctx)
		f.docRepo.On("GetForUpdate", ctx, document.ID).Return(document, nil)
		f.docRepo.On("Update", ctx, document).Return(nil)
		f.sessions.On("RevokeActiveByDocument", ctx, document.ID, mock.AnythingOfType("time.Time")).Return(nil)
		f.timeline.On("Record", ctx, document.ID, (*uuid.UUID)(nil),
			timelineDomain.EventDocumentCancelled, timelineDomain.ActorOwner, nil).
			Return(&timelineDomain.Event{}, nil)

		cancelled, err := f.useCase.Cancel(ctx, document.ID)

		require.NoError(t, err)
		assert.Equal(t, documentDomain.DocumentStatusCancelled, cancelled.Status)
		f.sessions.AssertExpectations(t)
	})

	t.Run("rejects cancelling a completed document", func(t *testing.T) {
		f := newDocumentFixture(t)
		document := documentDomain.NewDocument("Service agreement", uuid.Must(uuid.NewV7()), 5, nil)
		require.NoError(t, document.MarkAwaitingSignatures())
		require.NoError(t, document.Complete())

		f.expectTx(ctx)
		f.docRepo.On("GetForUpdate", ctx, document.ID).Return(document, nil)

		_, err := f.useCase.Cancel(ctx, document.ID)

		assert.ErrorIs(t, err, documentDomain.ErrInvalidDocumentState)
		f.sessions.AssertNotCalled(t, "RevokeActiveByDocument", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDocumentUseCase_SweepExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("expires overdue documents and their signers", func(t *testing.T) {
		f := newDocumentFixture(t)
		deadline := time.Now().Add(-time.Hour)
		document := documentDomain.NewDocument("Service agreement", uuid.Must(uuid.NewV7()), 5, &deadline)
		require.NoError(t, document.MarkAwaitingSignatures())
		signer := newTestSigner(document.ID)

		f.docRepo.On("ListExpirable", ctx, uint(50)).Return([]uuid.UUID{document.ID}, nil)
		f.expectTx(ctx)
		f.docRepo.On("GetForUpdate", ctx, document.ID).Return(document, nil)
		f.docRepo.On("Update", ctx, document).Return(nil)
		f.sessions.On("RevokeActiveByDocument", ctx, document.ID, mock.AnythingOfType("time.Time")).Return(nil)
		f.signerRepo.On("ListByDocument", ctx, document.ID).Return([]*documentDomain.Signer{signer}, nil)
		f.signerRepo.On("Update", ctx, signer).Return(nil)
		f.timeline.On("Record", ctx, document.ID, &signer.ID,
			timelineDomain.EventSignerExpired, timelineDomain.ActorSystem, nil).
			Return(&timelineDomain.Event{}, nil)
		f.timeline.On("Record", ctx, document.ID, (*uuid.UUID)(nil),
			timelineDomain.EventDocumentExpired, timelineDomain.ActorSystem, nil).
			Return(&timelineDomain.Event{}, nil)

		expired, err := f.useCase.SweepExpired(ctx, 50)

		require.NoError(t, err)
		assert.Equal(t, 1, expired)
		assert.Equal(t, documentDomain.DocumentStatusExpired, document.Status)
		assert.Equal(t, documentDomain.SignerStatusExpired, signer.Status)
	})

	t.Run("skips a document that completed after candidate selection", func(t *testing.T) {
		f := newDocumentFixture(t)
		deadline := time.Now().Add(-time.Hour)
		document := documentDomain.NewDocument("Service agreement", uuid.Must(uuid.NewV7()), 5, &deadline)
		require.NoError(t, document.MarkAwaitingSignatures())
		require.NoError(t, document.Complete())

		f.docRepo.On("ListExpirable", ctx, uint(50)).Return([]uuid.UUID{document.ID}, nil)
		f.expectTx(ctx)
		f.docRepo.On("GetForUpdate", ctx, document.ID).Return(document, nil)

		expired, err := f.useCase.SweepExpired(ctx, 50)

		require.NoError(t, err)
		assert.Zero(t, expired)
		assert.Equal(t, documentDomain.DocumentStatusCompleted, document.Status)
		f.docRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("nothing to expire", func(t *testing.T) {
		f := newDocumentFixture(t)
		f.docRepo.On("ListExpirable", ctx, uint(10)).Return([]uuid.UUID{}, nil)

		expired, err := f.useCase.SweepExpired(ctx, 10)

		require.NoError(t, err)
		assert.Zero(t, expired)
		f.txManager.AssertNotCalled(t, "WithTx", mock.Anything, mock.Anything)
	})
}
