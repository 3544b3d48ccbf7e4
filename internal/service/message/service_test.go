package message

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatwave-backend/internal/domain"
	apperrors "chatwave-backend/pkg/errors"
)

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Save(msg *domain.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *mockMessageRepo) GetByPair(userA, userB uuid.UUID, since time.Time, limit int, pageState []byte) ([]*domain.Message, []byte, error) {
	args := m.Called(userA, userB, since, limit, pageState)
	var msgs []*domain.Message
	if args.Get(0) != nil {
		msgs = args.Get(0).([]*domain.Message)
	}
	var next []byte
	if args.Get(1) != nil {
		next = args.Get(1).([]byte)
	}
	return msgs, next, args.Error(2)
}

func (m *mockMessageRepo) GetByID(userA, userB, messageID uuid.UUID, sentAt time.Time) (*domain.Message, error) {
	args := m.Called(userA, userB, messageID, sentAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *mockMessageRepo) Delete(userA, userB, messageID uuid.UUID, sentAt time.Time) error {
	args := m.Called(userA, userB, messageID, sentAt)
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyNewMessage(msg *domain.Message) bool {
	args := m.Called(msg)
	return args.Bool(0)
}

func (m *mockNotifier) NotifyMessageDeleted(senderID, receiverID, messageID uuid.UUID) {
	m.Called(senderID, receiverID, messageID)
}

type mockBlobStore struct {
	mock.Mock
}

func (m *mockBlobStore) UploadImage(ctx context.Context, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, data, contentType)
	return args.String(0), args.Error(1)
}

type mockPushSender struct {
	mock.Mock
}

func (m *mockPushSender) SendToUser(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) {
	m.Called(ctx, userID, title, body, data)
}

func newMocks() (*mockMessageRepo, *mockNotifier, *mockBlobStore, *mockPushSender, *Service) {
	repo := new(mockMessageRepo)
	notifier := new(mockNotifier)
	blobs := new(mockBlobStore)
	push := new(mockPushSender)
	return repo, notifier, blobs, push, NewService(repo, notifier, blobs, push)
}

func TestSendDeliversToOnlineRecipient(t *testing.T) {
	repo, notifier, _, push, svc := newMocks()
	sender, receiver := uuid.New(), uuid.New()

	repo.On("Save", mock.AnythingOfType("*domain.Message")).Return(nil)
	notifier.On("NotifyNewMessage", mock.AnythingOfType("*domain.Message")).Return(true)

	msg, err := svc.Send(context.Background(), sender, "alice", receiver, "hello", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, domain.PairKey(sender, receiver), msg.PairKey)
	assert.Nil(t, msg.ImageURL)

	push.AssertNotCalled(t, "SendToUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSendPushesToOfflineRecipient(t *testing.T) {
	repo, notifier, _, push, svc := newMocks()
	sender, receiver := uuid.New(), uuid.New()

	repo.On("Save", mock.AnythingOfType("*domain.Message")).Return(nil)
	notifier.On("NotifyNewMessage", mock.AnythingOfType("*domain.Message")).Return(false)
	push.On("SendToUser", mock.Anything, receiver, "alice", "hello", mock.Anything).Return()

	_, err := svc.Send(context.Background(), sender, "alice", receiver, "hello", nil, "")
	require.NoError(t, err)
	push.AssertExpectations(t)
}

func TestSendUploadsImage(t *testing.T) {
	repo, notifier, blobs, _, svc := newMocks()
	sender, receiver := uuid.New(), uuid.New()
	image := []byte{0xff, 0xd8, 0xff}

	blobs.On("UploadImage", mock.Anything, image, "image/jpeg").Return("https://cdn.example.com/img/abc.jpg", nil)
	repo.On("Save", mock.AnythingOfType("*domain.Message")).Return(nil)
	notifier.On("NotifyNewMessage", mock.AnythingOfType("*domain.Message")).Return(true)

	msg, err := svc.Send(context.Background(), sender, "alice", receiver, "", image, "image/jpeg")
	require.NoError(t, err)
	require.NotNil(t, msg.ImageURL)
	assert.Equal(t, "https://cdn.example.com/img/abc.jpg", *msg.ImageURL)
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	_, _, _, _, svc := newMocks()

	_, err := svc.Send(context.Background(), uuid.New(), "alice", uuid.New(), "   ", nil, "")
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
}

func TestSendRejectsSelfMessage(t *testing.T) {
	_, _, _, _, svc := newMocks()
	userID := uuid.New()

	_, err := svc.Send(context.Background(), userID, "alice", userID, "hi me", nil, "")
	require.Error(t, err)
}

func TestSendUploadFailure(t *testing.T) {
	repo, _, blobs, _, svc := newMocks()
	image := []byte{1, 2, 3}

	blobs.On("UploadImage", mock.Anything, image, "image/png").Return("", errors.New("bucket down"))

	_, err := svc.Send(context.Background(), uuid.New(), "alice", uuid.New(), "", image, "image/png")
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeStorage, appErr.Code)
	repo.AssertNotCalled(t, "Save", mock.Anything)
}

func TestDeleteBySender(t *testing.T) {
	repo, notifier, _, _, svc := newMocks()
	sender, receiver := uuid.New(), uuid.New()
	messageID := uuid.New()
	sentAt := time.Now().UTC()

	repo.On("GetByID", sender, receiver, messageID, sentAt).Return(&domain.Message{
		MessageID:  messageID,
		SenderID:   sender,
		ReceiverID: receiver,
	}, nil)
	repo.On("Delete", sender, receiver, messageID, sentAt).Return(nil)
	notifier.On("NotifyMessageDeleted", sender, receiver, messageID).Return()

	require.NoError(t, svc.Delete(context.Background(), sender, receiver, messageID, sentAt))
	notifier.AssertExpectations(t)
}

func TestDeleteByRecipientForbidden(t *testing.T) {
	repo, notifier, _, _, svc := newMocks()
	sender, receiver := uuid.New(), uuid.New()
	messageID := uuid.New()
	sentAt := time.Now().UTC()

	repo.On("GetByID", receiver, sender, messageID, sentAt).Return(&domain.Message{
		MessageID:  messageID,
		SenderID:   sender,
		ReceiverID: receiver,
	}, nil)

	err := svc.Delete(context.Background(), receiver, sender, messageID, sentAt)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeForbidden, appErr.Code)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "NotifyMessageDeleted", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteMissingMessage(t *testing.T) {
	repo, _, _, _, svc := newMocks()
	sender, receiver := uuid.New(), uuid.New()
	messageID := uuid.New()
	sentAt := time.Now().UTC()

	repo.On("GetByID", sender, receiver, messageID, sentAt).Return(nil, nil)

	err := svc.Delete(context.Background(), sender, receiver, messageID, sentAt)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeMessageNotFound, appErr.Code)
}

func TestHistoryDefaults(t *testing.T) {
	repo, _, _, _, svc := newMocks()
	userID, peerID := uuid.New(), uuid.New()

	repo.On("GetByPair", userID, peerID, mock.AnythingOfType("time.Time"), 50, []byte(nil)).
		Return([]*domain.Message{}, []byte(nil), nil)

	_, _, err := svc.History(context.Background(), userID, peerID, time.Time{}, 0, nil)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
