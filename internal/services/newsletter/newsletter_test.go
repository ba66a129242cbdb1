package newsletter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type RepositoryMock struct{ mock.Mock }

func (m *RepositoryMock) UpsertNewsletterSubscriber(ctx context.Context, email string, subscribedAt time.Time) error {
	args := m.Called(ctx, email, subscribedAt)
	return args.Error(0)
}

func (m *RepositoryMock) ListNewsletterSubscribers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *RepositoryMock) RecordNewsletterCampaign(ctx context.Context, subject string, recipients int, sentAt time.Time) error {
	args := m.Called(ctx, subject, recipients, sentAt)
	return args.Error(0)
}

type SenderMock struct{ mock.Mock }

func (m *SenderMock) Send(ctx context.Context, to, subject, html string) error {
	args := m.Called(ctx, to, subject, html)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSubscribe(t *testing.T) {
	repo := new(RepositoryMock)
	repo.On("UpsertNewsletterSubscriber", mock.Anything, "taro@example.com", mock.Anything).Return(nil)

	svc := NewService(repo, new(SenderMock), discardLogger())

	err := svc.Subscribe(context.Background(), "taro@example.com")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSendCampaign(t *testing.T) {
	repo := new(RepositoryMock)
	repo.On("ListNewsletterSubscribers", mock.Anything).
		Return([]string{"a@example.com", "b@example.com", "c@example.com"}, nil)
	repo.On("RecordNewsletterCampaign", mock.Anything, "お知らせ", 2, mock.Anything).Return(nil)

	sender := new(SenderMock)
	sender.On("Send", mock.Anything, "a@example.com", "お知らせ", mock.Anything).Return(nil)
	sender.On("Send", mock.Anything, "b@example.com", "お知らせ", mock.Anything).
		Return(errors.New("bounced"))
	sender.On("Send", mock.Anything, "c@example.com", "お知らせ", mock.Anything).Return(nil)

	svc := NewService(repo, sender, discardLogger())

	sent, err := svc.SendCampaign(context.Background(), "お知らせ", "<p>新機能のご案内</p>")
	require.NoError(t, err)
	assert.Equal(t, 2, sent, "one bounce must not stop the campaign")
	repo.AssertExpectations(t)
}

func TestSendCampaign_ListFails(t *testing.T) {
	repo := new(RepositoryMock)
	repo.On("ListNewsletterSubscribers", mock.Anything).Return(nil, errors.New("db down"))

	svc := NewService(repo, new(SenderMock), discardLogger())

	sent, err := svc.SendCampaign(context.Background(), "s", "h")
	assert.Zero(t, sent)
	assert.Error(t, err)
}
