package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/ecommerce/internal/notification/domain"
)

type fakeNotificationRepo struct {
	created []*domain.Notification
	updated []*domain.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationRepo) Update(_ context.Context, n *domain.Notification) error {
	f.updated = append(f.updated, n)
	return nil
}

func (f *fakeNotificationRepo) ListByOrder(_ context.Context, _ string) ([]*domain.Notification, error) {
	return nil, nil
}

type fakeSender struct {
	targets []string
	err     error
}

func (f *fakeSender) Send(_ context.Context, target, _, _ string) error {
	f.targets = append(f.targets, target)
	return f.err
}

func queuedJSON(t *testing.T, msg QueuedMessage) []byte {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	return raw
}

func TestWorkerDeliversEmail(t *testing.T) {
	repo := &fakeNotificationRepo{}
	email := &fakeSender{}
	webhook := &fakeSender{}
	w := NewWorker(nil, repo, email, webhook)
	w.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	msg := QueuedMessage{
		MessageID:   "msg-1",
		UserID:      "u1",
		OrderNumber: "ORD-1001",
		Type:        domain.NotificationTypeEmail,
		Kind:        domain.KindOrderConfirmation,
		Target:      "customer@example.com",
		Subject:     "Order ORD-1001 confirmed",
		Content:     "body",
	}
	require.NoError(t, w.Handle(context.Background(), queuedJSON(t, msg)))

	assert.Equal(t, []string{"customer@example.com"}, email.targets)
	assert.Empty(t, webhook.targets)

	require.Len(t, repo.updated, 1)
	assert.Equal(t, domain.NotificationStatusSent, repo.updated[0].Status)
	require.NotNil(t, repo.updated[0].SentAt)
}

func TestWorkerRoutesWebhook(t *testing.T) {
	repo := &fakeNotificationRepo{}
	email := &fakeSender{}
	webhook := &fakeSender{}
	w := NewWorker(nil, repo, email, webhook)

	msg := QueuedMessage{
		MessageID:   "msg-2",
		OrderNumber: "ORD-1002",
		Type:        domain.NotificationTypeWebhook,
		Kind:        domain.KindAdminNewOrder,
		Target:      "https://hooks.example.com/orders",
		Subject:     "New order ORD-1002",
		Content:     "body",
	}
	require.NoError(t, w.Handle(context.Background(), queuedJSON(t, msg)))

	assert.Empty(t, email.targets)
	assert.Equal(t, []string{"https://hooks.example.com/orders"}, webhook.targets)
}

func TestWorkerRecordsDeliveryFailure(t *testing.T) {
	repo := &fakeNotificationRepo{}
	email := &fakeSender{err: errors.New("smtp connection refused")}
	w := NewWorker(nil, repo, email, &fakeSender{})

	msg := QueuedMessage{
		MessageID:   "msg-3",
		OrderNumber: "ORD-1003",
		Type:        domain.NotificationTypeEmail,
		Kind:        domain.KindOrderCancelled,
		Target:      "customer@example.com",
	}
	require.NoError(t, w.Handle(context.Background(), queuedJSON(t, msg)))

	require.Len(t, repo.updated, 1)
	assert.Equal(t, domain.NotificationStatusFailed, repo.updated[0].Status)
	assert.Contains(t, repo.updated[0].ErrorMessage, "smtp connection refused")
	assert.Nil(t, repo.updated[0].SentAt)
}

func TestWorkerUnknownTypeMarkedFailed(t *testing.T) {
	repo := &fakeNotificationRepo{}
	w := NewWorker(nil, repo, &fakeSender{}, &fakeSender{})

	msg := QueuedMessage{
		MessageID:   "msg-4",
		OrderNumber: "ORD-1004",
		Type:        domain.NotificationType("SMS"),
		Target:      "01712345678",
	}
	require.NoError(t, w.Handle(context.Background(), queuedJSON(t, msg)))

	require.Len(t, repo.updated, 1)
	assert.Equal(t, domain.NotificationStatusFailed, repo.updated[0].Status)
}

func TestWorkerRejectsMalformedMessage(t *testing.T) {
	repo := &fakeNotificationRepo{}
	w := NewWorker(nil, repo, &fakeSender{}, &fakeSender{})

	err := w.Handle(context.Background(), []byte("not json"))
	assert.Error(t, err)
	assert.Empty(t, repo.created)
}
