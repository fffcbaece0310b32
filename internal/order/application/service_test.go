package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notificationapp "github.com/wyfcoding/ecommerce/internal/notification/application"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeOrderRepo struct {
	orders map[uint]*domain.Order
	// stale 覆盖 GetByID 的返回值，模拟读到过期快照的并发场景
	stale map[uint]*domain.Order
}

func newFakeOrderRepo(orders ...*domain.Order) *fakeOrderRepo {
	repo := &fakeOrderRepo{orders: make(map[uint]*domain.Order)}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func cloneOrder(o *domain.Order) *domain.Order {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}

func (f *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id uint) (*domain.Order, error) {
	if o, ok := f.stale[id]; ok {
		return cloneOrder(o), nil
	}
	return cloneOrder(f.orders[id]), nil
}

func (f *fakeOrderRepo) GetByNumber(_ context.Context, number string) (*domain.Order, error) {
	for _, o := range f.orders {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]*domain.Order, int64, error) {
	var out []*domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) List(_ context.Context, status domain.Status, _, _ int) ([]*domain.Order, int64, error) {
	var out []*domain.Order
	for _, o := range f.orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) Update(_ context.Context, order *domain.Order, from domain.Status) error {
	stored, ok := f.orders[order.ID]
	if !ok || stored.Status != from {
		return domain.ErrInvalidStatusTransition
	}
	f.orders[order.ID] = cloneOrder(order)
	return nil
}

type fakePublisher struct {
	published []*domain.Order
}

func (f *fakePublisher) PublishStatus(_ context.Context, order *domain.Order) error {
	f.published = append(f.published, order)
	return nil
}

type fakeNotifier struct {
	cancelled []notificationapp.OrderCancelledEvent
}

func (f *fakeNotifier) OrderCancelled(_ context.Context, event notificationapp.OrderCancelledEvent) {
	f.cancelled = append(f.cancelled, event)
}

func pendingOrder(id uint, userID string) *domain.Order {
	order := &domain.Order{
		OrderNumber: "ORD-20260301-TEST0001",
		UserID:      userID,
		Email:       userID + "@example.com",
		Status:      domain.StatusPending,
		FirstName:   "Rahim",
		LastName:    "Uddin",
	}
	order.ID = id
	return order
}

func newService(repo *fakeOrderRepo) (*OrderService, *fakePublisher, *fakeNotifier) {
	publisher := &fakePublisher{}
	notifier := &fakeNotifier{}
	svc := NewOrderService(repo, publisher, notifier, metrics.New("test")).
		WithClock(func() time.Time { return testNow })
	return svc, publisher, notifier
}

func TestGetMyOrderOwnership(t *testing.T) {
	repo := newFakeOrderRepo(pendingOrder(1, "u1"))
	svc, _, _ := newService(repo)
	ctx := context.Background()

	view, err := svc.GetMyOrder(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, view.TimelineIndex)
	assert.True(t, view.Cancellable)

	// 他人订单按不存在处理
	_, err = svc.GetMyOrder(ctx, "u2", 1)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.GetMyOrder(ctx, "u1", 99)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCancelPendingOrder(t *testing.T) {
	repo := newFakeOrderRepo(pendingOrder(1, "u1"))
	svc, publisher, notifier := newService(repo)

	view, err := svc.Cancel(context.Background(), "u1", 1, "u1@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, view.Status)
	assert.False(t, view.Cancellable)
	require.NotNil(t, view.CancelledAt)

	require.Len(t, publisher.published, 1)
	require.Len(t, notifier.cancelled, 1)
	assert.Equal(t, "ORD-20260301-TEST0001", notifier.cancelled[0].OrderNumber)
	assert.Equal(t, "Rahim Uddin", notifier.cancelled[0].CustomerName)
	assert.Equal(t, testNow, notifier.cancelled[0].CancelledAt)
}

func TestCancelRejectedAfterConfirmation(t *testing.T) {
	order := pendingOrder(1, "u1")
	order.Status = domain.StatusConfirmed
	repo := newFakeOrderRepo(order)
	svc, publisher, notifier := newService(repo)

	_, err := svc.Cancel(context.Background(), "u1", 1, "u1@example.com")
	assert.ErrorIs(t, err, ErrCannotCancel)
	assert.Empty(t, publisher.published)
	assert.Empty(t, notifier.cancelled)
}

func TestCancelOthersOrderNotFound(t *testing.T) {
	repo := newFakeOrderRepo(pendingOrder(1, "u1"))
	svc, _, _ := newService(repo)

	_, err := svc.Cancel(context.Background(), "u2", 1, "u2@example.com")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAdminUpdateStatus(t *testing.T) {
	repo := newFakeOrderRepo(pendingOrder(1, "u1"))
	svc, publisher, _ := newService(repo)
	ctx := context.Background()

	view, err := svc.AdminUpdateStatus(ctx, 1, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, view.Status)
	assert.Equal(t, 1, view.TimelineIndex)
	require.Len(t, publisher.published, 1)

	// 跳级推进被拒绝
	_, err = svc.AdminUpdateStatus(ctx, 1, domain.StatusDelivered)
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	// 已确认后管理员也不能直接取消
	_, err = svc.AdminUpdateStatus(ctx, 1, domain.StatusCancelled)
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
}

func TestAdminCancelSendsCancellationEmail(t *testing.T) {
	repo := newFakeOrderRepo(pendingOrder(1, "u1"))
	svc, publisher, notifier := newService(repo)

	view, err := svc.AdminUpdateStatus(context.Background(), 1, domain.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, view.Status)
	require.NotNil(t, view.CancelledAt)

	require.Len(t, notifier.cancelled, 1)
	assert.Equal(t, "ORD-20260301-TEST0001", notifier.cancelled[0].OrderNumber)
	assert.Equal(t, "u1@example.com", notifier.cancelled[0].Email)
	assert.Equal(t, "Rahim Uddin", notifier.cancelled[0].CustomerName)
	assert.Equal(t, testNow, notifier.cancelled[0].CancelledAt)
	require.Len(t, publisher.published, 1)
}

func TestAdminForwardProgressSendsNoEmail(t *testing.T) {
	repo := newFakeOrderRepo(pendingOrder(1, "u1"))
	svc, _, notifier := newService(repo)

	_, err := svc.AdminUpdateStatus(context.Background(), 1, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Empty(t, notifier.cancelled)
}

func TestCancelRejectedWhenStatusChangedUnderneath(t *testing.T) {
	repo := newFakeOrderRepo(pendingOrder(1, "u1"))
	svc, _, notifier := newService(repo)
	ctx := context.Background()

	stale, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)

	// 管理员先确认了订单
	_, err = svc.AdminUpdateStatus(ctx, 1, domain.StatusConfirmed)
	require.NoError(t, err)

	// 客户一侧仍读到 pending 快照，写入时前置状态比较落空
	repo.stale = map[uint]*domain.Order{1: stale}
	_, err = svc.Cancel(ctx, "u1", 1, "u1@example.com")
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	repo.stale = nil
	assert.Equal(t, domain.StatusConfirmed, repo.orders[1].Status)
	assert.Empty(t, notifier.cancelled)
}

func TestAdminGetByNumber(t *testing.T) {
	repo := newFakeOrderRepo(pendingOrder(1, "u1"))
	svc, _, _ := newService(repo)
	ctx := context.Background()

	view, err := svc.AdminGetByNumber(ctx, "ORD-20260301-TEST0001")
	require.NoError(t, err)
	assert.Equal(t, uint(1), view.ID)

	_, err = svc.AdminGetByNumber(ctx, "ORD-20260301-MISSING1")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAdminListInvalidStatus(t *testing.T) {
	svc, _, _ := newService(newFakeOrderRepo())

	_, _, err := svc.AdminList(context.Background(), domain.Status("refunded"), 20, 0)
	assert.Error(t, err)
}
