package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/ecommerce/internal/auth/domain"
	"github.com/wyfcoding/ecommerce/pkg/config"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/ratelimit"
)

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return f.users[domain.NormalizeEmail(email)], nil
}

func (f *fakeUserRepo) FindByUserID(_ context.Context, userID string) (*domain.User, error) {
	for _, u := range f.users {
		if u.UserID == userID {
			return u, nil
		}
	}
	return nil, nil
}

type authFixture struct {
	svc   *AuthService
	repo  *fakeUserRepo
	clock *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter := ratelimit.NewAttemptLimiter(
		ratelimit.NewMemoryAttemptStore(),
		"login",
		ratelimit.AttemptPolicy{MaxAttempts: 5, Window: 15 * time.Minute, Lockout: 30 * time.Minute},
	).WithClock(clock.Now)

	svc := NewAuthService(newFakeUserRepo(), limiter,
		config.AuthConfig{JWTSecret: "test-secret", TokenTTL: 1},
		metrics.New("test"))
	fixture := &authFixture{svc: svc, clock: clock}
	fixture.repo = svc.users.(*fakeUserRepo)
	return fixture
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "not-an-email", "password123")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = f.svc.Register(ctx, "user@example.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	user, err := f.svc.Register(ctx, "  User@Example.COM ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)
	assert.Equal(t, domain.RoleCustomer, user.Role)
	assert.NotEmpty(t, user.UserID)
	assert.True(t, user.CheckPassword("password123"))

	_, err = f.svc.Register(ctx, "user@example.com", "password123")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "user@example.com", "password123")
	require.NoError(t, err)

	result, err := f.svc.Login(ctx, "USER@example.com", "password123")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.Token)
	require.NotNil(t, result.User)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "user@example.com", "password123")
	require.NoError(t, err)

	result, err := f.svc.Login(ctx, "user@example.com", "wrongpass")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid email or password.", result.Message)
}

func TestLoginLockoutAfterFiveFailures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "user@example.com", "password123")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		result, err := f.svc.Login(ctx, "user@example.com", "wrongpass")
		require.NoError(t, err)
		assert.False(t, result.Success, "attempt %d", i+1)
	}

	// 第 5 次失败触发 30 分钟锁定
	result, err := f.svc.Login(ctx, "user@example.com", "wrongpass")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "30 minutes")

	// 锁定期间口令正确也拒绝
	result, err = f.svc.Login(ctx, "user@example.com", "password123")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Too many attempts")

	// 锁定到期后恢复
	f.clock.Advance(31 * time.Minute)
	result, err = f.svc.Login(ctx, "user@example.com", "password123")
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "user@example.com", "password123")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := f.svc.Login(ctx, "user@example.com", "wrongpass")
		require.NoError(t, err)
	}

	result, err := f.svc.Login(ctx, "user@example.com", "password123")
	require.NoError(t, err)
	require.True(t, result.Success)

	// 重置后又有完整的 5 次机会
	for i := 0; i < 4; i++ {
		result, err := f.svc.Login(ctx, "user@example.com", "wrongpass")
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.NotContains(t, result.Message, "Too many attempts", "attempt %d", i+1)
	}
}

func TestLoginUnknownEmailCountsAttempt(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := f.svc.Login(ctx, "ghost@example.com", fmt.Sprintf("guess%d", i))
		require.NoError(t, err)
		assert.False(t, result.Success)
	}

	locked, minutes, err := f.svc.LockoutStatus(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, 30, minutes)
}
