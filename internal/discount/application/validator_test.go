package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ecommerce/internal/discount/domain"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/ratelimit"
)

// fakeDiscountRepo implements domain.DiscountRepository for testing
type fakeDiscountRepo struct {
	codes map[string]*domain.DiscountCode
	err   error
}

func (f *fakeDiscountRepo) FindByCode(_ context.Context, code string) (*domain.DiscountCode, error) {
	if f.err != nil {
		return nil, f.err
	}
	dc, ok := f.codes[domain.NormalizeCode(code)]
	if !ok {
		return nil, nil
	}
	return dc, nil
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newValidator(t *testing.T, codes ...*domain.DiscountCode) *Validator {
	t.Helper()
	repo := &fakeDiscountRepo{codes: map[string]*domain.DiscountCode{}}
	for _, c := range codes {
		repo.codes[c.Code] = c
	}
	limiter := ratelimit.NewAttemptLimiter(
		ratelimit.NewMemoryAttemptStore(),
		"discount",
		ratelimit.AttemptPolicy{MaxAttempts: 10, Window: 5 * time.Minute, Lockout: 10 * time.Minute},
	).WithClock(func() time.Time { return testNow })
	return NewValidator(repo, limiter).WithClock(func() time.Time { return testNow })
}

func save10() *domain.DiscountCode {
	return &domain.DiscountCode{
		Code:      "SAVE10",
		Type:      domain.DiscountTypePercentage,
		Value:     decimal.NewFromInt(10),
		MinOrder:  decimal.NewFromInt(2000),
		IsActive:  true,
		ExpiresAt: testNow.Add(24 * time.Hour),
	}
}

func TestValidate_EmptyInput(t *testing.T) {
	v := newValidator(t, save10())

	res, err := v.Validate(context.Background(), "user-1", "   ", decimal.NewFromInt(5000))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Please enter a discount code.", res.Message)
}

func TestValidate_CaseInsensitive(t *testing.T) {
	v := newValidator(t, save10())

	for _, input := range []string{"save10", "SAVE10", "  Save10 "} {
		res, err := v.Validate(context.Background(), "user-1", input, decimal.NewFromInt(5000))
		require.NoError(t, err)
		assert.True(t, res.Valid, "input %q should be accepted", input)
		require.NotNil(t, res.Code)
		assert.Equal(t, "SAVE10", res.Code.Code)
	}
}

func TestValidate_ExpiredCodeRejected(t *testing.T) {
	expired := save10()
	expired.ExpiresAt = testNow.Add(-time.Hour)
	v := newValidator(t, expired)

	res, err := v.Validate(context.Background(), "user-1", "SAVE10", decimal.NewFromInt(5000))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Invalid or expired discount code.", res.Message)
}

func TestValidate_InactiveCodeRejected(t *testing.T) {
	inactive := save10()
	inactive.IsActive = false
	v := newValidator(t, inactive)

	res, err := v.Validate(context.Background(), "user-1", "SAVE10", decimal.NewFromInt(5000))
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestValidate_MinOrderBoundary(t *testing.T) {
	v := newValidator(t, save10())

	// 恰好等于门槛应当通过
	res, err := v.Validate(context.Background(), "user-1", "SAVE10", decimal.NewFromInt(2000))
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = v.Validate(context.Background(), "user-1", "SAVE10", decimal.NewFromInt(1999))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Message, "minimum order of 2000")
}

func TestValidate_MinOrderRejectionDoesNotConsumeAttempts(t *testing.T) {
	v := newValidator(t, save10())
	ctx := context.Background()

	// 门槛不足的拒绝不计入失败次数，重复多次也不会触发锁定
	for i := 0; i < 20; i++ {
		res, err := v.Validate(ctx, "user-1", "SAVE10", decimal.NewFromInt(100))
		require.NoError(t, err)
		assert.Contains(t, res.Message, "minimum order")
	}

	locked, _, err := v.LockoutStatus(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestValidate_GuessingTriggersLockout(t *testing.T) {
	v := newValidator(t, save10())
	ctx := context.Background()

	for i := 0; i < 9; i++ {
		res, err := v.Validate(ctx, "user-1", "WRONG", decimal.NewFromInt(5000))
		require.NoError(t, err)
		assert.Equal(t, "Invalid or expired discount code.", res.Message)
	}

	// 第 10 次失败触发锁定
	res, err := v.Validate(ctx, "user-1", "WRONG", decimal.NewFromInt(5000))
	require.NoError(t, err)
	assert.Contains(t, res.Message, "10 minutes")

	// 锁定期间即使输入正确码也被拒绝
	res, err = v.Validate(ctx, "user-1", "SAVE10", decimal.NewFromInt(5000))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.True(t, strings.Contains(res.Message, "Too many attempts"))

	locked, minutes, err := v.LockoutStatus(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, locked)
	assert.Equal(t, 10, minutes)
}

func TestValidate_SuccessResetsLimiter(t *testing.T) {
	v := newValidator(t, save10())
	ctx := context.Background()

	for i := 0; i < 9; i++ {
		_, err := v.Validate(ctx, "user-1", "WRONG", decimal.NewFromInt(5000))
		require.NoError(t, err)
	}

	res, err := v.Validate(ctx, "user-1", "SAVE10", decimal.NewFromInt(5000))
	require.NoError(t, err)
	require.True(t, res.Valid)

	// 命中后计数清零，又可以从头失败 9 次而不锁定
	for i := 0; i < 9; i++ {
		res, err := v.Validate(ctx, "user-1", "WRONG", decimal.NewFromInt(5000))
		require.NoError(t, err)
		assert.Equal(t, "Invalid or expired discount code.", res.Message)
	}
}

func TestValidate_CountsAttemptsByResult(t *testing.T) {
	m := metrics.New("test")
	repo := &fakeDiscountRepo{codes: map[string]*domain.DiscountCode{"SAVE10": save10()}}
	limiter := ratelimit.NewAttemptLimiter(
		ratelimit.NewMemoryAttemptStore(),
		"discount",
		ratelimit.AttemptPolicy{MaxAttempts: 10, Window: 5 * time.Minute, Lockout: 10 * time.Minute},
	).WithClock(func() time.Time { return testNow })
	v := NewValidator(repo, limiter).WithClock(func() time.Time { return testNow }).WithMetrics(m)
	ctx := context.Background()

	_, err := v.Validate(ctx, "user-1", "SAVE10", decimal.NewFromInt(5000))
	require.NoError(t, err)
	_, err = v.Validate(ctx, "user-1", "SAVE10", decimal.NewFromInt(100))
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = v.Validate(ctx, "user-1", "WRONG", decimal.NewFromInt(5000))
		require.NoError(t, err)
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(m.DiscountAttemptsTotal.WithLabelValues("applied")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DiscountAttemptsTotal.WithLabelValues("below_min")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.DiscountAttemptsTotal.WithLabelValues("invalid")))
}

func TestValidate_RepositoryErrorPropagates(t *testing.T) {
	repo := &fakeDiscountRepo{err: errors.New("connection refused")}
	limiter := ratelimit.NewAttemptLimiter(
		ratelimit.NewMemoryAttemptStore(),
		"discount",
		ratelimit.AttemptPolicy{MaxAttempts: 10, Window: 5 * time.Minute, Lockout: 10 * time.Minute},
	)
	v := NewValidator(repo, limiter)

	_, err := v.Validate(context.Background(), "user-1", "SAVE10", decimal.NewFromInt(5000))
	assert.Error(t, err)
}
