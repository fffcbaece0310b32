// Package application 折扣码校验服务
package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/ecommerce/internal/discount/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/ratelimit"
)

// 面向用户的固定文案
const (
	msgEmptyCode      = "Please enter a discount code."
	msgInvalidCode    = "Invalid or expired discount code."
	msgMinOrderFormat = "This code requires a minimum order of %s."
)

// ValidationResult 校验结果。
// Valid 为 true 时 Code 非空；否则 Message 为面向用户的提示。
type ValidationResult struct {
	Valid   bool
	Code    *domain.DiscountCode
	Message string
}

// Validator 折扣码校验服务，受失败计数限流保护
type Validator struct {
	repo    domain.DiscountRepository
	limiter *ratelimit.AttemptLimiter
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewValidator 构造函数
func NewValidator(repo domain.DiscountRepository, limiter *ratelimit.AttemptLimiter) *Validator {
	return &Validator{repo: repo, limiter: limiter, now: time.Now}
}

// WithMetrics 注入指标实例，按校验结果上报尝试计数
func (v *Validator) WithMetrics(m *metrics.Metrics) *Validator {
	v.metrics = m
	return v
}

// WithClock 替换时钟，测试用
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

func (v *Validator) count(result string) {
	if v.metrics != nil {
		v.metrics.DiscountAttemptsTotal.WithLabelValues(result).Inc()
	}
}

// Validate 校验用户输入的折扣码。
// limiterKey 标识尝试来源（通常为用户 ID）。
// 规则：空输入本地拒绝；锁定期间直接返回锁定提示；查无此码记一次失败；
// 有码但未达门槛不记失败（真实不符合条件不算猜码）；命中则重置限流并返回折扣码。
func (v *Validator) Validate(ctx context.Context, limiterKey, rawCode string, subtotal decimal.Decimal) (ValidationResult, error) {
	if strings.TrimSpace(rawCode) == "" {
		return ValidationResult{Message: msgEmptyCode}, nil
	}

	check, err := v.limiter.Check(ctx, limiterKey)
	if err != nil {
		return ValidationResult{}, err
	}
	if !check.Allowed {
		v.count("locked")
		return ValidationResult{
			Message: fmt.Sprintf("Too many attempts. Please try again in %d minutes.", check.LockoutRemainingMinutes()),
		}, nil
	}

	code, err := v.repo.FindByCode(ctx, rawCode)
	if err != nil {
		return ValidationResult{}, err
	}

	if code == nil || !code.IsUsable(v.now()) {
		v.count("invalid")
		rec, recErr := v.limiter.RecordAttempt(ctx, limiterKey, false)
		if recErr != nil {
			return ValidationResult{}, recErr
		}
		if rec.LockedOut {
			logger.Warn(ctx, "Discount attempts locked out", "key", limiterKey)
			if v.metrics != nil {
				v.metrics.LockoutsTotal.WithLabelValues("discount").Inc()
			}
			return ValidationResult{Message: rec.Message}, nil
		}
		return ValidationResult{Message: msgInvalidCode}, nil
	}

	if !code.MeetsMinOrder(subtotal) {
		// 业务规则拒绝，不消耗限流次数
		v.count("below_min")
		return ValidationResult{
			Message: fmt.Sprintf(msgMinOrderFormat, code.MinOrder.StringFixed(0)),
		}, nil
	}

	if _, err := v.limiter.RecordAttempt(ctx, limiterKey, true); err != nil {
		return ValidationResult{}, err
	}
	v.count("applied")
	return ValidationResult{Valid: true, Code: code}, nil
}

// LockoutStatus 只读查询锁定状态，页面加载时渲染警告用
func (v *Validator) LockoutStatus(ctx context.Context, limiterKey string) (locked bool, remainingMinutes int, err error) {
	return v.limiter.Status(ctx, limiterKey)
}
