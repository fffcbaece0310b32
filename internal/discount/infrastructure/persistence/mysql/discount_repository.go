// Package mysql 折扣码仓储接口的 MySQL GORM 实现
package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/ecommerce/internal/discount/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"gorm.io/gorm"
)

type discountRepositoryImpl struct {
	db *gorm.DB
}

// NewDiscountRepository 创建折扣码仓储实例
func NewDiscountRepository(db *gorm.DB) domain.DiscountRepository {
	return &discountRepositoryImpl{db: db}
}

// FindByCode 实现 domain.DiscountRepository.FindByCode。
// 码值入库时已是大写，这里再做一次 UPPER 比较兜底。
func (r *discountRepositoryImpl) FindByCode(ctx context.Context, code string) (*domain.DiscountCode, error) {
	var dc domain.DiscountCode
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = ?", domain.NormalizeCode(code)).
		First(&dc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error(ctx, "discount_repository.find failed", "code", code, "error", err)
		return nil, fmt.Errorf("failed to find discount code: %w", err)
	}
	return &dc, nil
}
