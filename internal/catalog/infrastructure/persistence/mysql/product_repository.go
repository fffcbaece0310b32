// Package mysql 商品仓储接口的 MySQL GORM 实现
package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"gorm.io/gorm"
)

type productRepositoryImpl struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储实例
func NewProductRepository(db *gorm.DB) domain.ProductRepository {
	return &productRepositoryImpl{db: db}
}

// Get 实现 domain.ProductRepository.Get
func (r *productRepositoryImpl) Get(ctx context.Context, productID string) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error(ctx, "product_repository.get failed", "product_id", productID, "error", err)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// List 实现 domain.ProductRepository.List
func (r *productRepositoryImpl) List(ctx context.Context, category string, limit, offset int) ([]*domain.Product, int64, error) {
	var products []*domain.Product
	var total int64

	db := r.db.WithContext(ctx).Model(&domain.Product{}).Where("is_active = ?", true)
	if category != "" {
		db = db.Where("category = ?", category)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}
	if err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		logger.Error(ctx, "product_repository.list failed", "category", category, "error", err)
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}
