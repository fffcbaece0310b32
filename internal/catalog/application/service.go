// Package application 商品目录的应用服务（只读）
package application

import (
	"context"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

// CatalogQueryService 商品查询服务
type CatalogQueryService struct {
	repo domain.ProductRepository
}

// NewCatalogQueryService 构造函数
func NewCatalogQueryService(repo domain.ProductRepository) *CatalogQueryService {
	return &CatalogQueryService{repo: repo}
}

// GetProduct 获取商品详情
func (s *CatalogQueryService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	return s.repo.Get(ctx, productID)
}

// ListProducts 分页列出上架商品
func (s *CatalogQueryService) ListProducts(ctx context.Context, category string, limit, offset int) ([]*domain.Product, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, category, limit, offset)
}
