// Package mysql 购物车仓储接口的 MySQL GORM 实现
package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartRepositoryImpl struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓储实例
func NewCartRepository(db *gorm.DB) domain.CartRepository {
	return &cartRepositoryImpl{db: db}
}

// GetByUser 实现 domain.CartRepository.GetByUser
func (r *cartRepositoryImpl) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.WithContext(ctx).Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.Cart{UserID: userID}, nil
		}
		logger.Error(ctx, "cart_repository.get failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &cart, nil
}

// Save 实现 domain.CartRepository.Save
func (r *cartRepositoryImpl) Save(ctx context.Context, cart *domain.Cart) error {
	err := r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(cart).Error
	if err != nil {
		logger.Error(ctx, "cart_repository.save failed", "user_id", cart.UserID, "error", err)
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// DeleteItem 实现 domain.CartRepository.DeleteItem
func (r *cartRepositoryImpl) DeleteItem(ctx context.Context, itemID uint) error {
	if err := r.db.WithContext(ctx).Delete(&domain.CartItem{}, itemID).Error; err != nil {
		logger.Error(ctx, "cart_repository.delete_item failed", "item_id", itemID, "error", err)
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

// Clear 实现 domain.CartRepository.Clear
func (r *cartRepositoryImpl) Clear(ctx context.Context, userID string) error {
	var cart domain.Cart
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find cart: %w", err)
	}
	if err := r.db.WithContext(ctx).Where("cart_id = ?", cart.ID).Delete(&domain.CartItem{}).Error; err != nil {
		logger.Error(ctx, "cart_repository.clear failed", "user_id", userID, "error", err)
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

type wishlistRepositoryImpl struct {
	db *gorm.DB
}

// NewWishlistRepository 创建心愿单仓储实例
func NewWishlistRepository(db *gorm.DB) domain.WishlistRepository {
	return &wishlistRepositoryImpl{db: db}
}

// Add 实现 domain.WishlistRepository.Add，重复加入幂等
func (r *wishlistRepositoryImpl) Add(ctx context.Context, userID, productID string) error {
	item := &domain.WishlistItem{UserID: userID, ProductID: productID}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(item).Error
	if err != nil {
		logger.Error(ctx, "wishlist_repository.add failed", "user_id", userID, "product_id", productID, "error", err)
		return fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return nil
}

// Remove 实现 domain.WishlistRepository.Remove
func (r *wishlistRepositoryImpl) Remove(ctx context.Context, userID, productID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&domain.WishlistItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	return nil
}

// List 实现 domain.WishlistRepository.List
func (r *wishlistRepositoryImpl) List(ctx context.Context, userID string) ([]*domain.WishlistItem, error) {
	var items []*domain.WishlistItem
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	return items, nil
}
