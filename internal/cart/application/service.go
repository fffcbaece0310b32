// Package application 购物车应用服务
package application

import (
	"context"
	"errors"

	cartdomain "github.com/wyfcoding/ecommerce/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

var (
	// ErrProductNotFound 商品不存在或已下架
	ErrProductNotFound = errors.New("product not found or inactive")
	// ErrInvalidQuantity 数量必须 ≥1
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrItemNotFound 购物车行不存在
	ErrItemNotFound = errors.New("cart item not found")
)

// CartService 购物车应用服务
type CartService struct {
	carts    cartdomain.CartRepository
	wishlist cartdomain.WishlistRepository
	products catalogdomain.ProductRepository
}

// NewCartService 构造函数
func NewCartService(carts cartdomain.CartRepository, wishlist cartdomain.WishlistRepository, products catalogdomain.ProductRepository) *CartService {
	return &CartService{carts: carts, wishlist: wishlist, products: products}
}

// GetCart 获取用户购物车
func (s *CartService) GetCart(ctx context.Context, userID string) (*cartdomain.Cart, error) {
	return s.carts.GetByUser(ctx, userID)
}

// AddItem 加入商品，价格取当前商品价（下单时另行快照）
func (s *CartService) AddItem(ctx context.Context, userID, productID string, qty int, size, colorName, colorHex string) (*cartdomain.Cart, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}

	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.AddItem(productID, qty, size, colorName, colorHex, product.Price)
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateQuantity 修改行数量
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, itemID uint, qty int) (*cartdomain.Cart, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cart.UpdateQuantity(itemID, qty) {
		return nil, ErrItemNotFound
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem 删除行
func (s *CartService) RemoveItem(ctx context.Context, userID string, itemID uint) (*cartdomain.Cart, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.RemoveItem(itemID)
	if err := s.carts.DeleteItem(ctx, itemID); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear 清空购物车（下单完成后调用）
func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.carts.Clear(ctx, userID)
}

// AddToWishlist 加入心愿单
func (s *CartService) AddToWishlist(ctx context.Context, userID, productID string) error {
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	return s.wishlist.Add(ctx, userID, productID)
}

// RemoveFromWishlist 移出心愿单
func (s *CartService) RemoveFromWishlist(ctx context.Context, userID, productID string) error {
	return s.wishlist.Remove(ctx, userID, productID)
}

// ListWishlist 列出心愿单
func (s *CartService) ListWishlist(ctx context.Context, userID string) ([]*cartdomain.WishlistItem, error) {
	return s.wishlist.List(ctx, userID)
}
