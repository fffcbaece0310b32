// Package domain 购物车与心愿单的领域模型
package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart 购物车聚合，每个用户一条
type Cart struct {
	gorm.Model
	UserID string     `gorm:"column:user_id;type:varchar(36);uniqueIndex;not null" json:"user_id"`
	Items  []CartItem `gorm:"foreignKey:CartID" json:"items"`
}

// TableName 指定表名
func (Cart) TableName() string { return "carts" }

// CartItem 购物车行，按 商品+尺码+颜色 区分
type CartItem struct {
	gorm.Model
	CartID    uint            `gorm:"column:cart_id;index;not null" json:"cart_id"`
	ProductID string          `gorm:"column:product_id;type:varchar(36);not null" json:"product_id"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	Size      string          `gorm:"column:size;type:varchar(10)" json:"size,omitempty"`
	ColorName string          `gorm:"column:color_name;type:varchar(30)" json:"color_name,omitempty"`
	ColorHex  string          `gorm:"column:color_hex;type:varchar(7)" json:"color_hex,omitempty"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(12,2);not null" json:"price"`
}

// TableName 指定表名
func (CartItem) TableName() string { return "cart_items" }

// Subtotal 购物车小计（单价 × 数量 之和）
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// AddItem 加入商品，同商品同尺码同颜色合并数量
func (c *Cart) AddItem(productID string, qty int, size, colorName, colorHex string, price decimal.Decimal) {
	for i := range c.Items {
		it := &c.Items[i]
		if it.ProductID == productID && it.Size == size && it.ColorName == colorName {
			it.Quantity += qty
			return
		}
	}
	c.Items = append(c.Items, CartItem{
		ProductID: productID,
		Quantity:  qty,
		Size:      size,
		ColorName: colorName,
		ColorHex:  colorHex,
		Price:     price,
	})
}

// UpdateQuantity 修改某行数量，qty 必须 ≥1
func (c *Cart) UpdateQuantity(itemID uint, qty int) bool {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = qty
			return true
		}
	}
	return false
}

// RemoveItem 删除某行
func (c *Cart) RemoveItem(itemID uint) {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// IsEmpty 是否为空车
func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// WishlistItem 心愿单条目
type WishlistItem struct {
	gorm.Model
	UserID    string `gorm:"column:user_id;type:varchar(36);index:idx_wishlist_user_product,unique;not null" json:"user_id"`
	ProductID string `gorm:"column:product_id;type:varchar(36);index:idx_wishlist_user_product,unique;not null" json:"product_id"`
}

// TableName 指定表名
func (WishlistItem) TableName() string { return "wishlist_items" }

// CartRepository 购物车仓储接口
type CartRepository interface {
	// GetByUser 获取用户购物车，不存在返回空车
	GetByUser(ctx context.Context, userID string) (*Cart, error)
	// Save 保存购物车（含行项）
	Save(ctx context.Context, cart *Cart) error
	// DeleteItem 删除单行
	DeleteItem(ctx context.Context, itemID uint) error
	// Clear 清空用户购物车
	Clear(ctx context.Context, userID string) error
}

// WishlistRepository 心愿单仓储接口
type WishlistRepository interface {
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
	List(ctx context.Context, userID string) ([]*WishlistItem, error)
}
