// Package domain 商品目录的领域模型
package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Color 商品颜色选项
type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// Product 商品实体
type Product struct {
	gorm.Model
	// 商品唯一标识
	ProductID string `gorm:"column:product_id;type:varchar(36);uniqueIndex;not null" json:"product_id"`
	// 商品名称
	Name string `gorm:"column:name;type:varchar(200);not null" json:"name"`
	// 描述
	Description string `gorm:"column:description;type:text" json:"description"`
	// 单价（塔卡）
	Price decimal.Decimal `gorm:"column:price;type:decimal(12,2);not null" json:"price"`
	// 主图地址
	ImageURL string `gorm:"column:image_url;type:varchar(500)" json:"image_url"`
	// 分类
	Category string `gorm:"column:category;type:varchar(50);index" json:"category"`
	// 可选尺码
	Sizes []string `gorm:"column:sizes;serializer:json" json:"sizes"`
	// 可选颜色
	Colors []Color `gorm:"column:colors;serializer:json" json:"colors"`
	// 是否上架
	IsActive bool `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

// TableName 指定表名
func (Product) TableName() string { return "products" }

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// Get 按商品 ID 获取，不存在返回 nil
	Get(ctx context.Context, productID string) (*Product, error)
	// List 分页列出上架商品
	List(ctx context.Context, category string, limit, offset int) ([]*Product, int64, error)
}
