// Package domain 折扣码的领域模型
package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DiscountType 折扣类型
type DiscountType string

const (
	// DiscountTypePercentage 按小计百分比
	DiscountTypePercentage DiscountType = "percentage"
	// DiscountTypeFixed 固定金额
	DiscountTypeFixed DiscountType = "fixed"
)

// DiscountCode 折扣码实体，结账视角下只读
type DiscountCode struct {
	gorm.Model
	// 码值，存储为大写，比较不区分大小写
	Code string `gorm:"column:code;type:varchar(50);uniqueIndex;not null" json:"code"`
	// 类型：percentage 或 fixed
	Type DiscountType `gorm:"column:type;type:varchar(20);not null" json:"type"`
	// 百分比（0-100）或固定金额（塔卡）
	Value decimal.Decimal `gorm:"column:value;type:decimal(12,2);not null" json:"value"`
	// 最低订单金额
	MinOrder decimal.Decimal `gorm:"column:min_order;type:decimal(12,2);not null;default:0" json:"min_order"`
	// 是否启用
	IsActive bool `gorm:"column:is_active;not null;default:true" json:"is_active"`
	// 过期时间
	ExpiresAt time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
}

// TableName 指定表名
func (DiscountCode) TableName() string { return "discount_codes" }

// NormalizeCode 统一为去空格大写形式
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// IsUsable 是否启用且未过期
func (d *DiscountCode) IsUsable(now time.Time) bool {
	return d.IsActive && d.ExpiresAt.After(now)
}

// MeetsMinOrder 小计是否达到门槛，恰好等于门槛视为达到
func (d *DiscountCode) MeetsMinOrder(subtotal decimal.Decimal) bool {
	return subtotal.GreaterThanOrEqual(d.MinOrder)
}

// DiscountRepository 折扣码仓储接口
type DiscountRepository interface {
	// FindByCode 按标准化后的码值查找，不存在返回 nil
	FindByCode(ctx context.Context, code string) (*DiscountCode, error)
}
