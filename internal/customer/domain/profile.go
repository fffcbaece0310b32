// Package domain 客户资料的领域模型
package domain

import (
	"context"

	"gorm.io/gorm"
)

// Profile 客户收货资料，用于结账表单预填
type Profile struct {
	gorm.Model
	UserID     string `gorm:"column:user_id;type:varchar(36);uniqueIndex;not null" json:"user_id"`
	FirstName  string `gorm:"column:first_name;type:varchar(50)" json:"first_name"`
	LastName   string `gorm:"column:last_name;type:varchar(50)" json:"last_name"`
	Phone      string `gorm:"column:phone;type:varchar(20)" json:"phone"`
	Address    string `gorm:"column:address;type:varchar(255)" json:"address"`
	City       string `gorm:"column:city;type:varchar(50)" json:"city"`
	PostalCode string `gorm:"column:postal_code;type:varchar(10)" json:"postal_code"`
}

// TableName 指定表名
func (Profile) TableName() string { return "customer_profiles" }

// ProfileRepository 客户资料仓储接口
type ProfileRepository interface {
	// GetByUser 获取资料，不存在返回 nil
	GetByUser(ctx context.Context, userID string) (*Profile, error)
	// Upsert 保存资料，不存在则创建
	Upsert(ctx context.Context, profile *Profile) error
}
