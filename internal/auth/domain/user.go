// Package domain 账号与凭证的领域模型
package domain

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 角色
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User 账号实体
type User struct {
	gorm.Model
	// UserID 对外暴露的用户 ID，避免泄露自增主键
	UserID string `gorm:"column:user_id;type:varchar(36);uniqueIndex;not null" json:"user_id"`
	// Email 登录邮箱，存储为小写
	Email string `gorm:"column:email;type:varchar(100);uniqueIndex;not null" json:"email"`
	// PasswordHash bcrypt 加密后的口令
	PasswordHash string `gorm:"column:password_hash;type:varchar(100);not null" json:"-"`
	// Role 角色：customer 或 admin
	Role string `gorm:"column:role;type:varchar(20);not null;default:'customer'" json:"role"`
	// IsActive 禁用的账号不能登录
	IsActive bool `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// NormalizeEmail 统一为去空格小写形式
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// SetPassword 以 bcrypt 设置口令
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword 校验口令
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// UserRepository 账号仓储接口
type UserRepository interface {
	// Create 创建账号
	Create(ctx context.Context, user *User) error
	// FindByEmail 按标准化后的邮箱查找，不存在返回 nil
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByUserID 按对外 ID 查找，不存在返回 nil
	FindByUserID(ctx context.Context, userID string) (*User, error)
}
