// Package mysql 账号仓储接口的 MySQL GORM 实现
package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/ecommerce/internal/auth/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"gorm.io/gorm"
)

type userRepositoryImpl struct {
	db *gorm.DB
}

// NewUserRepository 创建账号仓储实例
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepositoryImpl{db: db}
}

// Create 实现 domain.UserRepository.Create
func (r *userRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		logger.Error(ctx, "user_repository.create failed", "email", user.Email, "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByEmail 实现 domain.UserRepository.FindByEmail
func (r *userRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("email = ?", domain.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

// FindByUserID 实现 domain.UserRepository.FindByUserID
func (r *userRepositoryImpl) FindByUserID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}
