// Package mysql 客户资料仓储接口的 MySQL GORM 实现
package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/ecommerce/internal/customer/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type profileRepositoryImpl struct {
	db *gorm.DB
}

// NewProfileRepository 创建客户资料仓储实例
func NewProfileRepository(db *gorm.DB) domain.ProfileRepository {
	return &profileRepositoryImpl{db: db}
}

// GetByUser 实现 domain.ProfileRepository.GetByUser
func (r *profileRepositoryImpl) GetByUser(ctx context.Context, userID string) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error(ctx, "profile_repository.get failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// Upsert 实现 domain.ProfileRepository.Upsert
func (r *profileRepositoryImpl) Upsert(ctx context.Context, profile *domain.Profile) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(profile).Error
	if err != nil {
		logger.Error(ctx, "profile_repository.upsert failed", "user_id", profile.UserID, "error", err)
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
