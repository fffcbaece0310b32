// Package application 客户资料服务
package application

import (
	"context"
	"errors"
	"strings"

	checkoutdomain "github.com/wyfcoding/ecommerce/internal/checkout/domain"
	"github.com/wyfcoding/ecommerce/internal/customer/domain"
)

// ErrInvalidPhone 资料里的手机号格式不合法
var ErrInvalidPhone = errors.New("invalid Bangladesh phone number")

// ProfileService 客户资料应用服务
type ProfileService struct {
	profiles domain.ProfileRepository
}

// NewProfileService 构造函数
func NewProfileService(profiles domain.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// Get 当前用户资料，没有保存过返回空资料而不是错误
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := s.profiles.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return &domain.Profile{UserID: userID}, nil
	}
	return profile, nil
}

// Update 保存资料。手机号允许留空，填了就必须合法。
func (s *ProfileService) Update(ctx context.Context, userID string, input domain.Profile) (*domain.Profile, error) {
	if strings.TrimSpace(input.Phone) != "" && !checkoutdomain.ValidPhone(input.Phone) {
		return nil, ErrInvalidPhone
	}

	profile, err := s.profiles.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &domain.Profile{UserID: userID}
	}

	profile.FirstName = strings.TrimSpace(input.FirstName)
	profile.LastName = strings.TrimSpace(input.LastName)
	profile.Phone = strings.TrimSpace(input.Phone)
	profile.Address = strings.TrimSpace(input.Address)
	profile.City = strings.TrimSpace(input.City)
	profile.PostalCode = strings.TrimSpace(input.PostalCode)

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
