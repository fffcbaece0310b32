// Package application 注册与登录服务，登录受失败计数限流保护
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wyfcoding/ecommerce/internal/auth/domain"
	"github.com/wyfcoding/ecommerce/pkg/config"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/metrics"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/ratelimit"
)

var (
	// ErrEmailTaken 邮箱已被注册
	ErrEmailTaken = errors.New("email already registered")
	// ErrWeakPassword 口令太短
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrInvalidEmail 邮箱格式不合法
	ErrInvalidEmail = errors.New("invalid email address")
)

const msgInvalidCredentials = "Invalid email or password."

// LoginResult 登录结果。
// Success 为 false 时 Message 为面向用户的提示，不区分"账号不存在"和"密码错误"。
type LoginResult struct {
	Success bool         `json:"success"`
	Token   string       `json:"token,omitempty"`
	User    *domain.User `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
}

// AuthService 账号应用服务
type AuthService struct {
	users   domain.UserRepository
	limiter *ratelimit.AttemptLimiter
	cfg     config.AuthConfig
	metrics *metrics.Metrics
}

// NewAuthService 构造函数
func NewAuthService(users domain.UserRepository, limiter *ratelimit.AttemptLimiter, cfg config.AuthConfig, m *metrics.Metrics) *AuthService {
	return &AuthService{users: users, limiter: limiter, cfg: cfg, metrics: m}
}

// Register 注册账号，角色固定为 customer，管理员走数据库种子
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	user := &domain.User{
		UserID:   uuid.NewString(),
		Email:    email,
		Role:     domain.RoleCustomer,
		IsActive: true,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered", "user_id", user.UserID)
	return user, nil
}

// Login 登录。
// 失败按邮箱计数，锁定期间即使口令正确也拒绝；成功登录完全重置计数。
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = domain.NormalizeEmail(email)

	check, err := s.limiter.Check(ctx, email)
	if err != nil {
		return nil, err
	}
	if !check.Allowed {
		return &LoginResult{
			Message: fmt.Sprintf("Too many attempts. Please try again in %d minutes.", check.LockoutRemainingMinutes()),
		}, nil
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil || !user.IsActive || !user.CheckPassword(password) {
		rec, recErr := s.limiter.RecordAttempt(ctx, email, false)
		if recErr != nil {
			return nil, recErr
		}
		if rec.LockedOut {
			s.metrics.LockoutsTotal.WithLabelValues("login").Inc()
			logger.Warn(ctx, "login locked out", "email", email)
			return &LoginResult{Message: rec.Message}, nil
		}
		return &LoginResult{Message: msgInvalidCredentials}, nil
	}

	if _, err := s.limiter.RecordAttempt(ctx, email, true); err != nil {
		return nil, err
	}

	ttl := time.Duration(s.cfg.TokenTTL) * time.Hour
	token, err := middleware.IssueToken(s.cfg.JWTSecret, user.UserID, user.Email, user.Role, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	logger.Info(ctx, "user logged in", "user_id", user.UserID)
	return &LoginResult{Success: true, Token: token, User: user}, nil
}

// LockoutStatus 只读查询某邮箱的锁定状态
func (s *AuthService) LockoutStatus(ctx context.Context, email string) (bool, int, error) {
	return s.limiter.Status(ctx, domain.NormalizeEmail(email))
}
