// Package http 注册与登录的 HTTP 接口
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/auth/application"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// AuthHandler 账号 HTTP 处理器
type AuthHandler struct {
	svc *application.AuthService
}

// NewAuthHandler 创建 HTTP 处理器实例
func NewAuthHandler(svc *application.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// RegisterRoutes 注册路由（公开）
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

// CredentialsRequest 注册/登录请求
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 注册账号
func (h *AuthHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrInvalidEmail),
			errors.Is(err, application.ErrWeakPassword):
			response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, application.ErrEmailTaken):
			response.ErrorWithStatus(c, http.StatusConflict, err.Error())
		default:
			logger.Error(c.Request.Context(), "Failed to register user", "error", err)
			response.Error(c, "failed to register")
		}
		return
	}
	response.Success(c, user)
}

// Login 登录。
// 凭证错误和限流锁定都不是 HTTP 错误，用 401/429 区分并带提示文案。
func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to process login", "error", err)
		response.Error(c, "failed to login")
		return
	}
	if !result.Success {
		status := http.StatusUnauthorized
		if result.Message != "Invalid email or password." {
			status = http.StatusTooManyRequests
		}
		response.ErrorWithStatus(c, status, result.Message)
		return
	}
	response.Success(c, result)
}
