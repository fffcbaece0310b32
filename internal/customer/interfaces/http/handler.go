// Package http 客户资料的 HTTP 接口
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/customer/application"
	"github.com/wyfcoding/ecommerce/internal/customer/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// ProfileHandler 客户资料 HTTP 处理器
type ProfileHandler struct {
	svc *application.ProfileService
}

// NewProfileHandler 创建 HTTP 处理器实例
func NewProfileHandler(svc *application.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// RegisterRoutes 注册路由（需登录）
func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	profile := router.Group("/api/v1/profile")
	{
		profile.GET("", h.Get)
		profile.PUT("", h.Update)
	}
}

// Get 获取资料，结账表单预填用
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.svc.Get(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get profile", "error", err)
		response.Error(c, "failed to get profile")
		return
	}
	response.Success(c, profile)
}

// UpdateProfileRequest 资料更新请求
type UpdateProfileRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// Update 保存资料
func (h *ProfileHandler) Update(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.svc.Update(c.Request.Context(), middleware.CurrentUserID(c), domain.Profile{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
	})
	if err != nil {
		if errors.Is(err, application.ErrInvalidPhone) {
			response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error(c.Request.Context(), "Failed to update profile", "error", err)
		response.Error(c, "failed to update profile")
		return
	}
	response.Success(c, profile)
}
