// Package http 结账流程的 HTTP 接口
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/checkout/application"
	"github.com/wyfcoding/ecommerce/internal/checkout/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// CheckoutHandler 结账 HTTP 处理器
type CheckoutHandler struct {
	svc *application.CheckoutService
}

// NewCheckoutHandler 创建 HTTP 处理器实例
func NewCheckoutHandler(svc *application.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

// RegisterRoutes 注册路由（需登录）
func (h *CheckoutHandler) RegisterRoutes(router *gin.RouterGroup) {
	checkout := router.Group("/api/v1/checkout")
	{
		checkout.POST("", h.Start)
		checkout.GET("", h.Current)
		checkout.POST("/shipping", h.SubmitShipping)
		checkout.POST("/delivery-payment", h.SubmitDeliveryPayment)
		checkout.POST("/back", h.Back)
		checkout.POST("/discount", h.ApplyDiscount)
		checkout.DELETE("/discount", h.RemoveDiscount)
		checkout.POST("/place", h.PlaceOrder)
	}
}

// Start 开始或恢复结账
func (h *CheckoutHandler) Start(c *gin.Context) {
	view, err := h.svc.Start(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.writeError(c, err, "Failed to start checkout")
		return
	}
	response.Success(c, view)
}

// Current 当前会话状态
func (h *CheckoutHandler) Current(c *gin.Context) {
	view, err := h.svc.Current(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.writeError(c, err, "Failed to load checkout")
		return
	}
	response.Success(c, view)
}

// ShippingRequest 收货信息请求
type ShippingRequest struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone" binding:"required"`
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postal_code"`
	Method     string `json:"method"`
}

// SubmitShipping 提交收货信息
func (h *CheckoutHandler) SubmitShipping(c *gin.Context) {
	var req ShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.svc.SubmitShipping(c.Request.Context(), middleware.CurrentUserID(c), domain.ShippingInfo{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		Method:     domain.ShippingMethod(req.Method),
	})
	if err != nil {
		h.writeError(c, err, "Failed to submit shipping info")
		return
	}
	response.Success(c, view)
}

// DeliveryPaymentRequest 运费预付凭证请求
type DeliveryPaymentRequest struct {
	Provider      string `json:"provider" binding:"required"`
	SenderPhone   string `json:"sender_phone" binding:"required"`
	TransactionID string `json:"transaction_id" binding:"required"`
}

// SubmitDeliveryPayment 提交运费预付凭证
func (h *CheckoutHandler) SubmitDeliveryPayment(c *gin.Context) {
	var req DeliveryPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.svc.SubmitDeliveryPayment(c.Request.Context(), middleware.CurrentUserID(c), domain.DeliveryPaymentInfo{
		Provider:      req.Provider,
		SenderPhone:   req.SenderPhone,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		h.writeError(c, err, "Failed to submit delivery payment")
		return
	}
	response.Success(c, view)
}

// Back 回退一步
func (h *CheckoutHandler) Back(c *gin.Context) {
	view, err := h.svc.Back(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.writeError(c, err, "Failed to go back")
		return
	}
	response.Success(c, view)
}

// DiscountRequest 折扣码请求
type DiscountRequest struct {
	Code string `json:"code"`
}

// ApplyDiscount 应用折扣码。
// 校验不通过不是错误，正常返回带提示文案的结果。
func (h *CheckoutHandler) ApplyDiscount(c *gin.Context) {
	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := h.svc.ApplyDiscount(c.Request.Context(), middleware.CurrentUserID(c), req.Code)
	if err != nil {
		h.writeError(c, err, "Failed to apply discount")
		return
	}
	response.Success(c, outcome)
}

// RemoveDiscount 移除折扣码
func (h *CheckoutHandler) RemoveDiscount(c *gin.Context) {
	view, err := h.svc.RemoveDiscount(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.writeError(c, err, "Failed to remove discount")
		return
	}
	response.Success(c, view)
}

// PlaceOrder 下单
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	order, err := h.svc.PlaceOrder(c.Request.Context(),
		middleware.CurrentUserID(c), middleware.CurrentUserEmail(c))
	if err != nil {
		h.writeError(c, err, "Failed to place order")
		return
	}
	response.Success(c, order)
}

func (h *CheckoutHandler) writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, application.ErrEmptyCart),
		errors.Is(err, application.ErrNoSession),
		errors.Is(err, application.ErrDiscountNoLongerValid),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrFirstNameRequired),
		errors.Is(err, domain.ErrInvalidPhone),
		errors.Is(err, domain.ErrAddressTooShort),
		errors.Is(err, domain.ErrCityRequired),
		errors.Is(err, domain.ErrExpressNotAvailable),
		errors.Is(err, domain.ErrWalletProviderInvalid),
		errors.Is(err, domain.ErrWalletPhoneRequired),
		errors.Is(err, domain.ErrTransactionIDRequired):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
	default:
		logger.Error(c.Request.Context(), message, "error", err)
		response.Error(c, message)
	}
}
