// Package http 订单的 HTTP 接口：客户端查询/取消、管理端流转与 SSE 实时追踪
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/ecommerce/internal/order/application"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/internal/order/infrastructure/realtime"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// OrderHandler 订单 HTTP 处理器
type OrderHandler struct {
	svc      *application.OrderService
	realtime *realtime.RedisStatusPublisher
}

// NewOrderHandler 创建 HTTP 处理器实例
func NewOrderHandler(svc *application.OrderService, rt *realtime.RedisStatusPublisher) *OrderHandler {
	return &OrderHandler{svc: svc, realtime: rt}
}

// RegisterRoutes 注册客户路由（需登录）
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/v1/orders")
	{
		orders.GET("", h.ListMyOrders)
		orders.GET("/:id", h.GetMyOrder)
		orders.POST("/:id/cancel", h.Cancel)
		orders.GET("/:id/events", h.StreamStatus)
	}
}

// RegisterAdminRoutes 注册管理端路由（需管理员角色）
func (h *OrderHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/v1/admin/orders")
	{
		orders.GET("", h.AdminList)
		orders.GET("/:id", h.AdminGet)
		orders.PUT("/:id/status", h.AdminUpdateStatus)
	}
}

// ListMyOrders 当前用户的订单列表
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, total, err := h.svc.ListMyOrders(c.Request.Context(), middleware.CurrentUserID(c), limit, offset)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list orders", "error", err)
		response.Error(c, "failed to list orders")
		return
	}
	response.Success(c, gin.H{"orders": orders, "total": total})
}

// GetMyOrder 当前用户的单个订单
func (h *OrderHandler) GetMyOrder(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	order, err := h.svc.GetMyOrder(c.Request.Context(), middleware.CurrentUserID(c), orderID)
	if err != nil {
		h.writeError(c, err, "Failed to get order")
		return
	}
	response.Success(c, order)
}

// Cancel 客户取消订单
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	order, err := h.svc.Cancel(c.Request.Context(),
		middleware.CurrentUserID(c), orderID, middleware.CurrentUserEmail(c))
	if err != nil {
		h.writeError(c, err, "Failed to cancel order")
		return
	}
	response.Success(c, order)
}

// StreamStatus 订单状态的 SSE 流。
// 先推一条当前状态，之后转发 Redis 频道上的变更，客户端断开即退订。
func (h *OrderHandler) StreamStatus(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	order, err := h.svc.GetMyOrder(ctx, middleware.CurrentUserID(c), orderID)
	if err != nil {
		h.writeError(c, err, "Failed to get order")
		return
	}

	sub := h.realtime.Subscribe(ctx, orderID)
	defer sub.Close()
	ch := sub.Channel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.SSEvent("status", realtime.StatusEvent{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		TimelineIndex: order.Status.TimelineIndex(),
	})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, open := <-ch:
			if !open {
				return false
			}
			var event realtime.StatusEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Error(ctx, "malformed order status event", "order_id", orderID, "error", err)
				return true
			}
			c.SSEvent("status", event)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// AdminList 管理端订单列表。
// 带 number 参数时按订单号精确查单，客服沟通和邮件里引用的都是订单号。
func (h *OrderHandler) AdminList(c *gin.Context) {
	if number := c.Query("number"); number != "" {
		order, err := h.svc.AdminGetByNumber(c.Request.Context(), number)
		if err != nil {
			h.writeError(c, err, "Failed to get order")
			return
		}
		response.Success(c, gin.H{"orders": []interface{}{order}, "total": 1})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	status := domain.Status(c.Query("status"))

	orders, total, err := h.svc.AdminList(c.Request.Context(), status, limit, offset)
	if err != nil {
		h.writeError(c, err, "Failed to list orders")
		return
	}
	response.Success(c, gin.H{"orders": orders, "total": total})
}

// AdminGet 管理端查单
func (h *OrderHandler) AdminGet(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	order, err := h.svc.AdminGet(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err, "Failed to get order")
		return
	}
	response.Success(c, order)
}

// UpdateStatusRequest 管理端状态更新请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AdminUpdateStatus 管理端推进订单状态
func (h *OrderHandler) AdminUpdateStatus(c *gin.Context) {
	orderID, ok := h.orderID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	target := domain.Status(req.Status)
	if !domain.ValidStatus(target) {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid order status")
		return
	}

	order, err := h.svc.AdminUpdateStatus(c.Request.Context(), orderID, target)
	if err != nil {
		h.writeError(c, err, "Failed to update order status")
		return
	}
	response.Success(c, order)
}

func (h *OrderHandler) orderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return uint(id), true
}

func (h *OrderHandler) writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, application.ErrOrderNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error())
	case errors.Is(err, application.ErrCannotCancel),
		errors.Is(err, domain.ErrInvalidStatusTransition):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error())
	default:
		logger.Error(c.Request.Context(), message, "error", err)
		response.Error(c, message)
	}
}
