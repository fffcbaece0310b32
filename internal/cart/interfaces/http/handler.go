package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/cart/application"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/middleware"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// CartHandler 购物车 HTTP 处理器
type CartHandler struct {
	svc *application.CartService
}

// NewCartHandler 创建 HTTP 处理器实例
func NewCartHandler(svc *application.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

// RegisterRoutes 注册路由（需登录）
func (h *CartHandler) RegisterRoutes(router *gin.RouterGroup) {
	cart := router.Group("/api/v1/cart")
	{
		cart.GET("", h.GetCart)
		cart.POST("/items", h.AddItem)
		cart.PUT("/items/:id", h.UpdateQuantity)
		cart.DELETE("/items/:id", h.RemoveItem)
	}
	wishlist := router.Group("/api/v1/wishlist")
	{
		wishlist.GET("", h.ListWishlist)
		wishlist.POST("/:productId", h.AddToWishlist)
		wishlist.DELETE("/:productId", h.RemoveFromWishlist)
	}
}

// AddItemRequest 加入购物车请求
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Size      string `json:"size"`
	ColorName string `json:"color_name"`
	ColorHex  string `json:"color_hex"`
}

// GetCart 获取购物车
func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.svc.GetCart(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get cart", "error", err)
		response.Error(c, "failed to get cart")
		return
	}
	response.Success(c, cart)
}

// AddItem 加入商品
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	cart, err := h.svc.AddItem(c.Request.Context(), middleware.CurrentUserID(c),
		req.ProductID, req.Quantity, req.Size, req.ColorName, req.ColorHex)
	if err != nil {
		h.writeError(c, err, "Failed to add cart item")
		return
	}
	response.Success(c, cart)
}

// UpdateQuantityRequest 修改数量请求
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// UpdateQuantity 修改行数量
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid item id")
		return
	}

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
		return
	}

	cart, err := h.svc.UpdateQuantity(c.Request.Context(), middleware.CurrentUserID(c), uint(itemID), req.Quantity)
	if err != nil {
		h.writeError(c, err, "Failed to update cart item")
		return
	}
	response.Success(c, cart)
}

// RemoveItem 删除行
func (h *CartHandler) RemoveItem(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid item id")
		return
	}

	cart, err := h.svc.RemoveItem(c.Request.Context(), middleware.CurrentUserID(c), uint(itemID))
	if err != nil {
		h.writeError(c, err, "Failed to remove cart item")
		return
	}
	response.Success(c, cart)
}

// ListWishlist 心愿单列表
func (h *CartHandler) ListWishlist(c *gin.Context) {
	items, err := h.svc.ListWishlist(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list wishlist", "error", err)
		response.Error(c, "failed to list wishlist")
		return
	}
	response.Success(c, gin.H{"items": items})
}

// AddToWishlist 加入心愿单
func (h *CartHandler) AddToWishlist(c *gin.Context) {
	err := h.svc.AddToWishlist(c.Request.Context(), middleware.CurrentUserID(c), c.Param("productId"))
	if err != nil {
		h.writeError(c, err, "Failed to add wishlist item")
		return
	}
	response.Success(c, gin.H{"status": "added"})
}

// RemoveFromWishlist 移出心愿单
func (h *CartHandler) RemoveFromWishlist(c *gin.Context) {
	err := h.svc.RemoveFromWishlist(c.Request.Context(), middleware.CurrentUserID(c), c.Param("productId"))
	if err != nil {
		h.writeError(c, err, "Failed to remove wishlist item")
		return
	}
	response.Success(c, gin.H{"status": "removed"})
}

func (h *CartHandler) writeError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, application.ErrInvalidQuantity),
		errors.Is(err, application.ErrProductNotFound),
		errors.Is(err, application.ErrItemNotFound):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error())
	default:
		logger.Error(c.Request.Context(), logMsg, "error", err)
		response.Error(c, "internal error")
	}
}
