package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/ecommerce/internal/catalog/application"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/response"
)

// CatalogHandler 商品目录 HTTP 处理器
type CatalogHandler struct {
	query *application.CatalogQueryService
}

// NewCatalogHandler 创建 HTTP 处理器实例
func NewCatalogHandler(query *application.CatalogQueryService) *CatalogHandler {
	return &CatalogHandler{query: query}
}

// RegisterRoutes 注册路由
func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/products")
	{
		api.GET("", h.ListProducts)
		api.GET("/:id", h.GetProduct)
	}
}

// ListProducts 商品列表
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	products, total, err := h.query.ListProducts(c.Request.Context(), c.Query("category"), limit, offset)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list products", "error", err)
		response.Error(c, "failed to list products")
		return
	}

	response.Success(c, gin.H{"products": products, "total": total})
}

// GetProduct 商品详情
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.query.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get product", "product_id", c.Param("id"), "error", err)
		response.Error(c, "failed to get product")
		return
	}
	if product == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "product not found")
		return
	}

	response.Success(c, product)
}
