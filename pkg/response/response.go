// Package response 提供统一的 HTTP JSON 响应格式
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body 统一响应体
type Body struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 返回成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// Error 返回 500 错误响应
func Error(c *gin.Context, message string) {
	ErrorWithStatus(c, http.StatusInternalServerError, message)
}

// ErrorWithStatus 返回指定状态码的错误响应
func ErrorWithStatus(c *gin.Context, status int, message string) {
	c.JSON(status, Body{
		Code:    status,
		Message: message,
	})
}
