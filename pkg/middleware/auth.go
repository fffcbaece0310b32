package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserIDKey gin context 中的当前用户 ID key
const UserIDKey = "user_id"

// UserRoleKey gin context 中的当前用户角色 key
const UserRoleKey = "user_role"

// UserEmailKey gin context 中的当前用户邮箱 key
const UserEmailKey = "user_email"

// Claims JWT 载荷
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken 签发用户 token
func IssueToken(secret, userID, email, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// AuthRequired 解析 Bearer token，并将用户身份放入 context。
// 结账、订单、购物车等路由必须挂载此中间件，游客会被拒绝。
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserRoleKey, claims.Role)
		c.Set(UserEmailKey, claims.Email)
		c.Next()
	}
}

// AdminRequired 仅放行管理员角色，必须挂载在 AuthRequired 之后
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role := c.GetString(UserRoleKey); role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// CurrentUserID 取出当前登录用户 ID
func CurrentUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// CurrentUserEmail 取出当前登录用户邮箱
func CurrentUserEmail(c *gin.Context) string {
	return c.GetString(UserEmailKey)
}
