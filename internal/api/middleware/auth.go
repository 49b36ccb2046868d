package middleware

import (
	"strings"

	"reconova-go/internal/api/response"
	"reconova-go/pkg/utils"

	"github.com/gin-gonic/gin"
)

const ContextKeyUserID = "currentUserID"

// AuthRequired JWT 认证中间件，要求请求必须携带有效 Token
func AuthRequired(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "缺少认证令牌")
			c.Abort()
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			response.Unauthorized(c, "无效或过期的认证令牌")
			c.Abort()
			return
		}

		// 将用户 ID 存入上下文，后续 Handler 可通过 GetCurrentUserID 获取
		c.Set(ContextKeyUserID, claims.UserID)
		c.Next()
	}
}

// GetCurrentUserID 从 Gin Context 中获取当前登录用户 ID
func GetCurrentUserID(c *gin.Context) (int64, bool) {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0, false
	}
	userID, ok := val.(int64)
	return userID, ok
}

// AdminFetcher 查询用户是否为管理员的函数类型
type AdminFetcher func(userID int64) (bool, error)

// AdminRequired 管理员权限中间件（必须在 AuthRequired 之后使用）
// fetcher 用于从数据库查询管理员标识
func AdminRequired(fetcher AdminFetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetCurrentUserID(c)
		if !ok {
			response.Unauthorized(c, "缺少认证信息")
			c.Abort()
			return
		}

		isAdmin, err := fetcher(userID)
		if err != nil {
			response.Unauthorized(c, "用户不存在")
			c.Abort()
			return
		}

		if !isAdmin {
			response.Forbidden(c, "需要管理员权限")
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractToken 从 Authorization 头中提取 Bearer Token
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
