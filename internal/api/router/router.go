package router

import (
	"reconova-go/internal/api/handler"
	"reconova-go/internal/api/middleware"
	"reconova-go/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Setup 注册所有业务路由
func Setup(
	r *gin.Engine,
	tokens *utils.TokenManager,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	videoHandler *handler.VideoHandler,
	interactionHandler *handler.InteractionHandler,
	adminMiddleware gin.HandlerFunc,
) {
	v1 := r.Group("/api/v1")
	authRequired := middleware.AuthRequired(tokens)

	// --- 认证模块 ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", authRequired, authHandler.Me)
	}

	// --- 用户模块 ---
	users := v1.Group("/users", authRequired)
	{
		users.GET("/:id", userHandler.GetUser)

		// 用户互动历史：本人或管理员，权限在 Handler 内校验
		users.GET("/:id/interactions", interactionHandler.UserHistory)

		// 管理员接口
		admin := users.Group("", adminMiddleware)
		{
			admin.GET("", userHandler.ListUsers)
		}
	}

	// --- 视频模块 ---
	videos := v1.Group("/videos")
	{
		// 公开接口（不需要登录）
		videos.GET("", videoHandler.List)
		videos.GET("/search", videoHandler.Search)
		videos.GET("/:id", videoHandler.GetDetail)

		// 需要登录的接口
		videosAuth := videos.Group("", authRequired)
		{
			videosAuth.GET("/:id/interactions/status", interactionHandler.GetStatus)

			// 管理员接口
			videosAdmin := videosAuth.Group("", adminMiddleware)
			{
				videosAdmin.POST("", videoHandler.Upsert)
				videosAdmin.DELETE("/:id", videoHandler.Delete)
				videosAdmin.GET("/:id/interactions", interactionHandler.VideoEvents)
			}
		}
	}

	// --- 互动模块 ---
	interactions := v1.Group("/interactions", authRequired)
	{
		interactions.POST("", interactionHandler.Record)
	}
}
