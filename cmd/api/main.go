package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"reconova-go/internal/api/handler"
	"reconova-go/internal/api/middleware"
	"reconova-go/internal/api/router"
	"reconova-go/internal/config"
	"reconova-go/internal/infra/database"
	infraES "reconova-go/internal/infra/elasticsearch"
	infraKafka "reconova-go/internal/infra/kafka"
	infraRedis "reconova-go/internal/infra/redis"
	"reconova-go/internal/model"
	"reconova-go/internal/repository"
	"reconova-go/internal/service"
	"reconova-go/pkg/logger"
	"reconova-go/pkg/utils"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title Reconova API
// @version 1.0
// @description 视频分享平台 API 服务：目录浏览与用户互动记录

// @host 127.0.0.1:8000
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description 输入格式: Bearer {token}

func main() {
	// 加载配置文件
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 初始化日志系统
	if err := logger.Init(
		cfg.Log.Level,
		cfg.Log.Format,
		cfg.Log.Output,
		cfg.Log.FilePath,
	); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close()

	// 自动迁移数据库表（含互动表的联合唯一索引与级联外键）
	if err := database.AutoMigrate(
		&model.User{},
		&model.Video{},
		&model.Interaction{},
	); err != nil {
		logger.Fatal("Failed to auto migrate", zap.Error(err))
	}

	// 初始化Redis
	if err := infraRedis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to init redis", zap.Error(err))
	}
	defer infraRedis.Close()

	// 初始化Kafka生产者（视频删除后的媒体清理事件）
	if err := infraKafka.InitProducer(&cfg.Kafka); err != nil {
		logger.Fatal("Failed to init kafka producer", zap.Error(err))
	}
	defer infraKafka.CloseProducer()

	// 初始化 Elasticsearch（可选，失败则搜索降级到 DB）
	var indexer service.VideoIndexer
	if err := infraES.Init(&cfg.Elasticsearch); err != nil {
		logger.Warn("Elasticsearch init failed, search will fallback to DB", zap.Error(err))
	} else {
		if err := infraES.InitVideoIndex(cfg.Elasticsearch.VideoIndex); err != nil {
			logger.Warn("Elasticsearch index init failed", zap.Error(err))
		} else {
			indexer = service.NewESVideoIndexer(cfg.Elasticsearch.VideoIndex)
		}
	}

	// 设置Gin模式
	gin.SetMode(cfg.App.Mode)

	// 创建Gin路由器（不使用默认中间件）
	r := gin.New()

	// 使用自定义中间件
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())

	// JWT 签发与校验
	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpireDuration(), cfg.App.Name)

	// 初始化依赖（Repository -> Service -> Handler）
	db := database.Get()
	userRepo := repository.NewUserRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)

	deleteTopic := cfg.Kafka.Topics["video_deleted"]
	publishDeleted := func(ctx context.Context, event *infraKafka.VideoDeletedEvent) error {
		return infraKafka.SendVideoDeleted(ctx, deleteTopic, event)
	}

	authService := service.NewAuthService(userRepo, tokens)
	userService := service.NewUserService(userRepo)
	videoService := service.NewVideoService(videoRepo, indexer, publishDeleted)
	interactionService := service.NewInteractionService(interactionRepo, videoRepo, infraRedis.Get())

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	videoHandler := handler.NewVideoHandler(videoService)
	interactionHandler := handler.NewInteractionHandler(interactionService, userService)

	// 管理员中间件（需要查数据库获取管理员标识）
	adminMiddleware := middleware.AdminRequired(userService.IsAdmin)

	// 注册基础路由
	r.GET("/healthz", healthCheckHandler(cfg))

	// Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册业务路由
	router.Setup(r, tokens, authHandler, userHandler, videoHandler, interactionHandler, adminMiddleware)

	// 启动服务器
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("mode", cfg.App.Mode),
		zap.String("addr", addr),
	)
	logger.Info("Configuration loaded",
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)),
		zap.String("redis", cfg.Redis.Addr()),
		zap.String("minio", cfg.MinIO.Endpoint),
	)

	// 启动HTTP服务器
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

// healthCheckHandler 健康检查接口
func healthCheckHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"message":   "Service is healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   cfg.App.Name,
			"version":   cfg.App.Version,
			"mode":      cfg.App.Mode,
		})
	}
}
