package main

import (
	"context"
	"flag"
	"fmt"

	"reconova-go/internal/config"
	"reconova-go/internal/infra/database"
	infraMinio "reconova-go/internal/infra/minio"
	"reconova-go/internal/ingest"
	"reconova-go/internal/model"
	"reconova-go/internal/repository"
	"reconova-go/internal/service"
	"reconova-go/pkg/logger"

	"go.uber.org/zap"
)

// Pixabay 采集命令：
//
//	go run ./cmd/ingest --query nature --pages 2 --per-page 20
func main() {
	var (
		configPath = flag.String("config", "configs/config.yaml", "配置文件路径")
		query      = flag.String("query", "", "搜索关键词（必填）")
		pages      = flag.Int("pages", 1, "采集页数")
		perPage    = flag.Int("per-page", 20, "每页条数")
	)
	flag.Parse()

	if *query == "" {
		fmt.Println("usage: ingest --query <keyword> [--pages N] [--per-page N]")
		flag.PrintDefaults()
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close()

	if err := database.AutoMigrate(&model.User{}, &model.Video{}, &model.Interaction{}); err != nil {
		logger.Fatal("Failed to auto migrate", zap.Error(err))
	}

	if err := infraMinio.Init(&cfg.MinIO); err != nil {
		logger.Fatal("Failed to init minio", zap.Error(err))
	}

	videoRepo := repository.NewVideoRepository(database.Get())

	// 采集器不走 ES/Kafka：索引同步由 API 侧负责，这里只灌目录和媒体
	videoService := service.NewVideoService(videoRepo, nil, nil)

	client := ingest.NewPixabayClient(&cfg.Pixabay)
	ingestor := ingest.NewIngestor(client, videoService, &cfg.MinIO)

	imported, err := ingestor.Run(context.Background(), *query, *pages, *perPage)
	if err != nil {
		logger.Fatal("Ingest failed",
			zap.String("query", *query),
			zap.Int("imported", imported),
			zap.Error(err),
		)
	}

	logger.Info("Ingest completed",
		zap.String("query", *query),
		zap.Int("imported", imported),
	)
}
