package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reconova-go/internal/config"
	infraKafka "reconova-go/internal/infra/kafka"
	infraMinio "reconova-go/internal/infra/minio"
	"reconova-go/pkg/logger"

	"go.uber.org/zap"
)

// 媒体清理 worker：消费视频删除事件，移除 MinIO 里的媒体对象。
// 数据库侧的互动记录由外键级联删除，这里只负责对象存储。
func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	if err := infraMinio.Init(&cfg.MinIO); err != nil {
		logger.Fatal("Failed to init minio", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	deleteTopic := cfg.Kafka.Topics["video_deleted"]
	groupID := "reconova-media-cleanup"

	logger.Info("Media cleanup worker started",
		zap.String("topic", deleteTopic),
		zap.String("group", groupID),
		zap.Strings("brokers", cfg.Kafka.Brokers),
	)

	infraKafka.StartVideoDeletedConsumer(ctx, cfg.Kafka.Brokers, deleteTopic, groupID, handleCleanup)
}

// handleCleanup 删除事件携带的媒体对象，对象不存在不算失败
func handleCleanup(event *infraKafka.VideoDeletedEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if event.ClipObject != "" {
		if err := infraMinio.RemoveObject(ctx, infraMinio.ClipsBucket, event.ClipObject); err != nil {
			return err
		}
	}

	if event.ThumbObject != "" {
		if err := infraMinio.RemoveObject(ctx, infraMinio.ThumbsBucket, event.ThumbObject); err != nil {
			return err
		}
	}

	logger.Info("Media objects cleaned up",
		zap.Int64("video_id", event.VideoID),
		zap.String("clip_object", event.ClipObject),
		zap.String("thumb_object", event.ThumbObject),
	)

	return nil
}
