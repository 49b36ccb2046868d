package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reconova-go/internal/config"
	"reconova-go/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var producer *kafka.Writer

// VideoDeletedEvent 视频删除事件消息体。
// 数据库里的互动记录由外键级联删除，MinIO 里的媒体对象
// 交给清理 worker 异步删除。
type VideoDeletedEvent struct {
	VideoID     int64  `json:"video_id"`
	PixabayID   int64  `json:"pixabay_id"`
	ClipObject  string `json:"clip_object"`
	ThumbObject string `json:"thumb_object,omitempty"`
}

// InitProducer 初始化 Kafka 生产者
func InitProducer(cfg *config.KafkaConfig) error {
	producer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info("Kafka producer initialized",
		zap.Strings("brokers", cfg.Brokers),
	)

	return nil
}

// SendVideoDeleted 发送视频删除事件到 Kafka
func SendVideoDeleted(ctx context.Context, topic string, event *VideoDeletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal video deleted event: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(fmt.Sprintf("video-%d", event.VideoID)),
		Value: payload,
	}

	if err := producer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to send video deleted event: %w", err)
	}

	logger.Info("Video deleted event sent",
		zap.Int64("video_id", event.VideoID),
		zap.String("topic", topic),
		zap.String("clip_object", event.ClipObject),
	)

	return nil
}

// CloseProducer 关闭生产者
func CloseProducer() error {
	if producer == nil {
		return nil
	}
	logger.Info("Kafka producer closed")
	return producer.Close()
}
