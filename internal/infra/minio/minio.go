package minio

import (
	"context"
	"fmt"
	"io"
	"time"

	"reconova-go/internal/config"
	"reconova-go/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// 采集器写入、前端读取的两个桶
const (
	ClipsBucket  = "clips"
	ThumbsBucket = "thumbs"
)

var client *minio.Client

// Init 初始化 MinIO 客户端并确保所有 Bucket 存在
func Init(cfg *config.MinIOConfig) error {
	var err error
	client, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, bucket := range cfg.Buckets {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
			logger.Info("MinIO bucket created", zap.String("bucket", bucket))
		}

		// 媒体桶需要公开读，供前端直接播放视频/加载封面
		policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
		if err := client.SetBucketPolicy(ctx, bucket, policy); err != nil {
			return fmt.Errorf("failed to set public policy for %s: %w", bucket, err)
		}
	}

	logger.Info("MinIO connected",
		zap.String("endpoint", cfg.Endpoint),
		zap.Int("buckets", len(cfg.Buckets)),
	)

	return nil
}

// Get 获取 MinIO 客户端实例
func Get() *minio.Client {
	return client
}

// UploadFile 上传文件到指定 Bucket，返回对象名
func UploadFile(ctx context.Context, bucket, objectName string, reader io.Reader, fileSize int64, contentType string) (string, error) {
	_, err := client.PutObject(ctx, bucket, objectName, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to minio: %w", err)
	}
	return objectName, nil
}

// ObjectExists 检查对象是否已存在，采集器用它跳过已下载的媒体
func ObjectExists(ctx context.Context, bucket, objectName string) (bool, error) {
	_, err := client.StatObject(ctx, bucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RemoveObject 删除对象，视频删除后的媒体清理用
func RemoveObject(ctx context.Context, bucket, objectName string) error {
	if err := client.RemoveObject(ctx, bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s/%s: %w", bucket, objectName, err)
	}
	return nil
}

// GetPublicURL 生成公开访问 URL（需要 Bucket 设置为 public-read）
func GetPublicURL(endpoint string, useSSL bool, bucket, objectName string) string {
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, endpoint, bucket, objectName)
}
