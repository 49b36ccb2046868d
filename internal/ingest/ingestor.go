package ingest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"reconova-go/internal/api/dto"
	"reconova-go/internal/config"
	infraMinio "reconova-go/internal/infra/minio"
	"reconova-go/internal/service"
	"reconova-go/pkg/logger"

	"go.uber.org/zap"
)

const downloadRetries = 3

// Ingestor 把 Pixabay 的视频元数据和媒体文件灌入本地目录：
// 元数据按 pixabay_id 幂等 upsert，媒体对象存 MinIO，已存在的不重复下载
type Ingestor struct {
	client       *PixabayClient
	videoService *service.VideoService
	minioCfg     *config.MinIOConfig
	httpClient   *http.Client
}

func NewIngestor(client *PixabayClient, videoService *service.VideoService, minioCfg *config.MinIOConfig) *Ingestor {
	return &Ingestor{
		client:       client,
		videoService: videoService,
		minioCfg:     minioCfg,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Run 按查询词采集 pages 页，返回成功导入/更新的条数。
// 单条失败只记日志跳过，不中断整个批次。
func (ing *Ingestor) Run(ctx context.Context, query string, pages, perPage int) (int, error) {
	imported := 0

	for page := 1; page <= pages; page++ {
		result, err := ing.client.FetchPage(ctx, query, page, perPage)
		if err != nil {
			return imported, err
		}

		for i := range result.Hits {
			if ctx.Err() != nil {
				return imported, ctx.Err()
			}

			if err := ing.importHit(ctx, &result.Hits[i]); err != nil {
				logger.Warn("Import pixabay hit failed",
					zap.Int64("pixabay_id", result.Hits[i].ID),
					zap.Error(err),
				)
				continue
			}
			imported++
		}
	}

	return imported, nil
}

func (ing *Ingestor) importHit(ctx context.Context, hit *Hit) error {
	clipRemote, err := ChooseRendition(hit.Videos)
	if err != nil {
		return err
	}

	clipObject := fmt.Sprintf("%d.mp4", hit.ID)
	thumbObject := fmt.Sprintf("%d.jpg", hit.ID)

	if err := ing.storeObject(ctx, clipRemote, infraMinio.ClipsBucket, clipObject, "video/mp4"); err != nil {
		return fmt.Errorf("store clip: %w", err)
	}

	var thumbURL *string
	if hit.PreviewURL != "" {
		if err := ing.storeObject(ctx, hit.PreviewURL, infraMinio.ThumbsBucket, thumbObject, "image/jpeg"); err != nil {
			// 封面失败不阻塞整条导入
			logger.Warn("Store thumbnail failed",
				zap.Int64("pixabay_id", hit.ID), zap.Error(err))
		} else {
			u := infraMinio.GetPublicURL(ing.minioCfg.Endpoint, ing.minioCfg.UseSSL, infraMinio.ThumbsBucket, thumbObject)
			thumbURL = &u
		}
	}

	title := hit.Tags
	if title == "" {
		title = fmt.Sprintf("Pixabay %d", hit.ID)
	}

	var description *string
	if hit.User != "" {
		d := "By " + hit.User
		description = &d
	}

	req := &dto.VideoUpsertRequest{
		PixabayID:   hit.ID,
		Title:       title,
		Description: description,
		SourceURL:   infraMinio.GetPublicURL(ing.minioCfg.Endpoint, ing.minioCfg.UseSSL, infraMinio.ClipsBucket, clipObject),
		ThumbURL:    thumbURL,
	}

	info, created, err := ing.videoService.Upsert(req)
	if err != nil {
		return fmt.Errorf("upsert video: %w", err)
	}

	logger.Info("Pixabay video imported",
		zap.Int64("pixabay_id", hit.ID),
		zap.Int64("video_id", info.ID),
		zap.Bool("created", created),
	)

	return nil
}

// storeObject 下载远端媒体写入 MinIO，对象已存在时直接跳过
func (ing *Ingestor) storeObject(ctx context.Context, remoteURL, bucket, objectName, contentType string) error {
	exists, err := infraMinio.ObjectExists(ctx, bucket, objectName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= downloadRetries; attempt++ {
		if err := ing.downloadToMinio(ctx, remoteURL, bucket, objectName, contentType); err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
			continue
		}
		return nil
	}

	return fmt.Errorf("download %s after %d attempts: %w", remoteURL, downloadRetries, lastErr)
}

func (ing *Ingestor) downloadToMinio(ctx context.Context, remoteURL, bucket, objectName, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return err
	}

	resp, err := ing.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	// ContentLength 为 -1 时 MinIO 走流式上传
	_, err = infraMinio.UploadFile(ctx, bucket, objectName, resp.Body, resp.ContentLength, contentType)
	return err
}
