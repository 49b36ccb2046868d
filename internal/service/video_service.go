package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reconova-go/internal/api/dto"
	infraKafka "reconova-go/internal/infra/kafka"
	"reconova-go/internal/model"
	"reconova-go/internal/repository"
	"reconova-go/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrVideoNotFound = errors.New("视频不存在")

// VideoStore 视频存储接口，由 repository.VideoRepository 实现
type VideoStore interface {
	GetByID(id int64) (*model.Video, error)
	GetByPixabayID(pixabayID int64) (*model.Video, error)
	Create(video *model.Video) error
	Update(id int64, updates map[string]interface{}) (*model.Video, error)
	Delete(id int64) (bool, error)
	List(skip, limit int) ([]model.Video, int64, error)
	SearchByKeyword(keyword string, skip, limit int) ([]model.Video, int64, error)
	GetByIDs(ids []int64) ([]model.Video, error)
}

// VideoIndexer 视频目录搜索索引，为 nil 或出错时搜索降级到 DB
type VideoIndexer interface {
	Index(video *model.Video) error
	Delete(videoID int64) error
	Search(keyword string, skip, limit int) ([]int64, int64, error)
}

// DeletePublisher 发布视频删除事件，媒体清理 worker 消费
type DeletePublisher func(ctx context.Context, event *infraKafka.VideoDeletedEvent) error

type VideoService struct {
	videoStore     VideoStore
	indexer        VideoIndexer
	publishDeleted DeletePublisher
}

func NewVideoService(videoStore VideoStore, indexer VideoIndexer, publishDeleted DeletePublisher) *VideoService {
	return &VideoService{
		videoStore:     videoStore,
		indexer:        indexer,
		publishDeleted: publishDeleted,
	}
}

// Upsert 按 pixabay_id 幂等写入视频：已存在则更新元数据，否则新建。
// 返回值里的 created 区分两种结果。
func (s *VideoService) Upsert(req *dto.VideoUpsertRequest) (*dto.VideoInfo, bool, error) {
	existing, err := s.videoStore.GetByPixabayID(req.PixabayID)
	if err == nil {
		updated, uerr := s.updateMetadata(existing.ID, req)
		if uerr != nil {
			return nil, false, uerr
		}
		s.syncIndex(updated)
		return toVideoInfo(updated), false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	video := &model.Video{
		PixabayID:   req.PixabayID,
		Title:       req.Title,
		Description: req.Description,
		SourceURL:   req.SourceURL,
		ThumbURL:    req.ThumbURL,
	}

	if err := s.videoStore.Create(video); err != nil {
		if !repository.IsUniqueViolation(err) {
			return nil, false, err
		}
		// 并发采集器抢先写入了同一 pixabay_id：转为更新
		racer, qerr := s.videoStore.GetByPixabayID(req.PixabayID)
		if qerr != nil {
			return nil, false, fmt.Errorf("requery after unique violation: %w", qerr)
		}
		updated, uerr := s.updateMetadata(racer.ID, req)
		if uerr != nil {
			return nil, false, uerr
		}
		s.syncIndex(updated)
		return toVideoInfo(updated), false, nil
	}

	s.syncIndex(video)
	return toVideoInfo(video), true, nil
}

// GetByID 获取视频详情
func (s *VideoService) GetByID(id int64) (*dto.VideoInfo, error) {
	video, err := s.videoStore.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return toVideoInfo(video), nil
}

// List 视频列表，最新在前
func (s *VideoService) List(skip, limit int) (*dto.VideoListData, error) {
	videos, total, err := s.videoStore.List(skip, limit)
	if err != nil {
		return nil, err
	}
	return buildVideoListData(videos, total, skip, limit), nil
}

// Delete 删除视频。数据库里的互动记录由外键级联删除；
// 搜索索引和 MinIO 媒体对象的清理是尽力而为的旁路，失败不阻塞删除。
func (s *VideoService) Delete(id int64) error {
	video, err := s.videoStore.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVideoNotFound
		}
		return err
	}

	deleted, err := s.videoStore.Delete(id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrVideoNotFound
	}

	if s.indexer != nil {
		if err := s.indexer.Delete(id); err != nil {
			logger.Warn("Delete video from search index failed",
				zap.Int64("video_id", id), zap.Error(err))
		}
	}

	if s.publishDeleted != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		event := &infraKafka.VideoDeletedEvent{
			VideoID:     video.ID,
			PixabayID:   video.PixabayID,
			ClipObject:  fmt.Sprintf("%d.mp4", video.PixabayID),
			ThumbObject: fmt.Sprintf("%d.jpg", video.PixabayID),
		}
		if err := s.publishDeleted(ctx, event); err != nil {
			logger.Warn("Publish video deleted event failed",
				zap.Int64("video_id", id), zap.Error(err))
		}
	}

	return nil
}

// Search 视频搜索：优先走 ES，失败或未配置时降级到 DB 模糊查询
func (s *VideoService) Search(keyword string, skip, limit int) (*dto.VideoListData, error) {
	if s.indexer != nil {
		ids, total, err := s.indexer.Search(keyword, skip, limit)
		if err == nil {
			videos, gerr := s.videoStore.GetByIDs(ids)
			if gerr != nil {
				return nil, gerr
			}
			return buildVideoListData(orderByIDs(videos, ids), total, skip, limit), nil
		}
		logger.Warn("Elasticsearch search failed, falling back to DB",
			zap.String("keyword", keyword), zap.Error(err))
	}

	videos, total, err := s.videoStore.SearchByKeyword(keyword, skip, limit)
	if err != nil {
		return nil, err
	}
	return buildVideoListData(videos, total, skip, limit), nil
}

func (s *VideoService) updateMetadata(id int64, req *dto.VideoUpsertRequest) (*model.Video, error) {
	return s.videoStore.Update(id, map[string]interface{}{
		"title":       req.Title,
		"description": req.Description,
		"source_url":  req.SourceURL,
		"thumb_url":   req.ThumbURL,
	})
}

func (s *VideoService) syncIndex(video *model.Video) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Index(video); err != nil {
		logger.Warn("Sync video to search index failed",
			zap.Int64("video_id", video.ID), zap.Error(err))
	}
}

// orderByIDs 按 ES 返回的相关度顺序重排回表结果
func orderByIDs(videos []model.Video, ids []int64) []model.Video {
	byID := make(map[int64]*model.Video, len(videos))
	for i := range videos {
		byID[videos[i].ID] = &videos[i]
	}

	ordered := make([]model.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			ordered = append(ordered, *v)
		}
	}
	return ordered
}

func toVideoInfo(video *model.Video) *dto.VideoInfo {
	return &dto.VideoInfo{
		ID:          video.ID,
		PixabayID:   video.PixabayID,
		Title:       video.Title,
		Description: video.Description,
		SourceURL:   video.SourceURL,
		ThumbURL:    video.ThumbURL,
		UploadedAt:  video.UploadedAt,
	}
}

func buildVideoListData(videos []model.Video, total int64, skip, limit int) *dto.VideoListData {
	items := make([]dto.VideoInfo, 0, len(videos))
	for i := range videos {
		items = append(items, *toVideoInfo(&videos[i]))
	}

	return &dto.VideoListData{
		Videos: items,
		Total:  total,
		Skip:   skip,
		Limit:  limit,
	}
}
