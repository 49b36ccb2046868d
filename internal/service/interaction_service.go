package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reconova-go/internal/api/dto"
	"reconova-go/internal/model"
	"reconova-go/internal/repository"
	"reconova-go/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidAction = errors.New("不支持的互动行为类型")

// 状态点查缓存的 TTL
const statusCacheTTL = 5 * time.Minute

// InteractionStore 互动存储接口，由 repository.InteractionRepository 实现
type InteractionStore interface {
	GetByTriple(userID, videoID int64, action model.ActionKind) (*model.Interaction, error)
	Create(inter *model.Interaction) error
	ListByUser(userID int64, action *model.ActionKind, skip, limit int) ([]model.Interaction, int64, error)
	ListByVideo(videoID int64, action *model.ActionKind, limit int) ([]model.Interaction, int64, error)
	CountByVideo(videoID int64, action model.ActionKind) (int64, error)
}

// VideoFinder 互动写路径做存在性校验用的窄接口
type VideoFinder interface {
	GetByID(id int64) (*model.Video, error)
}

type InteractionService struct {
	interactionStore InteractionStore
	videoFinder      VideoFinder
	cache            *redis.Client // 可为 nil，缓存只是加速，不参与正确性
}

func NewInteractionService(interactionStore InteractionStore, videoFinder VideoFinder, cache *redis.Client) *InteractionService {
	return &InteractionService{
		interactionStore: interactionStore,
		videoFinder:      videoFinder,
		cache:            cache,
	}
}

// Record 记录一次互动，幂等。
// 返回值里的 isNew 区分“本次新建”与“此前已记录”，两者都是成功。
//
// 先查后插只能挡住串行重复；并发重复提交靠存储层的
// uq_user_video_action 唯一索引裁决，失败的写者改查已有行返回，
// 调用方永远看不到冲突错误，也不会产生第二行。
func (s *InteractionService) Record(userID, videoID int64, action model.ActionKind, at *time.Time) (*dto.InteractionInfo, bool, error) {
	if !action.Valid() {
		return nil, false, ErrInvalidAction
	}

	// 悬空引用不允许入库：视频必须存在
	if _, err := s.videoFinder.GetByID(videoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrVideoNotFound
		}
		return nil, false, err
	}

	existing, err := s.interactionStore.GetByTriple(userID, videoID, action)
	if err == nil {
		return toInteractionInfo(existing), false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	ts := time.Now()
	if at != nil {
		ts = *at
	}

	inter := &model.Interaction{
		UserID:    userID,
		VideoID:   videoID,
		Action:    action,
		Timestamp: ts,
	}

	if err := s.interactionStore.Create(inter); err != nil {
		if !repository.IsUniqueViolation(err) {
			return nil, false, err
		}
		// 并发写者抢先插入了同一三元组：改查已有行，按“已记录”返回
		existing, qerr := s.interactionStore.GetByTriple(userID, videoID, action)
		if qerr != nil {
			return nil, false, fmt.Errorf("requery after unique violation: %w", qerr)
		}
		return toInteractionInfo(existing), false, nil
	}

	s.cacheStatus(userID, videoID, action, true)

	return toInteractionInfo(inter), true, nil
}

// ListByUser 用户互动历史，时间倒序，可按行为类型过滤
func (s *InteractionService) ListByUser(userID int64, action *model.ActionKind, skip, limit int) (*dto.InteractionListData, error) {
	if action != nil && !action.Valid() {
		return nil, ErrInvalidAction
	}

	interactions, total, err := s.interactionStore.ListByUser(userID, action, skip, limit)
	if err != nil {
		return nil, err
	}
	return buildInteractionListData(interactions, total, skip, limit), nil
}

// ListByVideo 视频互动事件，时间倒序，可按行为类型过滤
func (s *InteractionService) ListByVideo(videoID int64, action *model.ActionKind, limit int) (*dto.InteractionListData, error) {
	if action != nil && !action.Valid() {
		return nil, ErrInvalidAction
	}

	interactions, total, err := s.interactionStore.ListByVideo(videoID, action, limit)
	if err != nil {
		return nil, err
	}
	return buildInteractionListData(interactions, total, 0, limit), nil
}

// GetStatus 查询某三元组是否已记录（“我点过赞吗”）
func (s *InteractionService) GetStatus(userID, videoID int64, action model.ActionKind) (bool, error) {
	if !action.Valid() {
		return false, ErrInvalidAction
	}

	if cached, ok := s.cachedStatus(userID, videoID, action); ok {
		return cached, nil
	}

	_, err := s.interactionStore.GetByTriple(userID, videoID, action)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.cacheStatus(userID, videoID, action, false)
			return false, nil
		}
		return false, err
	}

	s.cacheStatus(userID, videoID, action, true)
	return true, nil
}

// CountByVideo 统计视频上某一行为的互动数
func (s *InteractionService) CountByVideo(videoID int64, action model.ActionKind) (int64, error) {
	if !action.Valid() {
		return 0, ErrInvalidAction
	}
	return s.interactionStore.CountByVideo(videoID, action)
}

func statusCacheKey(userID, videoID int64, action model.ActionKind) string {
	return fmt.Sprintf("interaction:status:%d:%d:%s", userID, videoID, action)
}

func (s *InteractionService) cachedStatus(userID, videoID int64, action model.ActionKind) (bool, bool) {
	if s.cache == nil {
		return false, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	val, err := s.cache.Get(ctx, statusCacheKey(userID, videoID, action)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Interaction status cache read failed", zap.Error(err))
		}
		return false, false
	}
	return val == "1", true
}

func (s *InteractionService) cacheStatus(userID, videoID int64, action model.ActionKind, recorded bool) {
	if s.cache == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	val := "0"
	if recorded {
		val = "1"
	}
	if err := s.cache.Set(ctx, statusCacheKey(userID, videoID, action), val, statusCacheTTL).Err(); err != nil {
		logger.Warn("Interaction status cache write failed", zap.Error(err))
	}
}

func toInteractionInfo(inter *model.Interaction) *dto.InteractionInfo {
	return &dto.InteractionInfo{
		ID:        inter.ID,
		UserID:    inter.UserID,
		VideoID:   inter.VideoID,
		Action:    string(inter.Action),
		Timestamp: inter.Timestamp,
	}
}

func buildInteractionListData(interactions []model.Interaction, total int64, skip, limit int) *dto.InteractionListData {
	items := make([]dto.InteractionInfo, 0, len(interactions))
	for i := range interactions {
		items = append(items, *toInteractionInfo(&interactions[i]))
	}

	return &dto.InteractionListData{
		Interactions: items,
		Total:        total,
		Skip:         skip,
		Limit:        limit,
	}
}
