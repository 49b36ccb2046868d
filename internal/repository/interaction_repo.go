package repository

import (
	"reconova-go/internal/model"

	"gorm.io/gorm"
)

type InteractionRepository struct {
	db *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// GetByTriple 按 (user_id, video_id, action) 点查互动记录
func (r *InteractionRepository) GetByTriple(userID, videoID int64, action model.ActionKind) (*model.Interaction, error) {
	var inter model.Interaction
	err := r.db.Where("user_id = ? AND video_id = ? AND action = ?", userID, videoID, action).
		First(&inter).Error
	if err != nil {
		return nil, err
	}
	return &inter, nil
}

// Create 插入互动记录。插入直接落在 uq_user_video_action 唯一索引上，
// 并发的重复三元组最多只有一个写者成功，失败方拿到唯一键冲突错误，
// 由服务层用 IsUniqueViolation 识别后改查已有行。
func (r *InteractionRepository) Create(inter *model.Interaction) error {
	return r.db.Create(inter).Error
}

// ListByUser 查询用户的互动历史，时间倒序，时间相同按插入顺序。
// action 过滤下推到 SQL，在 offset/limit 之前生效，
// 保证 limit 约束的是过滤后的结果集。
func (r *InteractionRepository) ListByUser(userID int64, action *model.ActionKind, skip, limit int) ([]model.Interaction, int64, error) {
	query := r.db.Model(&model.Interaction{}).Where("user_id = ?", userID)
	if action != nil {
		query = query.Where("action = ?", *action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var interactions []model.Interaction
	err := query.Order("timestamp DESC, id ASC").Offset(skip).Limit(limit).Find(&interactions).Error
	if err != nil {
		return nil, 0, err
	}
	return interactions, total, nil
}

// ListByVideo 查询视频的互动事件，时间倒序，可按行为类型过滤
func (r *InteractionRepository) ListByVideo(videoID int64, action *model.ActionKind, limit int) ([]model.Interaction, int64, error) {
	query := r.db.Model(&model.Interaction{}).Where("video_id = ?", videoID)
	if action != nil {
		query = query.Where("action = ?", *action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var interactions []model.Interaction
	err := query.Order("timestamp DESC, id ASC").Limit(limit).Find(&interactions).Error
	if err != nil {
		return nil, 0, err
	}
	return interactions, total, nil
}

// CountByVideo 统计视频上某一行为的互动数
func (r *InteractionRepository) CountByVideo(videoID int64, action model.ActionKind) (int64, error) {
	var count int64
	err := r.db.Model(&model.Interaction{}).
		Where("video_id = ? AND action = ?", videoID, action).Count(&count).Error
	return count, err
}
