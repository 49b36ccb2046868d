package repository

import (
	"reconova-go/internal/model"

	"gorm.io/gorm"
)

type VideoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// GetByID 根据 ID 获取视频
func (r *VideoRepository) GetByID(id int64) (*model.Video, error) {
	var video model.Video
	err := r.db.Where("id = ?", id).First(&video).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// GetByPixabayID 根据 Pixabay 外部 ID 获取视频（upsert 键）
func (r *VideoRepository) GetByPixabayID(pixabayID int64) (*model.Video, error) {
	var video model.Video
	err := r.db.Where("pixabay_id = ?", pixabayID).First(&video).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// Create 创建视频记录
func (r *VideoRepository) Create(video *model.Video) error {
	return r.db.Create(video).Error
}

// Update 更新视频字段
func (r *VideoRepository) Update(id int64, updates map[string]interface{}) (*model.Video, error) {
	result := r.db.Model(&model.Video{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(id)
}

// Delete 硬删除视频，互动记录由外键级联删除
func (r *VideoRepository) Delete(id int64) (bool, error) {
	result := r.db.Where("id = ?", id).Delete(&model.Video{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List 视频列表查询（分页，最新在前）
func (r *VideoRepository) List(skip, limit int) ([]model.Video, int64, error) {
	query := r.db.Model(&model.Video{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var videos []model.Video
	err := query.Order("uploaded_at DESC, id DESC").Offset(skip).Limit(limit).Find(&videos).Error
	if err != nil {
		return nil, 0, err
	}

	return videos, total, nil
}

// SearchByKeyword 标题/描述模糊搜索，ES 不可用时的降级路径
func (r *VideoRepository) SearchByKeyword(keyword string, skip, limit int) ([]model.Video, int64, error) {
	query := r.db.Model(&model.Video{}).
		Where("title ILIKE ? OR description ILIKE ?", "%"+keyword+"%", "%"+keyword+"%")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var videos []model.Video
	err := query.Order("uploaded_at DESC, id DESC").Offset(skip).Limit(limit).Find(&videos).Error
	if err != nil {
		return nil, 0, err
	}

	return videos, total, nil
}

// GetByIDs 按 ID 集合查询，ES 命中后回表用
func (r *VideoRepository) GetByIDs(ids []int64) ([]model.Video, error) {
	if len(ids) == 0 {
		return []model.Video{}, nil
	}
	var videos []model.Video
	err := r.db.Where("id IN ?", ids).Find(&videos).Error
	return videos, err
}
