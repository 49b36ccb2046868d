package model

import "time"

// Video 视频模型，由 Pixabay 采集器按 pixabay_id 幂等写入
type Video struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;comment:视频标识" json:"id"`
	PixabayID   int64     `gorm:"not null;uniqueIndex;comment:Pixabay外部ID（upsert键）" json:"pixabay_id"`
	Title       string    `gorm:"size:200;not null;comment:视频标题" json:"title"`
	Description *string   `gorm:"type:text;comment:视频描述" json:"description"`
	SourceURL   string    `gorm:"size:500;not null;comment:视频播放地址" json:"source_url"`
	ThumbURL    *string   `gorm:"size:500;comment:视频封面地址" json:"thumb_url"`
	UploadedAt  time.Time `gorm:"autoCreateTime;index:idx_videos_uploaded_at;comment:入库时间" json:"uploaded_at"`

	// 关联关系
	Interactions []Interaction `gorm:"foreignKey:VideoID" json:"interactions,omitempty"`
}

func (Video) TableName() string {
	return "videos"
}
