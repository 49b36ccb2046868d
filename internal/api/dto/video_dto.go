package dto

import "time"

// VideoUpsertRequest 按 pixabay_id 幂等写入视频的请求
type VideoUpsertRequest struct {
	PixabayID   int64   `json:"pixabay_id" binding:"required"`
	Title       string  `json:"title" binding:"required,max=200"`
	Description *string `json:"description"`
	SourceURL   string  `json:"source_url" binding:"required,max=500"`
	ThumbURL    *string `json:"thumb_url"`
}

// VideoInfo 视频信息
type VideoInfo struct {
	ID          int64     `json:"id"`
	PixabayID   int64     `json:"pixabay_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	SourceURL   string    `json:"source_url"`
	ThumbURL    *string   `json:"thumb_url"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// VideoListData 视频列表数据
type VideoListData struct {
	Videos []VideoInfo `json:"videos"`
	Total  int64       `json:"total"`
	Skip   int         `json:"skip"`
	Limit  int         `json:"limit"`
}
