package dto

import "time"

// RecordInteractionRequest 记录互动请求。
// 用户身份一律取自认证令牌，不接受请求体里的 user_id。
type RecordInteractionRequest struct {
	VideoID   int64      `json:"video_id" binding:"required"`
	Action    string     `json:"action" binding:"required"`
	Timestamp *time.Time `json:"timestamp"`
}

// InteractionInfo 互动记录信息
type InteractionInfo struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	VideoID   int64     `json:"video_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// InteractionListData 互动列表数据
type InteractionListData struct {
	Interactions []InteractionInfo `json:"interactions"`
	Total        int64             `json:"total"`
	Skip         int               `json:"skip"`
	Limit        int               `json:"limit"`
}
