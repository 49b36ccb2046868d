package model

import "time"

// ActionKind 互动行为类型，封闭枚举
type ActionKind string

const (
	ActionView     ActionKind = "view"
	ActionLike     ActionKind = "like"
	ActionComplete ActionKind = "complete"
	ActionBookmark ActionKind = "bookmark"
	ActionShare    ActionKind = "share"
)

// AllActions 全部合法的行为类型
var AllActions = []ActionKind{ActionView, ActionLike, ActionComplete, ActionBookmark, ActionShare}

// Valid 判断行为类型是否在封闭枚举内
func (a ActionKind) Valid() bool {
	switch a {
	case ActionView, ActionLike, ActionComplete, ActionBookmark, ActionShare:
		return true
	}
	return false
}

// Interaction 互动记录模型：用户 U 在时刻 T 对视频 V 做了行为 A。
// (user_id, video_id, action) 上的联合唯一索引是并发去重的唯一手段，
// 同一三元组的重复提交在存储层被拒绝后由写路径兜底返回已有行。
type Interaction struct {
	ID        int64      `gorm:"primaryKey;autoIncrement;comment:互动记录ID" json:"id"`
	UserID    int64      `gorm:"not null;uniqueIndex:uq_user_video_action;index:idx_interactions_user_id;comment:互动用户ID" json:"user_id"`
	VideoID   int64      `gorm:"not null;uniqueIndex:uq_user_video_action;index:idx_interactions_video_id;comment:被互动视频ID" json:"video_id"`
	Action    ActionKind `gorm:"type:varchar(16);not null;uniqueIndex:uq_user_video_action;comment:行为类型" json:"action"`
	Timestamp time.Time  `gorm:"not null;index:idx_interactions_timestamp;comment:互动时间" json:"timestamp"`

	// 关联关系，外键级联删除在建表时声明
	User  User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Video Video `gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE" json:"video,omitempty"`
}

func (Interaction) TableName() string {
	return "interactions"
}
