package model

// User 用户模型
type User struct {
	ID       int64   `gorm:"primaryKey;autoIncrement;comment:用户标识" json:"id"`
	Email    string  `gorm:"size:255;not null;uniqueIndex;comment:邮箱（写入时统一小写）" json:"email"`
	Password string  `gorm:"size:255;not null;comment:密码哈希" json:"-"` // json:"-" 序列化时忽略密码
	FullName *string `gorm:"size:255;comment:显示名称" json:"full_name"`
	IsAdmin  bool    `gorm:"not null;default:false;comment:管理员标识" json:"is_admin"`

	// 关联关系
	Interactions []Interaction `gorm:"foreignKey:UserID" json:"interactions,omitempty"`
}

func (User) TableName() string {
	return "users"
}
