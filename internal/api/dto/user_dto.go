package dto

// UserInfo 用户信息
type UserInfo struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
	IsAdmin  bool    `json:"is_admin"`
}

// UserListData 用户列表数据
type UserListData struct {
	Users    []UserInfo `json:"users"`
	Total    int64      `json:"total"`
	Skip     int        `json:"skip"`
	Limit    int        `json:"limit"`
}
