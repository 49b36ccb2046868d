package service

import (
	"errors"

	"reconova-go/internal/api/dto"

	"gorm.io/gorm"
)

type UserService struct {
	userStore UserStore
}

func NewUserService(userStore UserStore) *UserService {
	return &UserService{userStore: userStore}
}

// GetUser 获取用户信息
func (s *UserService) GetUser(userID int64) (*dto.UserInfo, error) {
	user, err := s.userStore.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUserInfo(user), nil
}

// IsAdmin 查询用户是否为管理员，权限中间件与自查或管理员判断用
func (s *UserService) IsAdmin(userID int64) (bool, error) {
	user, err := s.userStore.GetByID(userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

// List 分页查询用户列表（管理员）
func (s *UserService) List(skip, limit int) (*dto.UserListData, error) {
	users, total, err := s.userStore.List(skip, limit)
	if err != nil {
		return nil, err
	}

	items := make([]dto.UserInfo, 0, len(users))
	for i := range users {
		items = append(items, *toUserInfo(&users[i]))
	}

	return &dto.UserListData{
		Users: items,
		Total: total,
		Skip:  skip,
		Limit: limit,
	}, nil
}
