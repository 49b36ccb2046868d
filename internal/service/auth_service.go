package service

import (
	"errors"
	"strings"

	"reconova-go/internal/api/dto"
	"reconova-go/internal/model"
	"reconova-go/internal/repository"
	"reconova-go/pkg/utils"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("用户不存在")
	ErrEmailExists       = errors.New("该邮箱已注册")
	ErrInvalidCredential = errors.New("邮箱或密码错误")
)

// UserStore 用户存储接口，由 repository.UserRepository 实现
type UserStore interface {
	GetByID(id int64) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	Create(user *model.User) error
	ExistsByEmail(email string) (bool, error)
	List(skip, limit int) ([]model.User, int64, error)
}

type AuthService struct {
	userStore UserStore
	tokens    *utils.TokenManager
}

func NewAuthService(userStore UserStore, tokens *utils.TokenManager) *AuthService {
	return &AuthService{userStore: userStore, tokens: tokens}
}

// Register 用户注册。邮箱统一转小写后入库，避免大小写不同的重复身份
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.UserInfo, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.userStore.ExistsByEmail(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:    email,
		Password: hashedPassword,
		FullName: req.FullName,
	}

	if err := s.userStore.Create(user); err != nil {
		// 并发注册同一邮箱时唯一索引兜底
		if repository.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	return toUserInfo(user), nil
}

// Login 用户登录，返回 token 数据
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.TokenData, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userStore.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}

	if !utils.VerifyPassword(req.Password, user.Password) {
		return nil, ErrInvalidCredential
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, err
	}

	return &dto.TokenData{
		Token:     token,
		TokenType: "bearer",
		ExpiresIn: s.tokens.ExpireSeconds(),
		User:      *toUserInfo(user),
	}, nil
}

// GetCurrentUser 根据用户 ID 获取用户信息
func (s *AuthService) GetCurrentUser(userID int64) (*dto.UserInfo, error) {
	user, err := s.userStore.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return toUserInfo(user), nil
}

func toUserInfo(user *model.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		IsAdmin:  user.IsAdmin,
	}
}
