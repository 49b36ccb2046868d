package service

import (
	"testing"
	"time"

	"reconova-go/internal/api/dto"
	"reconova-go/internal/model"
	"reconova-go/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserStore struct {
	nextID int64
	rows   []model.User

	// createErr 覆盖 Create 的返回值，模拟并发注册撞唯一索引
	createErr error
}

func (s *fakeUserStore) GetByID(id int64) (*model.User, error) {
	for i := range s.rows {
		if s.rows[i].ID == id {
			row := s.rows[i]
			return &row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeUserStore) GetByEmail(email string) (*model.User, error) {
	for i := range s.rows {
		if s.rows[i].Email == email {
			row := s.rows[i]
			return &row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeUserStore) Create(user *model.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	user.ID = s.nextID
	s.rows = append(s.rows, *user)
	return nil
}

func (s *fakeUserStore) ExistsByEmail(email string) (bool, error) {
	_, err := s.GetByEmail(email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (s *fakeUserStore) List(skip, limit int) ([]model.User, int64, error) {
	total := int64(len(s.rows))
	if skip >= len(s.rows) {
		return nil, total, nil
	}
	rows := s.rows[skip:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, total, nil
}

func newAuthFixture() (*AuthService, *fakeUserStore) {
	store := &fakeUserStore{}
	tokens := utils.NewTokenManager("test-secret", time.Hour, "reconova")
	return NewAuthService(store, tokens), store
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc, store := newAuthFixture()

	fullName := "Alice"
	info, err := svc.Register(&dto.RegisterRequest{
		Email:    "  Alice@Example.COM ",
		Password: "pass1234",
		FullName: &fullName,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", info.Email)
	assert.False(t, info.IsAdmin)

	// 密码只存哈希
	require.Len(t, store.rows, 1)
	assert.NotEqual(t, "pass1234", store.rows[0].Password)
	assert.True(t, utils.VerifyPassword("pass1234", store.rows[0].Password))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Register(&dto.RegisterRequest{Email: "bob@example.com", Password: "pass1234"})
	require.NoError(t, err)

	// 大小写不同也算重复
	_, err = svc.Register(&dto.RegisterRequest{Email: "BOB@example.com", Password: "other567"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegisterConcurrentDuplicate(t *testing.T) {
	svc, store := newAuthFixture()

	// 存在性检查通过后插入撞唯一索引，应折算成 ErrEmailExists
	store.createErr = gorm.ErrDuplicatedKey
	_, err := svc.Register(&dto.RegisterRequest{Email: "carol@example.com", Password: "pass1234"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthFixture()

	registered, err := svc.Register(&dto.RegisterRequest{Email: "dan@example.com", Password: "pass1234"})
	require.NoError(t, err)

	data, err := svc.Login(&dto.LoginRequest{Email: "Dan@Example.com", Password: "pass1234"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", data.TokenType)
	assert.Equal(t, registered.ID, data.User.ID)
	assert.Positive(t, data.ExpiresIn)

	tokens := utils.NewTokenManager("test-secret", time.Hour, "reconova")
	claims, err := tokens.Parse(data.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Register(&dto.RegisterRequest{Email: "eve@example.com", Password: "pass1234"})
	require.NoError(t, err)

	_, err = svc.Login(&dto.LoginRequest{Email: "eve@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture()

	// 未注册邮箱和密码错误返回同一个错误，不泄露账号是否存在
	_, err := svc.Login(&dto.LoginRequest{Email: "ghost@example.com", Password: "pass1234"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestGetCurrentUserNotFound(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.GetCurrentUser(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
