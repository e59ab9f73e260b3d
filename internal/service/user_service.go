package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"inkwell-backend/internal/dto"
	"inkwell-backend/internal/model"
	"inkwell-backend/internal/utils"
)

var (
	ErrFullNameTooShort = errors.New("昵称至少需要 3 个字符")
	ErrInvalidEmail     = errors.New("邮箱格式不正确")
	ErrWeakPassword     = errors.New("密码需为 6-20 位，且包含数字、大写与小写字母")
	ErrEmailExists      = errors.New("邮箱已被注册")
	ErrEmailNotFound    = errors.New("邮箱未注册")
	ErrWrongPassword    = errors.New("密码错误")
)

// UserService 处理注册、登录与会话管理。
// 会话为随机 token -> redis hash，中间件按 token 取用户并续期。
type UserService struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewUserService 创建 UserService 实例
func NewUserService(db *gorm.DB, rdb *redis.Client) *UserService {
	return &UserService{db: db, rdb: rdb}
}

// Signup 注册新用户并直接签发会话
func (s *UserService) Signup(ctx context.Context, form dto.SignupForm) (*dto.LoginResult, error) {
	if len(form.FullName) < 3 {
		return nil, ErrFullNameTooShort
	}
	if utils.IsEmailInvalid(form.Email) {
		return nil, ErrInvalidEmail
	}
	if utils.IsPasswordInvalid(form.Password) {
		return nil, ErrWeakPassword
	}

	hashed, err := utils.Encode(form.Password)
	if err != nil {
		return nil, err
	}
	username, err := s.generateUsername(ctx, form.Email)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:    form.Email,
		Username: username,
		FullName: form.FullName,
		Password: hashed,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return s.issueToken(ctx, user)
}

// Signin 校验邮箱密码并签发会话
func (s *UserService) Signin(ctx context.Context, form dto.SigninForm) (*dto.LoginResult, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", form.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEmailNotFound
	}
	if err != nil {
		return nil, err
	}
	if !utils.Matches(user.Password, form.Password) {
		return nil, ErrWrongPassword
	}
	return s.issueToken(ctx, &user)
}

// Logout 删除 redis 中的会话
func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.rdb.Del(ctx, utils.LOGIN_USER_KEY+token).Err()
}

// FindByID 按 ID 查用户，未找到返回 nil
func (s *UserService) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// issueToken 生成随机 token 并把用户信息写入 redis hash
func (s *UserService) issueToken(ctx context.Context, user *model.User) (*dto.LoginResult, error) {
	token := uuid.NewString()
	key := utils.LOGIN_USER_KEY + token
	fields := map[string]interface{}{
		"id":         user.ID,
		"username":   user.Username,
		"fullname":   user.FullName,
		"profileImg": user.ProfileImg,
	}
	if err := s.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return nil, err
	}
	if err := s.rdb.Expire(ctx, key, time.Duration(utils.LOGIN_USER_TTL)*time.Second).Err(); err != nil {
		return nil, err
	}
	return &dto.LoginResult{
		AccessToken: token,
		Username:    user.Username,
		FullName:    user.FullName,
		ProfileImg:  user.ProfileImg,
	}, nil
}

// generateUsername 取邮箱前缀作为 username，重名时追加随机后缀
func (s *UserService) generateUsername(ctx context.Context, email string) (string, error) {
	username := strings.SplitN(email, "@", 2)[0]
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		username += utils.RandomString(5)
	}
	return username, nil
}
