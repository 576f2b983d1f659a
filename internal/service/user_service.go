// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"
	"strings"

	"testops-assistant-go/internal/model"
	"testops-assistant-go/internal/repository"
	"testops-assistant-go/pkg/hash"
	"testops-assistant-go/pkg/token"

	"gorm.io/gorm"
)

// ErrInvalidCredentials 表示邮箱或密码不正确。
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailTaken 表示该邮箱已被注册。
var ErrEmailTaken = errors.New("email already registered")

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(username, email, password string) (*model.User, error)
	Login(email, password string) (accessToken, refreshToken string, err error)
	GetProfile(username string) (*model.User, error)
	RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// Register 处理用户注册的业务逻辑。
// 未提供用户名时取邮箱 @ 前的部分。
func (s *userService) Register(username, email, password string) (*model.User, error) {
	// 1. 检查邮箱是否已被占用
	_, err := s.userRepo.FindByEmail(email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 3. 创建新用户
	newUser := &model.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
		Role:     "USER", // 默认角色
	}
	if err := s.userRepo.Create(newUser); err != nil {
		return nil, err
	}
	return newUser, nil
}

// Login 处理用户登录的业务逻辑。
func (s *userService) Login(email, password string) (accessToken, refreshToken string, err error) {
	// 1. 查找用户
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, user.Password) {
		return "", "", ErrInvalidCredentials
	}

	// 3. 生成 access token 和 refresh token
	accessToken, err = s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// GetProfile 根据用户名获取用户详细信息。
func (s *userService) GetProfile(username string) (*model.User, error) {
	return s.userRepo.FindByUsername(username)
}

// RefreshToken 校验 refresh token 并签发新的一对令牌。
func (s *userService) RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error) {
	claims, err := s.jwtManager.VerifyToken(refreshTokenString)
	if err != nil {
		return "", "", err
	}

	// 确认用户仍然存在
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return "", "", err
	}

	newAccessToken, err = s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	newRefreshToken, err = s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	return newAccessToken, newRefreshToken, nil
}
