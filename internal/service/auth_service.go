package service

import (
	"errors"
	"strings"

	"music_academy_backend/internal/config"
	"music_academy_backend/internal/model"
	"music_academy_backend/internal/repository"
	"music_academy_backend/internal/util"
	"music_academy_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

// Register 新用户注册，角色固定为 student
func (s *AuthService) Register(username, email, password, fullName string) (*model.User, string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	exists, err := s.UserRepo.ExistsByUsernameOrEmail(username, email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", util.ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	if fullName == "" {
		fullName = username
	}

	user := &model.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		FullName: fullName,
		Role:     model.Student,
	}

	if err := s.UserRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", util.ErrUserExists
		}
		return nil, "", err
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Login 用户名或邮箱登录
func (s *AuthService) Login(login, password string) (*model.User, string, error) {
	user, err := s.UserRepo.FindByLogin(strings.ToLower(strings.TrimSpace(login)))
	if err != nil {
		return nil, "", util.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, "", err
	}

	if err := s.UserRepo.UpdateLastLogin(user.ID); err != nil {
		logger.Log.Warn("failed to update last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	return user, token, nil
}

// ForgotPassword 签发密码重置令牌。邮箱不存在时返回空串而非错误，
// 避免接口被用来探测注册邮箱。
func (s *AuthService) ForgotPassword(email string) (string, error) {
	user, err := s.UserRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	return util.GenerateResetJWT(user.ID, s.Cfg.JWT.Secret)
}

func (s *AuthService) ResetPassword(token, newPassword string) error {
	claims, err := util.ParseResetJWT(token, s.Cfg.JWT.Secret)
	if err != nil {
		return util.ErrInvalidResetToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.UserRepo.UpdatePassword(claims.UserID, string(hashedPassword))
}

func (s *AuthService) GetUser(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
