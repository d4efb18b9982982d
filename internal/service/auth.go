package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"pixel-canvas/internal/domain"
	"pixel-canvas/internal/repository"
)

// AuthService 负责本地账号的注册、登录与 JWT 签发。
type AuthService struct {
	userRepo    repository.UserRepository
	jwtSecret   string
	jwtExpiry   time.Duration
	adminUserID string
}

// NewAuthService 创建 AuthService 实例。
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiry time.Duration, adminUserID string) *AuthService {
	if userRepo == nil {
		panic("userRepo cannot be nil for AuthService")
	}
	if jwtSecret == "" {
		panic("jwtSecret cannot be empty for AuthService")
	}
	if jwtExpiry <= 0 {
		jwtExpiry = 24 * time.Hour
	}
	return &AuthService{
		userRepo:    userRepo,
		jwtSecret:   jwtSecret,
		jwtExpiry:   jwtExpiry,
		adminUserID: adminUserID,
	}
}

// Register 注册一个本地账号。用户名或邮箱在 local 认证域内重复时
// 返回 ErrRegistrationFailed，不泄露具体哪个字段冲突。
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	// 先查用户名占用，给出友好错误；并发窗口由 Create 的唯一约束兜底
	if _, err := s.userRepo.FindByUsernameAndAuthType(ctx, username, domain.AuthTypeLocal); err == nil {
		return nil, ErrRegistrationFailed
	} else if err != repository.ErrUserNotFound {
		logrus.WithError(err).Error("Failed to check username availability")
		return nil, ErrInternalServer
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Failed to hash password")
		return nil, ErrInternalServer
	}

	id := uuid.NewString()
	user := &domain.User{
		ID:       id,
		Username: username,
		Email:    &email,
		Password: string(hashedPassword),
		AuthType: domain.AuthTypeLocal,
		IsAdmin:  s.adminUserID != "" && id == s.adminUserID,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if err == repository.ErrDuplicateEntry {
			return nil, ErrRegistrationFailed
		}
		logrus.WithError(err).Error("Failed to create user during registration")
		return nil, ErrInternalServer
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": username}).Info("User registered")
	return user, nil
}

// Login 校验邮箱和密码，成功则返回签发的 JWT。
// 账号不存在与密码错误返回同一个错误。
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.FindByEmailAndAuthType(ctx, email, domain.AuthTypeLocal)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return "", nil, ErrAuthenticationFailed
		}
		logrus.WithError(err).Error("Failed to look up user during login")
		return "", nil, ErrInternalServer
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	// ADMIN_USER_ID 可能在上次登录后改过，登录时把持久化标记同步过来
	if isAdmin := s.adminUserID != "" && user.ID == s.adminUserID; isAdmin != user.IsAdmin {
		user.IsAdmin = isAdmin
		if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Error("Failed to sync admin flag on login")
		}
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		logrus.WithError(err).Error("Failed to sign JWT")
		return "", nil, ErrInternalServer
	}

	logrus.WithField("user_id", user.ID).Info("User logged in")
	return token, user, nil
}

// ParseToken 校验 JWT 并取出其中的用户 ID。
func (s *AuthService) ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrAuthenticationFailed
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrAuthenticationFailed
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrAuthenticationFailed
	}
	return userID, nil
}

func (s *AuthService) generateToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
