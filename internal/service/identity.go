package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"pixel-canvas/internal/domain"
	"pixel-canvas/internal/repository"
)

// IdentityService 把连接携带的凭证 (JWT 用户或访客会话) 解析成绘制身份。
// 身份一经解析在连接生命周期内不变；reconnectUser 只刷新展示字段。
type IdentityService struct {
	userRepo    repository.UserRepository
	adminUserID string
}

// NewIdentityService 创建 IdentityService 实例。
func NewIdentityService(userRepo repository.UserRepository, adminUserID string) *IdentityService {
	if userRepo == nil {
		panic("userRepo cannot be nil for IdentityService")
	}
	return &IdentityService{userRepo: userRepo, adminUserID: adminUserID}
}

// ResolveAuthenticated 解析一个已通过 JWT 认证的用户。
// 用户记录不存在视为凭证失效，连接应当被拒绝。
func (s *IdentityService) ResolveAuthenticated(ctx context.Context, userID string) (domain.Identity, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			logrus.WithField("user_id", userID).Warn("Authenticated identity refers to unknown user")
			return domain.Identity{}, ErrUnknownIdentity
		}
		return domain.Identity{}, fmt.Errorf("identity: failed to load user %s: %w", userID, err)
	}
	return s.identityOf(user), nil
}

// ResolveGuest 解析访客身份。访客以会话 ID 为稳定主键，
// 首次出现时创建记录，同一会话的重连复用同一行 (计数得以累积)。
func (s *IdentityService) ResolveGuest(ctx context.Context, sessionID string) (domain.Identity, error) {
	if sessionID == "" {
		return domain.Identity{}, ErrUnknownIdentity
	}

	user, err := s.userRepo.FindByID(ctx, sessionID)
	if err == nil {
		return s.identityOf(user), nil
	}
	if err != repository.ErrUserNotFound {
		return domain.Identity{}, fmt.Errorf("identity: failed to look up guest %s: %w", sessionID, err)
	}

	guest := &domain.User{
		ID:       sessionID,
		Username: guestName(sessionID),
		AuthType: domain.AuthTypeGuest,
		IsAdmin:  sessionID == s.adminUserID && s.adminUserID != "",
	}
	if err := s.userRepo.Create(ctx, guest); err != nil {
		// 两个标签页并发首连会竞争同一行；输掉的一方重新读取即可
		if err == repository.ErrDuplicateEntry {
			user, rerr := s.userRepo.FindByID(ctx, sessionID)
			if rerr != nil {
				return domain.Identity{}, fmt.Errorf("identity: guest %s lost create race and re-read failed: %w", sessionID, rerr)
			}
			return s.identityOf(user), nil
		}
		return domain.Identity{}, fmt.Errorf("identity: failed to create guest %s: %w", sessionID, err)
	}

	logrus.WithField("user_id", sessionID).Info("Guest identity created")
	return s.identityOf(guest), nil
}

// Lookup 返回最新的用户行，isAdmin 是按 ADMIN_USER_ID 覆盖后的值，
// 与连接身份和在线名单看到的一致。
func (s *IdentityService) Lookup(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return nil, ErrUnknownIdentity
		}
		return nil, fmt.Errorf("identity: failed to load user %s: %w", userID, err)
	}
	if s.adminUserID != "" && user.ID == s.adminUserID {
		user.IsAdmin = true
	}
	return user, nil
}

// RefreshIdentity 为 reconnectUser 事件重新读取展示字段。
// 身份主键不变；用户行已消失时保留原快照。
func (s *IdentityService) RefreshIdentity(ctx context.Context, identity domain.Identity) domain.Identity {
	user, err := s.userRepo.FindByID(ctx, identity.UserID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", identity.UserID).Warn("Failed to refresh identity, keeping previous snapshot")
		return identity
	}
	return s.identityOf(user)
}

func (s *IdentityService) identityOf(user *domain.User) domain.Identity {
	id := domain.IdentityOf(user)
	// ADMIN_USER_ID 覆盖持久化标记，改环境变量即可授予/收回
	if s.adminUserID != "" && user.ID == s.adminUserID {
		id.IsAdmin = true
	}
	return id
}

// guestName 从会话 ID 派生访客显示名。
func guestName(sessionID string) string {
	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}
	return "Guest-" + short
}
