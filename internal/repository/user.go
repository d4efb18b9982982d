package repository

import (
	"context"

	"pixel-canvas/internal/domain"
)

// UserRepository 定义了用户数据的存储和检索操作。
type UserRepository interface {
	// FindByID 根据用户 ID 查找用户。
	// 如果用户不存在，返回 repository.ErrUserNotFound。
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// FindByUsernameAndAuthType 根据 (用户名, 认证类型) 查找用户。
	// 仅由认证协作方在登录/冲突恢复时使用。
	FindByUsernameAndAuthType(ctx context.Context, username, authType string) (*domain.User, error)

	// FindByEmailAndAuthType 根据 (邮箱, 认证类型) 查找用户。
	FindByEmailAndAuthType(ctx context.Context, email, authType string) (*domain.User, error)

	// FindByIDs 批量查找用户，用于花名册投影。未找到的 ID 被静默跳过。
	FindByIDs(ctx context.Context, ids []string) ([]domain.User, error)

	// Create 插入新用户。违反唯一约束时返回 repository.ErrDuplicateEntry，
	// 调用方应重新读取并视为"已存在"（并发首连竞争的幂等恢复）。
	Create(ctx context.Context, user *domain.User) error

	// UpdateProfile 在重新认证时就地刷新身份字段
	// (username, email, profile_url, is_admin)。不触碰 pixels_painted。
	UpdateProfile(ctx context.Context, user *domain.User) error

	// IncrementPixelsPainted 原子地将用户的已绘制计数加一。
	// 必须实现为单条带表达式运算的 UPDATE，并发递增不丢失更新。
	IncrementPixelsPainted(ctx context.Context, id string) error
}
