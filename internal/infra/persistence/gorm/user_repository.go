package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"strings" // 用于检查错误字符串 (临时方案)

	"gorm.io/gorm"

	"pixel-canvas/internal/domain"
	"pixel-canvas/internal/repository"
)

// GormUserRepository 是 UserRepository 接口的 GORM 实现
type GormUserRepository struct {
	db *gorm.DB // 依赖 GORM DB 连接
}

// NewGormUserRepository 创建 GormUserRepository 实例
// db *gorm.DB 通过依赖注入传入
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	if db == nil {
		// 早期失败比运行时 panic 更好
		panic("database connection cannot be nil for GormUserRepository")
	}
	return &GormUserRepository{db: db}
}

// FindByID 实现根据用户 ID 查找用户
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error

	if err != nil {
		// 检查是否是记录未找到错误
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 映射为定义的仓库层错误
			return nil, repository.ErrUserNotFound
		}
		// 对于其他数据库错误，包装原始错误并返回
		return nil, fmt.Errorf("gorm: find user by id %q: %w", id, err)
	}
	return &user, nil
}

// FindByUsernameAndAuthType 实现根据 (用户名, 认证类型) 查找用户
func (r *GormUserRepository) FindByUsernameAndAuthType(ctx context.Context, username, authType string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Where("username = ? AND auth_type = ?", username, authType).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("gorm: find user by username %q (%s): %w", username, authType, err)
	}
	return &user, nil
}

// FindByEmailAndAuthType 实现根据 (邮箱, 认证类型) 查找用户
func (r *GormUserRepository) FindByEmailAndAuthType(ctx context.Context, email, authType string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Where("email = ? AND auth_type = ?", email, authType).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("gorm: find user by email %q (%s): %w", email, authType, err)
	}
	return &user, nil
}

// FindByIDs 实现批量查找用户，用于花名册投影。
// 不存在的 ID 被静默跳过，调用方按返回结果投影。
func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []domain.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find users by ids (count %d): %w", len(ids), err)
	}
	return users, nil
}

// Create 实现插入新用户。唯一约束冲突映射为 ErrDuplicateEntry，
// 调用方重新读取既有行即可 (幂等 upsert 语义)。
func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		// TODO: 替换为更健壮的唯一约束错误检查方式
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create user (id: %s, username: %s): %w", user.ID, user.Username, err)
	}
	return nil
}

// UpdateProfile 实现在重新认证时就地刷新身份字段。
// 显式列出列，避免覆盖 pixels_painted 等计数字段。
func (r *GormUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"username":    user.Username,
			"email":       user.Email,
			"profile_url": user.ProfileURL,
			"is_admin":    user.IsAdmin,
		}).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: update profile for user %q: %w", user.ID, err)
	}
	return nil
}

// IncrementPixelsPainted 实现原子递增已绘制计数。
// 单条 UPDATE ... SET pixels_painted = pixels_painted + 1，
// 由数据库串行化行级写入，并发递增不丢失更新。
func (r *GormUserRepository) IncrementPixelsPainted(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		UpdateColumn("pixels_painted", gorm.Expr("pixels_painted + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("gorm: increment pixels_painted for user %q: %w", id, err)
	}
	return nil
}

// isDuplicateEntryError 是一个临时的辅助函数，用于检查常见的唯一约束错误字符串。
// 强烈建议替换为特定数据库驱动的错误检查。
func isDuplicateEntryError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	// 常见的错误信息片段
	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "Duplicate entry") || // MySQL
		strings.Contains(msg, "duplicate key value violates unique constraint") // PostgreSQL
}
