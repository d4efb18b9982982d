package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"pixel-canvas/internal/domain"
)

// GormPaintEventRepository 是 PaintEventRepository 接口的 GORM 实现
type GormPaintEventRepository struct {
	db *gorm.DB
}

// NewGormPaintEventRepository 创建 GormPaintEventRepository 实例
func NewGormPaintEventRepository(db *gorm.DB) *GormPaintEventRepository {
	if db == nil {
		panic("database connection cannot be nil for GormPaintEventRepository")
	}
	return &GormPaintEventRepository{db: db}
}

// Save 追加一条审计记录。
func (r *GormPaintEventRepository) Save(ctx context.Context, event *domain.PaintEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("gorm: save paint event (%d, %d) by user %q: %w", event.X, event.Y, event.UserID, err)
	}
	return nil
}

// CountByUser 统计某用户的审计记录数。
func (r *GormPaintEventRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.PaintEvent{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: count paint events for user %q: %w", userID, err)
	}
	return count, nil
}
