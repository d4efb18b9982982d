package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pixel-canvas/internal/domain"
	"pixel-canvas/internal/repository"
)

// GormCooldownRepository 是 CooldownRepository 接口的 GORM 实现
type GormCooldownRepository struct {
	db *gorm.DB
}

// NewGormCooldownRepository 创建 GormCooldownRepository 实例
func NewGormCooldownRepository(db *gorm.DB) *GormCooldownRepository {
	if db == nil {
		panic("database connection cannot be nil for GormCooldownRepository")
	}
	return &GormCooldownRepository{db: db}
}

// GetLastPaintTime 实现查询用户的冷却记录。
func (r *GormCooldownRepository) GetLastPaintTime(ctx context.Context, userID string) (time.Time, error) {
	var cooldown domain.Cooldown
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cooldown).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, repository.ErrCooldownNotFound
		}
		return time.Time{}, fmt.Errorf("gorm: get last paint time for user %q: %w", userID, err)
	}
	return cooldown.LastPaintTime, nil
}

// SetLastPaintTime 实现冷却记录的单行 upsert (每用户一行)。
func (r *GormCooldownRepository) SetLastPaintTime(ctx context.Context, userID string, t time.Time) error {
	cooldown := domain.Cooldown{UserID: userID, LastPaintTime: t}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_paint_time"}),
		}).
		Create(&cooldown).Error
	if err != nil {
		return fmt.Errorf("gorm: set last paint time for user %q: %w", userID, err)
	}
	return nil
}
