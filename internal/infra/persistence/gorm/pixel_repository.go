package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pixel-canvas/internal/domain"
)

// GormPixelRepository 是 PixelRepository 接口的 GORM 实现
type GormPixelRepository struct {
	db *gorm.DB
}

// NewGormPixelRepository 创建 GormPixelRepository 实例
func NewGormPixelRepository(db *gorm.DB) *GormPixelRepository {
	if db == nil {
		panic("database connection cannot be nil for GormPixelRepository")
	}
	return &GormPixelRepository{db: db}
}

// GetAll 实现获取完整画布快照。
// 单条 SELECT，每行自身一致；导出期间的并发提交要么整行可见要么整行缺席。
func (r *GormPixelRepository) GetAll(ctx context.Context) ([]domain.Pixel, error) {
	var pixels []domain.Pixel
	err := r.db.WithContext(ctx).Find(&pixels).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: get all pixels: %w", err)
	}
	return pixels, nil
}

// Upsert 实现以 (x, y) 为键的原子比较替换。
// ON CONFLICT 更新 color/user_id/painted_at，后提交者胜，
// 这是画布的并发契约而不是存储原语的附带效果。
func (r *GormPixelRepository) Upsert(ctx context.Context, pixel *domain.Pixel) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "x"}, {Name: "y"}},
			DoUpdates: clause.AssignmentColumns([]string{"color", "user_id", "painted_at"}),
		}).
		Create(pixel).Error
	if err != nil {
		return fmt.Errorf("gorm: upsert pixel (%d, %d): %w", pixel.X, pixel.Y, err)
	}
	return nil
}
