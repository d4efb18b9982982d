package repository

import (
	"context"

	"pixel-canvas/internal/domain"
)

// PixelRepository 定义了画布格子的持久化操作。
// 并发契约：Upsert 是以 (x, y) 唯一性为键的原子比较替换——
// 同一坐标上竞争的两次提交由存储层完全串行化，后提交的时间戳胜出。
type PixelRepository interface {
	// GetAll 返回完整的画布快照 (无序)。单条查询，行内一致。
	GetAll(ctx context.Context) ([]domain.Pixel, error)

	// Upsert 以坐标为键写入格子，替换该坐标的任何既有行。
	// 对同一坐标幂等；失败只影响触发该写入的绘制尝试。
	Upsert(ctx context.Context, pixel *domain.Pixel) error
}
