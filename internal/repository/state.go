package repository

import (
	"context"
	"time"

	"pixel-canvas/internal/domain"
)

// CanvasStateRepository 定义了画布实时状态缓存的操作，由 Redis 实现。
// 缓存是 pixels 表的镜像，丢失可由 RebuildCanvasState 全量重建。
type CanvasStateRepository interface {
	// GetCanvasState 获取缓存中的完整画布状态。
	// 单次 HGetAll，返回的快照不会混合同一格子的新旧值。
	GetCanvasState(ctx context.Context) (domain.CanvasState, error)

	// ApplyPixel 把一次已提交的绘制写入缓存 (HSet "x:y" → color)。
	ApplyPixel(ctx context.Context, x, y int, color string) error

	// RebuildCanvasState 用持久化的格子全量重建缓存。
	// 由周期性对账任务和缓存未命中路径调用。
	RebuildCanvasState(ctx context.Context, pixels []domain.Pixel) error

	// HasCanvasState 报告缓存是否存在 (用于缓存未命中判定)。
	HasCanvasState(ctx context.Context) (bool, error)

	// CheckRateLimit 检查给定 key 的请求频率是否超限，并递增计数。
	// 返回 true 如果超限，false 如果未超限。
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
