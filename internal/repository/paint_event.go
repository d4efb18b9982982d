package repository

import (
	"context"

	"pixel-canvas/internal/domain"
)

// PaintEventRepository 定义了绘制审计记录的持久化。
type PaintEventRepository interface {
	// Save 追加一条审计记录。由后台 worker 调用，不在绘制热路径上。
	Save(ctx context.Context, event *domain.PaintEvent) error

	// CountByUser 统计某用户的审计记录数 (运维/排查用)。
	CountByUser(ctx context.Context, userID string) (int64, error)
}
