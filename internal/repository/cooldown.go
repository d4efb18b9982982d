package repository

import (
	"context"
	"time"
)

// CooldownRepository 定义了用户绘制冷却记录的存取。
// 纯查找/更新；单行 upsert 之外不需要额外锁。
type CooldownRepository interface {
	// GetLastPaintTime 返回用户最近一次提交成功的时间。
	// 没有记录时返回 repository.ErrCooldownNotFound (视为冷却无限早)。
	GetLastPaintTime(ctx context.Context, userID string) (time.Time, error)

	// SetLastPaintTime upsert 用户的冷却记录 (每用户一行)。
	SetLastPaintTime(ctx context.Context, userID string, t time.Time) error
}
