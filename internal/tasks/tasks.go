package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// 后台任务类型。
const (
	TypePaintAudit         = "paint:audit"
	TypeCanvasCacheRebuild = "canvas:rebuild_cache"
)

// PaintAuditPayload 是一次已提交绘制的审计记录载荷。
type PaintAuditPayload struct {
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Color     string    `json:"color"`
	UserID    string    `json:"user_id"`
	PaintedAt time.Time `json:"painted_at"`
}

// NewPaintAuditTask 创建绘制审计任务。
func NewPaintAuditTask(x, y int, color, userID string, paintedAt time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(PaintAuditPayload{
		X: x, Y: y, Color: color, UserID: userID, PaintedAt: paintedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("tasks: failed to marshal paint audit payload: %w", err)
	}
	return asynq.NewTask(TypePaintAudit, payload), nil
}

// NewCanvasCacheRebuildTask 创建画布缓存重建任务 (无载荷，定时触发)。
func NewCanvasCacheRebuildTask() *asynq.Task {
	return asynq.NewTask(TypeCanvasCacheRebuild, nil)
}
