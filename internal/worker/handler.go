package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pixel-canvas/internal/domain"
	"pixel-canvas/internal/repository"
	"pixel-canvas/internal/tasks"
)

// PaintAuditHandler 把已提交的绘制写入审计事件表。
// 审计记录是追加式的，和 pixels 表的后写覆盖互补：
// 被覆盖的格子在这里仍能查到完整历史。
type PaintAuditHandler struct {
	paintEventRepo repository.PaintEventRepository
}

// NewPaintAuditHandler 创建 Handler 实例
func NewPaintAuditHandler(paintEventRepo repository.PaintEventRepository) *PaintAuditHandler {
	if paintEventRepo == nil {
		panic("paintEventRepo cannot be nil for PaintAuditHandler")
	}
	return &PaintAuditHandler{paintEventRepo: paintEventRepo}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *PaintAuditHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
	})

	var payload tasks.PaintAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal paint audit payload")
		// 载荷坏了重试也不会好
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	event := &domain.PaintEvent{
		X:         payload.X,
		Y:         payload.Y,
		Color:     payload.Color,
		UserID:    payload.UserID,
		PaintedAt: payload.PaintedAt,
	}
	if err := h.paintEventRepo.Save(ctx, event); err != nil {
		logCtx.WithError(err).Error("Failed to save paint audit event")
		return fmt.Errorf("failed to save paint event for user %s: %w", payload.UserID, err)
	}

	logCtx.WithFields(logrus.Fields{"user_id": payload.UserID, "x": payload.X, "y": payload.Y}).
		Info("Paint audit event saved")
	return nil
}
