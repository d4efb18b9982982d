package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pixel-canvas/internal/service"
)

// CacheRebuildHandler 周期性地用 pixels 表重建画布缓存。
// 缓存镜像写入失败只记日志，长时间运行后镜像可能漂移，
// 这个任务负责把它拉回与持久层一致。
type CacheRebuildHandler struct {
	canvasService *service.CanvasService
}

// NewCacheRebuildHandler 创建 Handler 实例
func NewCacheRebuildHandler(canvasService *service.CanvasService) *CacheRebuildHandler {
	if canvasService == nil {
		panic("canvasService cannot be nil for CacheRebuildHandler")
	}
	return &CacheRebuildHandler{canvasService: canvasService}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *CacheRebuildHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
	})
	logCtx.Info("Processing periodic canvas cache rebuild task...")

	// 带超时的 context，避免任务卡死
	rebuildCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := h.canvasService.ReconcileCache(rebuildCtx); err != nil {
		logCtx.WithError(err).Error("Canvas cache rebuild failed")
		return err
	}

	logCtx.Info("Periodic canvas cache rebuild task completed successfully.")
	return nil
}
