package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"pixel-canvas/internal/domain"
	"pixel-canvas/internal/repository"
)

// CanvasCell 是画布快照中的一个已着色格子。
type CanvasCell struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
}

// CanvasService 提供 initialCanvas 快照，读路径走 Redis 镜像，
// 未命中时从持久化的 pixels 表回源并重建缓存。
type CanvasService struct {
	pixelRepo repository.PixelRepository
	stateRepo repository.CanvasStateRepository
}

// NewCanvasService 创建 CanvasService 实例。
func NewCanvasService(pixelRepo repository.PixelRepository, stateRepo repository.CanvasStateRepository) *CanvasService {
	if pixelRepo == nil || stateRepo == nil {
		panic("All dependencies must be non-nil for CanvasService")
	}
	return &CanvasService{pixelRepo: pixelRepo, stateRepo: stateRepo}
}

// Snapshot 返回当前画布上全部已着色的格子。
// 只包含被画过的格子；空画布返回空切片而不是错误。
func (s *CanvasService) Snapshot(ctx context.Context) ([]CanvasCell, error) {
	exists, err := s.stateRepo.HasCanvasState(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Canvas cache probe failed, falling back to database")
	} else if exists {
		state, err := s.stateRepo.GetCanvasState(ctx)
		if err == nil {
			return cellsFromState(state), nil
		}
		logrus.WithError(err).Warn("Canvas cache read failed, falling back to database")
	}

	pixels, err := s.pixelRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("canvas: failed to load pixels from database: %w", err)
	}

	// 回填缓存；失败不影响本次快照
	if err := s.stateRepo.RebuildCanvasState(ctx, pixels); err != nil {
		logrus.WithError(err).Error("Failed to rebuild canvas state cache")
	}

	cells := make([]CanvasCell, 0, len(pixels))
	for _, p := range pixels {
		cells = append(cells, CanvasCell{X: p.X, Y: p.Y, Color: p.Color})
	}
	return cells, nil
}

// ReconcileCache 从持久化的格子全量重建缓存，供定时任务调用。
func (s *CanvasService) ReconcileCache(ctx context.Context) error {
	pixels, err := s.pixelRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("canvas: failed to load pixels for cache reconcile: %w", err)
	}
	if err := s.stateRepo.RebuildCanvasState(ctx, pixels); err != nil {
		return fmt.Errorf("canvas: failed to rebuild canvas state cache: %w", err)
	}
	logrus.WithField("pixels", len(pixels)).Info("Canvas state cache reconciled")
	return nil
}

// cellsFromState 把缓存 Hash 转成格子切片，跳过无法解析的字段。
func cellsFromState(state domain.CanvasState) []CanvasCell {
	cells := make([]CanvasCell, 0, len(state))
	for key, color := range state {
		x, y, err := domain.ParseCellKey(key)
		if err != nil {
			logrus.WithField("field", key).Warn("Skipping malformed canvas cache field")
			continue
		}
		cells = append(cells, CanvasCell{X: x, Y: y, Color: color})
	}
	return cells
}
