package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"pixel-canvas/internal/domain"
)

// CanvasStateRepository 是 repository.CanvasStateRepository 的 Mock 实现。
type CanvasStateRepository struct {
	mock.Mock
}

func (m *CanvasStateRepository) GetCanvasState(ctx context.Context) (domain.CanvasState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.CanvasState), args.Error(1)
}

func (m *CanvasStateRepository) ApplyPixel(ctx context.Context, x, y int, color string) error {
	args := m.Called(ctx, x, y, color)
	return args.Error(0)
}

func (m *CanvasStateRepository) RebuildCanvasState(ctx context.Context, pixels []domain.Pixel) error {
	args := m.Called(ctx, pixels)
	return args.Error(0)
}

func (m *CanvasStateRepository) HasCanvasState(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *CanvasStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}
