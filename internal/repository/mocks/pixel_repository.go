package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pixel-canvas/internal/domain"
)

// PixelRepository 是 repository.PixelRepository 的 Mock 实现。
type PixelRepository struct {
	mock.Mock
}

func (m *PixelRepository) GetAll(ctx context.Context) ([]domain.Pixel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Pixel), args.Error(1)
}

func (m *PixelRepository) Upsert(ctx context.Context, pixel *domain.Pixel) error {
	args := m.Called(ctx, pixel)
	return args.Error(0)
}
