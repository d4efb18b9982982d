package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pixel-canvas/internal/domain"
)

// PaintEventRepository 是 repository.PaintEventRepository 的 Mock 实现。
type PaintEventRepository struct {
	mock.Mock
}

func (m *PaintEventRepository) Save(ctx context.Context, event *domain.PaintEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *PaintEventRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
