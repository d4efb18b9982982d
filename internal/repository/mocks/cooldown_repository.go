package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// CooldownRepository 是 repository.CooldownRepository 的 Mock 实现。
type CooldownRepository struct {
	mock.Mock
}

func (m *CooldownRepository) GetLastPaintTime(ctx context.Context, userID string) (time.Time, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *CooldownRepository) SetLastPaintTime(ctx context.Context, userID string, t time.Time) error {
	args := m.Called(ctx, userID, t)
	return args.Error(0)
}
