package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pixel-canvas/internal/domain"
	"pixel-canvas/internal/repository/mocks"
	"pixel-canvas/internal/service"
)

func TestCanvasService_Snapshot_CacheHit(t *testing.T) {
	// Arrange
	mockPixelRepo := new(mocks.PixelRepository)
	mockStateRepo := new(mocks.CanvasStateRepository)
	svc := service.NewCanvasService(mockPixelRepo, mockStateRepo)
	ctx := context.Background()

	state := domain.CanvasState{"3:7": "#FF0000", "0:0": "#abc"}
	mockStateRepo.On("HasCanvasState", ctx).Return(true, nil).Once()
	mockStateRepo.On("GetCanvasState", ctx).Return(state, nil).Once()

	// Act
	cells, err := svc.Snapshot(ctx)

	// Assert
	require.NoError(t, err)
	require.Len(t, cells, 2)
	byKey := make(map[string]service.CanvasCell)
	for _, c := range cells {
		byKey[domain.CellKey(c.X, c.Y)] = c
	}
	assert.Equal(t, "#FF0000", byKey["3:7"].Color)
	assert.Equal(t, "#abc", byKey["0:0"].Color)

	// 缓存命中不应回源数据库
	mockPixelRepo.AssertNotCalled(t, "GetAll", mock.Anything)
}

func TestCanvasService_Snapshot_CacheMissRebuilds(t *testing.T) {
	// Arrange: 缓存缺失时回源并重建
	mockPixelRepo := new(mocks.PixelRepository)
	mockStateRepo := new(mocks.CanvasStateRepository)
	svc := service.NewCanvasService(mockPixelRepo, mockStateRepo)
	ctx := context.Background()

	pixels := []domain.Pixel{
		{X: 1, Y: 2, Color: "#111111", UserID: "u1"},
		{X: 3, Y: 4, Color: "#222222", UserID: "u2"},
	}
	mockStateRepo.On("HasCanvasState", ctx).Return(false, nil).Once()
	mockPixelRepo.On("GetAll", ctx).Return(pixels, nil).Once()
	mockStateRepo.On("RebuildCanvasState", ctx, pixels).Return(nil).Once()

	// Act
	cells, err := svc.Snapshot(ctx)

	// Assert
	require.NoError(t, err)
	require.Len(t, cells, 2)
	assert.Equal(t, service.CanvasCell{X: 1, Y: 2, Color: "#111111"}, cells[0])
	mockStateRepo.AssertExpectations(t)
}

func TestCanvasService_Snapshot_RebuildFailureNonFatal(t *testing.T) {
	// Arrange: 缓存回填失败不影响本次快照
	mockPixelRepo := new(mocks.PixelRepository)
	mockStateRepo := new(mocks.CanvasStateRepository)
	svc := service.NewCanvasService(mockPixelRepo, mockStateRepo)
	ctx := context.Background()

	pixels := []domain.Pixel{{X: 0, Y: 0, Color: "#000000", UserID: "u1"}}
	mockStateRepo.On("HasCanvasState", ctx).Return(false, nil).Once()
	mockPixelRepo.On("GetAll", ctx).Return(pixels, nil).Once()
	mockStateRepo.On("RebuildCanvasState", ctx, pixels).Return(errors.New("redis gone")).Once()

	// Act
	cells, err := svc.Snapshot(ctx)

	// Assert
	require.NoError(t, err)
	assert.Len(t, cells, 1)
}

func TestCanvasService_Snapshot_EmptyCanvas(t *testing.T) {
	// Arrange
	mockPixelRepo := new(mocks.PixelRepository)
	mockStateRepo := new(mocks.CanvasStateRepository)
	svc := service.NewCanvasService(mockPixelRepo, mockStateRepo)
	ctx := context.Background()

	mockStateRepo.On("HasCanvasState", ctx).Return(false, nil).Once()
	mockPixelRepo.On("GetAll", ctx).Return([]domain.Pixel{}, nil).Once()
	mockStateRepo.On("RebuildCanvasState", ctx, []domain.Pixel{}).Return(nil).Once()

	// Act
	cells, err := svc.Snapshot(ctx)

	// Assert
	require.NoError(t, err)
	assert.NotNil(t, cells, "空画布返回空切片而不是 nil")
	assert.Empty(t, cells)
}

func TestCanvasService_Snapshot_DatabaseFailure(t *testing.T) {
	// Arrange
	mockPixelRepo := new(mocks.PixelRepository)
	mockStateRepo := new(mocks.CanvasStateRepository)
	svc := service.NewCanvasService(mockPixelRepo, mockStateRepo)
	ctx := context.Background()

	mockStateRepo.On("HasCanvasState", ctx).Return(false, nil).Once()
	mockPixelRepo.On("GetAll", ctx).Return(nil, errors.New("db gone")).Once()

	// Act
	_, err := svc.Snapshot(ctx)

	// Assert
	require.Error(t, err)
}

func TestCanvasService_ReconcileCache(t *testing.T) {
	// Arrange
	mockPixelRepo := new(mocks.PixelRepository)
	mockStateRepo := new(mocks.CanvasStateRepository)
	svc := service.NewCanvasService(mockPixelRepo, mockStateRepo)
	ctx := context.Background()

	pixels := []domain.Pixel{{X: 9, Y: 9, Color: "#999999", UserID: "u1"}}
	mockPixelRepo.On("GetAll", ctx).Return(pixels, nil).Once()
	mockStateRepo.On("RebuildCanvasState", ctx, pixels).Return(nil).Once()

	// Act
	err := svc.ReconcileCache(ctx)

	// Assert
	require.NoError(t, err)
	mockStateRepo.AssertExpectations(t)
}
