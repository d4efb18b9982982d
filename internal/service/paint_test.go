package service_test // 测试包

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pixel-canvas/internal/domain"
	"pixel-canvas/internal/repository"
	"pixel-canvas/internal/repository/mocks"
	"pixel-canvas/internal/service"
	"pixel-canvas/internal/tasks"
)

// stubEnqueuer 记录入队的任务，绘制流水线测试不关心队列细节。
type stubEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (s *stubEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func newPaintFixture() (*mocks.PixelRepository, *mocks.UserRepository, *mocks.CooldownRepository, *mocks.CanvasStateRepository, *stubEnqueuer, *service.PaintService) {
	pixelRepo := new(mocks.PixelRepository)
	userRepo := new(mocks.UserRepository)
	cooldownRepo := new(mocks.CooldownRepository)
	stateRepo := new(mocks.CanvasStateRepository)
	enqueuer := &stubEnqueuer{}
	svc := service.NewPaintService(pixelRepo, userRepo, cooldownRepo, stateRepo, enqueuer, service.PaintConfig{
		GridWidth:  100,
		GridHeight: 100,
		Cooldown:   30 * time.Second,
	})
	return pixelRepo, userRepo, cooldownRepo, stateRepo, enqueuer, svc
}

func painterIdentity() domain.Identity {
	return domain.Identity{UserID: "user-1", Username: "alice", AuthType: domain.AuthTypeLocal}
}

func TestPaintService_ProcessPaint_Success(t *testing.T) {
	// Arrange
	pixelRepo, userRepo, cooldownRepo, stateRepo, enqueuer, svc := newPaintFixture()
	ctx := context.Background()
	identity := painterIdentity()

	// 冷却记录缺失视为从未画过
	cooldownRepo.On("GetLastPaintTime", ctx, identity.UserID).
		Return(time.Time{}, repository.ErrCooldownNotFound).Once()
	pixelRepo.On("Upsert", ctx, mock.MatchedBy(func(p *domain.Pixel) bool {
		return p.X == 3 && p.Y == 7 && p.Color == "#FF0000" && p.UserID == identity.UserID
	})).Return(nil).Once()
	userRepo.On("IncrementPixelsPainted", ctx, identity.UserID).Return(nil).Once()
	cooldownRepo.On("SetLastPaintTime", ctx, identity.UserID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	stateRepo.On("ApplyPixel", ctx, 3, 7, "#FF0000").Return(nil).Once()

	// Act
	result, err := svc.ProcessPaint(ctx, identity, 3, 7, "#FF0000")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 3, result.X)
	assert.Equal(t, 7, result.Y)
	assert.Equal(t, "#FF0000", result.Color)
	assert.False(t, result.PaintedAt.IsZero())
	require.Len(t, enqueuer.tasks, 1, "成功提交应入队一条审计任务")
	auditTask := enqueuer.tasks[0]
	assert.Equal(t, tasks.TypePaintAudit, auditTask.Type())
	var payload tasks.PaintAuditPayload
	require.NoError(t, json.Unmarshal(auditTask.Payload(), &payload))
	assert.Equal(t, 3, payload.X)
	assert.Equal(t, 7, payload.Y)
	assert.Equal(t, "#FF0000", payload.Color)
	assert.Equal(t, identity.UserID, payload.UserID)

	pixelRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
	cooldownRepo.AssertExpectations(t)
	stateRepo.AssertExpectations(t)
}

func TestPaintService_ProcessPaint_UnidentifiedRejected(t *testing.T) {
	// Arrange
	pixelRepo, _, _, _, _, svc := newPaintFixture()

	// Act
	result, err := svc.ProcessPaint(context.Background(), domain.Identity{}, 0, 0, "#FFF")

	// Assert
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, service.ErrNotIdentified))
	pixelRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestPaintService_ProcessPaint_InvalidCoordinates(t *testing.T) {
	// Arrange
	pixelRepo, _, cooldownRepo, _, _, svc := newPaintFixture()
	ctx := context.Background()
	identity := painterIdentity()

	cases := []struct {
		name string
		x, y int
	}{
		{"x 为负", -1, 10},
		{"y 为负", 10, -1},
		{"x 越过右边界", 100, 10},
		{"y 越过下边界", 10, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			result, err := svc.ProcessPaint(ctx, identity, tc.x, tc.y, "#FF0000")

			// Assert
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, service.ErrInvalidCoordinate))
			assert.Equal(t, "Invalid pixel coordinates.", err.Error())
		})
	}
	// 校验失败不应触碰任何状态
	pixelRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	cooldownRepo.AssertNotCalled(t, "GetLastPaintTime", mock.Anything, mock.Anything)
}

func TestPaintService_ProcessPaint_InvalidColor(t *testing.T) {
	// Arrange
	pixelRepo, _, cooldownRepo, _, _, svc := newPaintFixture()
	ctx := context.Background()
	identity := painterIdentity()

	cases := []struct {
		name  string
		color string
	}{
		{"缺少井号", "FF0000"},
		{"长度不合法", "#FF00"},
		{"非十六进制字符", "#GG0000"},
		{"命名颜色", "red"},
		{"尾随内容", "#FF0000 "},
		{"空字符串", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			result, err := svc.ProcessPaint(ctx, identity, 1, 1, tc.color)

			// Assert
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, service.ErrInvalidColor))
			assert.Equal(t, "Invalid color format.", err.Error())
		})
	}
	pixelRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	cooldownRepo.AssertNotCalled(t, "GetLastPaintTime", mock.Anything, mock.Anything)
}

func TestPaintService_ProcessPaint_ShortHexAccepted(t *testing.T) {
	// Arrange: 3 位缩写形式同样合法
	pixelRepo, userRepo, cooldownRepo, stateRepo, _, svc := newPaintFixture()
	ctx := context.Background()
	identity := painterIdentity()

	cooldownRepo.On("GetLastPaintTime", ctx, identity.UserID).
		Return(time.Time{}, repository.ErrCooldownNotFound).Once()
	pixelRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.Pixel")).Return(nil).Once()
	userRepo.On("IncrementPixelsPainted", ctx, identity.UserID).Return(nil).Once()
	cooldownRepo.On("SetLastPaintTime", ctx, identity.UserID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	stateRepo.On("ApplyPixel", ctx, 1, 1, "#abc").Return(nil).Once()

	// Act
	result, err := svc.ProcessPaint(ctx, identity, 1, 1, "#abc")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "#abc", result.Color)
}

func TestPaintService_ProcessPaint_CooldownActive(t *testing.T) {
	// Arrange: 5 秒前画过，30 秒冷却剩 25 秒
	pixelRepo, _, cooldownRepo, _, _, svc := newPaintFixture()
	ctx := context.Background()
	identity := painterIdentity()

	cooldownRepo.On("GetLastPaintTime", ctx, identity.UserID).
		Return(time.Now().Add(-5*time.Second), nil).Once()

	// Act
	result, err := svc.ProcessPaint(ctx, identity, 1, 1, "#FF0000")

	// Assert
	require.Error(t, err)
	assert.Nil(t, result)
	var cooldownErr *service.CooldownActiveError
	require.True(t, errors.As(err, &cooldownErr))
	assert.Equal(t, "Please wait 25.0 seconds before painting again.", err.Error())

	// 被拒绝的尝试不能产生任何副作用
	pixelRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	cooldownRepo.AssertNotCalled(t, "SetLastPaintTime", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaintService_ProcessPaint_CooldownElapsed(t *testing.T) {
	// Arrange: 上次绘制早于冷却窗口
	pixelRepo, userRepo, cooldownRepo, stateRepo, _, svc := newPaintFixture()
	ctx := context.Background()
	identity := painterIdentity()

	cooldownRepo.On("GetLastPaintTime", ctx, identity.UserID).
		Return(time.Now().Add(-31*time.Second), nil).Once()
	pixelRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.Pixel")).Return(nil).Once()
	userRepo.On("IncrementPixelsPainted", ctx, identity.UserID).Return(nil).Once()
	cooldownRepo.On("SetLastPaintTime", ctx, identity.UserID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	stateRepo.On("ApplyPixel", ctx, 1, 1, "#FF0000").Return(nil).Once()

	// Act
	_, err := svc.ProcessPaint(ctx, identity, 1, 1, "#FF0000")

	// Assert
	require.NoError(t, err)
	cooldownRepo.AssertExpectations(t)
}

func TestPaintService_ProcessPaint_AdminBypassesCooldown(t *testing.T) {
	// Arrange: 管理员冷却为 0，根本不读冷却记录
	pixelRepo, userRepo, cooldownRepo, stateRepo, _, svc := newPaintFixture()
	ctx := context.Background()
	admin := domain.Identity{UserID: "admin-1", Username: "root", AuthType: domain.AuthTypeLocal, IsAdmin: true}

	pixelRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.Pixel")).Return(nil).Once()
	userRepo.On("IncrementPixelsPainted", ctx, admin.UserID).Return(nil).Once()
	cooldownRepo.On("SetLastPaintTime", ctx, admin.UserID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	stateRepo.On("ApplyPixel", ctx, 1, 1, "#00FF00").Return(nil).Once()

	// Act
	_, err := svc.ProcessPaint(ctx, admin, 1, 1, "#00FF00")

	// Assert
	require.NoError(t, err)
	cooldownRepo.AssertNotCalled(t, "GetLastPaintTime", mock.Anything, mock.Anything)
}

func TestPaintService_ProcessPaint_CommitFails(t *testing.T) {
	// Arrange: 格子提交失败，计数与冷却必须保持不变
	pixelRepo, userRepo, cooldownRepo, stateRepo, enqueuer, svc := newPaintFixture()
	ctx := context.Background()
	identity := painterIdentity()

	cooldownRepo.On("GetLastPaintTime", ctx, identity.UserID).
		Return(time.Time{}, repository.ErrCooldownNotFound).Once()
	pixelRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.Pixel")).
		Return(errors.New("connection reset")).Once()

	// Act
	result, err := svc.ProcessPaint(ctx, identity, 1, 1, "#FF0000")

	// Assert
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, service.ErrPaintFailed))

	userRepo.AssertNotCalled(t, "IncrementPixelsPainted", mock.Anything, mock.Anything)
	cooldownRepo.AssertNotCalled(t, "SetLastPaintTime", mock.Anything, mock.Anything, mock.Anything)
	stateRepo.AssertNotCalled(t, "ApplyPixel", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, enqueuer.tasks)
}

func TestPaintService_ProcessPaint_SideEffectFailuresDoNotFailPaint(t *testing.T) {
	// Arrange: 提交成功后副作用全部失败，绘制仍算成功
	pixelRepo, userRepo, cooldownRepo, stateRepo, enqueuer, svc := newPaintFixture()
	enqueuer.err = errors.New("broker down")
	ctx := context.Background()
	identity := painterIdentity()

	cooldownRepo.On("GetLastPaintTime", ctx, identity.UserID).
		Return(time.Time{}, repository.ErrCooldownNotFound).Once()
	pixelRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.Pixel")).Return(nil).Once()
	userRepo.On("IncrementPixelsPainted", ctx, identity.UserID).
		Return(errors.New("db gone")).Once()
	cooldownRepo.On("SetLastPaintTime", ctx, identity.UserID, mock.AnythingOfType("time.Time")).
		Return(errors.New("db gone")).Once()
	stateRepo.On("ApplyPixel", ctx, 1, 1, "#FF0000").
		Return(errors.New("redis gone")).Once()

	// Act
	result, err := svc.ProcessPaint(ctx, identity, 1, 1, "#FF0000")

	// Assert
	require.NoError(t, err, "提交已生效的绘制不能再向客户端报失败")
	require.NotNil(t, result)
}

func TestPaintService_ProcessPaint_CooldownReadFails(t *testing.T) {
	// Arrange: 冷却读取基础设施错误 (非缺失) 应拒绝绘制
	pixelRepo, _, cooldownRepo, _, _, svc := newPaintFixture()
	ctx := context.Background()
	identity := painterIdentity()

	cooldownRepo.On("GetLastPaintTime", ctx, identity.UserID).
		Return(time.Time{}, errors.New("db gone")).Once()

	// Act
	_, err := svc.ProcessPaint(ctx, identity, 1, 1, "#FF0000")

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrPaintFailed))
	pixelRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}
