package service

import (
	"context"
	"regexp"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pixel-canvas/internal/domain"
	"pixel-canvas/internal/repository"
	"pixel-canvas/internal/tasks"
)

// colorPattern 是严格的 3 位或 6 位十六进制 RGB 颜色格式。
var colorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// PaintConfig 是绘制流水线的画布几何与节流参数。
type PaintConfig struct {
	GridWidth  int           // W = 画布像素宽 / 格子尺寸
	GridHeight int           // H = 画布像素高 / 格子尺寸
	Cooldown   time.Duration // 普通用户两次提交之间的最小间隔；管理员为 0
}

// TaskEnqueuer 是绘制流水线需要的 asynq 客户端子集。
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// PaintResult 是一次提交成功的绘制。
type PaintResult struct {
	X         int
	Y         int
	Color     string
	PaintedAt time.Time
}

// PaintService 实现绘制协议核心：
// 校验 → 冷却检查 → 提交 → 计数/冷却/缓存/审计副作用。
// 每次尝试同步执行到底，不在中途让出。
type PaintService struct {
	pixelRepo    repository.PixelRepository
	userRepo     repository.UserRepository
	cooldownRepo repository.CooldownRepository
	stateRepo    repository.CanvasStateRepository
	enqueuer     TaskEnqueuer
	cfg          PaintConfig
}

// NewPaintService 创建 PaintService 实例。
func NewPaintService(
	pixelRepo repository.PixelRepository,
	userRepo repository.UserRepository,
	cooldownRepo repository.CooldownRepository,
	stateRepo repository.CanvasStateRepository,
	enqueuer TaskEnqueuer,
	cfg PaintConfig,
) *PaintService {
	if pixelRepo == nil || userRepo == nil || cooldownRepo == nil || stateRepo == nil || enqueuer == nil {
		panic("All dependencies must be non-nil for PaintService")
	}
	if cfg.GridWidth <= 0 || cfg.GridHeight <= 0 {
		panic("PaintConfig grid dimensions must be positive")
	}
	return &PaintService{
		pixelRepo:    pixelRepo,
		userRepo:     userRepo,
		cooldownRepo: cooldownRepo,
		stateRepo:    stateRepo,
		enqueuer:     enqueuer,
		cfg:          cfg,
	}
}

// ProcessPaint 处理一次绘制尝试。
//
// 拒绝时返回业务错误 (坐标/颜色/冷却)，不触碰任何状态；
// 格子提交失败返回 ErrPaintFailed，计数与冷却保持不变。
// 格子提交成功后，计数递增、冷却 upsert、缓存镜像、审计入队的
// 单独失败只记录日志——视觉上的提交已经发生，不能再向客户端否认。
func (s *PaintService) ProcessPaint(ctx context.Context, identity domain.Identity, x, y int, color string) (*PaintResult, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": identity.UserID, "x": x, "y": y})

	// 1. 身份门：客户端负责禁用按钮，服务端必须独立复验
	if identity.UserID == "" {
		logCtx.Warn("Paint attempt without resolved identity")
		return nil, ErrNotIdentified
	}

	// 2. 坐标校验
	if x < 0 || x >= s.cfg.GridWidth || y < 0 || y >= s.cfg.GridHeight {
		return nil, ErrInvalidCoordinate
	}

	// 3. 颜色校验
	if !colorPattern.MatchString(color) {
		return nil, ErrInvalidColor
	}

	// 4. 冷却检查：管理员冷却为 0，缺失记录视为冷却无限早
	now := time.Now()
	cooldown := s.cfg.Cooldown
	if identity.IsAdmin {
		cooldown = 0
	}
	if cooldown > 0 {
		lastPaint, err := s.cooldownRepo.GetLastPaintTime(ctx, identity.UserID)
		if err != nil && err != repository.ErrCooldownNotFound {
			logCtx.WithError(err).Error("Failed to read cooldown record")
			return nil, ErrPaintFailed
		}
		if err == nil {
			elapsed := now.Sub(lastPaint)
			if elapsed < cooldown {
				remaining := float64(cooldown-elapsed) / float64(time.Second)
				return nil, &CooldownActiveError{Remaining: remaining}
			}
		}
	}

	// 5. 提交：以 (x, y) 唯一性为键的原子替换，后提交者胜
	pixel := &domain.Pixel{X: x, Y: y, Color: color, UserID: identity.UserID, PaintedAt: now}
	if err := s.pixelRepo.Upsert(ctx, pixel); err != nil {
		logCtx.WithError(err).Error("Failed to commit pixel")
		return nil, ErrPaintFailed
	}

	// 提交已生效；以下副作用失败不再回报给客户端
	if err := s.userRepo.IncrementPixelsPainted(ctx, identity.UserID); err != nil {
		logCtx.WithError(err).Error("Failed to increment pixels_painted after commit")
	}
	if err := s.cooldownRepo.SetLastPaintTime(ctx, identity.UserID, now); err != nil {
		logCtx.WithError(err).Error("Failed to upsert cooldown record after commit")
	}
	if err := s.stateRepo.ApplyPixel(ctx, x, y, color); err != nil {
		logCtx.WithError(err).Error("Failed to mirror pixel into canvas state cache")
	}
	s.enqueueAudit(pixel, logCtx)

	logCtx.WithField("color", color).Info("Pixel committed")
	return &PaintResult{X: x, Y: y, Color: color, PaintedAt: now}, nil
}

// enqueueAudit 把审计记录任务放入后台队列，失败只记录日志。
func (s *PaintService) enqueueAudit(pixel *domain.Pixel, logCtx *logrus.Entry) {
	task, err := tasks.NewPaintAuditTask(pixel.X, pixel.Y, pixel.Color, pixel.UserID, pixel.PaintedAt)
	if err != nil {
		logCtx.WithError(err).Error("Failed to build paint audit task")
		return
	}
	if _, err := s.enqueuer.Enqueue(task, asynq.Queue("low")); err != nil {
		logCtx.WithError(err).Error("Failed to enqueue paint audit task")
	}
}
