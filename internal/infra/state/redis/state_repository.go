package redisstate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"pixel-canvas/internal/domain"
)

// RedisCanvasStateRepository 是 CanvasStateRepository 接口的 Redis 实现。
// 画布状态存为单个 Hash："x:y" 字段 → 颜色，是 pixels 表的可重建镜像。
type RedisCanvasStateRepository struct {
	client *redis.Client // 依赖 Redis 客户端
	// 定义 Redis key 的前缀，方便管理
	keyPrefix string
}

// NewRedisCanvasStateRepository 创建 RedisCanvasStateRepository 实例
func NewRedisCanvasStateRepository(client *redis.Client, keyPrefix string) *RedisCanvasStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisCanvasStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "pc:" // 默认前缀 "pc:" (pixel canvas)
	}
	return &RedisCanvasStateRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// --- Key Generation Helpers ---

func (r *RedisCanvasStateRepository) canvasStateKey() string {
	return r.keyPrefix + "canvas:state"
}

func (r *RedisCanvasStateRepository) rateLimitKey(key string) string {
	return r.keyPrefix + "ratelimit:" + key
}

// --- CanvasStateRepository Interface Implementation ---

// GetCanvasState 获取缓存中的完整画布状态 (来自 Redis Hash)。
// HGetAll 在服务端原子执行，返回的快照不会撕裂单个格子。
func (r *RedisCanvasStateRepository) GetCanvasState(ctx context.Context) (domain.CanvasState, error) {
	key := r.canvasStateKey()
	stateMap, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to get canvas state from %s: %w", key, err)
	}
	return domain.CanvasState(stateMap), nil
}

// ApplyPixel 把一次已提交的绘制写入缓存。
func (r *RedisCanvasStateRepository) ApplyPixel(ctx context.Context, x, y int, color string) error {
	key := r.canvasStateKey()
	field := domain.CellKey(x, y)
	if err := r.client.HSet(ctx, key, field, color).Err(); err != nil {
		return fmt.Errorf("redis: failed to apply pixel to canvas state (key: %s, field: %s): %w", key, field, err)
	}
	return nil
}

// RebuildCanvasState 用持久化的格子全量重建缓存。
// DEL + HSet 在一个事务 pipeline 中执行，读方要么看到旧镜像要么看到新镜像。
func (r *RedisCanvasStateRepository) RebuildCanvasState(ctx context.Context, pixels []domain.Pixel) error {
	key := r.canvasStateKey()
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(pixels) > 0 {
		fields := make(map[string]interface{}, len(pixels))
		for _, p := range pixels {
			fields[domain.CellKey(p.X, p.Y)] = p.Color
		}
		pipe.HSet(ctx, key, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: failed to rebuild canvas state on key %s (%d pixels): %w", key, len(pixels), err)
	}
	return nil
}

// HasCanvasState 报告缓存 Hash 是否存在。
func (r *RedisCanvasStateRepository) HasCanvasState(ctx context.Context) (bool, error) {
	key := r.canvasStateKey()
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to check canvas state existence on key %s: %w", key, err)
	}
	return n > 0, nil
}

// CheckRateLimit 检查给定 key 的请求频率是否超限，并递增计数。
func (r *RedisCanvasStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	fullKey := r.rateLimitKey(key)
	// 使用 Pipeline 减少网络往返
	pipe := r.client.Pipeline()
	// INCR 命令原子地增加计数器并返回新值
	incrCmd := pipe.Incr(ctx, fullKey)
	// 设置或刷新过期时间
	pipe.Expire(ctx, fullKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: pipeline failed for rate limit check on key %s: %w", fullKey, err)
	}
	count, err := incrCmd.Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to get incr result for rate limit on key %s: %w", fullKey, err)
	}
	// 如果计数大于限制，则返回 true (表示超限)
	return count > int64(limit), nil
}
