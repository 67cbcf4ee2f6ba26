package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"shift-clock/backend/config"
)

// Client Redis 客户端封装
// 用于 Token 黑名单、接口限流、PIN 失败计数以及事件跨实例广播
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}

// ── Token 黑名单 ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken 将 JWT ID 加入黑名单，TTL 与 Token 剩余有效期一致
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Token 已过期，无需加入黑名单
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── 滑动窗口限流 ──

var rateLimitScript = goredis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[1], 0, now - window)
local count = redis.call('ZCARD', KEYS[1])
if count >= limit then
  return 0
end
redis.call('ZADD', KEYS[1], now, ARGV[4])
redis.call('PEXPIRE', KEYS[1], window)
return 1
`)

// CheckRateLimit 滑动窗口计数，返回本次请求是否放行
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	member := fmt.Sprintf("%d", now.UnixNano())
	res, err := rateLimitScript.Run(ctx, c.rdb, []string{key},
		now.UnixMilli(), window.Milliseconds(), limit, member).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// ── PIN 失败计数 ──

const pinAttemptPrefix = "pin:attempt:"

// 哈希字段 failures / locked_until（毫秒时间戳）
// 锁定期间 key 的 TTL 等于锁定时长，过期即清零
var pinFailureScript = goredis.NewScript(`
local now = tonumber(ARGV[1])
local maxFailures = tonumber(ARGV[2])
local lockMs = tonumber(ARGV[3])
local idleMs = tonumber(ARGV[4])
local lockedUntil = tonumber(redis.call('HGET', KEYS[1], 'locked_until') or '0')
if lockedUntil > 0 and now >= lockedUntil then
  redis.call('DEL', KEYS[1])
end
local failures = redis.call('HINCRBY', KEYS[1], 'failures', 1)
if failures >= maxFailures then
  redis.call('HSET', KEYS[1], 'locked_until', now + lockMs)
  redis.call('PEXPIRE', KEYS[1], lockMs)
else
  redis.call('PEXPIRE', KEYS[1], idleMs)
end
return failures
`)

var pinLockedScript = goredis.NewScript(`
local lockedUntil = tonumber(redis.call('HGET', KEYS[1], 'locked_until') or '0')
if lockedUntil > 0 and tonumber(ARGV[1]) < lockedUntil then
  return 1
end
return 0
`)

// pinIdleTTL 未触发锁定的失败计数保留时长
const pinIdleTTL = 24 * time.Hour

// PINAttemptLocked 判断 key 在 now 时刻是否处于锁定状态
func (c *Client) PINAttemptLocked(ctx context.Context, key string, now time.Time) (bool, error) {
	res, err := pinLockedScript.Run(ctx, c.rdb, []string{pinAttemptPrefix + key}, now.UnixMilli()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// PINAttemptFailure 原子地累加失败次数，达到阈值后锁定 lock 时长
func (c *Client) PINAttemptFailure(ctx context.Context, key string, now time.Time, maxFailures int, lock time.Duration) (int64, error) {
	return pinFailureScript.Run(ctx, c.rdb, []string{pinAttemptPrefix + key},
		now.UnixMilli(), maxFailures, lock.Milliseconds(), pinIdleTTL.Milliseconds()).Int64()
}

// PINAttemptReset 清除 key 的全部失败状态
func (c *Client) PINAttemptReset(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, pinAttemptPrefix+key).Err()
}

// ── 事件广播 ──

// Publish 向频道发布消息
func (c *Client) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe 订阅频道，调用方负责关闭返回的 PubSub
func (c *Client) Subscribe(ctx context.Context, channel string) *goredis.PubSub {
	return c.rdb.Subscribe(ctx, channel)
}
