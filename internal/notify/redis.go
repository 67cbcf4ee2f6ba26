package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel Redis 广播频道
const Channel = "shift-clock:events"

// publishTimeout 单次跨实例广播的超时
const publishTimeout = 2 * time.Second

// Broker Redis 发布订阅能力，由 pkg/redis.Client 实现
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) *goredis.PubSub
}

// RedisFanout 多实例部署时通过 Redis 把事件广播到所有实例的 Hub
type RedisFanout struct {
	hub    *Hub
	broker Broker
	origin string
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewRedisFanout 创建跨实例广播器
func NewRedisFanout(hub *Hub, broker Broker, logger *zap.Logger) *RedisFanout {
	return &RedisFanout{
		hub:    hub,
		broker: broker,
		origin: uuid.NewString(),
		logger: logger,
	}
}

// Publish 先投递本地订阅者，再在后台广播给其他实例
// 请求结束或取消不影响已发起的广播
func (f *RedisFanout) Publish(ctx context.Context, e Event) {
	f.hub.Publish(ctx, e)

	e.Origin = f.origin
	payload, err := json.Marshal(e)
	if err != nil {
		f.logger.Warn("序列化事件失败", zap.Error(err))
		return
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := f.broker.Publish(pubCtx, Channel, payload); err != nil {
			f.logger.Warn("广播事件失败", zap.String("type", e.Type), zap.Error(err))
		}
	}()
}

// Wait 等待已发起的广播结束，关闭 Redis 连接前调用
func (f *RedisFanout) Wait() {
	f.wg.Wait()
}

// Run 订阅频道并把其他实例的事件转发到本地 Hub，ctx 取消后返回
func (f *RedisFanout) Run(ctx context.Context) error {
	ps := f.broker.Subscribe(ctx, Channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return err
	}

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("Redis 订阅通道已关闭")
			}
			f.relay(ctx, []byte(msg.Payload))
		}
	}
}

func (f *RedisFanout) relay(ctx context.Context, payload []byte) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		f.logger.Warn("解析广播事件失败", zap.Error(err))
		return
	}
	if e.Origin == f.origin {
		return
	}
	f.hub.Publish(ctx, e)
}
