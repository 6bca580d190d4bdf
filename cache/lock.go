package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"playpod/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrLockTimeout 在等待期限内没有拿到锁
var ErrLockTimeout = errors.New("lock: timed out waiting for lock")

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// 只续期自己持有的锁
var renewScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker 基于 SET NX PX 的分布式互斥锁。
// 持有期间每 ttl/3 续期一次，直到调用 release。
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker ttl 同时是锁的过期时间和最长等待时间
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl < 3*time.Millisecond {
		ttl = 10 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, retry: 25 * time.Millisecond}
}

// Acquire 阻塞直到拿到 key 对应的锁
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := fmt.Sprintf("lock:%s", key)
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			stop := make(chan struct{})
			done := make(chan struct{})
			go l.keepAlive(lockKey, token, stop, done)

			var once sync.Once
			return func() {
				once.Do(func() {
					close(stop)
					<-done
					// 释放不能沿用已取消的 ctx
					if err := releaseScript.Run(context.Background(), l.client, []string{lockKey}, token).Err(); err != nil {
						logger.Warn("[Lock] 释放锁失败", logger.String("key", key), logger.ErrorField(err))
					}
				})
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-time.After(l.retry):
		}
	}
}

// keepAlive 定期续期直到 stop 关闭；锁已被他人持有时停止续期
func (l *RedisLocker) keepAlive(lockKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := l.ttl / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			renewed, err := renewScript.Run(ctx, l.client, []string{lockKey}, token, l.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				logger.Warn("[Lock] 续期失败", logger.String("key", lockKey), logger.ErrorField(err))
				continue
			}
			if renewed == 0 {
				logger.Warn("[Lock] 锁已丢失，停止续期", logger.String("key", lockKey))
				return
			}
		}
	}
}
