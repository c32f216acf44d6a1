// Package runlock serializes settlement runs across instances with a redis
// lock per job and period.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/settlement/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyEngineRun     = "settlement:run:engine:%s"
	keyAutomationRun = "settlement:run:automation:%04d-%02d"
	keyCascadeRun    = "settlement:run:cascade:%04d-%02d"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var ErrLockNotConfigured = errors.New("lock client not configured")

type Locker struct {
	client *redis.Client
	script *redis.Script
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

// Enabled reports whether runs are actually serialized. A nil Locker means a
// single instance deployment.
func (l *Locker) Enabled() bool {
	return l != nil && l.client != nil
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if !l.Enabled() {
		return "", false, ErrLockNotConfigured
	}
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *Locker) Release(ctx context.Context, key, token string) error {
	if !l.Enabled() {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

// Acquire takes key when locking is enabled and returns the matching release.
// Without redis it always succeeds.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	if !l.Enabled() {
		return func(context.Context) error { return nil }, true, nil
	}
	token, ok, err := l.TryLock(ctx, key, ttl)
	if err != nil || !ok {
		return nil, ok, err
	}
	return func(ctx context.Context) error { return l.Release(ctx, key, token) }, true, nil
}

func EngineRunKey(periodStart, periodEnd time.Time) string {
	period := periodStart.UTC().Format("20060102") + "-" + periodEnd.UTC().Format("20060102")
	return fmt.Sprintf(keyEngineRun, period)
}

func AutomationRunKey(year, month int) string {
	return fmt.Sprintf(keyAutomationRun, year, month)
}

func CascadeRunKey(year, month int) string {
	return fmt.Sprintf(keyCascadeRun, year, month)
}

// NewClient dials redis when REDIS_ADDR is set and returns nil otherwise.
func NewClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		log.Info("redis not configured, settlement runs are not serialized across instances")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis ping failed", zap.String("addr", addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}
