// 包 cache：检测报告的两级缓存（进程内 LRU → Redis），键由目录指纹构造
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"overlap-api/internal/logger"
	"overlap-api/internal/metrics"
)

const keyPrefix = "overlap:report:"

// 文档注释：报告缓存
// 背景：同一目录内容未变时重复请求直接返回已渲染报告；目录变化会改变指纹，旧键自然失效。
// 约束：只缓存序列化后的报告，不缓存索引或关系集合；rc 为 nil 时仅使用进程内缓存；Redis 错误不阻断主流程。
type Reports struct {
	local *LRU[[]byte]
	rc    *redis.Client
	ttl   time.Duration
}

func NewReports(size int, ttl time.Duration, rc *redis.Client) *Reports {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Reports{local: NewLRU[[]byte](size, ttl), rc: rc, ttl: ttl}
}

// Key：由坐标系与目录指纹组成缓存键
func Key(coordSys, fingerprint string) string {
	return keyPrefix + coordSys + ":" + fingerprint
}

// Get：返回缓存内容与命中层级（"local" / "redis"）
func (r *Reports) Get(ctx context.Context, key string) ([]byte, string, bool) {
	if r == nil {
		return nil, "", false
	}
	if b, ok := r.local.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues("local").Inc()
		return b, "local", true
	}
	if r.rc != nil {
		b, err := r.rc.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			r.local.Set(key, b)
			metrics.CacheHitsTotal.WithLabelValues("redis").Inc()
			return b, "redis", true
		case !errors.Is(err, redis.Nil):
			logger.L().Warn("report_cache_redis_get_error", "key", key, "err", err)
		}
	}
	metrics.CacheMissesTotal.Inc()
	return nil, "", false
}

func (r *Reports) Set(ctx context.Context, key string, b []byte) {
	if r == nil {
		return
	}
	r.local.Set(key, b)
	if r.rc != nil {
		if err := r.rc.Set(ctx, key, b, r.ttl).Err(); err != nil {
			logger.L().Warn("report_cache_redis_set_error", "key", key, "err", err)
		}
	}
}
