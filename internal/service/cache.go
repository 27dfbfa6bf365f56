package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ReportCache 报表缓存；实现为 pkg/redis.Client，未启用 Redis 时为 nil
type ReportCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Generation(ctx context.Context) (int64, error)
	BumpGeneration(ctx context.Context) error
}

// invalidateReports 评分或学期变更后使报表缓存失效；失败只记录日志
func invalidateReports(ctx context.Context, cache ReportCache, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.BumpGeneration(ctx); err != nil {
		logger.Warn("报表缓存失效失败", zap.Error(err))
	}
}

// cacheKey 由缓存代数与过滤条件拼出确定性的键
func cacheKey(kind string, generation int64, parts ...string) string {
	return fmt.Sprintf("%s:%d:%s", kind, generation, strings.Join(parts, "|"))
}
