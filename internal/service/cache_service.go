package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/assessment-api/internal/models"
	appErrors "github.com/noah-isme/assessment-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const listCachePrefix = "exams:list"

// ListCache keeps per-owner exam listings. Any failure degrades to a miss so the database stays authoritative.
type ListCache struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewListCache constructs the exam list cache.
func NewListCache(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *ListCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListCache{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (c *ListCache) Enabled() bool {
	return c != nil && c.enabled && c.repo != nil
}

// Load returns the cached listing for the owner and filter, if any.
func (c *ListCache) Load(ctx context.Context, ownerID string, filter models.ExamFilter) ([]models.ExamSummary, bool) {
	if !c.Enabled() {
		return nil, false
	}
	key := listKey(ownerID, filter)
	start := time.Now()
	var exams []models.ExamSummary
	err := c.repo.Get(ctx, key, &exams)
	hit := err == nil && exams != nil
	c.metrics.RecordCacheOperation(hit, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	return exams, hit
}

// Store caches a listing.
func (c *ListCache) Store(ctx context.Context, ownerID string, filter models.ExamFilter, exams []models.ExamSummary) {
	if !c.Enabled() {
		return
	}
	key := listKey(ownerID, filter)
	start := time.Now()
	err := c.repo.Set(ctx, key, exams, c.ttl)
	c.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops every cached listing of the owner.
func (c *ListCache) Invalidate(ctx context.Context, ownerID string) {
	if !c.Enabled() {
		return
	}
	pattern := fmt.Sprintf("%s:%s:*", listCachePrefix, ownerID)
	if err := c.repo.DeleteByPattern(ctx, pattern); err != nil {
		c.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func listKey(ownerID string, filter models.ExamFilter) string {
	return fmt.Sprintf("%s:%s:%s:%s", listCachePrefix, ownerID, url.QueryEscape(filter.Department), filter.Status)
}
