package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/timetable-api/pkg/config"
	appErrors "github.com/campushub/timetable-api/pkg/errors"
)

type cacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ReportCacheService caches serialized analysis reports in redis. A broken
// or disabled cache degrades to recomputation; it never fails a request.
type ReportCacheService struct {
	store   cacheStore
	enabled bool
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// NewReportCacheService instantiates ReportCacheService. A nil store
// disables caching regardless of configuration.
func NewReportCacheService(store cacheStore, cfg config.ReportCacheConfig, metrics *MetricsService, logger *zap.Logger) *ReportCacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportCacheService{
		store:   store,
		enabled: cfg.CacheEnabled && store != nil,
		ttl:     cfg.CacheTTL,
		metrics: metrics,
		logger:  logger,
	}
}

// Enabled reports whether lookups hit redis at all.
func (s *ReportCacheService) Enabled() bool {
	return s.enabled
}

// GetJSON loads a cached value into out. false means a miss.
func (s *ReportCacheService) GetJSON(ctx context.Context, key string, out interface{}) bool {
	if !s.enabled {
		return false
	}
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		var appErr *appErrors.Error
		if !errors.As(err, &appErr) || appErr.Code != appErrors.ErrCacheMiss.Code {
			s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.RecordCacheLookup(false)
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("report cache payload corrupt", zap.String("key", key), zap.Error(err))
		s.metrics.RecordCacheLookup(false)
		return false
	}
	s.metrics.RecordCacheLookup(true)
	return true
}

// SetJSON stores a value under the configured TTL.
func (s *ReportCacheService) SetJSON(ctx context.Context, key string, value interface{}) {
	if !s.enabled {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("report cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateTimetable drops every cached report derived from a timetable.
// Entry writes call this so analysis output never lags the data.
func (s *ReportCacheService) InvalidateTimetable(ctx context.Context, timetableID string) {
	if !s.enabled {
		return
	}
	pattern := fmt.Sprintf("reports:timetable:%s:*", timetableID)
	if err := s.store.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.String("timetable_id", timetableID), zap.Error(err))
	}
}

// TimetableReportKey builds the cache key for a full timetable analysis.
func TimetableReportKey(timetableID string) string {
	return fmt.Sprintf("reports:timetable:%s:analysis", timetableID)
}
