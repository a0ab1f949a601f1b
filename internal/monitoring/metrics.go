package monitoring

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds application counters. Everything hot-path is atomic; maps sit
// behind their own locks.
type Metrics struct {
	RequestCount        int64
	ErrorCount          int64
	CacheHits           int64
	CacheMisses         int64
	SubmissionsScored   int64
	TimelinesBuilt      int64
	InsightRequests     int64
	AverageResponseTime int64 // nanoseconds
	StartTime           time.Time

	RequestCountByStatus map[int]int64
	StatusMutex          sync.RWMutex

	RateLimitIPBlocks      int64
	RateLimitRedisErrors   int64
	RateLimitFallbackCount int64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		RequestCountByStatus: make(map[int]int64),
	}
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementCacheHit increments cache hit count
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncrementCacheMiss increments cache miss count
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// IncrementSubmissionsScored counts scored check-ins
func (m *Metrics) IncrementSubmissionsScored() {
	atomic.AddInt64(&m.SubmissionsScored, 1)
}

// IncrementTimelinesBuilt counts timeline reconstructions
func (m *Metrics) IncrementTimelinesBuilt() {
	atomic.AddInt64(&m.TimelinesBuilt, 1)
}

// IncrementInsightRequests counts insight generation calls
func (m *Metrics) IncrementInsightRequests() {
	atomic.AddInt64(&m.InsightRequests, 1)
}

// IncrementRateLimitIPBlock counts requests refused by the IP limiter
func (m *Metrics) IncrementRateLimitIPBlock() {
	atomic.AddInt64(&m.RateLimitIPBlocks, 1)
}

// IncrementRateLimitRedisError counts limiter Redis failures
func (m *Metrics) IncrementRateLimitRedisError() {
	atomic.AddInt64(&m.RateLimitRedisErrors, 1)
}

// IncrementRateLimitFallback counts in-memory limiter fallbacks
func (m *Metrics) IncrementRateLimitFallback() {
	atomic.AddInt64(&m.RateLimitFallbackCount, 1)
}

// RecordResponseTime folds a new sample into the running average.
func (m *Metrics) RecordResponseTime(d time.Duration) {
	// Exponential moving average keeps this O(1) without a sample buffer.
	const alpha = 0.1
	for {
		old := atomic.LoadInt64(&m.AverageResponseTime)
		updated := int64(float64(old)*(1-alpha) + float64(d.Nanoseconds())*alpha)
		if atomic.CompareAndSwapInt64(&m.AverageResponseTime, old, updated) {
			return
		}
	}
}

// RecordRequestByStatus tracks response status code distribution
func (m *Metrics) RecordRequestByStatus(status int) {
	m.StatusMutex.Lock()
	m.RequestCountByStatus[status]++
	m.StatusMutex.Unlock()
}

// GetStats returns a snapshot for the health endpoint.
func (m *Metrics) GetStats() map[string]interface{} {
	m.StatusMutex.RLock()
	byStatus := make(map[int]int64, len(m.RequestCountByStatus))
	for k, v := range m.RequestCountByStatus {
		byStatus[k] = v
	}
	m.StatusMutex.RUnlock()

	return map[string]interface{}{
		"request_count":            atomic.LoadInt64(&m.RequestCount),
		"error_count":              atomic.LoadInt64(&m.ErrorCount),
		"cache_hits":               atomic.LoadInt64(&m.CacheHits),
		"cache_misses":             atomic.LoadInt64(&m.CacheMisses),
		"submissions_scored":       atomic.LoadInt64(&m.SubmissionsScored),
		"timelines_built":          atomic.LoadInt64(&m.TimelinesBuilt),
		"insight_requests":         atomic.LoadInt64(&m.InsightRequests),
		"avg_response_time_ms":     time.Duration(atomic.LoadInt64(&m.AverageResponseTime)).Milliseconds(),
		"requests_by_status":       byStatus,
		"rate_limit_ip_blocks":     atomic.LoadInt64(&m.RateLimitIPBlocks),
		"rate_limit_redis_errors":  atomic.LoadInt64(&m.RateLimitRedisErrors),
		"rate_limit_fallbacks":     atomic.LoadInt64(&m.RateLimitFallbackCount),
		"uptime_seconds":           int64(time.Since(m.StartTime).Seconds()),
	}
}
