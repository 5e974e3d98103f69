package shared

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ServiceMetrics tracks performance and success metrics for services
type ServiceMetrics struct {
	ServiceName        string    `json:"service_name"`
	TotalRequests      int64     `json:"total_requests"`
	SuccessfulRequests int64     `json:"successful_requests"`
	FailedRequests     int64     `json:"failed_requests"`
	CacheHits          int64     `json:"cache_hits"`
	CacheMisses        int64     `json:"cache_misses"`
	LastUpdated        time.Time `json:"last_updated"`
	mutex              sync.RWMutex
}

// NewServiceMetrics creates a new metrics tracker for a service
func NewServiceMetrics(serviceName string) *ServiceMetrics {
	return &ServiceMetrics{
		ServiceName: serviceName,
		LastUpdated: time.Now(),
	}
}

// RecordRequest records a request with its success status
func (m *ServiceMetrics) RecordRequest(success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalRequests++
	if success {
		m.SuccessfulRequests++
	} else {
		m.FailedRequests++
	}
	m.LastUpdated = time.Now()
}

// RecordCacheHit records a lookup served from the availability cache
func (m *ServiceMetrics) RecordCacheHit() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.CacheHits++
	m.LastUpdated = time.Now()
}

// RecordCacheMiss records a lookup that had to call upstream
func (m *ServiceMetrics) RecordCacheMiss() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.CacheMisses++
	m.LastUpdated = time.Now()
}

// GetSuccessRate returns the success rate as a percentage
func (m *ServiceMetrics) GetSuccessRate() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.TotalRequests == 0 {
		return 0.0
	}

	return float64(m.SuccessfulRequests) / float64(m.TotalRequests) * 100.0
}

// Snapshot returns a copy of the current counters for logging or reporting
func (m *ServiceMetrics) Snapshot() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return map[string]interface{}{
		"service_name":        m.ServiceName,
		"total_requests":      m.TotalRequests,
		"successful_requests": m.SuccessfulRequests,
		"failed_requests":     m.FailedRequests,
		"cache_hits":          m.CacheHits,
		"cache_misses":        m.CacheMisses,
		"last_updated":        m.LastUpdated,
	}
}

// LogSummary logs the current counters with structured fields
func (m *ServiceMetrics) LogSummary() {
	logrus.WithFields(logrus.Fields(m.Snapshot())).Info("Service metrics summary")
}
