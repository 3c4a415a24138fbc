package common

import (
	"sync"
	"sync/atomic"
	"time"
)

// PerformanceMetrics defines the interface for performance tracking
type PerformanceMetrics interface {
	GetMetrics() map[string]interface{}
}

// BaseMetrics provides common fields used across different metrics types
type BaseMetrics struct {
	TotalOperations int64
	SuccessfulOps   int64
	FailedOps       int64
	LastOperation   time.Time
	Mu              sync.RWMutex
}

// UpdateBaseMetrics updates common metrics fields
func (bm *BaseMetrics) UpdateBaseMetrics(success bool) {
	bm.Mu.Lock()
	defer bm.Mu.Unlock()

	bm.TotalOperations++
	if success {
		bm.SuccessfulOps++
	} else {
		bm.FailedOps++
	}
	bm.LastOperation = time.Now()
}

// GetBaseMetrics returns the common metrics as a map
func (bm *BaseMetrics) GetBaseMetrics() map[string]interface{} {
	bm.Mu.RLock()
	defer bm.Mu.RUnlock()

	return map[string]interface{}{
		"total_operations": bm.TotalOperations,
		"successful_ops":   bm.SuccessfulOps,
		"failed_ops":       bm.FailedOps,
		"last_operation":   bm.LastOperation,
	}
}

// CatalogMetrics tracks listing and fingerprint counters. Counters are updated
// atomically so concurrent requests can share one instance.
type CatalogMetrics struct {
	BaseMetrics
	EntriesListed     atomic.Int64
	EntriesSkipped    atomic.Int64
	FingerprintHits   atomic.Int64
	FingerprintMisses atomic.Int64
	FingerprintErrors atomic.Int64
	totalListingNanos atomic.Int64
}

// NewCatalogMetrics creates a zeroed metrics instance
func NewCatalogMetrics() *CatalogMetrics {
	return &CatalogMetrics{}
}

// RecordListing records one finished listing.
func (cm *CatalogMetrics) RecordListing(start time.Time, entries int, err error) {
	cm.UpdateBaseMetrics(err == nil)
	cm.EntriesListed.Add(int64(entries))
	cm.totalListingNanos.Add(int64(time.Since(start)))
}

// GetMetrics returns catalog metrics as a map
func (cm *CatalogMetrics) GetMetrics() map[string]interface{} {
	metrics := cm.GetBaseMetrics()

	var avg time.Duration
	if total := metrics["total_operations"].(int64); total > 0 {
		avg = time.Duration(cm.totalListingNanos.Load() / total)
	}

	metrics["entries_listed"] = cm.EntriesListed.Load()
	metrics["entries_skipped"] = cm.EntriesSkipped.Load()
	metrics["fingerprint_hits"] = cm.FingerprintHits.Load()
	metrics["fingerprint_misses"] = cm.FingerprintMisses.Load()
	metrics["fingerprint_errors"] = cm.FingerprintErrors.Load()
	metrics["average_listing_time"] = avg.String()
	return metrics
}
