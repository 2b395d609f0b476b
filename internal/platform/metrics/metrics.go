package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   atomic.Uint64
	errorRequests   atomic.Uint64
	rateLimited     atomic.Uint64
	totalDurationMs atomic.Uint64
	importedRows    atomic.Uint64
	skippedRows     atomic.Uint64
	exports         atomic.Uint64
	cacheHits       atomic.Uint64
	cacheMisses     atomic.Uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.totalRequests.Add(1)
	if status >= 500 {
		c.errorRequests.Add(1)
	}
	if status == 429 {
		c.rateLimited.Add(1)
	}
	c.totalDurationMs.Add(uint64(duration.Milliseconds()))
}

func (c *Collector) RecordImport(imported, skipped int) {
	if c == nil {
		return
	}
	c.importedRows.Add(uint64(imported))
	c.skippedRows.Add(uint64(skipped))
}

func (c *Collector) RecordExport() {
	if c == nil {
		return
	}
	c.exports.Add(1)
}

func (c *Collector) RecordCache(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.cacheHits.Add(1)
		return
	}
	c.cacheMisses.Add(1)
}

func (c *Collector) Snapshot() map[string]any {
	total := c.totalRequests.Load()
	totalMs := c.totalDurationMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":      total,
		"errorsTotal":        c.errorRequests.Load(),
		"rateLimitedTotal":   c.rateLimited.Load(),
		"avgDurationMs":      avg,
		"totalDurationMs":    totalMs,
		"importedRowsTotal":  c.importedRows.Load(),
		"skippedRowsTotal":   c.skippedRows.Load(),
		"exportsTotal":       c.exports.Load(),
		"analyticsCacheHits": c.cacheHits.Load(),
		"analyticsCacheMiss": c.cacheMisses.Load(),
	}
}
