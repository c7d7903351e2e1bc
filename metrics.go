package lazycache

// Metric names reported to stats.Tracker.
const (
	MetricHit     = "cache_hit"
	MetricMiss    = "cache_miss"
	MetricStale   = "cache_stale"
	MetricRefresh = "cache_refresh"
	MetricBuild   = "cache_build"
	MetricFailed  = "cache_failed"
	MetricWrite   = "cache_write"
	MetricExpired = "cache_expired"
	MetricItems   = "cache_items"
)
