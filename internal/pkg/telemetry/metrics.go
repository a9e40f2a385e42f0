package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Pipeline
	MetricJobQueueDepth   = "routing.job_queue_depth"
	MetricJobDuration     = "routing.job_duration_seconds"
	MetricSegmentCacheHit = "overpass.segment_cache_hit_ratio"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricRoutesComputed    = "business.routes_computed"
	MetricMonumentsRoutable = "business.monuments_routable_ratio"
)
