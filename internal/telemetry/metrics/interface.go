package metrics

import (
	"context"
)

// Custom type to represent a metric name,
// providing a type-safe way to handle metric names.
type MetricName string

const (
	GenRequestReceived   MetricName = "thumbnail.request.generate"
	EvictRequestReceived MetricName = "thumbnail.request.evict"
	CacheHit             MetricName = "thumbnail.cache.hit"
	CacheMiss            MetricName = "thumbnail.cache.miss"
)

type MetricsSvc interface {
	Increment(metric MetricName, attrs map[string]string)
	Shutdown(ctx context.Context) error
}
