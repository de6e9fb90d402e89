package cache

// Metrics exposes cache-level observability hooks. Implementations must be
// safe for concurrent use. A NoopMetrics is used when none is configured.
type Metrics interface {
	Hit()
	Miss()
	Removal(reason RemovalReason)
	Size(entries int, weight int64)
}

// NoopMetrics is a drop-in Metrics implementation that does nothing.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                           {}
func (NoopMetrics) Miss()                          {}
func (NoopMetrics) Removal(RemovalReason)          {}
func (NoopMetrics) Size(entries int, weight int64) {}

var _ Metrics = NoopMetrics{}
