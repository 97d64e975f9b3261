package ledger

// MetricsCollector receives ledger activity for monitoring.
type MetricsCollector interface {
	RecordError(operation, errType string)
	RecordBalanceChange(userID uint, field string, delta int64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordError(string, string)              {}
func (n *NoopMetricsCollector) RecordBalanceChange(uint, string, int64) {}
