package heatmap

import (
	"math"
	"time"
)

// Logger interface for operational logging, warnings, and error reporting.
// It is dependency-free so callers can integrate any logging backend
// (log/slog, zap, OpenTelemetry, ...) by implementing these four methods;
// ready-made adapters live in the oteladapters package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsCollector interface for collecting heatmap operational metrics.
// This interface follows the same dependency-free pattern as Logger,
// allowing users to integrate with any metrics backend (OpenTelemetry,
// Prometheus, statsd, ...) by implementing this interface.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

const labelOperation = "operation"
const labelStatus = "status"

// logOperation logs operational information at info level if the logger is configured.
func (h *Heatmap) logOperation(action string, args ...any) {
	if h.logger != nil {
		h.logger.Info(logMsgOperation+action, args...)
	}
}

// logRecordFailed logs a failed record at debug level if the logger is
// configured. Debug level because recording sits on the caller's hot path.
func (h *Heatmap) logRecordFailed(err error, t UnixNanos, value int64, count int64) {
	if h.logger != nil {
		h.logger.Debug(logMsgRecordFailed,
			logAttrError, err.Error(),
			logAttrTimestamp, t,
			logAttrValue, value,
			logAttrCount, count,
		)
	}
}

// logError logs error information at the error level if the logger is configured.
func (h *Heatmap) logError(message string, err error, args ...any) {
	if h.logger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		h.logger.Error(message, allArgs...)
	}
}

// recordErrorMetrics counts a failed record if the metrics collector is configured.
func (h *Heatmap) recordErrorMetrics(errorType string) {
	if h.metricsCollector != nil {
		h.metricsCollector.IncrementCounter(metricRecordErrors, map[string]string{
			labelStatus: errorType,
		})
	}
}

// recordDurationMetrics records an operation duration if the metrics collector is configured.
func (h *Heatmap) recordDurationMetrics(metricName string, duration time.Duration, operation string) {
	if h.metricsCollector != nil {
		h.metricsCollector.RecordDuration(metricName, duration, map[string]string{
			labelOperation: operation,
		})
	}
}

// recordValueMetrics records an operation value if the metrics collector is configured.
func (h *Heatmap) recordValueMetrics(metricName string, value float64, operation string) {
	if h.metricsCollector != nil {
		h.metricsCollector.RecordValue(metricName, value, map[string]string{
			labelOperation: operation,
		})
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
