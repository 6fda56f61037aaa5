package reading

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// CleanMetrics records one cleaning call.
type CleanMetrics struct {
	Chunks       int
	TextLength   int
	CleanStart   time.Time
	CleanEnd     time.Time
	Duration     time.Duration
	Fallback     bool
	ErrorMessage string

	recorder *MetricsRecorder
}

// MetricsRecorder accumulates cleaning metrics for a processor.
type MetricsRecorder struct {
	logger *log.Logger

	mu        sync.Mutex
	calls     int
	fallbacks int
	total     time.Duration
	last      CleanMetrics
}

// MetricsSummary aggregates cleaning metrics.
type MetricsSummary struct {
	Calls       int
	Fallbacks   int
	AvgDuration time.Duration
	Last        CleanMetrics
}

// NewMetricsRecorder creates a recorder logging through logger.
func NewMetricsRecorder(logger *log.Logger) *MetricsRecorder {
	if logger == nil {
		logger = log.Default()
	}
	return &MetricsRecorder{logger: logger}
}

// StartClean starts tracking a cleaning call covering chunks paragraphs.
func (r *MetricsRecorder) StartClean(chunks int, text string) *CleanMetrics {
	m := &CleanMetrics{
		Chunks:     chunks,
		TextLength: len(text),
		CleanStart: time.Now(),
		recorder:   r,
	}

	r.logger.Debug("Cleaning started",
		"chunks", chunks,
		"textLength", m.TextLength)

	return m
}

// EndClean completes tracking. A non-nil err means the raw text fallback
// was used.
func (m *CleanMetrics) EndClean(err error) {
	m.CleanEnd = time.Now()
	m.Duration = m.CleanEnd.Sub(m.CleanStart)
	if err != nil {
		m.Fallback = true
		m.ErrorMessage = err.Error()
	}

	r := m.recorder
	if r == nil {
		return
	}

	r.mu.Lock()
	r.calls++
	r.total += m.Duration
	if m.Fallback {
		r.fallbacks++
	}
	r.last = *m
	r.last.recorder = nil
	r.mu.Unlock()

	if m.Fallback {
		r.logger.Warn("Cleaning failed, using raw text",
			"chunks", m.Chunks,
			"duration", m.Duration,
			"error", m.ErrorMessage)
		return
	}
	r.logger.Debug("Cleaning completed",
		"chunks", m.Chunks,
		"textLength", m.TextLength,
		"duration", m.Duration)
}

// Summary returns the aggregated metrics.
func (r *MetricsRecorder) Summary() MetricsSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := MetricsSummary{
		Calls:     r.calls,
		Fallbacks: r.fallbacks,
		Last:      r.last,
	}
	if r.calls > 0 {
		s.AvgDuration = r.total / time.Duration(r.calls)
	}
	return s
}
