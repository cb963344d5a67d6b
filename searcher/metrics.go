package searcher

import (
	"sync/atomic"
	"time"
)

type MoveMetrics struct {
	StartTime    time.Time
	Duration     time.Duration
	Episodes     int64
	FullPlayouts int64 // Episodes that ended on a finished game
	Goroutines   int
}

type MetricsCollector interface {
	Start(goroutines int)
	AddFullPlayout()
	AddEpisode()
	Complete() MoveMetrics
}

type metricsCollector struct {
	startTime    time.Time
	goroutines   int
	episodes     atomic.Int64
	fullPlayouts atomic.Int64
}

func NewMetricsCollector() MetricsCollector {
	return &metricsCollector{}
}

func (m *metricsCollector) Start(goroutines int) {
	m.startTime = time.Now()
	m.goroutines = goroutines
	m.episodes.Store(0)
	m.fullPlayouts.Store(0)
}

func (m *metricsCollector) AddFullPlayout() {
	m.fullPlayouts.Add(1)
}

func (m *metricsCollector) AddEpisode() {
	m.episodes.Add(1)
}

func (m *metricsCollector) Complete() MoveMetrics {
	return MoveMetrics{
		StartTime:    m.startTime,
		Duration:     time.Since(m.startTime),
		Episodes:     m.episodes.Load(),
		FullPlayouts: m.fullPlayouts.Load(),
		Goroutines:   m.goroutines,
	}
}

type noMetricsCollector struct{}

func NewNoMetricsCollector() MetricsCollector {
	return &noMetricsCollector{}
}

func (m *noMetricsCollector) Start(int)             {}
func (m *noMetricsCollector) AddFullPlayout()       {}
func (m *noMetricsCollector) AddEpisode()           {}
func (m *noMetricsCollector) Complete() MoveMetrics { return MoveMetrics{} }
