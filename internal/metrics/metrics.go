package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultMaxLatencySamples = 1000

// Config はメトリクスの設定
type Config struct {
	Namespace         string // Prometheus の namespace
	Subsystem         string // Prometheus の subsystem
	MaxLatencySamples int    // P99 計算用に保持するサンプル数
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Namespace:         "yarws",
		Subsystem:         "pool",
		MaxLatencySamples: defaultMaxLatencySamples,
	}
}

// PoolMetrics はワーカープールのジョブ統計を収集する
type PoolMetrics struct {
	submitted   atomic.Uint64
	completed   atomic.Uint64
	discarded   atomic.Uint64
	busy        atomic.Int64
	live        atomic.Int64
	totalTimeNs atomic.Uint64

	mu                sync.RWMutex
	startTime         time.Time
	latencies         []time.Duration
	maxLatencySamples int

	jobsSubmitted prometheus.Counter
	jobsCompleted prometheus.Counter
	jobsDiscarded prometheus.Counter
	busyWorkers   prometheus.Gauge
	liveWorkers   prometheus.Gauge
	jobDuration   prometheus.Histogram
}

// New はデフォルト設定でメトリクスを作成する
func New() *PoolMetrics {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig は設定を指定してメトリクスを作成する
func NewWithConfig(config Config) *PoolMetrics {
	maxSamples := config.MaxLatencySamples
	if maxSamples <= 0 {
		maxSamples = defaultMaxLatencySamples
	}

	return &PoolMetrics{
		startTime:         time.Now(),
		latencies:         make([]time.Duration, 0, maxSamples),
		maxLatencySamples: maxSamples,

		jobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "jobs_submitted_total",
			Help:      "Total number of jobs submitted to the pool",
		}),
		jobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "jobs_completed_total",
			Help:      "Total number of jobs that ran to completion",
		}),
		jobsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "jobs_discarded_total",
			Help:      "Jobs still queued when the pool shut down",
		}),
		busyWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "busy_workers",
			Help:      "Workers currently executing a job",
		}),
		liveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "live_workers",
			Help:      "Worker goroutines that have not exited yet",
		}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "job_duration_seconds",
			Help:      "Histogram of job execution time",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Register は Prometheus のコレクタを登録する
func (m *PoolMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *PoolMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.jobsSubmitted,
		m.jobsCompleted,
		m.jobsDiscarded,
		m.busyWorkers,
		m.liveWorkers,
		m.jobDuration,
	}
}

// WorkerStarted はワーカーの起動を記録する
func (m *PoolMetrics) WorkerStarted(_ int) {
	m.live.Add(1)
	m.liveWorkers.Inc()
}

// WorkerStopped はワーカーの終了を記録する
func (m *PoolMetrics) WorkerStopped(_ int) {
	m.live.Add(-1)
	m.liveWorkers.Dec()
}

// JobSubmitted はジョブの投入を記録する
func (m *PoolMetrics) JobSubmitted() {
	m.submitted.Add(1)
	m.jobsSubmitted.Inc()
}

// JobStarted はジョブの実行開始を記録する
func (m *PoolMetrics) JobStarted(_ int) {
	m.busy.Add(1)
	m.busyWorkers.Inc()
}

// JobFinished はジョブの完了と実行時間を記録する
func (m *PoolMetrics) JobFinished(_ int, d time.Duration) {
	m.busy.Add(-1)
	m.busyWorkers.Dec()
	m.completed.Add(1)
	m.jobsCompleted.Inc()
	m.totalTimeNs.Add(uint64(d.Nanoseconds()))
	m.jobDuration.Observe(d.Seconds())

	m.mu.Lock()
	if len(m.latencies) < m.maxLatencySamples {
		m.latencies = append(m.latencies, d)
	}
	m.mu.Unlock()
}

// JobsDiscarded はシャットダウン時に破棄されたジョブ数を記録する
func (m *PoolMetrics) JobsDiscarded(n int) {
	if n <= 0 {
		return
	}
	m.discarded.Add(uint64(n))
	m.jobsDiscarded.Add(float64(n))
}

// Submitted は投入されたジョブ数を返す
func (m *PoolMetrics) Submitted() uint64 {
	return m.submitted.Load()
}

// Completed は完了したジョブ数を返す
func (m *PoolMetrics) Completed() uint64 {
	return m.completed.Load()
}

// Discarded は破棄されたジョブ数を返す
func (m *PoolMetrics) Discarded() uint64 {
	return m.discarded.Load()
}

// Busy は実行中のワーカー数を返す
func (m *PoolMetrics) Busy() int64 {
	return m.busy.Load()
}

// Live は稼働中のワーカー数を返す
func (m *PoolMetrics) Live() int64 {
	return m.live.Load()
}

// AverageDuration は平均実行時間を返す
func (m *PoolMetrics) AverageDuration() time.Duration {
	total := m.completed.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.totalTimeNs.Load() / total)
}

// P99Duration は P99 実行時間を返す（サンプルベース）
func (m *PoolMetrics) P99Duration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.latencies) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Snapshot はメトリクスのスナップショット
type Snapshot struct {
	Submitted       uint64
	Completed       uint64
	Discarded       uint64
	Busy            int64
	Live            int64
	AverageDuration time.Duration
	P99Duration     time.Duration
	Elapsed         time.Duration
}

// Snapshot は現在のメトリクスのスナップショットを返す
func (m *PoolMetrics) Snapshot() Snapshot {
	return Snapshot{
		Submitted:       m.Submitted(),
		Completed:       m.Completed(),
		Discarded:       m.Discarded(),
		Busy:            m.Busy(),
		Live:            m.Live(),
		AverageDuration: m.AverageDuration(),
		P99Duration:     m.P99Duration(),
		Elapsed:         time.Since(m.startTime),
	}
}
