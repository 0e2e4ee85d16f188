// Package prom provides a metrics observer for the thread library. Counters
// are kept in-process and exported through a prometheus.Collector, so the
// same observer serves both Snapshot inspection and scraping.
package prom

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	descThreadsActive = prometheus.NewDesc(
		"gothread_threads_active", "Number of currently running threads.", nil, nil)
	descThreadsSpawned = prometheus.NewDesc(
		"gothread_threads_spawned_total", "Total threads spawned.", nil, nil)
	descThreadsFinished = prometheus.NewDesc(
		"gothread_threads_finished_total", "Total threads finished.", nil, nil)
	descThreadsErrored = prometheus.NewDesc(
		"gothread_threads_errored_total", "Total threads finished with an error.", nil, nil)
	descThreadsPanicked = prometheus.NewDesc(
		"gothread_threads_panicked_total", "Total threads ended by a panic.", nil, nil)
	descThreadSeconds = prometheus.NewDesc(
		"gothread_thread_seconds_total", "Cumulative thread run time in seconds.", nil, nil)
	descPoolsCreated = prometheus.NewDesc(
		"gothread_pools_created_total", "Total pools created.", nil, nil)
	descPoolsCancelled = prometheus.NewDesc(
		"gothread_pools_cancelled_total", "Total pools cancelled.", nil, nil)
	descJoins = prometheus.NewDesc(
		"gothread_joins_total", "Total pool joins.", nil, nil)
	descJoinWaitSeconds = prometheus.NewDesc(
		"gothread_join_wait_seconds_total", "Cumulative join wait time in seconds.", nil, nil)
)

// Metrics implements the thread.Observer interface and prometheus.Collector.
type Metrics struct {
	// threads
	activeThreads   atomic.Int64
	threadsSpawned  atomic.Int64
	threadsFinished atomic.Int64
	threadsErrored  atomic.Int64
	threadsPanicked atomic.Int64
	threadDurSumNs  atomic.Int64

	// pools
	poolsCreated   atomic.Int64
	poolsCancelled atomic.Int64
	joins          atomic.Int64
	joinWaitSumNs  atomic.Int64
}

// New returns a new Metrics observer.
func New() *Metrics { return &Metrics{} }

// PoolCreated records pool creation.
func (m *Metrics) PoolCreated(_ context.Context) {
	m.poolsCreated.Add(1)
}

// PoolCancelled records pool cancellation.
func (m *Metrics) PoolCancelled(_ context.Context, _ error) {
	m.poolsCancelled.Add(1)
}

// PoolJoined records a join and accumulates wait time.
func (m *Metrics) PoolJoined(_ context.Context, wait time.Duration) {
	m.joins.Add(1)
	m.joinWaitSumNs.Add(wait.Nanoseconds())
}

// ThreadSpawned increments active and spawned counters.
func (m *Metrics) ThreadSpawned(_ string) {
	m.activeThreads.Add(1)
	m.threadsSpawned.Add(1)
}

// ThreadFinished decrements active, increments finished, and tracks
// error/panic and duration.
func (m *Metrics) ThreadFinished(_ string, dur time.Duration, err error, panicked bool) {
	m.activeThreads.Add(-1)
	m.threadsFinished.Add(1)
	if err != nil {
		m.threadsErrored.Add(1)
	}
	if panicked {
		m.threadsPanicked.Add(1)
	}
	m.threadDurSumNs.Add(dur.Nanoseconds())
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- descThreadsActive
	ch <- descThreadsSpawned
	ch <- descThreadsFinished
	ch <- descThreadsErrored
	ch <- descThreadsPanicked
	ch <- descThreadSeconds
	ch <- descPoolsCreated
	ch <- descPoolsCancelled
	ch <- descJoins
	ch <- descJoinWaitSeconds
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	s := m.GetSnapshot()
	ch <- prometheus.MustNewConstMetric(descThreadsActive, prometheus.GaugeValue, float64(s.ActiveThreads))
	ch <- prometheus.MustNewConstMetric(descThreadsSpawned, prometheus.CounterValue, float64(s.ThreadsSpawned))
	ch <- prometheus.MustNewConstMetric(descThreadsFinished, prometheus.CounterValue, float64(s.ThreadsFinished))
	ch <- prometheus.MustNewConstMetric(descThreadsErrored, prometheus.CounterValue, float64(s.ThreadsErrored))
	ch <- prometheus.MustNewConstMetric(descThreadsPanicked, prometheus.CounterValue, float64(s.ThreadsPanicked))
	ch <- prometheus.MustNewConstMetric(descThreadSeconds, prometheus.CounterValue, time.Duration(s.ThreadDurSumNs).Seconds())
	ch <- prometheus.MustNewConstMetric(descPoolsCreated, prometheus.CounterValue, float64(s.PoolsCreated))
	ch <- prometheus.MustNewConstMetric(descPoolsCancelled, prometheus.CounterValue, float64(s.PoolsCancelled))
	ch <- prometheus.MustNewConstMetric(descJoins, prometheus.CounterValue, float64(s.Joins))
	ch <- prometheus.MustNewConstMetric(descJoinWaitSeconds, prometheus.CounterValue, time.Duration(s.JoinWaitSumNs).Seconds())
}

// Snapshot exposes a copy of current metric values for exporting/inspection.
type Snapshot struct {
	ActiveThreads   int64
	ThreadsSpawned  int64
	ThreadsFinished int64
	ThreadsErrored  int64
	ThreadsPanicked int64
	ThreadDurSumNs  int64
	PoolsCreated    int64
	PoolsCancelled  int64
	Joins           int64
	JoinWaitSumNs   int64
}

// GetSnapshot returns the current metrics snapshot.
func (m *Metrics) GetSnapshot() Snapshot {
	return Snapshot{
		ActiveThreads:   m.activeThreads.Load(),
		ThreadsSpawned:  m.threadsSpawned.Load(),
		ThreadsFinished: m.threadsFinished.Load(),
		ThreadsErrored:  m.threadsErrored.Load(),
		ThreadsPanicked: m.threadsPanicked.Load(),
		ThreadDurSumNs:  m.threadDurSumNs.Load(),
		PoolsCreated:    m.poolsCreated.Load(),
		PoolsCancelled:  m.poolsCancelled.Load(),
		Joins:           m.joins.Load(),
		JoinWaitSumNs:   m.joinWaitSumNs.Load(),
	}
}
