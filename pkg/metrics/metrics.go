// Package metrics records what an import did using Prometheus metrics.
//
// Each import run owns a Collector with a private registry, so metrics of
// one run never leak into another and a run can be dumped to a node
// exporter textfile when it finishes.
//
// # Basic Usage
//
//	collector := metrics.NewCollector()
//	collector.LineRead("bench.log")
//	timer := metrics.NewTimer("insert")
//	insertRow()
//	collector.ObserveInsert(timer.Stop())
//	_ = collector.WriteTextfile("/var/lib/node_exporter/importdata.prom")
package metrics

import (
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/ajitpratap0/importdata/pkg/errors"
)

const namespace = "importdata"

// Statement kinds counted by StatementExecuted.
const (
	StatementBegin    = "begin"
	StatementCreate   = "create"
	StatementDrop     = "drop"
	StatementInsert   = "insert"
	StatementCommit   = "commit"
	StatementRollback = "rollback"
)

// Collector holds the metrics of one import run.
type Collector struct {
	registry *prometheus.Registry

	linesRead     *prometheus.CounterVec // lines read per source
	rowsInserted  prometheus.Counter     // rows inserted
	duplicates    prometheus.Counter     // lines skipped as duplicates
	statements    *prometheus.CounterVec // statements by kind
	insertLatency prometheus.Histogram   // insert round trip
	columns       prometheus.Gauge       // columns in the table
	throughput    prometheus.Gauge       // rows per second
	residentBytes prometheus.Gauge       // RSS at the end of the run
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		linesRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_read_total",
			Help:      "Accepted input lines, per source",
		}, []string{"source"}),
		rowsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_inserted_total",
			Help:      "Rows inserted into the target table",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_lines_total",
			Help:      "Lines skipped because their text was already imported",
		}),
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statements_total",
			Help:      "SQL statements executed, by kind",
		}, []string{"kind"}),
		insertLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "insert_duration_seconds",
			Help:      "Latency of single row inserts",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 10),
		}),
		columns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "columns",
			Help:      "Distinct columns of the target table",
		}),
		throughput: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_per_second",
			Help:      "Insert throughput of the run",
		}),
		residentBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resident_memory_bytes",
			Help:      "Resident set size at the end of the run",
		}),
	}

	c.registry.MustRegister(
		c.linesRead,
		c.rowsInserted,
		c.duplicates,
		c.statements,
		c.insertLatency,
		c.columns,
		c.throughput,
		c.residentBytes,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// LineRead counts an accepted line of source.
func (c *Collector) LineRead(source string) {
	c.linesRead.WithLabelValues(source).Inc()
}

// RowInserted counts an inserted row.
func (c *Collector) RowInserted() {
	c.rowsInserted.Inc()
}

// DuplicateSkipped counts a skipped duplicate line.
func (c *Collector) DuplicateSkipped() {
	c.duplicates.Inc()
}

// StatementExecuted counts a statement of the given kind.
func (c *Collector) StatementExecuted(kind string) {
	c.statements.WithLabelValues(kind).Inc()
}

// ObserveInsert records the latency of one insert.
func (c *Collector) ObserveInsert(d time.Duration) {
	c.insertLatency.Observe(d.Seconds())
}

// SetColumns records the number of table columns.
func (c *Collector) SetColumns(n int) {
	c.columns.Set(float64(n))
}

// SetThroughput records rows per second.
func (c *Collector) SetThroughput(rowsPerSec float64) {
	c.throughput.Set(rowsPerSec)
}

// RecordResourceUsage samples this process and records its RSS.
func (c *Collector) RecordResourceUsage() (ResourceUsage, error) {
	usage, err := SampleResourceUsage()
	if err != nil {
		return usage, err
	}
	c.residentBytes.Set(float64(usage.RSSBytes))
	return usage, nil
}

// WriteTextfile writes all metrics in the Prometheus text format.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write metrics").
			WithDetail("path", path)
	}
	return nil
}

// ResourceUsage is a sample of this process' resource consumption.
type ResourceUsage struct {
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUSeconds float64 `json:"cpu_seconds"`
}

// SampleResourceUsage reads RSS and CPU time of the current process.
func SampleResourceUsage() (ResourceUsage, error) {
	var usage ResourceUsage

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return usage, errors.Wrap(err, errors.ErrorTypeInternal, "failed to inspect process")
	}

	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return usage, errors.Wrap(err, errors.ErrorTypeInternal, "failed to read memory info")
	}
	usage.RSSBytes = memInfo.RSS

	if cpuTime, err := proc.Times(); err == nil {
		usage.CPUSeconds = cpuTime.User + cpuTime.System
	}
	return usage, nil
}

// Timer provides simple timing functionality for measuring operation duration.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates and starts a new timer.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer's name.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker tracks rows per second over time windows and reports
// them to a collector. Thread-safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64     // Rows since last reset
	lastReset time.Time // Time of last reset
	collector *Collector
}

// NewThroughputTracker creates a tracker reporting to c.
func NewThroughputTracker(c *Collector) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		collector: c,
	}
}

// Increment adds n to the row count.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset returns rows per second since the last reset, updates the
// collector's gauge and starts a new window.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed

	t.count = 0
	t.lastReset = time.Now()

	if t.collector != nil {
		t.collector.SetThroughput(throughput)
	}
	return throughput
}
