package metric

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

// DBStatsCollector reports database/sql pool statistics at scrape time.
type DBStatsCollector struct {
	stats func() sql.DBStats

	open    *prometheus.Desc
	inUse   *prometheus.Desc
	idle    *prometheus.Desc
	waits   *prometheus.Desc
	waitDur *prometheus.Desc
}

// NewDBStatsCollector creates a collector reading stats on every scrape.
// driver is attached as a constant label.
func NewDBStatsCollector(driver string, stats func() sql.DBStats) *DBStatsCollector {
	labels := prometheus.Labels{"driver": driver}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "db", name), help, nil, labels)
	}
	return &DBStatsCollector{
		stats:   stats,
		open:    desc("open_connections", "Established connections, in use and idle"),
		inUse:   desc("in_use_connections", "Connections currently in use"),
		idle:    desc("idle_connections", "Idle connections"),
		waits:   desc("wait_count_total", "Connections waited for"),
		waitDur: desc("wait_duration_seconds_total", "Time blocked waiting for a connection"),
	}
}

// Describe implements prometheus.Collector.
func (c *DBStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.open
	ch <- c.inUse
	ch <- c.idle
	ch <- c.waits
	ch <- c.waitDur
}

// Collect implements prometheus.Collector.
func (c *DBStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(c.open, prometheus.GaugeValue, float64(s.OpenConnections))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(s.InUse))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.Idle))
	ch <- prometheus.MustNewConstMetric(c.waits, prometheus.CounterValue, float64(s.WaitCount))
	ch <- prometheus.MustNewConstMetric(c.waitDur, prometheus.CounterValue, s.WaitDuration.Seconds())
}
