package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// PoolStats is implemented by the database pool.
type PoolStats interface {
	Ping(ctx context.Context) error
	Health() map[string]any
}

// PoolCollector exports database reachability and connection pool gauges
// at scrape time.
type PoolCollector struct {
	db      PoolStats
	timeout time.Duration
	logger  zerolog.Logger

	up       *prometheus.Desc
	total    *prometheus.Desc
	acquired *prometheus.Desc
	idle     *prometheus.Desc
	max      *prometheus.Desc
}

// NewPoolCollector creates a collector for db. Register it with the same
// registry as the other collectors.
func NewPoolCollector(db PoolStats, logger zerolog.Logger) *PoolCollector {
	return &PoolCollector{
		db:      db,
		timeout: 2 * time.Second,
		logger:  logger.With().Str("component", "pool_collector").Logger(),
		up: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "database", "up"),
			"Database reachability (1 = reachable, 0 = unreachable).",
			nil, nil,
		),
		total: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "connections_total"),
			"Total number of connections in the pool.",
			nil, nil,
		),
		acquired: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "connections_acquired"),
			"Number of currently acquired connections.",
			nil, nil,
		),
		idle: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "connections_idle"),
			"Number of idle connections.",
			nil, nil,
		),
		max: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "connections_max"),
			"Maximum number of connections in the pool.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.up
	ch <- c.total
	ch <- c.acquired
	ch <- c.idle
	ch <- c.max
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	up := 1.0
	if err := c.db.Ping(ctx); err != nil {
		up = 0
		c.logger.Warn().Err(err).Msg("database ping failed for metrics")
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, up)

	stats := c.db.Health()
	for desc, key := range map[*prometheus.Desc]string{
		c.total:    "total_conns",
		c.acquired: "acquired_conns",
		c.idle:     "idle_conns",
		c.max:      "max_conns",
	} {
		if v, ok := stats[key].(int32); ok {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(v))
		}
	}
}
