package metrics

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"punkdir/internal/db"
)

var (
	editsDesc = prometheus.NewDesc(
		"punkdir_edits",
		"Edit suggestions by status",
		[]string{"status"},
		nil,
	)

	reviewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "punkdir_reviews_total",
			Help: "Total review decisions by action",
		},
		[]string{"action"},
	)
)

// EditCollector is a custom Prometheus collector that reads edit counts
// from the database on each scrape.
type EditCollector struct {
	db *db.DB
}

// Describe sends the metric descriptor to the channel.
func (c *EditCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- editsDesc
}

// Collect queries the database for per-status edit counts and emits them as gauges.
func (c *EditCollector) Collect(ch chan<- prometheus.Metric) {
	counts, err := c.db.CountEditsByStatus(context.Background())
	if err != nil {
		slog.Error("failed to collect edit metrics", "error", err)
		return
	}
	for status, n := range map[string]int{
		"pending":  counts.Pending,
		"approved": counts.Approved,
		"rejected": counts.Rejected,
	} {
		ch <- prometheus.MustNewConstMetric(editsDesc, prometheus.GaugeValue, float64(n), status)
	}
}

var initOnce sync.Once

// Init registers the collectors. Must be called once at startup.
func Init(database *db.DB) {
	initOnce.Do(func() {
		prometheus.MustRegister(&EditCollector{db: database})
		prometheus.MustRegister(reviewsTotal)
	})
}

// RecordReview counts a review decision ("approve" or "reject").
func RecordReview(action string) {
	reviewsTotal.WithLabelValues(action).Inc()
}
