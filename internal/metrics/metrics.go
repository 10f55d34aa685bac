package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "apt_trade"

// Pipeline holds the metrics of one ingestion or summary run
type Pipeline struct {
	registry *prometheus.Registry

	Partitions     *prometheus.CounterVec
	NewRecords     prometheus.Counter
	TotalTxns      prometheus.Gauge
	ReportEntries  *prometheus.GaugeVec
	SidoFailures   *prometheus.CounterVec
	HistoryWrites  prometheus.Counter
	IDCollisions   prometheus.Counter
	RunDuration    prometheus.Gauge
	LastSuccessRun prometheus.Gauge
}

func NewPipeline() *Pipeline {
	p := &Pipeline{
		registry: prometheus.NewRegistry(),
		Partitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partitions_total",
			Help:      "Partitions handled during the run, by outcome.",
		}, []string{"outcome"}),
		NewRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "new_records_total",
			Help:      "Transactions first seen during the run.",
		}),
		TotalTxns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_transactions",
			Help:      "Transactions stored across all retained partitions.",
		}),
		ReportEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "report_entries",
			Help:      "Entries published per province and report.",
		}, []string{"sido", "report"}),
		SidoFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sido_failures_total",
			Help:      "Provinces omitted from the summary because of an error.",
		}, []string{"sido"}),
		HistoryWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_artifacts_total",
			Help:      "Price history artifacts written.",
		}),
		IDCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "apartment_id_collisions_total",
			Help:      "Apartment identifiers shared by different cohorts.",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run.",
		}),
		LastSuccessRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}

	p.registry.MustRegister(
		p.Partitions,
		p.NewRecords,
		p.TotalTxns,
		p.ReportEntries,
		p.SidoFailures,
		p.HistoryWrites,
		p.IDCollisions,
		p.RunDuration,
		p.LastSuccessRun,
	)
	return p
}

func (p *Pipeline) Registry() *prometheus.Registry {
	return p.registry
}

// Handler exposes the pipeline registry
func (p *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Push sends the registry to a Pushgateway
func (p *Pipeline) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(p.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}

// HTTP holds request metrics of the API server
type HTTP struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTP() *HTTP {
	h := &HTTP{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	h.registry.MustRegister(
		h.requests,
		h.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return h
}

// Middleware records every request under its route pattern
func (h *HTTP) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		h.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		h.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (h *HTTP) Handler() http.Handler {
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
}
