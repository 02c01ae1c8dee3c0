package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics - счётчики обхода на собственном реестре, чтобы тесты не делили глобальный.
type Metrics struct {
	Registry *prometheus.Registry

	fetched     *prometheus.CounterVec
	fresh       *prometheus.CounterVec
	notified    *prometheus.CounterVec
	failed      *prometheus.CounterVec
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	lastSuccess *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.fetched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "noticebot",
		Name:      "notices_fetched_total",
		Help:      "Notices parsed from listing pages",
	}, []string{"source"})
	m.fresh = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "noticebot",
		Name:      "notices_new_total",
		Help:      "Notices not seen before",
	}, []string{"source"})
	m.notified = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "noticebot",
		Name:      "notices_notified_total",
		Help:      "Notices delivered and committed",
	}, []string{"source"})
	m.failed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "noticebot",
		Name:      "notices_failed_total",
		Help:      "Notices whose delivery or commit failed",
	}, []string{"source"})
	m.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "noticebot",
		Name:      "source_runs_total",
		Help:      "Source crawls by terminal status",
	}, []string{"source", "status"})
	m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "noticebot",
		Name:      "run_duration_seconds",
		Help:      "Duration of a full crawl pass",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
	})
	m.lastSuccess = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "noticebot",
		Name:      "source_last_success_timestamp_seconds",
		Help:      "Unix time of the last successful crawl per source",
	}, []string{"source"})

	m.Registry.MustRegister(
		m.fetched, m.fresh, m.notified, m.failed,
		m.runs, m.runDuration, m.lastSuccess,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSource учитывает итог обхода одного источника.
func (m *Metrics) ObserveSource(source, status string, fetched, fresh, notified, failed int) {
	m.fetched.WithLabelValues(source).Add(float64(fetched))
	m.fresh.WithLabelValues(source).Add(float64(fresh))
	m.notified.WithLabelValues(source).Add(float64(notified))
	m.failed.WithLabelValues(source).Add(float64(failed))
	m.runs.WithLabelValues(source, status).Inc()
	if status == "done" {
		m.lastSuccess.WithLabelValues(source).SetToCurrentTime()
	}
}

func (m *Metrics) ObserveRun(d time.Duration) {
	m.runDuration.Observe(d.Seconds())
}

// Handler отдаёт /metrics для этого реестра.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
