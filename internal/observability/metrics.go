package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "remotectl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "remotectl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	commandsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "remotectl",
			Name:      "commands_sent_total",
			Help:      "Commands written to the control file.",
		},
	)
	sendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "remotectl",
			Name:      "send_failures_total",
			Help:      "Initial control file writes that failed.",
		},
	)
	commandsResent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "remotectl",
			Name:      "commands_resent_total",
			Help:      "Timeout-driven resends by write result.",
		},
		[]string{"result"},
	)
	results = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "remotectl",
			Name:      "results_total",
			Help:      "Resolved commands by outcome.",
		},
		[]string{"outcome"},
	)
	resultLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "remotectl",
			Name:      "result_latency_seconds",
			Help:      "Time from first send to resolution.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 6, 9, 12, 15},
		},
		[]string{"outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			commandsSent, sendFailures, commandsResent,
			results, resultLatency,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordCommandSent() {
	RegisterMetrics()
	commandsSent.Inc()
}

func RecordSendFailure() {
	RegisterMetrics()
	sendFailures.Inc()
}

func RecordResend(ok bool) {
	RegisterMetrics()
	label := "ok"
	if !ok {
		label = "error"
	}
	commandsResent.WithLabelValues(label).Inc()
}

func RecordResult(outcome string, latency time.Duration) {
	RegisterMetrics()
	results.WithLabelValues(outcome).Inc()
	resultLatency.WithLabelValues(outcome).Observe(latency.Seconds())
}
