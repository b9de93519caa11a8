package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gigsos"

var (
	// Registry - коллекторы приложения
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms .. ~5s
		},
		[]string{"method", "route"},
	)

	jobTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "transitions_total",
			Help:      "Job state transitions by target status.",
		},
		[]string{"transition", "to"},
	)

	sosTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sos",
			Name:      "transitions_total",
			Help:      "SOS state transitions by target status.",
		},
		[]string{"to"},
	)

	pointsAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "points",
			Name:      "awarded_total",
			Help:      "Points credited to users by reason.",
		},
		[]string{"reason"},
	)

	pointsFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "points",
			Name:      "failures_total",
			Help:      "Point awards that failed after the triggering transition committed.",
		},
		[]string{"reason"},
	)

	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Notifications persisted by type.",
		},
		[]string{"type"},
	)

	notificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "failures_total",
			Help:      "Notifications that could not be persisted.",
		},
		[]string{"type"},
	)

	moderationActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "actions_total",
			Help:      "Admin actions recorded by type.",
		},
		[]string{"action"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		},
	)

	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Open websocket connections.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		jobTransitions,
		sosTransitions,
		pointsAwarded,
		pointsFailures,
		notificationsSent,
		notificationFailures,
		moderationActions,
		rateLimited,
		wsConnections,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler - /metrics
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func IncInFlight() { httpInFlight.Inc() }
func DecInFlight() { httpInFlight.Dec() }

// ObserveHTTP записывает запрос; route - шаблон gin ("/api/v1/jobs/:id"), не сырой путь
func ObserveHTTP(method, route, status string, seconds float64) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func RecordJobTransition(transition, to string) {
	jobTransitions.WithLabelValues(transition, to).Inc()
}

func RecordSOSTransition(to string) {
	sosTransitions.WithLabelValues(to).Inc()
}

func RecordPointsAwarded(reason string, delta int64) {
	if delta <= 0 {
		return
	}
	pointsAwarded.WithLabelValues(reason).Add(float64(delta))
}

func RecordPointsFailure(reason string) {
	pointsFailures.WithLabelValues(reason).Inc()
}

func RecordNotification(notificationType string, err error) {
	if err != nil {
		notificationFailures.WithLabelValues(notificationType).Inc()
		return
	}
	notificationsSent.WithLabelValues(notificationType).Inc()
}

func RecordModerationAction(action string) {
	moderationActions.WithLabelValues(action).Inc()
}

func RecordRateLimited() {
	rateLimited.Inc()
}

func SetWSConnections(n int) {
	wsConnections.Set(float64(n))
}
