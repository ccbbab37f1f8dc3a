package ami

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	managerActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phone_services",
			Name:      "manager_actions_total",
			Help:      "Total manager actions executed.",
		},
		[]string{"action", "status"}, // status: "ok", "timeout", "connection", "protocol", "auth", "error"
	)

	managerActionDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "phone_services",
			Name:      "manager_action_duration_seconds",
			Help:      "Duration of manager actions.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	managerConnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phone_services",
			Name:      "manager_connects_total",
			Help:      "Total manager connection attempts.",
		},
		[]string{"status"},
	)

	managerProtocolErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "phone_services",
			Name:      "manager_protocol_errors_total",
			Help:      "Total malformed or misattributed manager frames.",
		},
	)

	managerPoolDials = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "phone_services",
			Name:      "manager_pool_dials_total",
			Help:      "Total fresh connections dialed by the pool.",
		},
	)
)

func observeAction(action string, start time.Time, err error) {
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrTimeout):
		status = "timeout"
	case errors.Is(err, ErrProtocol):
		status = "protocol"
	case errors.Is(err, ErrAuth):
		status = "auth"
	case errors.Is(err, ErrConnection):
		status = "connection"
	default:
		status = "error"
	}
	managerActionsTotal.WithLabelValues(action, status).Inc()
	managerActionDurationHist.WithLabelValues(action).Observe(time.Since(start).Seconds())
}
