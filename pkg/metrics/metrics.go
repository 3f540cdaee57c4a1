package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Push results recorded on NotificationsPushed.
const (
	PushDelivered = "delivered"
	PushOffline   = "offline"
)

var (
	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campus_live_connections",
		Help: "Number of authenticated live connections",
	})

	LiveAuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_live_auth_failures_total",
		Help: "Live connections closed because the first frame did not authenticate",
	})

	NotificationsPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_notifications_persisted_total",
		Help: "Notifications written to the store, by type",
	}, []string{"type"})

	NotificationsPushed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_notifications_pushed_total",
		Help: "Live push attempts, by result",
	}, []string{"result"})

	RSVPs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_rsvps_total",
		Help: "RSVP mutations, by kind (attending, interested, cancelled)",
	}, []string{"kind"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_rate_limited_total",
		Help: "Requests rejected by a rate limit, by scope",
	}, []string{"scope"})
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
