package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vmeet_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vmeet_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Directory metrics
	DirectoryOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vmeet_directory_operations_total",
			Help: "Room directory operations by outcome",
		},
		[]string{"op", "result"}, // result: "ok", "error" or "not_found"
	)

	VisibleRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vmeet_visible_rooms",
			Help: "Rooms returned by the most recent listing",
		},
	)

	RoomsCompacted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vmeet_rooms_compacted_total",
			Help: "Expired rooms physically removed by compaction",
		},
	)

	ChangeNotifications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vmeet_change_notifications_total",
			Help: "Change notifications published",
		},
	)

	EventStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vmeet_event_streams",
			Help: "Open websocket change streams",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vmeet_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	// Infrastructure metrics
	StorageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vmeet_storage_latency_seconds",
			Help:    "Key-value store operation latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"op"},
	)
)
