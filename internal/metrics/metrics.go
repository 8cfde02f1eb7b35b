package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal  *prometheus.CounterVec
	votesTotal         *prometheus.CounterVec
	casConflictsTotal  prometheus.Counter
	pollsExpiredTotal  prometheus.Counter
	liveSubscribers    prometheus.Gauge
	subscribersDropped prometheus.Counter
	snapshotsPublished prometheus.Counter
	registerOnce       sync.Once
)

// Register initializes Prometheus metrics on the default registry. Until it is
// called every helper in this package is a no-op.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livepoll",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the poll API.",
		}, []string{"method", "path", "status"})
		votesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livepoll",
			Name:      "votes_total",
			Help:      "Vote attempts by outcome.",
		}, []string{"result"})
		casConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "livepoll",
			Name:      "cas_conflicts_total",
			Help:      "Optimistic concurrency conflicts observed while saving polls.",
		})
		pollsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "livepoll",
			Name:      "polls_expired_total",
			Help:      "Polls moved to expired by the lifecycle scheduler.",
		})
		liveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "livepoll",
			Name:      "live_subscribers",
			Help:      "Currently connected live result subscribers.",
		})
		subscribersDropped = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "livepoll",
			Name:      "live_subscribers_dropped_total",
			Help:      "Live subscribers disconnected because their queue was full.",
		})
		snapshotsPublished = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "livepoll",
			Name:      "snapshots_published_total",
			Help:      "Poll snapshots handed to the broadcaster.",
		})
	})
}

func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func IncVote(result string) {
	if votesTotal == nil {
		return
	}
	votesTotal.WithLabelValues(result).Inc()
}

func IncConflict() {
	if casConflictsTotal == nil {
		return
	}
	casConflictsTotal.Inc()
}

func IncExpired() {
	if pollsExpiredTotal == nil {
		return
	}
	pollsExpiredTotal.Inc()
}

func AddSubscribers(delta float64) {
	if liveSubscribers == nil {
		return
	}
	liveSubscribers.Add(delta)
}

func IncDropped() {
	if subscribersDropped == nil {
		return
	}
	subscribersDropped.Inc()
}

func IncPublished() {
	if snapshotsPublished == nil {
		return
	}
	snapshotsPublished.Inc()
}
