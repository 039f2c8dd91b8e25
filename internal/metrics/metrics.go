package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bpair"

// Metrics records session lifecycle events and pairing search cost.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	matches       *prometheus.CounterVec
	staleStarts   prometheus.Counter
	autoPairs     *prometheus.CounterVec
	candidates    prometheus.Histogram
	playersAdded  prometheus.Counter
	importRecords *prometheus.CounterVec
}

// Match lifecycle outcomes
const (
	MatchStarted   = "started"
	MatchEnded     = "ended"
	MatchCancelled = "cancelled"
)

// Auto-pair outcomes
const (
	AutoPairProposed     = "proposed"
	AutoPairNoCourt      = "no_court"
	AutoPairInsufficient = "insufficient_players"
)

// New creates collectors on a dedicated registry, together with the Go
// runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Court matches by lifecycle transition.",
		}, []string{"transition"}),
		staleStarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_starts_total",
			Help:      "Starts refused because a proposed player was no longer waiting.",
		}),
		autoPairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auto_pair_total",
			Help:      "Auto-pair requests by outcome.",
		}, []string{"outcome"}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pairing_candidates_evaluated",
			Help:      "Candidates scored per pairing search.",
			Buckets:   prometheus.ExponentialBuckets(3, 4, 8),
		}),
		playersAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "players_added_total",
			Help:      "Players added to the roster, including imports.",
		}),
		importRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_records_total",
			Help:      "Bulk import records by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.matches,
		m.staleStarts,
		m.autoPairs,
		m.candidates,
		m.playersAdded,
		m.importRecords,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Match counts a court lifecycle transition
func (m *Metrics) Match(transition string) {
	if m == nil {
		return
	}
	m.matches.WithLabelValues(transition).Inc()
}

// StaleStart counts a start refused for stale players
func (m *Metrics) StaleStart() {
	if m == nil {
		return
	}
	m.staleStarts.Inc()
}

// AutoPair counts an auto-pair request
func (m *Metrics) AutoPair(outcome string) {
	if m == nil {
		return
	}
	m.autoPairs.WithLabelValues(outcome).Inc()
}

// Search observes the number of candidates one search scored
func (m *Metrics) Search(candidates int) {
	if m == nil {
		return
	}
	m.candidates.Observe(float64(candidates))
}

// PlayersAdded counts new roster entries
func (m *Metrics) PlayersAdded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.playersAdded.Add(float64(n))
}

// ImportRecords counts bulk import records with the given result
func (m *Metrics) ImportRecords(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importRecords.WithLabelValues(result).Add(float64(n))
}
