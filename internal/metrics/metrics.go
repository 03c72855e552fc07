package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	Votes               *prometheus.CounterVec
	PollVotes           prometheus.Counter
	EventsPublished     *prometheus.CounterVec
	EventsHandled       *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	this := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "geofeed",
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status.",
			},
			[]string{"route", "method", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "geofeed",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route and method.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		Votes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "geofeed",
				Name:      "votes_total",
				Help:      "Votes applied by target kind and outcome.",
			},
			[]string{"target", "outcome"},
		),
		PollVotes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "geofeed",
				Name:      "poll_votes_total",
				Help:      "Poll votes recorded.",
			},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "geofeed",
				Name:      "events_published_total",
				Help:      "Broker events published by name and result.",
			},
			[]string{"event", "result"},
		),
		EventsHandled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "geofeed",
				Name:      "events_handled_total",
				Help:      "Broker events consumed by the worker by name and result.",
			},
			[]string{"event", "result"},
		),
	}

	registry.MustRegister(
		this.HTTPRequests,
		this.HTTPRequestDuration,
		this.Votes,
		this.PollVotes,
		this.EventsPublished,
		this.EventsHandled,
	)

	return this
}

func (this *Metrics) Registry() *prometheus.Registry {
	return this.registry
}

// Handler exposes the registry in the prometheus text format.
func (this *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(this.registry, promhttp.HandlerOpts{Registry: this.registry})
}

// Result labels an operation outcome.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
