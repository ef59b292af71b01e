package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ghlangstats"

var (
	// Registry is dedicated to this application so tests can register it safely
	Registry = prometheus.NewRegistry()

	// GithubRequests counts calls made to github, by endpoint and result (ok, error, rate_limited)
	GithubRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "github_requests_total",
		Help:      "Number of requests sent to the github API.",
	}, []string{"endpoint", "result"})

	// Rankings counts aggregation runs, by outcome (ok, empty_dataset, invalid_weight)
	Rankings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rankings_total",
		Help:      "Number of language rankings computed.",
	}, []string{"outcome"})
)

func init() {
	Registry.MustRegister(
		GithubRequests,
		Rankings,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the /metrics scrape endpoint
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
