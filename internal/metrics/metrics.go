// Package metrics provides Prometheus metrics for the portfolio service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portfolio"

var (
	// ImageOptimizations counts optimizer runs by outcome or error code.
	ImageOptimizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_optimizations_total",
			Help:      "Total number of image optimizations by outcome",
		},
		[]string{"outcome"},
	)

	// ProjectActions counts project mutations by action and result.
	ProjectActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "project_actions_total",
			Help:      "Total number of project actions",
		},
		[]string{"action", "result"},
	)

	// GitHubLookups counts repository stats lookups by source.
	GitHubLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "github_lookups_total",
			Help:      "Total number of GitHub stats lookups",
		},
		[]string{"source"},
	)
)

// RecordImageOptimization records one optimizer outcome.
func RecordImageOptimization(outcome string) {
	ImageOptimizations.WithLabelValues(outcome).Inc()
}

// RecordProjectAction records one project action result.
func RecordProjectAction(action, result string) {
	ProjectActions.WithLabelValues(action, result).Inc()
}

// RecordGitHubLookup records where stats came from: cache, api or error.
func RecordGitHubLookup(source string) {
	GitHubLookups.WithLabelValues(source).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
