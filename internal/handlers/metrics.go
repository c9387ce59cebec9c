package handlers

import (
	"fmt"
	"net/http"

	"media-inspector/internal/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxScrapes bounds concurrent /metrics requests; extra scrapes get 503.
const maxScrapes = 2

// scrapeLogger routes promhttp errors through the application logger.
type scrapeLogger struct{}

func (scrapeLogger) Println(v ...interface{}) {
	logging.Warn("metrics: %s", fmt.Sprint(v...))
}

// MetricsHandler serves the default registry. A failing collector does not
// hide the metrics that were gathered.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog:            scrapeLogger{},
		ErrorHandling:       promhttp.ContinueOnError,
		MaxRequestsInFlight: maxScrapes,
	})
}
