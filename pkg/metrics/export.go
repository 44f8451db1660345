package metrics

import (
	"net/http"

	"contrib.go.opencensus.io/exporter/prometheus"
	"github.com/pkg/errors"
)

// Namespace prefixes every exported metric name.
const Namespace = "nearevm"

// NewPrometheusHandler returns an http.Handler serving every registered view in the
// prometheus text format.
func NewPrometheusHandler() (http.Handler, error) {
	pe, err := prometheus.NewExporter(prometheus.Options{
		Namespace: Namespace,
		OnError: func(err error) {
			log.Errorw("failed to export metrics", "err", err)
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create prometheus exporter")
	}
	return pe, nil
}
