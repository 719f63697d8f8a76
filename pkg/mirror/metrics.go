package mirror

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus instruments for mirror builds.
//
// Metrics exposed (namespace configurable, default "statica"):
//   - statica_mirror_pages_written_total: pages written, by locale
//   - statica_mirror_bytes_written_total: body bytes written, by locale
//   - statica_mirror_page_errors_total: failed pages, by locale and stage
//   - statica_mirror_build_duration_seconds: whole-build duration
type metrics struct {
	pagesWritten  *prometheus.CounterVec
	bytesWritten  *prometheus.CounterVec
	pageErrors    *prometheus.CounterVec
	buildDuration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer, namespace string) *metrics {
	if namespace == "" {
		namespace = "statica"
	}
	factory := promauto.With(reg)

	return &metrics{
		pagesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mirror",
			Name:      "pages_written_total",
			Help:      "Total number of pages written to the mirror store",
		}, []string{"locale"}),

		bytesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mirror",
			Name:      "bytes_written_total",
			Help:      "Total body bytes written to the mirror store",
		}, []string{"locale"}),

		pageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mirror",
			Name:      "page_errors_total",
			Help:      "Total number of pages that failed to materialize",
		}, []string{"locale", "stage"}),

		buildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mirror",
			Name:      "build_duration_seconds",
			Help:      "Duration of whole mirror builds in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *metrics) recordPage(locale string, bytes int) {
	if m == nil {
		return
	}
	m.pagesWritten.WithLabelValues(locale).Inc()
	m.bytesWritten.WithLabelValues(locale).Add(float64(bytes))
}

func (m *metrics) recordError(locale, stage string) {
	if m == nil {
		return
	}
	m.pageErrors.WithLabelValues(locale, stage).Inc()
}

func (m *metrics) recordBuild(seconds float64) {
	if m == nil {
		return
	}
	m.buildDuration.Observe(seconds)
}
