package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nawawimhz/surat-generator/utils/events"
)

// Metrics tracks QR encodings, previews, prints and exports per letter type.
type Metrics struct {
	QREncodings    *prometheus.CounterVec
	Previews       *prometheus.CounterVec
	Prints         *prometheus.CounterVec
	Exports        *prometheus.CounterVec
	ExportDuration *prometheus.HistogramVec
}

// New registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		QREncodings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "surat_qr_encodings_total",
			Help: "QR encodings by letter type and outcome (encoded, failed, discarded)",
		}, []string{"letter_type", "result"}),
		Previews: f.NewCounterVec(prometheus.CounterOpts{
			Name: "surat_previews_total",
			Help: "Letters rendered for preview",
		}, []string{"letter_type"}),
		Prints: f.NewCounterVec(prometheus.CounterOpts{
			Name: "surat_prints_total",
			Help: "Print pages served",
		}, []string{"letter_type"}),
		Exports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "surat_exports_total",
			Help: "Export attempts by letter type and outcome (success, failure, rejected)",
		}, []string{"letter_type", "result"}),
		ExportDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "surat_export_duration_seconds",
			Help:    "Duration of export sink calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"letter_type"}),
	}
}

// Observe records one render event. Pass it to events.Bus.Run.
func (m *Metrics) Observe(e events.RenderEvent) {
	lt := string(e.LetterType)
	switch e.Type {
	case events.QREncoded:
		m.QREncodings.WithLabelValues(lt, "encoded").Inc()
	case events.QRFailed:
		m.QREncodings.WithLabelValues(lt, "failed").Inc()
	case events.QRDiscarded:
		m.QREncodings.WithLabelValues(lt, "discarded").Inc()
	case events.Previewed:
		m.Previews.WithLabelValues(lt).Inc()
	case events.Printed:
		m.Prints.WithLabelValues(lt).Inc()
	case events.ExportSucceeded:
		m.Exports.WithLabelValues(lt, "success").Inc()
		m.ExportDuration.WithLabelValues(lt).Observe(e.Seconds)
	case events.ExportFailed:
		m.Exports.WithLabelValues(lt, "failure").Inc()
		m.ExportDuration.WithLabelValues(lt).Observe(e.Seconds)
	case events.ExportRejected:
		m.Exports.WithLabelValues(lt, "rejected").Inc()
	}
}
