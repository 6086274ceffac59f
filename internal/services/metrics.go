package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Gautam-813/gauravphotoviewer/internal/models"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Ingestion metrics
	UpdatesReceived   prometheus.Counter
	ImagesAdded       *prometheus.CounterVec // by provenance: live/history/manual/test
	DuplicatesSkipped prometheus.Counter
	ResolveFailures   prometheus.Counter

	// Backfill metrics
	BackfillRuns  *prometheus.CounterVec // by outcome: "ok" or "error"
	BackfillPages prometheus.Counter
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// InitMetrics initializes the Prometheus metrics. promauto registers with
// the default registry, so this is a process-wide singleton.
func InitMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			UpdatesReceived: promauto.NewCounter(prometheus.CounterOpts{
				Name: "gallery_updates_received_total",
				Help: "Total number of webhook updates received",
			}),
			ImagesAdded: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "gallery_images_added_total",
				Help: "Total number of image records added, by provenance",
			}, []string{"provenance"}),
			DuplicatesSkipped: promauto.NewCounter(prometheus.CounterOpts{
				Name: "gallery_duplicates_skipped_total",
				Help: "Total number of images skipped because the file_id was already recorded",
			}),
			ResolveFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "gallery_resolve_failures_total",
				Help: "Total number of getFile resolution failures",
			}),
			BackfillRuns: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "gallery_backfill_runs_total",
				Help: "Total number of backfill runs, by outcome",
			}, []string{"outcome"}),
			BackfillPages: promauto.NewCounter(prometheus.CounterOpts{
				Name: "gallery_backfill_pages_total",
				Help: "Total number of getUpdates pages drained during backfill",
			}),
		}
	})
	return globalMetrics
}

// Services tolerate a nil *Metrics so tests can skip registration; these
// helpers centralize the nil checks.

func (m *Metrics) updateReceived() {
	if m != nil {
		m.UpdatesReceived.Inc()
	}
}

func (m *Metrics) imageAdded(p models.Provenance) {
	if m != nil {
		m.ImagesAdded.WithLabelValues(string(p)).Inc()
	}
}

func (m *Metrics) duplicateSkipped() {
	if m != nil {
		m.DuplicatesSkipped.Inc()
	}
}

func (m *Metrics) resolveFailed() {
	if m != nil {
		m.ResolveFailures.Inc()
	}
}

func (m *Metrics) backfillRun(outcome string) {
	if m != nil {
		m.BackfillRuns.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) backfillPage() {
	if m != nil {
		m.BackfillPages.Inc()
	}
}
