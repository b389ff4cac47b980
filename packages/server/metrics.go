package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"

	"github.com/vogtb/excel-clone/packages/spreadsheet"
)

var tracer = otel.Tracer("sheetcalc.server")

// evaluation sources
const (
	sourceRequest = "request"
	sourceSheet   = "sheet"
)

var (
	evaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sheetcalc_evaluations_total",
		Help: "Total number of evaluation passes by source",
	}, []string{"source"})

	evaluationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sheetcalc_evaluation_duration_seconds",
		Help:    "Duration of evaluation passes",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"source"})

	evaluatedCells = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sheetcalc_evaluated_cells_total",
		Help: "Total number of evaluated cells by result",
	}, []string{"result"})
)

// passStats counts the outcomes of one pass
type passStats struct {
	ok, cycles, failures int
}

func statsOf(values map[string]spreadsheet.Value) passStats {
	var stats passStats
	for _, v := range values {
		switch v.Error {
		case spreadsheet.ErrorCodeCycle:
			stats.cycles++
		case spreadsheet.ErrorCodeEval:
			stats.failures++
		default:
			stats.ok++
		}
	}
	return stats
}

func recordPass(source string, stats passStats, elapsed time.Duration) {
	evaluationsTotal.WithLabelValues(source).Inc()
	evaluationDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	evaluatedCells.WithLabelValues("ok").Add(float64(stats.ok))
	evaluatedCells.WithLabelValues("cycle").Add(float64(stats.cycles))
	evaluatedCells.WithLabelValues("error").Add(float64(stats.failures))
}
