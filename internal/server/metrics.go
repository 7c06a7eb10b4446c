package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tordrt/schemagen/internal/schema"
	"github.com/tordrt/schemagen/internal/store"
)

var Generations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "schemagen_generations_total",
	Help: "The total number of code generations by target",
}, []string{"target"})

var HistoryOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "schemagen_history_operations_total",
	Help: "The total number of undo and redo requests that changed the project",
}, []string{"op"})

var PersistenceFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "schemagen_persistence_failures_total",
	Help: "The total number of failed workspace saves",
})

var Introspections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "schemagen_introspections_total",
	Help: "The total number of live database introspections by engine and outcome",
}, []string{"kind", "result"})

var IntrospectDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "schemagen_introspect_duration_seconds",
	Help:    "The duration of live database introspections",
	Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
})

type meteredPersister struct {
	store.Persister
}

func (p meteredPersister) Save(ws *schema.Workspace) error {
	err := p.Persister.Save(ws)
	if err != nil {
		PersistenceFailures.Inc()
	}
	return err
}

// Metered counts the failed saves of p in PersistenceFailures
func Metered(p store.Persister) store.Persister {
	if p == nil {
		return nil
	}
	return meteredPersister{p}
}
