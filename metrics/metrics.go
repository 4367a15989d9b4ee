// Package metrics exposes Prometheus collectors for the colony decision loop.
// All methods are safe on a nil *Metrics so callers can run without them.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "warren"

type Metrics struct {
	ticks          prometheus.Counter
	tickDuration   prometheus.Histogram
	budgetOverruns prometheus.Counter
	assignments    *prometheus.CounterVec
	outcomes       *prometheus.CounterVec
	active         prometheus.Gauge
	idle           prometheus.Gauge
	requisitions   *prometheus.CounterVec
	events         *prometheus.CounterVec
}

// MustNewMetrics registers the collectors with reg, reusing any that are
// already registered. A nil reg uses the default registerer. Other
// registration errors panic.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "ticks_total",
			Help: "Scheduler ticks processed.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "tick_duration_seconds",
			Help:    "Wall time spent in one scheduler tick.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		budgetOverruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "budget_overruns_total",
			Help: "Ticks that took longer than the configured budget.",
		}),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "assignments_total",
			Help: "Task lists handed to agents, by where they came from.",
		}, []string{"source"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "task_outcomes_total",
			Help: "Task step results, by kind and verdict.",
		}, []string{"kind", "verdict"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "active_assignments",
			Help: "Agents holding a task list after the last tick.",
		}),
		idle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "scheduler", Name: "idle_agents",
			Help: "Agents left without work after assignment.",
		}),
		requisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "spawn", Name: "requisitions_total",
			Help: "Requisition attempts, by archetype and world result.",
		}, []string{"archetype", "result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "colony", Name: "events_total",
			Help: "Colony events detected between frames.",
		}, []string{"kind"}),
	}

	m.ticks = register(reg, m.ticks)
	m.tickDuration = register(reg, m.tickDuration)
	m.budgetOverruns = register(reg, m.budgetOverruns)
	m.assignments = register(reg, m.assignments)
	m.outcomes = register(reg, m.outcomes)
	m.active = register(reg, m.active)
	m.idle = register(reg, m.idle)
	m.requisitions = register(reg, m.requisitions)
	m.events = register(reg, m.events)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveTick records one tick's duration and whether it overran budget.
func (m *Metrics) ObserveTick(d, budget time.Duration) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.tickDuration.Observe(d.Seconds())
	if budget > 0 && d > budget {
		m.budgetOverruns.Inc()
	}
}

func (m *Metrics) IncAssignment(source string) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(source).Inc()
}

func (m *Metrics) IncOutcome(kind, verdict string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(kind, verdict).Inc()
}

// SetLoad reports how many agents are busy and idle.
func (m *Metrics) SetLoad(active, idle int) {
	if m == nil {
		return
	}
	m.active.Set(float64(active))
	m.idle.Set(float64(idle))
}

func (m *Metrics) IncRequisition(archetype, result string) {
	if m == nil {
		return
	}
	m.requisitions.WithLabelValues(archetype, result).Inc()
}

func (m *Metrics) IncEvent(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}
