package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveTickCountsOverruns(t *testing.T) {
	m := MustNewMetrics(prometheus.NewRegistry())

	m.ObserveTick(2*time.Millisecond, 5*time.Millisecond)
	m.ObserveTick(9*time.Millisecond, 5*time.Millisecond)
	m.ObserveTick(9*time.Millisecond, 0)

	require.Equal(t, 3.0, testutil.ToFloat64(m.ticks))
	require.Equal(t, 1.0, testutil.ToFloat64(m.budgetOverruns))
}

func TestLabelledCounters(t *testing.T) {
	m := MustNewMetrics(prometheus.NewRegistry())

	m.IncAssignment("zone")
	m.IncAssignment("zone")
	m.IncOutcome("harvest", "complete")
	m.IncRequisition("worker", "ok")
	m.IncEvent("agent_lost")
	m.SetLoad(4, 1)

	require.Equal(t, 2.0, testutil.ToFloat64(m.assignments.WithLabelValues("zone")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues("harvest", "complete")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requisitions.WithLabelValues("worker", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("agent_lost")))
	require.Equal(t, 4.0, testutil.ToFloat64(m.active))
	require.Equal(t, 1.0, testutil.ToFloat64(m.idle))
}

func TestReRegistrationReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := MustNewMetrics(reg)
	second := MustNewMetrics(reg)

	first.IncAssignment("fallback")
	require.Equal(t, 1.0, testutil.ToFloat64(second.assignments.WithLabelValues("fallback")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveTick(time.Second, time.Millisecond)
		m.IncAssignment("zone")
		m.IncOutcome("build", "cancel")
		m.SetLoad(1, 1)
		m.IncRequisition("worker", "ok")
		m.IncEvent("first_contact")
	})
}
