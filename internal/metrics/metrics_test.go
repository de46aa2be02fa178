package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/velivert/velivert/internal/models"
)

func TestMetrics_ObserveCycle(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCycle(ResultSuccess, 120*time.Millisecond)
	m.ObserveCycle(ResultSuccess, 80*time.Millisecond)
	m.ObserveCycle(ResultError, time.Second)

	if got := testutil.ToFloat64(m.CyclesTotal.WithLabelValues(ResultSuccess)); got != 2 {
		t.Errorf("success cycles = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CyclesTotal.WithLabelValues(ResultError)); got != 1 {
		t.Errorf("error cycles = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.CycleDuration); got != 2 {
		t.Errorf("duration series = %d, want 2", got)
	}
}

func TestMetrics_SetSnapshot(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SetSnapshot(models.Snapshot{
		Stations: make([]models.Station, 4),
		Counts:   models.FleetCounts{Total: 6, Free: 3, Reserved: 1, Disabled: 2},
	})

	if got := testutil.ToFloat64(m.Stations); got != 4 {
		t.Errorf("stations = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.Bikes.WithLabelValues("disabled")); got != 2 {
		t.Errorf("disabled bikes = %v, want 2", got)
	}
}

func TestMetrics_CountersAndRequests(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.FetchError("network")
	m.FetchError("network")
	m.SkippedTick()
	m.Request("/api/bikes", 200)
	m.Request("/api/bikes", 503)

	if got := testutil.ToFloat64(m.FetchErrors.WithLabelValues("network")); got != 2 {
		t.Errorf("network errors = %v", got)
	}
	if got := testutil.ToFloat64(m.SkippedTicks); got != 1 {
		t.Errorf("skipped ticks = %v", got)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("/api/bikes", "5xx")); got != 1 {
		t.Errorf("5xx requests = %v", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveCycle(ResultSuccess, time.Second)
	m.FetchError("decode")
	m.SkippedTick()
	m.SetSnapshot(models.Snapshot{})
	m.Request("/", 200)
}

func TestMetrics_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	New(reg)
}
