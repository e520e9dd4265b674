package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Garsondee/Swarm-Sense/internal/geom"
	"github.com/Garsondee/Swarm-Sense/internal/swarm"
)

func setupTestMetrics(t *testing.T, config MetricsConfig) (*metric.ManualReader, *Metrics) {
	t.Helper()
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	otel.SetMeterProvider(provider)

	m, err := NewMetrics(context.Background(), config)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return reader, m
}

func sumOf(t *testing.T, reader *metric.ManualReader, name string) (int64, bool) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("expected Sum[int64] for %s, got %T", name, m.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total, true
		}
	}
	return 0, false
}

func TestMetrics_CountsHooks(t *testing.T) {
	reader, m := setupTestMetrics(t, MetricsConfig{Attributes: RunAttributes("a", 5)})
	defer reader.Shutdown(context.Background())

	m.CollisionCourse(1, 0, 1, geom.Pt(5, 5))
	m.CollisionCourse(2, 2, 3, geom.Pt(6, 5))
	m.NearMiss(3, 0, 1, 2.1)
	m.Collision(4, 0, 1, 2.0)
	m.ObstacleStrike(5, 0, 0)

	tests := []struct {
		name string
		want int64
	}{
		{MetricCollisionCourses, 2},
		{MetricNearMisses, 1},
		{MetricCollisions, 1},
		{MetricObstacleStrikes, 1},
	}
	for _, tt := range tests {
		got, ok := sumOf(t, reader, tt.name)
		if !ok {
			t.Fatalf("%s metric not found", tt.name)
		}
		if got != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

func TestMetrics_RecordRun(t *testing.T) {
	reader, m := setupTestMetrics(t, DefaultMetricsConfig())
	defer reader.Shutdown(context.Background())

	m.RecordRun(120, true)
	m.RecordRun(2000, false)

	got, ok := sumOf(t, reader, MetricRuns)
	if !ok || got != 2 {
		t.Fatalf("expected 2 runs, got %d (found=%v)", got, ok)
	}
}

func TestMetrics_WiredIntoSim(t *testing.T) {
	reader, m := setupTestMetrics(t, DefaultMetricsConfig())
	defer reader.Shutdown(context.Background())

	sim, err := swarm.NewSim(swarm.WithSimRecorder(m), swarm.WithPopulation(5))
	if err != nil {
		t.Fatalf("NewSim: %v", err)
	}
	sim.RunTicks(50)

	got, _ := sumOf(t, reader, MetricNearMisses)
	if got != int64(sim.Tally.Imminent) {
		t.Fatalf("expected metric to match tally %d, got %d", sim.Tally.Imminent, got)
	}
}
