// Package telemetry exports swarm run counters as OpenTelemetry metrics.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Garsondee/Swarm-Sense/internal/geom"
	"github.com/Garsondee/Swarm-Sense/internal/swarm"
)

// Metric names.
const (
	MetricCollisionCourses = "swarm.collision_courses"
	MetricNearMisses       = "swarm.near_misses"
	MetricCollisions       = "swarm.collisions"
	MetricObstacleStrikes  = "swarm.obstacle_strikes"
	MetricRuns             = "swarm.runs"
	MetricRunTicks         = "swarm.run.ticks"
)

// MetricsConfig configures the meter.
type MetricsConfig struct {
	// MeterName is the instrumentation scope (default: "github.com/Garsondee/Swarm-Sense").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// Attributes are attached to every measurement, e.g. scenario and population.
	Attributes []attribute.KeyValue
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/Garsondee/Swarm-Sense",
		MeterVersion: "1.0.0",
	}
}

// RunAttributes labels measurements with the scenario and population of a run.
func RunAttributes(scenario string, population int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("scenario", scenario),
		attribute.Int("population", population),
	}
}

// Metrics implements swarm.Recorder on top of OTel counters. The World calls
// hooks without a context, so measurements use the context given at
// construction.
type Metrics struct {
	ctx   context.Context
	attrs metric.MeasurementOption

	courses    metric.Int64Counter
	nearMisses metric.Int64Counter
	collisions metric.Int64Counter
	strikes    metric.Int64Counter
	runs       metric.Int64Counter
	runTicks   metric.Int64Histogram
}

var _ swarm.Recorder = (*Metrics)(nil)

// NewMetrics creates the instruments on the global meter provider.
func NewMetrics(ctx context.Context, config MetricsConfig) (*Metrics, error) {
	if config.MeterName == "" {
		def := DefaultMetricsConfig()
		config.MeterName, config.MeterVersion = def.MeterName, def.MeterVersion
	}
	meter := otel.GetMeterProvider().Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	m := &Metrics{ctx: ctx, attrs: metric.WithAttributes(config.Attributes...)}
	var err error
	if m.courses, err = meter.Int64Counter(MetricCollisionCourses,
		metric.WithDescription("Collision courses detected by the pairwise test"),
		metric.WithUnit("{event}")); err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricCollisionCourses, err)
	}
	if m.nearMisses, err = meter.Int64Counter(MetricNearMisses,
		metric.WithDescription("Heading nudges away from a close peer"),
		metric.WithUnit("{event}")); err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricNearMisses, err)
	}
	if m.collisions, err = meter.Int64Counter(MetricCollisions,
		metric.WithDescription("Agent pairs that came into contact"),
		metric.WithUnit("{event}")); err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricCollisions, err)
	}
	if m.strikes, err = meter.Int64Counter(MetricObstacleStrikes,
		metric.WithDescription("Moves that entered an obstacle"),
		metric.WithUnit("{event}")); err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricObstacleStrikes, err)
	}
	if m.runs, err = meter.Int64Counter(MetricRuns,
		metric.WithDescription("Completed runs"),
		metric.WithUnit("{run}")); err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricRuns, err)
	}
	if m.runTicks, err = meter.Int64Histogram(MetricRunTicks,
		metric.WithDescription("Ticks until a run settled or hit its budget"),
		metric.WithUnit("{tick}")); err != nil {
		return nil, fmt.Errorf("create %s: %w", MetricRunTicks, err)
	}
	return m, nil
}

func (m *Metrics) CollisionCourse(int, int, int, geom.Point) {
	m.courses.Add(m.ctx, 1, m.attrs)
}

func (m *Metrics) NearMiss(int, int, int, float64) {
	m.nearMisses.Add(m.ctx, 1, m.attrs)
}

func (m *Metrics) Collision(int, int, int, float64) {
	m.collisions.Add(m.ctx, 1, m.attrs)
}

func (m *Metrics) ObstacleStrike(int, int, int) {
	m.strikes.Add(m.ctx, 1, m.attrs)
}

// RecordRun counts a finished run and its length.
func (m *Metrics) RecordRun(ticks int, settled bool) {
	m.runs.Add(m.ctx, 1, m.attrs, metric.WithAttributes(attribute.Bool("settled", settled)))
	m.runTicks.Record(m.ctx, int64(ticks), m.attrs)
}
