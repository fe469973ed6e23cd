package mining

import (
	"fmt"
	"math"
	"strings"
)

// Metric names a rule statistic usable for filtering and sorting.
type Metric string

const (
	MetricSupport    Metric = "support"
	MetricConfidence Metric = "confidence"
	MetricLift       Metric = "lift"
	MetricLeverage   Metric = "leverage"
	MetricConviction Metric = "conviction"
)

// Metrics lists the supported metrics in display order.
var Metrics = []Metric{MetricSupport, MetricConfidence, MetricLift, MetricLeverage, MetricConviction}

// ParseMetric resolves a metric name case-insensitively.
func ParseMetric(name string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Metrics {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownMetric, name, metricNames())
}

// ValidateThreshold checks that t is a usable lower bound for m.
// Support and confidence are fractions, so their thresholds must lie in [0, 1].
func (m Metric) ValidateThreshold(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("%w: %s threshold must be finite, got %v", ErrInvalidThreshold, m, t)
	}
	switch m {
	case MetricSupport, MetricConfidence:
		if t < 0 || t > 1 {
			return fmt.Errorf("%w: %s threshold must be in [0, 1], got %v", ErrInvalidThreshold, m, t)
		}
	case MetricLift, MetricConviction:
		if t < 0 {
			return fmt.Errorf("%w: %s threshold must be >= 0, got %v", ErrInvalidThreshold, m, t)
		}
	case MetricLeverage:
		if t < -0.25 || t > 0.25 {
			return fmt.Errorf("%w: leverage threshold must be in [-0.25, 0.25], got %v", ErrInvalidThreshold, t)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMetric, string(m))
	}
	return nil
}

// Value returns the statistic m of r.
func (m Metric) Value(r Rule) float64 {
	switch m {
	case MetricSupport:
		return r.Support
	case MetricConfidence:
		return r.Confidence
	case MetricLift:
		return r.Lift
	case MetricLeverage:
		return r.Leverage
	case MetricConviction:
		return r.Conviction
	}
	return math.NaN()
}

func metricNames() string {
	names := make([]string, len(Metrics))
	for i, m := range Metrics {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
