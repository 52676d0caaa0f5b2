package calculator

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        r2.Point
		b        r2.Point
		expected float64
	}{
		{name: "Same point", a: r2.Point{X: 10, Y: 10}, b: r2.Point{X: 10, Y: 10}, expected: 0},
		{name: "Horizontal", a: r2.Point{X: 0, Y: 0}, b: r2.Point{X: 100, Y: 0}, expected: 100},
		{name: "3-4-5 triangle", a: r2.Point{X: 1, Y: 1}, b: r2.Point{X: 4, Y: 5}, expected: 5},
		{name: "Negative coordinates", a: r2.Point{X: -300, Y: 0}, b: r2.Point{X: 0, Y: -400}, expected: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Distance() = %.6f, expected %.6f", got, tt.expected)
			}
			if got := Distance(tt.b, tt.a); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Distance() is not symmetric: %.6f", got)
			}
		})
	}
}

func TestPathLength(t *testing.T) {
	tests := []struct {
		name     string
		points   []r2.Point
		expected float64
	}{
		{name: "No points", points: nil, expected: 0},
		{name: "Single point", points: []r2.Point{{X: 5, Y: 5}}, expected: 0},
		{name: "Two identical points", points: []r2.Point{{X: 5, Y: 5}, {X: 5, Y: 5}}, expected: 0},
		{name: "Collinear", points: []r2.Point{{X: 0, Y: 0}, {X: 30, Y: 0}, {X: 100, Y: 0}}, expected: 100},
		{name: "Back and forth", points: []r2.Point{{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 0, Y: 0}}, expected: 100},
		{name: "Square", points: []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}}, expected: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PathLength(tt.points); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("PathLength() = %.6f, expected %.6f", got, tt.expected)
			}
		})
	}
}

func TestGreatCircleMeters(t *testing.T) {
	tests := []struct {
		name      string
		lon1      float64
		lat1      float64
		lon2      float64
		lat2      float64
		expected  float64
		tolerance float64
	}{
		{
			name: "Same location",
			lon1: 101.6847, lat1: 3.1430,
			lon2: 101.6847, lat2: 3.1430,
			expected: 0, tolerance: 0.001,
		},
		{
			name: "Perdana to Chinatown (~1.36 km)",
			lon1: 101.6847, lat1: 3.1430,
			lon2: 101.6969, lat2: 3.1428,
			expected: 1357, tolerance: 10,
		},
		{
			name: "Equator crossing",
			lon1: 0, lat1: 1,
			lon2: 0, lat2: -1,
			expected: 222390, tolerance: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GreatCircleMeters(tt.lon1, tt.lat1, tt.lon2, tt.lat2)
			if math.Abs(result-tt.expected) > tt.tolerance {
				t.Errorf("GreatCircleMeters() = %.2f m, expected %.2f m (±%.2f m)", result, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestIsFinite(t *testing.T) {
	tests := []struct {
		p        r2.Point
		expected bool
	}{
		{r2.Point{X: 1, Y: 2}, true},
		{r2.Point{X: math.NaN(), Y: 2}, false},
		{r2.Point{X: 1, Y: math.Inf(-1)}, false},
		{r2.Point{X: math.Inf(1), Y: math.NaN()}, false},
	}

	for _, tt := range tests {
		if got := IsFinite(tt.p); got != tt.expected {
			t.Errorf("IsFinite(%v) = %v, expected %v", tt.p, got, tt.expected)
		}
	}
}

func TestDescribe(t *testing.T) {
	t.Run("empty values", func(t *testing.T) {
		metrics := Describe(nil)
		if metrics != (Metrics{}) {
			t.Errorf("expected zero Metrics, got %+v", metrics)
		}
	})

	t.Run("single value", func(t *testing.T) {
		metrics := Describe([]float64{42})
		if metrics.Count != 1 || metrics.Min != 42 || metrics.Max != 42 || metrics.Mean != 42 {
			t.Errorf("unexpected metrics %+v", metrics)
		}
	})

	t.Run("multiple values", func(t *testing.T) {
		metrics := Describe([]float64{0, 10, 20, 50})
		if metrics.Count != 4 {
			t.Errorf("expected Count 4, got %d", metrics.Count)
		}
		if metrics.Total != 80 {
			t.Errorf("expected Total 80, got %.2f", metrics.Total)
		}
		if metrics.Min != 0 {
			t.Errorf("expected Min 0, got %.2f", metrics.Min)
		}
		if metrics.Max != 50 {
			t.Errorf("expected Max 50, got %.2f", metrics.Max)
		}
		if metrics.Mean != 20 {
			t.Errorf("expected Mean 20, got %.2f", metrics.Mean)
		}
	})

	t.Run("negative values", func(t *testing.T) {
		metrics := Describe([]float64{-5, -1})
		if metrics.Max != -1 || metrics.Min != -5 {
			t.Errorf("unexpected metrics %+v", metrics)
		}
	})
}

func BenchmarkPathLength(b *testing.B) {
	points := make([]r2.Point, 1000)
	for i := range points {
		points[i] = r2.Point{X: float64(i), Y: float64(i % 7)}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		PathLength(points)
	}
}
