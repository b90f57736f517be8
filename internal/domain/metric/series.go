package metric

import (
	"sort"
	"time"

	"github.com/prepwise/prepwise-analytics/internal/domain/shared"
)

// Point is a single (timestamp, value) observation in a series.
type Point struct {
	Timestamp time.Time
	Value     float64
}

// Series is an ordered sequence of observations for one subject and one
// metric name. All analysis functions consume this view; they never see
// raw Metric rows.
type Series struct {
	SubjectID shared.SubjectID
	Name      shared.MetricName
	Points    []Point
}

// NewSeries builds a Series from points, sorting them by timestamp
// ascending. The input slice is not modified.
func NewSeries(subjectID shared.SubjectID, name shared.MetricName, points []Point) Series {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return Series{SubjectID: subjectID, Name: name, Points: sorted}
}

// Len returns the number of points.
func (s Series) Len() int {
	return len(s.Points)
}

// IsEmpty reports whether the series has no points.
func (s Series) IsEmpty() bool {
	return len(s.Points) == 0
}

// Values returns the observation values in time order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Within returns the sub-series inside the half-open range [tr.Start, tr.End).
func (s Series) Within(tr shared.TimeRange) Series {
	pts := make([]Point, 0, len(s.Points))
	for _, p := range s.Points {
		if tr.Contains(p.Timestamp) {
			pts = append(pts, p)
		}
	}
	return Series{SubjectID: s.SubjectID, Name: s.Name, Points: pts}
}

// First returns the earliest point. Callers must check IsEmpty first.
func (s Series) First() Point {
	return s.Points[0]
}

// Last returns the latest point. Callers must check IsEmpty first.
func (s Series) Last() Point {
	return s.Points[len(s.Points)-1]
}

// Span returns the elapsed time between the first and last points.
func (s Series) Span() time.Duration {
	if len(s.Points) < 2 {
		return 0
	}
	return s.Last().Timestamp.Sub(s.First().Timestamp)
}

// ValueRange returns max - min of the observed values; used to scale the
// trend-classification epsilon to the metric's typical magnitude.
func (s Series) ValueRange() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	min, max := s.Points[0].Value, s.Points[0].Value
	for _, p := range s.Points[1:] {
		if p.Value < min {
			min = p.Value
		}
		if p.Value > max {
			max = p.Value
		}
	}
	return max - min
}

// AlignOptions controls nearest-neighbor pairing of two series.
type AlignOptions struct {
	// Tolerance is the maximum timestamp distance for two observations to
	// be considered the same moment.
	Tolerance time.Duration
}

// Align pairs observations of a and b by nearest timestamp within the
// tolerance window. Each point of b is matched at most once. The returned
// slices have equal length and preserve time order.
func Align(a, b Series, opts AlignOptions) (x, y []float64) {
	if opts.Tolerance <= 0 {
		opts.Tolerance = time.Hour
	}

	used := make([]bool, len(b.Points))
	for _, pa := range a.Points {
		bestIdx := -1
		bestDist := opts.Tolerance + 1
		for j, pb := range b.Points {
			if used[j] {
				continue
			}
			dist := pa.Timestamp.Sub(pb.Timestamp)
			if dist < 0 {
				dist = -dist
			}
			if dist <= opts.Tolerance && dist < bestDist {
				bestIdx = j
				bestDist = dist
			}
		}
		if bestIdx >= 0 {
			used[bestIdx] = true
			x = append(x, pa.Value)
			y = append(y, b.Points[bestIdx].Value)
		}
	}
	return x, y
}
