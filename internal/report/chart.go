package report

import (
	"sort"

	"github.com/charlie0129/timetocode-dashboard/internal/models"
)

// SeriesName is the legend of the edit-time bar chart.
const SeriesName = "Tempo de Edição (hh:mm:ss)"

// Series is the bar chart input: one label and one value (seconds) per file path.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// BuildSeries sums file durations per full path across reports. Paths keep the
// order in which they are first seen; within one report keys are visited in
// lexical order. Distinct paths sharing a final segment stay separate bars.
func BuildSeries(reports []models.Report) Series {
	var order []string
	totals := make(map[string]int64)

	for _, r := range reports {
		paths := make([]string, 0, len(r.FileDurations))
		for p := range r.FileDurations {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for _, p := range paths {
			if _, seen := totals[p]; !seen {
				order = append(order, p)
			}
			totals[p] += r.FileDurations[p]
		}
	}

	s := Series{
		Labels: make([]string, 0, len(order)),
		Values: make([]float64, 0, len(order)),
	}
	for _, p := range order {
		s.Labels = append(s.Labels, models.BaseName(p))
		s.Values = append(s.Values, float64(totals[p])/1000)
	}
	return s
}

// Len returns the number of bars.
func (s Series) Len() int {
	return len(s.Labels)
}
