package engine

import (
	"gonum.org/v1/gonum/floats"

	"github.com/soltixdb/orelens/internal/analytics"
)

// Aggregate returns the element-wise sum of every series in the dataset.
// An empty dataset sums to an empty series.
func Aggregate(dataset analytics.Dataset) (analytics.Series, error) {
	if len(dataset) == 0 {
		return analytics.Series{}, nil
	}

	n := len(dataset[0].Values)
	total := make(analytics.Series, n)
	for _, s := range dataset {
		if len(s.Values) != n {
			return nil, invalidf(s.Name, "has %d values, expected %d", len(s.Values), n)
		}
		floats.Add(total, s.Values)
	}
	return total, nil
}
