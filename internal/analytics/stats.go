package analytics

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SeriesStats summarizes a raw (unfiltered) series
type SeriesStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"` // population standard deviation
	Median float64 `json:"median"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
	IQR    float64 `json:"iqr"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes SeriesStats. An empty series yields the zero value.
func Summarize(values []float64) SeriesStats {
	if len(values) == 0 {
		return SeriesStats{}
	}

	sorted := sortedCopy(values)
	mean, std := MeanStdDev(values)
	q1 := Percentile(sorted, 25)
	q3 := Percentile(sorted, 75)

	return SeriesStats{
		Count:  len(values),
		Mean:   mean,
		Std:    std,
		Median: Percentile(sorted, 50),
		Q1:     q1,
		Q3:     q3,
		IQR:    q3 - q1,
		Min:    floats.Min(values),
		Max:    floats.Max(values),
	}
}

// MeanStdDev returns the mean and population standard deviation.
// Returns (0, 0) for an empty slice.
func MeanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	if IsConstant(values) {
		return values[0], 0
	}
	return stat.PopMeanStdDev(values, nil)
}

// SampleMeanStdDev returns the mean and the unbiased (n-1) standard deviation.
// Returns a zero deviation for fewer than two values.
func SampleMeanStdDev(values []float64) (mean, stdDev float64) {
	switch {
	case len(values) == 0:
		return 0, 0
	case len(values) == 1 || IsConstant(values):
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// Median returns the middle value, or the mean of the two middle values for even lengths
func Median(values []float64) float64 {
	return Percentile(sortedCopy(values), 50)
}

// Quartiles returns Q1, Q3 and the interquartile range
func Quartiles(values []float64) (q1, q3, iqr float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}

	sorted := sortedCopy(values)
	q1 = Percentile(sorted, 25)
	q3 = Percentile(sorted, 75)
	return q1, q3, q3 - q1
}

// Percentile calculates the p-th percentile (0-100) of sorted data using
// linear interpolation between closest ranks.
func Percentile(sortedData []float64, p float64) float64 {
	if len(sortedData) == 0 {
		return 0
	}
	if len(sortedData) == 1 {
		return sortedData[0]
	}

	index := (p / 100) * float64(len(sortedData)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sortedData) {
		return sortedData[len(sortedData)-1]
	}

	// lo + w*(hi-lo) is exact when hi == lo
	weight := index - float64(lower)
	lo, hi := sortedData[lower], sortedData[upper]
	return lo + weight*(hi-lo)
}

// IsConstant reports whether every value equals the first one
func IsConstant(values []float64) bool {
	for _, v := range values[min(1, len(values)):] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}
