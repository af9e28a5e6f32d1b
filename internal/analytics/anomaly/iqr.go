package anomaly

import (
	"github.com/soltixdb/orelens/internal/analytics"
)

// IQRDetector detects anomalies using Interquartile Range (IQR) method
// Anomalies are points strictly outside [Q1 - k*IQR, Q3 + k*IQR]; points on
// the fence are kept.
type IQRDetector struct{}

func init() {
	RegisterDetector(DetectorIQR, &IQRDetector{})
}

// Name returns the algorithm name
func (iqr *IQRDetector) Name() string {
	return DetectorIQR
}

// Detect finds anomalies using IQR method
func (iqr *IQRDetector) Detect(values []float64, config DetectorConfig) []Flag {
	if len(values) == 0 || analytics.IsConstant(values) {
		return nil
	}

	q1, q3, iqrValue := analytics.Quartiles(values)
	multiplier := config.Threshold

	lowerBound := q1 - multiplier*iqrValue
	upperBound := q3 + multiplier*iqrValue

	expectedRange := &Range{
		Min: lowerBound,
		Max: upperBound,
	}

	var results []Flag

	for i, v := range values {
		if v >= lowerBound && v <= upperBound {
			continue
		}

		// Distance outside the fence in IQR units; raw distance when the fence has no width
		var score float64
		if v < lowerBound {
			score = lowerBound - v
		} else {
			score = v - upperBound
		}
		if iqrValue > 0 {
			score /= iqrValue
		}

		results = append(results, Flag{
			Index:    i,
			Value:    v,
			Score:    score,
			Type:     direction(v, lowerBound),
			Expected: expectedRange,
		})
	}

	return results
}
