package anomaly

import (
	"math"

	"github.com/soltixdb/orelens/internal/analytics"
)

// ZScoreDetector detects anomalies using Z-Score (standard score)
// Z-Score measures how many population standard deviations a point is from
// the mean. Points with |Z| > threshold are considered anomalies.
type ZScoreDetector struct{}

func init() {
	RegisterDetector(DetectorZScore, &ZScoreDetector{})
}

// Name returns the algorithm name
func (z *ZScoreDetector) Name() string {
	return DetectorZScore
}

// Detect finds anomalies using Z-Score method
func (z *ZScoreDetector) Detect(values []float64, config DetectorConfig) []Flag {
	mean, stdDev := analytics.MeanStdDev(values)

	// A flat series has no spread to measure against
	if stdDev == 0 {
		return nil
	}

	expectedRange := &Range{
		Min: mean - config.Threshold*stdDev,
		Max: mean + config.Threshold*stdDev,
	}

	var results []Flag

	for i, v := range values {
		zScore := CalculateZScore(v, mean, stdDev)

		if math.Abs(zScore) > config.Threshold {
			results = append(results, Flag{
				Index:    i,
				Value:    v,
				Score:    math.Abs(zScore),
				Type:     direction(v, mean),
				Expected: expectedRange,
			})
		}
	}

	return results
}

// CalculateZScore calculates Z-Score for a single value given mean and stdDev
func CalculateZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}
