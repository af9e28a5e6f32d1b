package anomaly

import (
	"math"
)

// MovingAverageDetector flags points that deviate from the trailing moving
// average of the points before them by more than a fraction of that average.
type MovingAverageDetector struct{}

func init() {
	RegisterDetector(DetectorMAPct, &MovingAverageDetector{})
}

// Name returns the algorithm name
func (ma *MovingAverageDetector) Name() string {
	return DetectorMAPct
}

// Detect finds anomalies using the trailing moving average method.
// Index 0 has no history and is never flagged; a zero average leaves the
// relative deviation undefined, so that point is skipped.
func (ma *MovingAverageDetector) Detect(values []float64, config DetectorConfig) []Flag {
	movingAvgs := CalculateTrailingMovingAverage(values, config.WindowSize)

	var results []Flag

	for i := 1; i < len(values); i++ {
		localMean := movingAvgs[i]
		if localMean == 0 || math.IsNaN(localMean) {
			continue
		}

		deviation := math.Abs(values[i]-localMean) / math.Abs(localMean)
		if deviation <= config.Threshold {
			continue
		}

		margin := config.Threshold * math.Abs(localMean)
		results = append(results, Flag{
			Index: i,
			Value: values[i],
			Score: deviation,
			Type:  direction(values[i], localMean),
			Expected: &Range{
				Min: localMean - margin,
				Max: localMean + margin,
			},
		})
	}

	return results
}

// CalculateTrailingMovingAverage returns, for each index i, the mean of the
// up to windowSize values preceding i (values[max(0,i-windowSize):i]).
// Index 0 has no preceding values and is NaN.
func CalculateTrailingMovingAverage(values []float64, windowSize int) []float64 {
	if len(values) == 0 {
		return nil
	}
	if windowSize < 1 {
		windowSize = 1
	}

	result := make([]float64, len(values))
	result[0] = math.NaN()

	for i := 1; i < len(values); i++ {
		start := max(0, i-windowSize)

		var sum float64
		for _, v := range values[start:i] {
			sum += v
		}
		result[i] = sum / float64(i-start)
	}

	return result
}
