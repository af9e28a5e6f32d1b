package anomaly

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/soltixdb/orelens/internal/analytics"
)

// grubbsMinPoints is the smallest sample the test is defined for
const grubbsMinPoints = 3

// GrubbsDetector runs the two-sided Grubbs test repeatedly: the most extreme
// point is flagged and removed while its G statistic exceeds the critical
// value at the configured significance level (Threshold).
type GrubbsDetector struct{}

func init() {
	RegisterDetector(DetectorGrubbs, &GrubbsDetector{})
}

// Name returns the algorithm name
func (g *GrubbsDetector) Name() string {
	return DetectorGrubbs
}

// Detect returns flagged points in the order they were removed
func (g *GrubbsDetector) Detect(values []float64, config DetectorConfig) []Flag {
	alpha := config.Threshold
	if alpha <= 0 || alpha >= 1 {
		return nil
	}

	working := make([]float64, len(values))
	copy(working, values)
	indices := make([]int, len(values))
	for i := range indices {
		indices[i] = i
	}

	var results []Flag

	for len(working) >= grubbsMinPoints {
		mean, stdDev := analytics.SampleMeanStdDev(working)
		if stdDev == 0 {
			break
		}

		maxIdx := 0
		maxDev := 0.0
		for i, v := range working {
			if dev := math.Abs(v - mean); dev > maxDev {
				maxDev = dev
				maxIdx = i
			}
		}

		n := len(working)
		stat := maxDev / stdDev
		critical := GrubbsCriticalValue(n, alpha)
		if stat <= critical {
			break
		}

		v := working[maxIdx]
		results = append(results, Flag{
			Index: indices[maxIdx],
			Value: v,
			Score: stat,
			Type:  direction(v, mean),
			Expected: &Range{
				Min: mean - critical*stdDev,
				Max: mean + critical*stdDev,
			},
		})

		working = append(working[:maxIdx], working[maxIdx+1:]...)
		indices = append(indices[:maxIdx], indices[maxIdx+1:]...)
	}

	return results
}

// GrubbsCriticalValue returns the two-sided critical G for sample size n:
//
//	G_crit = (n-1)/sqrt(n) * sqrt(t^2 / (n-2+t^2)),  t = T_{n-2}^{-1}(1 - alpha/(2n))
//
// Returns +Inf when n < 3.
func GrubbsCriticalValue(n int, alpha float64) float64 {
	if n < grubbsMinPoints {
		return math.Inf(1)
	}

	nf := float64(n)
	df := nf - 2
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	t := tDist.Quantile(1 - alpha/(2*nf))
	t2 := t * t

	return (nf - 1) / math.Sqrt(nf) * math.Sqrt(t2/(df+t2))
}
