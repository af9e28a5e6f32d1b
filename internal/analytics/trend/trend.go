package trend

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/soltixdb/orelens/internal/analytics"
)

// MaxDegree is the highest polynomial degree accepted by the analysis parameters
const MaxDegree = 4

// exactFitTolerance absorbs rounding in the least-squares solve
const exactFitTolerance = 1e-9

// Model describes a fitted trend polynomial
type Model struct {
	// Coefficients in increasing power: c0 + c1*x + c2*x^2 ...
	Coefficients    []float64 `json:"coefficients"`
	Degree          int       `json:"degree"`           // Effective degree after clamping
	RequestedDegree int       `json:"requested_degree"` // Degree asked for by the caller
	Clamped         bool      `json:"clamped"`
	MAE             float64   `json:"mae"`  // Mean Absolute Error
	RMSE            float64   `json:"rmse"` // Root Mean Squared Error
	MAPE            float64   `json:"mape"` // Mean Absolute Percentage Error
	R2              float64   `json:"r2"`
	DataPoints      int       `json:"data_points"`
}

// Result contains the fitted values and model information
type Result struct {
	Fitted    []float64 // Trend value at every index of the input
	Residuals []float64 // actual - fitted
	Model     Model
}

// Evaluate returns the polynomial value at x using Horner's scheme
func Evaluate(coefficients []float64, x float64) float64 {
	var y float64
	for i := len(coefficients) - 1; i >= 0; i-- {
		y = y*x + coefficients[i]
	}
	return y
}

// CalculateMAPE calculates Mean Absolute Percentage Error, skipping zero actuals
func CalculateMAPE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	count := 0
	for i := range actual {
		if actual[i] != 0 {
			sum += math.Abs((actual[i] - predicted[i]) / actual[i])
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return (sum / float64(count)) * 100
}

// CalculateMAE calculates Mean Absolute Error
func CalculateMAE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// CalculateRMSE calculates Root Mean Squared Error
func CalculateRMSE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		diff := actual[i] - predicted[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(actual)))
}

// CalculateR2 returns the coefficient of determination. A series with no
// variance scores 1 when fitted (up to rounding) and 0 otherwise.
func CalculateR2(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	if analytics.IsConstant(actual) {
		if CalculateRMSE(actual, predicted) <= exactFitTolerance*math.Max(1, math.Abs(actual[0])) {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(predicted, actual, nil)
}
