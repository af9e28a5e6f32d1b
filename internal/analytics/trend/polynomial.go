package trend

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// FitPolynomial fits a least-squares polynomial of the given degree to values
// using the time index 0..n-1 as the independent variable. The degree is
// clamped to n-1 when the series is too short to support it.
func FitPolynomial(values []float64, degree int) (*Result, error) {
	if degree < 0 || degree > MaxDegree {
		return nil, fmt.Errorf("polynomial degree %d outside [0, %d]", degree, MaxDegree)
	}

	n := len(values)
	if n == 0 {
		return &Result{
			Fitted:    []float64{},
			Residuals: []float64{},
			Model: Model{
				Coefficients:    []float64{},
				RequestedDegree: degree,
			},
		}, nil
	}

	effective := min(degree, n-1)

	// Fit on x/(n-1) in [0, 1]; raw indices make the Vandermonde matrix
	// badly conditioned for long series at degree 3 and 4
	scale := 1.0
	if n > 1 {
		scale = float64(n - 1)
	}

	cols := effective + 1
	design := mat.NewDense(n, cols, nil)
	for i := 0; i < n; i++ {
		x := float64(i) / scale
		p := 1.0
		for j := 0; j < cols; j++ {
			design.Set(i, j, p)
			p *= x
		}
	}

	var qr mat.QR
	qr.Factorize(design)

	var solved mat.VecDense
	if err := qr.SolveVecTo(&solved, false, mat.NewVecDense(n, append([]float64(nil), values...))); err != nil {
		// A Condition error still carries a usable solution
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("least squares solve: %w", err)
		}
	}

	scaled := make([]float64, cols)
	for j := range scaled {
		scaled[j] = solved.AtVec(j)
	}

	fitted := make([]float64, n)
	residuals := make([]float64, n)
	for i, v := range values {
		fitted[i] = Evaluate(scaled, float64(i)/scale)
		residuals[i] = v - fitted[i]
	}

	// Undo the x scaling so coefficients apply to raw indices
	coefficients := make([]float64, cols)
	for j, c := range scaled {
		coefficients[j] = c / math.Pow(scale, float64(j))
	}

	return &Result{
		Fitted:    fitted,
		Residuals: residuals,
		Model: Model{
			Coefficients:    coefficients,
			Degree:          effective,
			RequestedDegree: degree,
			Clamped:         effective < degree,
			MAE:             CalculateMAE(values, fitted),
			RMSE:            CalculateRMSE(values, fitted),
			MAPE:            CalculateMAPE(values, fitted),
			R2:              CalculateR2(values, fitted),
			DataPoints:      n,
		},
	}, nil
}
