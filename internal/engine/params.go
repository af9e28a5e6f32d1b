package engine

import (
	"math"

	"github.com/soltixdb/orelens/internal/analytics/trend"
	"github.com/soltixdb/orelens/internal/config"
)

// Default analysis parameters
const (
	DefaultIQRK        = 1.5
	DefaultZThresh     = 3.0
	DefaultMAWindow    = 7
	DefaultMAPct       = 0.3
	DefaultGrubbsAlpha = 0.05
	DefaultTrendDegree = 1
)

// Params are the six tuning values of one analysis run
type Params struct {
	IQRK        float64 `json:"iqr_k"`        // IQR fence multiplier, > 0
	ZThresh     float64 `json:"z_thresh"`     // |z| limit, > 0
	MAWindow    int     `json:"ma_window"`    // Trailing window, >= 2
	MAPct       float64 `json:"ma_pct"`       // Allowed fractional deviation, (0, 1]
	GrubbsAlpha float64 `json:"grubbs_alpha"` // Significance level, (0, 1)
	TrendDegree int     `json:"trend_degree"` // Polynomial degree, [1, 4]
}

// DefaultParams returns the built-in parameter defaults
func DefaultParams() Params {
	return Params{
		IQRK:        DefaultIQRK,
		ZThresh:     DefaultZThresh,
		MAWindow:    DefaultMAWindow,
		MAPct:       DefaultMAPct,
		GrubbsAlpha: DefaultGrubbsAlpha,
		TrendDegree: DefaultTrendDegree,
	}
}

// ParamsFromConfig converts the configured server defaults
func ParamsFromConfig(cfg config.AnalysisConfig) Params {
	return Params{
		IQRK:        cfg.IQRK,
		ZThresh:     cfg.ZThresh,
		MAWindow:    cfg.MAWindow,
		MAPct:       cfg.MAPct,
		GrubbsAlpha: cfg.GrubbsAlpha,
		TrendDegree: cfg.TrendDegree,
	}
}

// Validate checks every parameter against its domain and returns the first
// violation as a *ValidationError.
func (p Params) Validate() error {
	switch {
	case !positive(p.IQRK):
		return invalid("iqr_k", "must be a finite number > 0")
	case !positive(p.ZThresh):
		return invalid("z_thresh", "must be a finite number > 0")
	case p.MAWindow < 2:
		return invalid("ma_window", "must be an integer >= 2")
	case !positive(p.MAPct) || p.MAPct > 1:
		return invalid("ma_pct", "must be in (0, 1]")
	case !positive(p.GrubbsAlpha) || p.GrubbsAlpha >= 1:
		return invalid("grubbs_alpha", "must be in (0, 1)")
	case p.TrendDegree < 1 || p.TrendDegree > trend.MaxDegree:
		return invalid("trend_degree", "must be an integer in [1, 4]")
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// ParamOverrides is the request form of Params: absent (or null) fields keep
// the base value. Integer fields arrive as JSON numbers and must be integral.
type ParamOverrides struct {
	IQRK        *float64 `json:"iqr_k,omitempty"`
	ZThresh     *float64 `json:"z_thresh,omitempty"`
	MAWindow    *float64 `json:"ma_window,omitempty"`
	MAPct       *float64 `json:"ma_pct,omitempty"`
	GrubbsAlpha *float64 `json:"grubbs_alpha,omitempty"`
	TrendDegree *float64 `json:"trend_degree,omitempty"`
}

// Apply merges the overrides onto base and validates the result
func (o *ParamOverrides) Apply(base Params) (Params, error) {
	p := base
	if o == nil {
		return p, p.Validate()
	}

	if o.IQRK != nil {
		p.IQRK = *o.IQRK
	}
	if o.ZThresh != nil {
		p.ZThresh = *o.ZThresh
	}
	if o.MAPct != nil {
		p.MAPct = *o.MAPct
	}
	if o.GrubbsAlpha != nil {
		p.GrubbsAlpha = *o.GrubbsAlpha
	}

	var err error
	if p.MAWindow, err = integral("ma_window", o.MAWindow, p.MAWindow); err != nil {
		return base, err
	}
	if p.TrendDegree, err = integral("trend_degree", o.TrendDegree, p.TrendDegree); err != nil {
		return base, err
	}

	if err := p.Validate(); err != nil {
		return base, err
	}
	return p, nil
}

func integral(field string, v *float64, fallback int) (int, error) {
	if v == nil {
		return fallback, nil
	}
	if *v != math.Trunc(*v) || math.Abs(*v) > math.MaxInt32 {
		return fallback, invalid(field, "must be an integer")
	}
	return int(*v), nil
}
