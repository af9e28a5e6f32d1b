package engine

import (
	"encoding/json"
	"math"

	"github.com/soltixdb/orelens/internal/analytics"
	"github.com/soltixdb/orelens/internal/analytics/anomaly"
	"github.com/soltixdb/orelens/internal/analytics/trend"
)

// TotalName labels the aggregate series in reports and events
const TotalName = "Total"

// Detectors lists the detectors every series runs through, in output order
var Detectors = []string{
	anomaly.DetectorIQR,
	anomaly.DetectorZScore,
	anomaly.DetectorMAPct,
	anomaly.DetectorGrubbs,
}

// SeriesAnalysis is the full analysis of one series
type SeriesAnalysis struct {
	TrendValues []float64             `json:"trend_values"`
	Trend       trend.Model           `json:"trend"`
	IQR         []anomaly.Flag        `json:"iqr"`
	Z           []anomaly.Flag        `json:"z"`
	MAPct       []anomaly.Flag        `json:"ma_pct"`
	Grubbs      []anomaly.Flag        `json:"grubbs"`
	Stats       analytics.SeriesStats `json:"stats"`
}

// Flags returns the flags produced by the named detector
func (s *SeriesAnalysis) Flags(detector string) []anomaly.Flag {
	switch detector {
	case anomaly.DetectorIQR:
		return s.IQR
	case anomaly.DetectorZScore:
		return s.Z
	case anomaly.DetectorMAPct:
		return s.MAPct
	case anomaly.DetectorGrubbs:
		return s.Grubbs
	}
	return nil
}

func (s *SeriesAnalysis) setFlags(detector string, flags []anomaly.Flag) {
	// Empty lists encode as [] rather than null
	if flags == nil {
		flags = []anomaly.Flag{}
	}
	switch detector {
	case anomaly.DetectorIQR:
		s.IQR = flags
	case anomaly.DetectorZScore:
		s.Z = flags
	case anomaly.DetectorMAPct:
		s.MAPct = flags
	case anomaly.DetectorGrubbs:
		s.Grubbs = flags
	}
}

// AnomalyCounts returns the number of flags per detector
func (s *SeriesAnalysis) AnomalyCounts() map[string]int {
	counts := make(map[string]int, len(Detectors))
	for _, d := range Detectors {
		counts[d] = len(s.Flags(d))
	}
	return counts
}

// finite reports whether every number in the analysis can be encoded
func (s *SeriesAnalysis) finite() bool {
	nums := append([]float64{}, s.TrendValues...)
	nums = append(nums, s.Trend.Coefficients...)
	nums = append(nums, s.Trend.MAE, s.Trend.RMSE, s.Trend.MAPE, s.Trend.R2)
	st := s.Stats
	nums = append(nums, st.Mean, st.Std, st.Median, st.Q1, st.Q3, st.IQR, st.Min, st.Max)
	for _, d := range Detectors {
		for _, f := range s.Flags(d) {
			nums = append(nums, f.Value, f.Score)
			if f.Expected != nil {
				nums = append(nums, f.Expected.Min, f.Expected.Max)
			}
		}
	}

	for _, v := range nums {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NamedAnalysis pairs a series name with its analysis
type NamedAnalysis struct {
	Name     string
	Analysis SeriesAnalysis
}

// SeriesAnalyses keeps per-series results in dataset order and encodes as a
// JSON object with keys in that order.
type SeriesAnalyses []NamedAnalysis

// Get returns the analysis for name
func (s SeriesAnalyses) Get(name string) (*SeriesAnalysis, bool) {
	for i := range s {
		if s[i].Name == name {
			return &s[i].Analysis, true
		}
	}
	return nil, false
}

// MarshalJSON implements json.Marshaler
func (s SeriesAnalyses) MarshalJSON() ([]byte, error) {
	return analytics.MarshalOrdered(len(s), func(i int) (string, any) {
		return s[i].Name, s[i].Analysis
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (s *SeriesAnalyses) UnmarshalJSON(data []byte) error {
	out := SeriesAnalyses{}
	err := analytics.UnmarshalOrdered(data, func(key string, raw json.RawMessage) error {
		var a SeriesAnalysis
		if err := json.Unmarshal(raw, &a); err != nil {
			return err
		}
		out = append(out, NamedAnalysis{Name: key, Analysis: a})
		return nil
	})
	if err != nil {
		return err
	}
	*s = out
	return nil
}

// Result is the outcome of one analysis run
type Result struct {
	ID     string         `json:"id,omitempty"`
	Dates  []string       `json:"dates"`
	Mines  SeriesAnalyses `json:"mines"`
	Total  SeriesAnalysis `json:"total"`
	Params Params         `json:"params"`
}

// Points returns the length of every analyzed series
func (r *Result) Points() int {
	return len(r.Dates)
}

// AnomalyCounts sums flags per detector over the named series, excluding Total
func (r *Result) AnomalyCounts() map[string]int {
	counts := make(map[string]int, len(Detectors))
	for _, d := range Detectors {
		counts[d] = 0
	}
	for i := range r.Mines {
		for d, n := range r.Mines[i].Analysis.AnomalyCounts() {
			counts[d] += n
		}
	}
	return counts
}
