// Package report renders analysis results as an interactive HTML page or a
// printable PDF summary.
package report

import (
	"fmt"
	"sort"

	"github.com/soltixdb/orelens/internal/analytics"
	"github.com/soltixdb/orelens/internal/analytics/anomaly"
	"github.com/soltixdb/orelens/internal/engine"
)

// detectorLabels are the display names used in legends and table headers
var detectorLabels = map[string]string{
	anomaly.DetectorIQR:    "IQR",
	anomaly.DetectorZScore: "Z-score",
	anomaly.DetectorMAPct:  "MA %",
	anomaly.DetectorGrubbs: "Grubbs",
}

// DetectorLabel returns the display name of a detector
func DetectorLabel(detector string) string {
	if l, ok := detectorLabels[detector]; ok {
		return l
	}
	return detector
}

// entry is one rendered series: a mine or the Total
type entry struct {
	Name     string
	Values   []float64
	Analysis *engine.SeriesAnalysis
}

// entries pairs every analyzed series with its raw values, Total last
func entries(result *engine.Result, data analytics.Dataset) ([]entry, error) {
	if result == nil {
		return nil, fmt.Errorf("report: nil result")
	}

	out := make([]entry, 0, len(result.Mines)+1)
	for i := range result.Mines {
		m := &result.Mines[i]
		values, ok := data.Get(m.Name)
		if !ok {
			return nil, fmt.Errorf("report: no values for series %q", m.Name)
		}
		if len(values) != len(result.Dates) {
			return nil, fmt.Errorf("report: series %q has %d values for %d dates", m.Name, len(values), len(result.Dates))
		}
		out = append(out, entry{Name: m.Name, Values: values, Analysis: &m.Analysis})
	}

	total, err := engine.Aggregate(data)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	out = append(out, entry{Name: engine.TotalName, Values: total, Analysis: &result.Total})
	return out, nil
}

// FlaggedPoint is one index flagged by at least one detector
type FlaggedPoint struct {
	Index     int
	Value     float64
	Detectors []string
}

// FlaggedPoints merges every detector's flags by index, in index order
func FlaggedPoints(a *engine.SeriesAnalysis) []FlaggedPoint {
	byIndex := make(map[int]*FlaggedPoint)
	for _, d := range engine.Detectors {
		for _, f := range a.Flags(d) {
			p, ok := byIndex[f.Index]
			if !ok {
				p = &FlaggedPoint{Index: f.Index, Value: f.Value}
				byIndex[f.Index] = p
			}
			p.Detectors = append(p.Detectors, d)
		}
	}

	out := make([]FlaggedPoint, 0, len(byIndex))
	for _, p := range byIndex {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
