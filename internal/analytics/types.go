// Package analytics provides the common types and statistics shared by the
// anomaly detectors, the trend fitter and the analysis engine.
package analytics

import (
	"encoding/json"
	"fmt"
)

// DateLayout is the canonical layout of dataset date labels
const DateLayout = "2006-01-02"

// Series is an ordered sequence of observations aligned to the dataset dates
type Series []float64

// Len returns the number of observations
func (s Series) Len() int {
	return len(s)
}

// Clone returns a copy of the series
func (s Series) Clone() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// NamedSeries is a single entity (e.g. a mine) and its observations
type NamedSeries struct {
	Name   string
	Values Series
}

// Dataset maps entity names to their series. Order is the insertion order and
// is preserved when encoding to JSON.
type Dataset []NamedSeries

// Names returns entity names in dataset order
func (d Dataset) Names() []string {
	names := make([]string, len(d))
	for i, s := range d {
		names[i] = s.Name
	}
	return names
}

// Get returns the series for name
func (d Dataset) Get(name string) (Series, bool) {
	for _, s := range d {
		if s.Name == name {
			return s.Values, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the dataset as a JSON object in insertion order
func (d Dataset) MarshalJSON() ([]byte, error) {
	return MarshalOrdered(len(d), func(i int) (string, any) {
		return d[i].Name, d[i].Values
	})
}

// UnmarshalJSON decodes a JSON object keeping the key order of the document
func (d *Dataset) UnmarshalJSON(data []byte) error {
	var out Dataset
	err := UnmarshalOrdered(data, func(key string, raw json.RawMessage) error {
		var values Series
		if err := json.Unmarshal(raw, &values); err != nil {
			return fmt.Errorf("series %q: %w", key, err)
		}
		out = append(out, NamedSeries{Name: key, Values: values})
		return nil
	})
	if err != nil {
		return err
	}
	*d = out
	return nil
}

// Frame is a dataset together with its shared date labels
type Frame struct {
	Dates []string `json:"dates"`
	Mines Dataset  `json:"mines"`
}

// Points returns the number of dates in the frame
func (f *Frame) Points() int {
	return len(f.Dates)
}
