package anomaly

import (
	"fmt"
	"sort"
)

// AnomalyType represents the direction of a flagged point
type AnomalyType string

const (
	AnomalyTypeSpike AnomalyType = "spike" // Above the expected range
	AnomalyTypeDrop  AnomalyType = "drop"  // Below the expected range
)

// Detector names as exposed in analysis results and the API
const (
	DetectorIQR    = "iqr"
	DetectorZScore = "zscore"
	DetectorMAPct  = "ma_pct"
	DetectorGrubbs = "grubbs"
)

// Range represents expected value range
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Flag is a single flagged observation. Index is the position in the
// original series; flags from different detectors are never merged.
type Flag struct {
	Index    int         `json:"index"`
	Value    float64     `json:"value"`
	Score    float64     `json:"score"` // How anomalous (higher = more abnormal)
	Type     AnomalyType `json:"type"`
	Expected *Range      `json:"expected,omitempty"`
}

// DetectorConfig holds the tuning parameter of a detector
type DetectorConfig struct {
	// Threshold is the detector's single tuning value:
	// fence multiplier (iqr), |z| limit (zscore), fractional deviation (ma_pct)
	// or significance level (grubbs)
	Threshold float64

	// WindowSize for the trailing moving average
	WindowSize int
}

// AnomalyDetector interface for all anomaly detection algorithms
type AnomalyDetector interface {
	// Name returns the algorithm name
	Name() string

	// Detect returns flagged points ordered as the algorithm finds them
	Detect(values []float64, config DetectorConfig) []Flag
}

// detectorRegistry is filled by init functions and only read afterwards
var detectorRegistry = make(map[string]AnomalyDetector)

// RegisterDetector adds a detector to the registry. Call only from init.
func RegisterDetector(name string, detector AnomalyDetector) {
	detectorRegistry[name] = detector
}

// GetDetector returns a detector by name
func GetDetector(name string) (AnomalyDetector, error) {
	if detector, ok := detectorRegistry[name]; ok {
		return detector, nil
	}
	return nil, fmt.Errorf("unknown anomaly detector: %s", name)
}

// ListDetectors returns the sorted list of available detector names
func ListDetectors() []string {
	names := make([]string, 0, len(detectorRegistry))
	for name := range detectorRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectAnomalies is a helper function to detect anomalies using specified algorithm
func DetectAnomalies(algorithm string, values []float64, config DetectorConfig) ([]Flag, error) {
	detector, err := GetDetector(algorithm)
	if err != nil {
		return nil, err
	}
	return detector.Detect(values, config), nil
}

func direction(value, center float64) AnomalyType {
	if value < center {
		return AnomalyTypeDrop
	}
	return AnomalyTypeSpike
}
