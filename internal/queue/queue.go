// Package queue publishes analysis events to a message broker.
package queue

import (
	"context"
	"encoding/json"
	"time"
)

// Publisher publishes messages to a queue
type Publisher interface {
	// Publish publishes a message to a subject/topic
	Publish(ctx context.Context, subject string, data []byte) error

	// Close closes the connection
	Close() error
}

// AnalysisCompleted is emitted after every successful analysis
type AnalysisCompleted struct {
	ID             string         `json:"id"`
	Source         string         `json:"source"`
	Series         []string       `json:"series"`
	Points         int            `json:"points"`
	AnomalyCounts  map[string]int `json:"anomaly_counts"`
	DurationMillis int64          `json:"duration_ms"`
	CompletedAt    time.Time      `json:"completed_at"`
}

// PublishEvent encodes v as JSON and publishes it on subject
func PublishEvent(ctx context.Context, p Publisher, subject string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Publish(ctx, subject, data)
}
