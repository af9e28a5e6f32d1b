package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

// HTTP Handler Timeouts
const (
	// DefaultRequestTimeout bounds a whole analyze or report request
	DefaultRequestTimeout = 30 * time.Second

	// SourceFetchTimeout bounds loading the dataset from the source
	SourceFetchTimeout = 20 * time.Second

	// EventPublishTimeout bounds publishing an AnalysisCompleted event
	EventPublishTimeout = 5 * time.Second

	// ShutdownTimeout bounds graceful server shutdown
	ShutdownTimeout = 10 * time.Second
)

// =============================================================================
// Report Constants
// =============================================================================

// ReportFormat is the output format of a rendered report
type ReportFormat string

const (
	// ReportFormatHTML renders interactive charts
	ReportFormatHTML ReportFormat = "html"

	// ReportFormatPDF renders a printable summary
	ReportFormatPDF ReportFormat = "pdf"
)

// =============================================================================
// Queue Type Constants
// =============================================================================

// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNone disables event publishing (default)
	QueueTypeNone QueueType = "none"

	// QueueTypeNATS represents core NATS subjects
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)
