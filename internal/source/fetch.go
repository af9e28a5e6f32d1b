package source

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/soltixdb/orelens/internal/analytics"
	"github.com/soltixdb/orelens/internal/logging"
)

// maxFetchAttempts bounds retries of a remote sheet download
const maxFetchAttempts = 3

// FileSource reads a CSV sheet from the local filesystem
type FileSource struct {
	path       string
	dateColumn string
	logger     *logging.Logger
}

// NewFileSource creates a FileSource
func NewFileSource(path, dateColumn string, logger *logging.Logger) *FileSource {
	if logger == nil {
		logger = logging.Global()
	}
	return &FileSource{path: path, dateColumn: dateColumn, logger: logger}
}

// ID implements Source
func (s *FileSource) ID() string {
	return "file:" + s.path
}

// Fetch implements Source
func (s *FileSource) Fetch(ctx context.Context) (*analytics.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = f.Close() }()

	frame, report, err := ParseCSV(f, s.dateColumn)
	if err != nil {
		return nil, err
	}
	logReport(s.logger, s.ID(), report)
	return frame, nil
}

// URLSource downloads a published CSV sheet over HTTP(S)
type URLSource struct {
	url        string
	dateColumn string
	client     *http.Client
	logger     *logging.Logger
}

// NewURLSource creates a URLSource; timeout bounds each attempt
func NewURLSource(url, dateColumn string, timeout time.Duration, logger *logging.Logger) *URLSource {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = logging.Global()
	}
	return &URLSource{
		url:        url,
		dateColumn: dateColumn,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ID implements Source
func (s *URLSource) ID() string {
	return "url:" + s.url
}

// Fetch implements Source. Network errors and 5xx responses are retried with
// exponential backoff; any other non-200 status fails immediately.
func (s *URLSource) Fetch(ctx context.Context) (*analytics.Frame, error) {
	if s.url == "" {
		return nil, fmt.Errorf("%w: no source url configured", ErrUnavailable)
	}

	var frame *analytics.Frame
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrUnavailable, err))
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("%w: failed to fetch sheet: status %d", ErrUnavailable, resp.StatusCode)
			if resp.StatusCode >= 500 {
				return err
			}
			return backoff.Permanent(err)
		}

		f, report, err := ParseCSV(resp.Body, s.dateColumn)
		if err != nil {
			return backoff.Permanent(err)
		}
		logReport(s.logger, s.ID(), report)
		frame = f
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		s.logger.Warn("Sheet fetch failed, retrying", "source", s.ID(), "error", err, "wait", wait)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, maxFetchAttempts-1), ctx), notify)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return frame, nil
}

func logReport(logger *logging.Logger, id string, report ParseReport) {
	if !report.Repaired() {
		return
	}
	logger.Warn("Sheet had unusable cells",
		"source", id,
		"rows", report.Rows,
		"dropped_rows", report.DroppedRows,
		"missing_cells", report.MissingCells,
		"invalid_cells", report.InvalidCells)
}
