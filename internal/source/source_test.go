package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/orelens/internal/analytics"
	"github.com/soltixdb/orelens/internal/cache"
	"github.com/soltixdb/orelens/internal/config"
	"github.com/soltixdb/orelens/internal/logging"
)

const sheet = ` Date ,Mine A, Mine B
2024-01-01,10,20
2024-01-02,11,
not a date,99,99
01/03/2024,12,abc
2024-01-04,"1,300",22
`

func TestParseCSV(t *testing.T) {
	frame, report, err := ParseCSV(strings.NewReader(sheet), "Date")
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"}, frame.Dates)
	assert.Equal(t, []string{"Mine A", "Mine B"}, frame.Mines.Names())

	a, _ := frame.Mines.Get("Mine A")
	assert.Equal(t, analytics.Series{10, 11, 12, 1300}, a)
	b, _ := frame.Mines.Get("Mine B")
	assert.Equal(t, analytics.Series{20, 0, 0, 22}, b)

	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 1, report.DroppedRows)
	assert.Equal(t, 1, report.MissingCells)
	assert.Equal(t, 1, report.InvalidCells)
	assert.True(t, report.Repaired())
}

func TestParseCSV_MissingDateColumn(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("Day,Mine A\n2024-01-01,1\n"), "Date")
	assert.ErrorIs(t, err, ErrMalformed)

	_, _, err = ParseCSV(strings.NewReader(""), "Date")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseCSV_HeaderQuirks(t *testing.T) {
	input := "\ufeffDate,Mine,,Mine\n2024-02-01,1,2,3\n2024-02-02,4\n"

	frame, report, err := ParseCSV(strings.NewReader(input), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"Mine", "Mine.1"}, frame.Mines.Names())
	first, _ := frame.Mines.Get("Mine")
	assert.Equal(t, analytics.Series{1, 4}, first)
	second, _ := frame.Mines.Get("Mine.1")
	assert.Equal(t, analytics.Series{3, 0}, second)
	assert.Equal(t, 1, report.MissingCells)
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-03-05", "2024/03/05", "3/5/2024", "03/05/2024", "2024-03-05 08:00:00", "5-Mar-2024", "Mar 5, 2024"} {
		d, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, "2024-03-05", d.Format(analytics.DateLayout), s)
	}

	_, err := ParseDate("yesterday")
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "production.csv")
	require.NoError(t, os.WriteFile(path, []byte(sheet), 0o644))

	src := NewFileSource(path, "Date", logging.NewNop())
	frame, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, frame.Points())
	assert.Equal(t, "file:"+path, src.ID())

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.csv"), "Date", logging.NewNop()).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestURLSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sheet))
	}))
	defer server.Close()

	frame, err := NewURLSource(server.URL, "Date", time.Second, logging.NewNop()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Mine A", "Mine B"}, frame.Mines.Names())
}

func TestURLSource_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(sheet))
	}))
	defer server.Close()

	frame, err := NewURLSource(server.URL, "Date", time.Second, logging.NewNop()).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, frame.Points())
	assert.Equal(t, int32(2), calls.Load())
}

func TestURLSource_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewURLSource(server.URL, "Date", time.Second, logging.NewNop()).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestURLSource_NoURL(t *testing.T) {
	_, err := NewURLSource("", "Date", 0, logging.NewNop()).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

type countingSource struct {
	calls atomic.Int32
	frame *analytics.Frame
}

func (s *countingSource) ID() string { return "counting" }

func (s *countingSource) Fetch(context.Context) (*analytics.Frame, error) {
	s.calls.Add(1)
	return s.frame, nil
}

func TestCachedSource(t *testing.T) {
	ctx := context.Background()
	inner := &countingSource{frame: &analytics.Frame{
		Dates: []string{"2024-01-01", "2024-01-02"},
		Mines: analytics.Dataset{
			{Name: "North", Values: analytics.Series{1, 2}},
			{Name: "East", Values: analytics.Series{3, 4}},
		},
	}}

	c := cache.NewMemoryCache(4)
	src := NewCachedSource(inner, c, time.Minute, true, logging.NewNop())

	first, err := src.Fetch(ctx)
	require.NoError(t, err)
	second, err := src.Fetch(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), inner.calls.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"North", "East"}, second.Mines.Names())

	require.NoError(t, src.Invalidate(ctx))
	_, err = src.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestCachedSource_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	inner := &countingSource{frame: &analytics.Frame{Dates: []string{"2024-01-01"}, Mines: analytics.Dataset{{Name: "A", Values: analytics.Series{1}}}}}

	c := cache.NewMemoryCache(4)
	src := NewCachedSource(inner, c, time.Minute, false, logging.NewNop())
	require.NoError(t, c.Set(ctx, src.key(), []byte("garbage"), time.Minute))

	frame, err := src.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, frame.Points())
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestNew(t *testing.T) {
	cfg := config.DefaultConfig()

	src, err := New(cfg.Source, nil, cfg.Cache, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &URLSource{}, src)

	cfg.Source.Type = config.SourceCSVFile
	cfg.Source.Path = "/tmp/x.csv"
	src, err = New(cfg.Source, cache.NewMemoryCache(1), cfg.Cache, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &CachedSource{}, src)
	assert.Equal(t, "file:/tmp/x.csv", src.ID())

	cfg.Source.Type = "ftp"
	_, err = New(cfg.Source, nil, cfg.Cache, logging.NewNop())
	assert.Error(t, err)
}
