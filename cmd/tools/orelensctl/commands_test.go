package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/orelens/internal/engine"
)

const sheet = `Date,North,South
2024-01-01,10,20
2024-01-02,11,21
2024-01-03,9,19
2024-01-04,10,20
2024-01-05,10,20
2024-01-06,11,21
2024-01-07,9,19
2024-01-08,10,20
2024-01-09,95,20
2024-01-10,10,21
`

func writeSheet(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "production.csv")
	require.NoError(t, os.WriteFile(path, []byte(sheet), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAnalyzeTable(t *testing.T) {
	out, err := execute(t, "analyze", "--csv", writeSheet(t), "--flagged")
	require.NoError(t, err)

	// Headers and footers are upper-cased by the table style
	for _, want := range []string{"North", "South", "TOTAL", "GRUBBS", "2024-01-09"} {
		assert.Contains(t, out, want)
	}
}

func TestAnalyzeJSONWithOverrides(t *testing.T) {
	out, err := execute(t, "analyze", "--csv", writeSheet(t), "--json", "--z-thresh", "2", "--trend-degree", "2")
	require.NoError(t, err)

	var result engine.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2.0, result.Params.ZThresh)
	assert.Equal(t, 2, result.Params.TrendDegree)
	assert.Equal(t, engine.DefaultIQRK, result.Params.IQRK)

	north, ok := result.Mines.Get("North")
	require.True(t, ok)
	require.NotEmpty(t, north.Grubbs)
	assert.Equal(t, 8, north.Grubbs[0].Index)
}

func TestAnalyzeErrors(t *testing.T) {
	_, err := execute(t, "analyze")
	assert.Error(t, err)

	_, err = execute(t, "analyze", "--csv", "a.csv", "--url", "http://example.invalid/x.csv")
	assert.Error(t, err)

	_, err = execute(t, "analyze", "--csv", writeSheet(t), "--ma-window", "1")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "ma_window"))
}

func TestReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.pdf")

	out, err := execute(t, "report", "--csv", writeSheet(t), "--format", "pdf", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	_, err = execute(t, "report", "--csv", writeSheet(t), "--format", "svg")
	assert.Error(t, err)
}

func TestDetectorsAndVersion(t *testing.T) {
	out, err := execute(t, "detectors")
	require.NoError(t, err)
	assert.Equal(t, "grubbs\niqr\nma_pct\nzscore\n", out)

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "orelensctl dev")
}
