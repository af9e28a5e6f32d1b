package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/soltixdb/orelens/internal/analytics"
	"github.com/soltixdb/orelens/internal/analytics/anomaly"
	"github.com/soltixdb/orelens/internal/engine"
)

const (
	chartWidth  = "100%"
	chartHeight = "420px"
	lineWidth   = 2
	markerSize  = 10
)

var detectorColors = map[string]string{
	"iqr":    "#d62728",
	"zscore": "#ff7f0e",
	"ma_pct": "#9467bd",
	"grubbs": "#8c564b",
}

// RenderHTML writes a standalone page with one chart per series and a Total
// chart. Each chart shows values, the fitted trend and one marker layer per
// detector.
func RenderHTML(w io.Writer, result *engine.Result, data analytics.Dataset) error {
	list, err := entries(result, data)
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.PageTitle = "Production analysis"
	page.SetLayout(components.PageFlexLayout)

	for _, e := range list {
		page.AddCharts(seriesChart(result.Dates, e))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	return nil
}

func seriesChart(dates []string, e entry) *charts.Line {
	a := e.Analysis

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title: e.Name,
			Subtitle: fmt.Sprintf("mean %.2f  std %.2f  median %.2f  trend degree %d  R² %.3f",
				a.Stats.Mean, a.Stats.Std, a.Stats.Median, a.Trend.Degree, a.Trend.R2),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}, opts.DataZoom{Type: "inside"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Output"}),
	)
	line.SetXAxis(dates)

	values := make([]opts.LineData, len(e.Values))
	for i, v := range e.Values {
		values[i] = opts.LineData{Value: v}
	}
	line.AddSeries("Value", values,
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)

	trendData := make([]opts.LineData, len(a.TrendValues))
	for i, v := range a.TrendValues {
		trendData[i] = opts.LineData{Value: v}
	}
	line.AddSeries("Trend", trendData,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth, Type: "dashed"}),
	)

	for _, d := range engine.Detectors {
		flags := a.Flags(d)
		if len(flags) == 0 {
			continue
		}
		line.AddSeries(DetectorLabel(d), markers(len(e.Values), flags),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: detectorColors[d]}),
			charts.WithLineStyleOpts(opts.LineStyle{Width: 0, Opacity: opts.Float(0)}),
		)
	}
	return line
}

// markers places a symbol at each flagged index and a gap elsewhere
func markers(n int, flags []anomaly.Flag) []opts.LineData {
	out := make([]opts.LineData, n)
	for i := range out {
		out[i] = opts.LineData{Value: "-"}
	}
	for _, f := range flags {
		if f.Index >= 0 && f.Index < n {
			out[f.Index] = opts.LineData{Value: f.Value, Symbol: "circle", SymbolSize: markerSize}
		}
	}
	return out
}
