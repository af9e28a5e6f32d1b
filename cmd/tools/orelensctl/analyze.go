package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/soltixdb/orelens/internal/analytics/anomaly"
	"github.com/soltixdb/orelens/internal/engine"
	"github.com/soltixdb/orelens/internal/report"
	"github.com/soltixdb/orelens/internal/services"
)

type analyzeCommand struct {
	input   inputFlags
	asJSON  bool
	flagged bool
}

func newAnalyzeCommand() *cobra.Command {
	ac := &analyzeCommand{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a production sheet",
		Example: `  orelensctl analyze --csv production.csv
  orelensctl analyze --csv production.csv --z-thresh 2.5 --trend-degree 2 --json`,
		Args: cobra.NoArgs,
		RunE: ac.run,
	}

	ac.input.register(cmd)
	cmd.Flags().BoolVar(&ac.asJSON, "json", false, "Print the full result as JSON")
	cmd.Flags().BoolVar(&ac.flagged, "flagged", false, "Also list every flagged point")
	return cmd
}

func (ac *analyzeCommand) run(cmd *cobra.Command, _ []string) error {
	svc, err := ac.input.service(cmd)
	if err != nil {
		return err
	}

	result, err := svc.Analyze(cmd.Context(), &services.AnalyzeRequest{Params: ac.input.overrides(cmd)})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if ac.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	writeSummary(out, result)
	if ac.flagged {
		fmt.Fprintln(out)
		writeFlagged(out, result)
	}
	return nil
}

func detectorHeader() table.Row {
	row := table.Row{}
	for _, d := range engine.Detectors {
		row = append(row, report.DetectorLabel(d))
	}
	return row
}

// writeSummary prints one row per series and the Total
func writeSummary(w io.Writer, result *engine.Result) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(fmt.Sprintf("%d points, %s", result.Points(), paramsLine(result.Params)))

	header := append(table.Row{"Series", "Mean", "Std", "Median", "IQR", "Min", "Max", "Trend R²"}, detectorHeader()...)
	tbl.AppendHeader(header)

	row := func(name string, a *engine.SeriesAnalysis) table.Row {
		s := a.Stats
		r := table.Row{name,
			fmt.Sprintf("%.2f", s.Mean), fmt.Sprintf("%.2f", s.Std), fmt.Sprintf("%.2f", s.Median),
			fmt.Sprintf("%.2f", s.IQR), fmt.Sprintf("%.2f", s.Min), fmt.Sprintf("%.2f", s.Max),
			fmt.Sprintf("%.3f", a.Trend.R2)}
		for _, d := range engine.Detectors {
			r = append(r, len(a.Flags(d)))
		}
		return r
	}

	for i := range result.Mines {
		tbl.AppendRow(row(result.Mines[i].Name, &result.Mines[i].Analysis))
	}
	tbl.AppendSeparator()
	tbl.AppendFooter(row(engine.TotalName, &result.Total))

	cols := make([]table.ColumnConfig, 0, len(header)-1)
	for i := 2; i <= len(header); i++ {
		cols = append(cols, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignFooter: text.AlignRight})
	}
	tbl.SetColumnConfigs(cols)
	tbl.Render()
}

// writeFlagged prints every flagged point with the detectors that caught it
func writeFlagged(w io.Writer, result *engine.Result) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Series", "Date", "Value", "Detectors"})

	add := func(name string, a *engine.SeriesAnalysis) {
		for _, p := range report.FlaggedPoints(a) {
			labels := make([]string, len(p.Detectors))
			for i, d := range p.Detectors {
				labels[i] = report.DetectorLabel(d)
			}
			tbl.AppendRow(table.Row{name, result.Dates[p.Index], fmt.Sprintf("%.2f", p.Value), strings.Join(labels, ", ")})
		}
	}
	for i := range result.Mines {
		add(result.Mines[i].Name, &result.Mines[i].Analysis)
	}
	add(engine.TotalName, &result.Total)

	if tbl.Length() == 0 {
		fmt.Fprintln(w, "No points were flagged.")
		return
	}
	tbl.Render()
}

func paramsLine(p engine.Params) string {
	return fmt.Sprintf("iqr_k=%g z_thresh=%g ma_window=%d ma_pct=%g grubbs_alpha=%g trend_degree=%d",
		p.IQRK, p.ZThresh, p.MAWindow, p.MAPct, p.GrubbsAlpha, p.TrendDegree)
}

func detectorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detectors",
		Short: "List the anomaly detectors",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range anomaly.ListDetectors() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
