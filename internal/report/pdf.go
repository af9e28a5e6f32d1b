package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/soltixdb/orelens/internal/analytics"
	"github.com/soltixdb/orelens/internal/engine"
)

const (
	rowHeight   = 6.0
	nameWidth   = 44.0
	numberWidth = 19.0
	dateWidth   = 30.0
	valueWidth  = 30.0
)

var summaryHeader = []string{"Series", "Points", "Mean", "Std", "Median", "IQR", "Min", "Max", "Trend R²"}

// RenderPDF writes a landscape A4 document with the parameters used, a
// summary row per series and every flagged point.
func RenderPDF(w io.Writer, result *engine.Result, data analytics.Dataset) error {
	list, err := entries(result, data)
	if err != nil {
		return err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.SetTitle("Production analysis", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Production analysis", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	p := result.Params
	period := "no dates"
	if len(result.Dates) > 0 {
		period = result.Dates[0] + " to " + result.Dates[len(result.Dates)-1]
	}
	pdf.CellFormat(0, 5, tr(fmt.Sprintf("Period: %s (%d points)", period, result.Points())), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("iqr_k=%g  z_thresh=%g  ma_window=%d  ma_pct=%g  grubbs_alpha=%g  trend_degree=%d",
		p.IQRK, p.ZThresh, p.MAWindow, p.MAPct, p.GrubbsAlpha, p.TrendDegree), "", 1, "L", false, 0, "")
	if result.ID != "" {
		pdf.CellFormat(0, 5, "Analysis "+result.ID, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	summaryTable(pdf, tr, list)
	pdf.Ln(6)
	flaggedTable(pdf, tr, result.Dates, list)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("report: render pdf: %w", err)
	}
	return nil
}

func header(pdf *fpdf.Fpdf, tr func(string) string, cols []string, widths []float64) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(225, 230, 240)
	for i, c := range cols {
		pdf.CellFormat(widths[i], rowHeight+1, tr(c), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
}

func summaryTable(pdf *fpdf.Fpdf, tr func(string) string, list []entry) {
	cols := append([]string{}, summaryHeader...)
	for _, d := range engine.Detectors {
		cols = append(cols, DetectorLabel(d))
	}
	widths := make([]float64, len(cols))
	widths[0] = nameWidth
	for i := 1; i < len(widths); i++ {
		widths[i] = numberWidth
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	header(pdf, tr, cols, widths)

	for _, e := range list {
		s := e.Analysis.Stats
		cells := []string{
			e.Name,
			fmt.Sprintf("%d", s.Count),
			fmt.Sprintf("%.2f", s.Mean),
			fmt.Sprintf("%.2f", s.Std),
			fmt.Sprintf("%.2f", s.Median),
			fmt.Sprintf("%.2f", s.IQR),
			fmt.Sprintf("%.2f", s.Min),
			fmt.Sprintf("%.2f", s.Max),
			fmt.Sprintf("%.3f", e.Analysis.Trend.R2),
		}
		for _, d := range engine.Detectors {
			cells = append(cells, fmt.Sprintf("%d", len(e.Analysis.Flags(d))))
		}

		if e.Name == engine.TotalName {
			pdf.SetFont("Helvetica", "B", 9)
		}
		for i, c := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], rowHeight, tr(c), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.SetFont("Helvetica", "", 9)
}

func flaggedTable(pdf *fpdf.Fpdf, tr func(string) string, dates []string, list []entry) {
	cols := []string{"Series", "Date", "Value", "Detectors"}
	widths := []float64{nameWidth, dateWidth, valueWidth, 80}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Flagged points", "", 1, "L", false, 0, "")

	wrote := false
	for _, e := range list {
		points := FlaggedPoints(e.Analysis)
		if len(points) == 0 {
			continue
		}
		if !wrote {
			header(pdf, tr, cols, widths)
			wrote = true
		}
		for _, p := range points {
			date := ""
			if p.Index < len(dates) {
				date = dates[p.Index]
			}
			labels := make([]string, len(p.Detectors))
			for i, d := range p.Detectors {
				labels[i] = DetectorLabel(d)
			}
			pdf.CellFormat(widths[0], rowHeight, tr(e.Name), "1", 0, "L", false, 0, "")
			pdf.CellFormat(widths[1], rowHeight, date, "1", 0, "C", false, 0, "")
			pdf.CellFormat(widths[2], rowHeight, fmt.Sprintf("%.2f", p.Value), "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[3], rowHeight, tr(strings.Join(labels, ", ")), "1", 1, "L", false, 0, "")
		}
	}

	if !wrote {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, rowHeight, "No points were flagged.", "", 1, "L", false, 0, "")
	}
}
