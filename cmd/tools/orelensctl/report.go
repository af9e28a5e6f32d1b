package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soltixdb/orelens/internal/services"
)

type reportCommand struct {
	input  inputFlags
	format string
	output string
}

func newReportCommand() *cobra.Command {
	rc := &reportCommand{}

	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Render an HTML or PDF report",
		Example: `  orelensctl report --csv production.csv --format pdf -o production.pdf`,
		Args:    cobra.NoArgs,
		RunE:    rc.run,
	}

	rc.input.register(cmd)
	cmd.Flags().StringVarP(&rc.format, "format", "f", "html", "Report format (html, pdf)")
	cmd.Flags().StringVarP(&rc.output, "output", "o", "", "Output file (default analysis-<id>.<format>)")
	return cmd
}

func (rc *reportCommand) run(cmd *cobra.Command, _ []string) error {
	format, err := services.ParseReportFormat(rc.format)
	if err != nil {
		return err
	}

	svc, err := rc.input.service(cmd)
	if err != nil {
		return err
	}

	doc, err := services.NewReportService(rc.input.logger, svc).Render(cmd.Context(),
		&services.AnalyzeRequest{Params: rc.input.overrides(cmd)}, format)
	if err != nil {
		return err
	}

	path := rc.output
	if path == "" {
		path = doc.Filename
	}
	if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(doc.Body))
	return nil
}
