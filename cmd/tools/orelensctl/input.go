package main

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/soltixdb/orelens/internal/config"
	"github.com/soltixdb/orelens/internal/engine"
	"github.com/soltixdb/orelens/internal/logging"
	"github.com/soltixdb/orelens/internal/services"
	"github.com/soltixdb/orelens/internal/source"
)

// inputFlags select the dataset and the analysis parameters
type inputFlags struct {
	csvPath    string
	url        string
	configPath string
	dateColumn string
	verbose    bool
	logger     *logging.Logger

	iqrK        float64
	zThresh     float64
	maWindow    int
	maPct       float64
	grubbsAlpha float64
	trendDegree int
}

func (f *inputFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.csvPath, "csv", "", "Path to a production CSV file")
	fs.StringVar(&f.url, "url", "", "URL of a published CSV sheet")
	fs.StringVarP(&f.configPath, "config", "c", "", "Config file; its source is used when neither --csv nor --url is given")
	fs.StringVar(&f.dateColumn, "date-column", source.DefaultDateColumn, "Header of the date column")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Log to stderr")

	fs.Float64Var(&f.iqrK, "iqr-k", engine.DefaultIQRK, "IQR fence multiplier")
	fs.Float64Var(&f.zThresh, "z-thresh", engine.DefaultZThresh, "Z-score threshold")
	fs.IntVar(&f.maWindow, "ma-window", engine.DefaultMAWindow, "Trailing moving-average window")
	fs.Float64Var(&f.maPct, "ma-pct", engine.DefaultMAPct, "Moving-average relative deviation threshold")
	fs.Float64Var(&f.grubbsAlpha, "grubbs-alpha", engine.DefaultGrubbsAlpha, "Grubbs significance level")
	fs.IntVar(&f.trendDegree, "trend-degree", engine.DefaultTrendDegree, "Trend polynomial degree (1-4)")
}

// overrides returns only the parameters set on the command line
func (f *inputFlags) overrides(cmd *cobra.Command) *engine.ParamOverrides {
	changed := func(name string) bool { return cmd.Flags().Changed(name) }
	float := func(v float64) *float64 { return &v }

	o := &engine.ParamOverrides{}
	if changed("iqr-k") {
		o.IQRK = float(f.iqrK)
	}
	if changed("z-thresh") {
		o.ZThresh = float(f.zThresh)
	}
	if changed("ma-window") {
		o.MAWindow = float(float64(f.maWindow))
	}
	if changed("ma-pct") {
		o.MAPct = float(f.maPct)
	}
	if changed("grubbs-alpha") {
		o.GrubbsAlpha = float(f.grubbsAlpha)
	}
	if changed("trend-degree") {
		o.TrendDegree = float(float64(f.trendDegree))
	}
	return o
}

// service builds an AnalysisService over the selected source. Defaults come
// from the config file when one is given.
func (f *inputFlags) service(cmd *cobra.Command) (*services.AnalysisService, error) {
	logger := logging.NewNop()
	defer func() { f.logger = logger }()
	if f.verbose {
		logger = logging.NewWithWriter(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}, zerolog.InfoLevel)
	}

	cfg := config.DefaultConfig()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	var src source.Source
	switch {
	case f.csvPath != "" && f.url != "":
		return nil, errors.New("--csv and --url are mutually exclusive")
	case f.csvPath != "":
		src = source.NewFileSource(f.csvPath, f.dateColumn, logger)
	case f.url != "":
		src = source.NewURLSource(f.url, f.dateColumn, 30*time.Second, logger)
	case f.configPath != "":
		var err error
		if src, err = source.New(cfg.Source, nil, cfg.Cache, logger); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("one of --csv, --url or --config is required")
	}

	eng := engine.New(engine.WithLogger(logger), engine.WithParallelism(cfg.Analysis.MaxParallelism))
	return services.NewAnalysisService(logger, src, eng, nil, nil, services.AnalysisServiceConfig{
		Defaults: engine.ParamsFromConfig(cfg.Analysis),
	}), nil
}
