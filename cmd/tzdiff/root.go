package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tzdiff/internal/cityindex"
	"tzdiff/internal/config"
	"tzdiff/internal/dataset"
	appLog "tzdiff/internal/log"
	"tzdiff/internal/metrics"
)

const defaultConfigPath = "./tzdiff.yaml"

var (
	configPath string
	datasetArg string
	logLevel   string
	noColor    bool

	// conf is the effective configuration, loaded before any subcommand runs.
	conf *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "tzdiff",
	Short:         "Show when the hour difference between two cities changes",
	Long:          `tzdiff compares the civil clocks of two cities day by day and lists every date on which their whole-hour difference changes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Path to config file (default $TZDIFF_CONFIG or "+defaultConfigPath+")")
	pf.StringVar(&datasetArg, "dataset", "", "Dataset path, http(s) URL or sqlite://path (overrides config)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	pf.BoolVar(&noColor, "no-color", false, "Disable coloured output")
}

// setup loads .env and the config file, then applies env and flag
// overrides in that order.
func setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		appLog.Warn("failed to load .env", "error", err)
	}

	path := configPath
	if path == "" {
		path = os.Getenv("TZDIFF_CONFIG")
	}
	if path == "" {
		path = defaultConfigPath
	}

	c, err := config.Load(path)
	if err != nil {
		if c == nil {
			return err
		}
		appLog.Warn("could not write default config; continuing with defaults", "config_path", path, "error", err)
	}
	c.ApplyEnv()

	if datasetArg != "" {
		c.Dataset = datasetArg
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if noColor {
		c.Color = false
	}

	appLog.SetLevel(appLog.ParseLevel(c.LogLevel))
	if !c.Color {
		color.NoColor = true
	}

	appLog.Debug("effective config",
		"config_path", path,
		"dataset", c.Dataset,
		"listen", c.Listen,
		"reload", c.Reload,
		"log_level", c.LogLevel,
	)
	conf = c
	return nil
}

// loadIndex reads the configured dataset and records the outcome in the
// dataset metrics.
func loadIndex(ctx context.Context) (*cityindex.Index, error) {
	idx, err := dataset.Load(ctx, conf.Dataset, dataset.Options{CacheDir: conf.DatasetCacheDir})
	if err != nil {
		metrics.DatasetLoadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.DatasetLoadsTotal.WithLabelValues("ok").Inc()
	metrics.DatasetRecords.Set(float64(idx.Len()))
	appLog.Info("dataset loaded", "records", idx.Len(), "names", idx.Names())
	return idx, nil
}
