package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/carcin-play/internal/carcin"
	"github.com/michaelbrown/carcin-play/internal/config"
	"github.com/michaelbrown/carcin-play/internal/observability"
)

var (
	baseURLFlag  string
	languageFlag string
	configFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "carcin-play",
	Short: "carcin-play - runnable code blocks backed by carc.in",
	Long: `carcin-play turns code blocks in documentation pages into editable,
runnable widgets that execute on the carc.in service.

Run snippets from the terminal, pre-render HTML pages, or serve a docs
directory with live widgets.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "carc.in base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&languageFlag, "language", "", "Language to run code as (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: ./carcin-play.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the persistent flags.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFlag != "" {
		cfg, err = config.LoadFile(configFlag)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if baseURLFlag != "" {
		cfg.Carcin.BaseURL = baseURLFlag
	}
	if languageFlag != "" {
		cfg.Carcin.Language = languageFlag
		delete(cfg.Carcin.Options, "language")
	}
	return cfg, nil
}

// newRunner builds the instrumented carc.in client for cfg.
func newRunner(cfg *config.Config) carcin.Runner {
	return observability.Instrument(carcin.NewClient(cfg.Carcin.BaseURL), cfg.RunOptions().Language())
}
