package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/carcin-play/internal/config"
	"github.com/michaelbrown/carcin-play/internal/page"
	"github.com/michaelbrown/carcin-play/internal/play"
)

var (
	outputFlag      string
	versionsFlag    string
	stylesheetFlags []string
	scriptFlags     []string
)

var renderCmd = &cobra.Command{
	Use:   "render <page.html>",
	Short: "Pre-render widgets into an HTML page",
	Long: `Replace the runnable code blocks of an HTML page with widget markup.

Examples:
  carcin-play render site/syntax/index.html -o out.html
  carcin-play render page.html --versions site/versions.json --script /js/carcin-play.js`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file (default: stdout)")
	renderCmd.Flags().StringVar(&versionsFlag, "versions", "", "versions.json path or URL (overrides config)")
	renderCmd.Flags().StringSliceVar(&stylesheetFlags, "stylesheet", nil, "Stylesheet URL to link when widgets are present")
	renderCmd.Flags().StringSliceVar(&scriptFlags, "script", nil, "Script URL to load when widgets are present")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	manifest, err := loadManifest(cmd.Context(), cfg, versionsFlag)
	if err != nil {
		return err
	}

	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening page: %w", err)
	}
	defer in.Close()

	var out io.Writer = cmd.OutOrStdout()
	if outputFlag != "" {
		f, err := os.Create(outputFlag)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		out = f
	}

	widgetCfg := play.Config{
		Options:    cfg.RunOptions(),
		Translator: cfg.Translator(),
	}
	runner := newRunner(cfg)
	n := 0
	widgets, err := page.Process(in, out, page.Options{
		Class: cfg.Widget.Selector,
		NewWidget: func(code string) (*play.Widget, error) {
			n++
			return play.New(fmt.Sprintf("block-%d", n), code, runner, widgetCfg), nil
		},
		Manifest:    manifest,
		Stylesheets: stylesheetFlags,
		Scripts:     scriptFlags,
	})
	if err != nil {
		return fmt.Errorf("rendering %s: %w", args[0], err)
	}

	log.Printf("rendered %s with %d widgets", args[0], len(widgets))
	return nil
}

// loadManifest loads the versions manifest named by override or the config.
// No source means no manifest.
func loadManifest(ctx context.Context, cfg *config.Config, override string) (page.Manifest, error) {
	src := cfg.Docs.Versions
	if override != "" {
		src = override
	}
	if src == "" {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	m, err := page.LoadManifest(ctx, src, nil)
	if err != nil {
		return nil, err
	}
	return m, nil
}
