package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/michaelbrown/carcin-play/internal/carcin"
	"github.com/michaelbrown/carcin-play/internal/play"
)

var (
	codeFlag   string
	formatFlag string
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a snippet on carc.in",
	Long: `Submit code to carc.in and print the result.

Code comes from -c, the given file, or stdin, in that order.

Examples:
  carcin-play run hello.cr
  carcin-play run -c 'puts "hi"'
  echo 'puts 1' | carcin-play run --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&codeFlag, "code", "c", "", "Code to run")
	runCmd.Flags().StringVar(&formatFlag, "format", "text", "Output format: text, json or yaml")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	switch formatFlag {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (use text, json or yaml)", formatFlag)
	}

	code, err := readCode(codeFlag, args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, err := newRunner(cfg).Submit(ctx, code, cfg.RunOptions())
	if err != nil {
		return fmt.Errorf("run failed: %s", play.ErrorMessage(err))
	}

	if err := writeRun(cmd.OutOrStdout(), run, formatFlag, cfg.Translator()); err != nil {
		return err
	}
	if run.ExitCode != 0 {
		os.Exit(run.ExitCode)
	}
	return nil
}

func readCode(inline string, args []string, stdin io.Reader) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading code: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no code given")
	}
	return string(data), nil
}

// writeRun prints run in the given format. Structured formats carry stderr
// already translated.
func writeRun(w io.Writer, run *carcin.Run, format string, tr *carcin.Translator) error {
	switch format {
	case "json":
		out := *run
		out.Stderr = tr.Translate(run.Stderr)
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		out := *run
		out.Stderr = tr.Translate(run.Stderr)
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(out)
	default:
		play.WriteText(w, run, tr)
		return nil
	}
}
