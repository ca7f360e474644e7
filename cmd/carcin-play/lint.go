package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/carcin-play/internal/docs"
)

var (
	rewriteFlag bool
	strictFlag  bool
)

var lintCmd = &cobra.Command{
	Use:   "lint [dir]",
	Short: "Check markdown sources for bad links",
	Long: `Warn about links to non-markdown files and absolute links into the docs
site, and optionally pin "latest" API links to the configured docs version.

The directory defaults to the config's docs.dir. The version comes from
docs.version or CRYSTAL_VERSION.

Examples:
  carcin-play lint docs
  CRYSTAL_VERSION=1.10.0 carcin-play lint docs --rewrite-version`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLint,
}

func init() {
	lintCmd.Flags().BoolVar(&rewriteFlag, "rewrite-version", false, "Rewrite latest API links in place")
	lintCmd.Flags().BoolVar(&strictFlag, "strict", false, "Exit non-zero when warnings are found")
	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	root := cfg.Docs.Dir
	if len(args) == 1 {
		root = args[0]
	}

	warnings, err := docs.CheckDir(root)
	if err != nil {
		return fmt.Errorf("linting %s: %w", root, err)
	}
	for _, w := range warnings {
		log.Print(w)
	}

	if rewriteFlag {
		n, err := rewriteDir(root, cfg.Docs.Version)
		if err != nil {
			return err
		}
		log.Printf("pinned API links to %s in %d files", cfg.Docs.Version, n)
	}

	if strictFlag && len(warnings) > 0 {
		return fmt.Errorf("%d link warnings", len(warnings))
	}
	return nil
}

// rewriteDir applies docs.RewriteAPIVersion to every markdown file under
// root and returns how many files changed.
func rewriteDir(root, version string) (int, error) {
	changed := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".md" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out := docs.RewriteAPIVersion(string(data), version)
		if out == string(data) {
			return nil
		}
		changed++
		return os.WriteFile(path, []byte(out), 0o644)
	})
	if err != nil {
		return changed, fmt.Errorf("rewriting %s: %w", root, err)
	}
	return changed, nil
}
