package play

import (
	"fmt"
	"io"
	"strings"

	"github.com/michaelbrown/carcin-play/internal/carcin"
)

// StatusLine is the plain-text form of the widget status line.
func StatusLine(run *carcin.Run) string {
	return fmt.Sprintf("Compiled with %s %s. Exit code: %d (%s, %s)",
		run.Language, run.Version, run.ExitCode, run.CreatedAt, run.HTMLURL)
}

// WriteText prints a run for a terminal: stdout, translated stderr, then the
// status line. Empty streams are skipped.
func WriteText(w io.Writer, run *carcin.Run, tr *carcin.Translator) {
	if tr == nil {
		tr = carcin.NewTranslator(nil)
	}
	if run.Stdout != "" {
		fmt.Fprint(w, run.Stdout)
		if !strings.HasSuffix(run.Stdout, "\n") {
			fmt.Fprintln(w)
		}
	}
	if run.Stderr != "" {
		if stderr := tr.Translate(run.Stderr); stderr != "" {
			fmt.Fprintf(w, "\033[31m%s\033[0m", stderr)
			if !strings.HasSuffix(stderr, "\n") {
				fmt.Fprintln(w)
			}
		}
	}
	fmt.Fprintf(w, "\033[90m%s\033[0m\n", StatusLine(run))
}
