package play

import terminal "github.com/buildkite/terminal-to-html/v3"

// ANSIColorizer renders ANSI colour codes as styled spans.
type ANSIColorizer struct{}

func (ANSIColorizer) ColorizeHTML(s string) string {
	return string(terminal.Render([]byte(s)))
}
