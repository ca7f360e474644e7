package carcin

import "strings"

// SandboxPrefix marks diagnostics emitted by the sandbox itself rather
// than by the user's program.
const SandboxPrefix = "playpen:"

var playpenMessages = map[string]string{
	"timeout triggered!":                      "Execution timed out.",
	"write: Resource temporarily unavailable": "Execution timed out or too much output.",
}

// Translator rewrites sandbox diagnostics in stderr into user-facing text.
// Prefixed lines without a known message are dropped.
type Translator struct {
	messages map[string]string
}

// NewTranslator returns a Translator with the built-in messages plus extra.
// Entries in extra cannot shadow the built-ins.
func NewTranslator(extra map[string]string) *Translator {
	messages := make(map[string]string, len(playpenMessages)+len(extra))
	for k, v := range extra {
		messages[k] = v
	}
	for k, v := range playpenMessages {
		messages[k] = v
	}
	return &Translator{messages: messages}
}

// Translate applies the translator to every line of stderr.
func (t *Translator) Translate(stderr string) string {
	lines := strings.Split(stderr, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if !strings.HasPrefix(line, SandboxPrefix) {
			kept = append(kept, line)
			continue
		}
		// The separator after the prefix is skipped whatever it is.
		key := ""
		if len(line) > len(SandboxPrefix) {
			key = line[len(SandboxPrefix)+1:]
		}
		if msg, known := t.messages[key]; known {
			kept = append(kept, msg)
		}
	}
	return strings.Join(kept, "\n")
}

var defaultTranslator = NewTranslator(nil)

// Translate uses the built-in message table.
func Translate(stderr string) string {
	return defaultTranslator.Translate(stderr)
}
