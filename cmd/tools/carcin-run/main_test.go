package main

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/michaelbrown/carcin-play/internal/carcin"
)

type fakeRunner struct {
	run  *carcin.Run
	err  error
	opts carcin.Options
}

func (f *fakeRunner) Submit(ctx context.Context, code string, opts carcin.Options) (*carcin.Run, error) {
	f.opts = opts
	return f.run, f.err
}

func callTool(t *testing.T, tl *tool, args any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Name = "carcin_run"
	req.Params.Arguments = args
	res, err := tl.handle(context.Background(), req)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	return res
}

func resultText(res *mcp.CallToolResult) string {
	if len(res.Content) == 0 {
		return ""
	}
	tc, _ := res.Content[0].(mcp.TextContent)
	return tc.Text
}

func newTool(r carcin.Runner) *tool {
	return &tool{runner: r, translator: carcin.NewTranslator(nil), language: "crystal"}
}

func TestHandleRun(t *testing.T) {
	runner := &fakeRunner{run: &carcin.Run{
		ID: "x", Language: "ruby", Version: "3.3", Stdout: "hi\n",
		Stderr: "oops\nplaypen: timeout triggered!", ExitCode: 1,
	}}
	res := callTool(t, newTool(runner), map[string]any{"code": "puts 1", "language": "ruby"})

	if !res.IsError {
		t.Error("non-zero exit should be an error result")
	}
	text := resultText(res)
	for _, want := range []string{"hi\n", "STDERR:\noops\nExecution timed out.", "exit code: 1", "Compiled with ruby 3.3"} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}
	if runner.opts.Language() != "ruby" {
		t.Errorf("language = %q", runner.opts.Language())
	}
}

func TestHandleDefaultsLanguage(t *testing.T) {
	runner := &fakeRunner{run: &carcin.Run{Stdout: "ok"}}
	res := callTool(t, newTool(runner), map[string]any{"code": "puts 1"})

	if res.IsError {
		t.Errorf("unexpected error result: %s", resultText(res))
	}
	if runner.opts.Language() != "crystal" {
		t.Errorf("language = %q", runner.opts.Language())
	}
}

func TestHandleErrors(t *testing.T) {
	tests := []struct {
		name string
		args any
		err  error
		want string
	}{
		{name: "invalid args", args: nil, want: "invalid arguments"},
		{name: "missing code", args: map[string]any{}, want: "'code' is required"},
		{
			name: "service error",
			args: map[string]any{"code": "x"},
			err:  &carcin.ServiceError{StatusCode: 422, Payload: map[string]any{"message": "bad language"}},
			want: "error: bad language",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, newTool(&fakeRunner{err: tt.err}), tt.args)
			if !res.IsError {
				t.Error("expected error result")
			}
			if !strings.Contains(resultText(res), tt.want) {
				t.Errorf("text = %q, want %q", resultText(res), tt.want)
			}
		})
	}
}

func TestHandleTruncates(t *testing.T) {
	runner := &fakeRunner{run: &carcin.Run{Stdout: strings.Repeat("a", maxOutput*2)}}
	text := resultText(callTool(t, newTool(runner), map[string]any{"code": "x"}))

	if !strings.HasSuffix(text, "... (output truncated)") {
		t.Error("expected truncation marker")
	}
	if len(text) > maxOutput+len("\n... (output truncated)") {
		t.Errorf("len = %d", len(text))
	}
}
