package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/michaelbrown/carcin-play/internal/carcin"
	"github.com/michaelbrown/carcin-play/internal/play"
)

const maxOutput = 4000

func main() {
	s := server.NewMCPServer("carcin-run", "0.1.0")

	t := &tool{
		runner:     carcin.NewClient(os.Getenv("CARCIN_PLAY_CARCIN_BASE_URL")),
		translator: carcin.NewTranslator(nil),
		language:   envOr("CARCIN_PLAY_CARCIN_LANGUAGE", "crystal"),
	}

	s.AddTool(mcp.Tool{
		Name:        "carcin_run",
		Description: fmt.Sprintf("Execute code on the carc.in service. Defaults to %s.", t.language),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Source code to execute",
				},
				"language": map[string]any{
					"type":        "string",
					"description": "Language to run as (optional, e.g. crystal, ruby)",
				},
			},
			Required: []string{"code"},
		},
	}, t.handle)

	if err := server.ServeStdio(s); err != nil {
		fmt.Printf("server error: %v\n", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type tool struct {
	runner     carcin.Runner
	translator *carcin.Translator
	language   string
}

func (t *tool) handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return errResult("error: invalid arguments"), nil
	}

	code, _ := args["code"].(string)
	language, _ := args["language"].(string)
	if code == "" {
		return errResult("error: 'code' is required"), nil
	}
	if language == "" {
		language = t.language
	}

	run, err := t.runner.Submit(ctx, code, carcin.Options{"language": language})
	if err != nil {
		return errResult("error: " + play.ErrorMessage(err)), nil
	}

	var output strings.Builder
	if run.Stdout != "" {
		output.WriteString(run.Stdout)
	}
	if stderr := t.translator.Translate(run.Stderr); stderr != "" {
		if output.Len() > 0 {
			output.WriteString("\n")
		}
		output.WriteString("STDERR:\n" + stderr)
	}
	if run.ExitCode != 0 {
		output.WriteString(fmt.Sprintf("\nexit code: %d", run.ExitCode))
	}
	output.WriteString("\n" + play.StatusLine(run))

	text := output.String()
	if len(text) > maxOutput {
		text = text[:maxOutput] + "\n... (output truncated)"
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: run.ExitCode != 0,
	}, nil
}

func errResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: true,
	}
}
