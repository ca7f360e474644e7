package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/michaelbrown/carcin-play/internal/carcin"
	"github.com/michaelbrown/carcin-play/internal/play"
)

var playCmd = &cobra.Command{
	Use:   "play [file]",
	Short: "Start an interactive playground",
	Long: `Start an interactive editor backed by a single playground widget.

Lines you type are appended to the buffer; /run submits it to carc.in.
An optional file seeds the buffer.

Examples:
  carcin-play play
  carcin-play play hello.cr --language ruby`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var seed string
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading code: %w", err)
		}
		seed = string(data)
	}

	tr := cfg.Translator()
	widget := play.New("repl", seed, newRunner(cfg), play.Config{
		Options:    cfg.RunOptions(),
		Translator: tr,
		Logger:     log.New(io.Discard, "", 0),
	})

	fmt.Printf("carcin-play - interactive playground\n")
	fmt.Printf("Service: %s | Language: %s\n", baseURLOrDefault(cfg.Carcin.BaseURL), cfg.RunOptions().Language())
	fmt.Printf("Type code, /run to execute, /help for commands\n\n")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36mcode>\033[0m ",
		HistoryFile:     filepath.Join(os.TempDir(), "carcin_play_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	// Ctrl+C cancels the in-flight run, not the whole app.
	var reqCancel cancelSlot
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			reqCancel.cancel()
		}
	}()

	r := &repl{widget: widget, translator: tr, out: os.Stdout}
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		if !strings.HasPrefix(strings.TrimSpace(line), "/") {
			r.appendLine(line)
			continue
		}

		reqCtx, cancel := context.WithCancel(context.Background())
		reqCancel.set(cancel)
		quit := r.command(reqCtx, strings.TrimSpace(line))
		reqCancel.set(nil)
		cancel()
		if quit {
			fmt.Println("Goodbye!")
			return nil
		}
	}
}

// cancelSlot holds the cancel func of the in-flight command. It is shared
// between the REPL loop and the signal goroutine.
type cancelSlot struct {
	fn atomic.Pointer[context.CancelFunc]
}

func (s *cancelSlot) set(cancel context.CancelFunc) {
	if cancel == nil {
		s.fn.Store(nil)
		return
	}
	s.fn.Store(&cancel)
}

func (s *cancelSlot) cancel() {
	if fn := s.fn.Load(); fn != nil {
		(*fn)()
	}
}

func baseURLOrDefault(u string) string {
	if u == "" {
		return carcin.DefaultBaseURL
	}
	return u
}

// repl drives a widget from typed lines and slash commands.
type repl struct {
	widget     *play.Widget
	translator *carcin.Translator
	out        io.Writer
}

func (r *repl) appendLine(line string) {
	code := r.widget.Code()
	if code != "" && !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	r.widget.SetCode(code + line + "\n")
}

// command handles a slash command and reports whether to quit.
func (r *repl) command(ctx context.Context, input string) bool {
	switch strings.ToLower(strings.Fields(input)[0]) {
	case "/quit", "/exit", "/q":
		return true
	case "/run", "/r":
		outcome, err := r.widget.RunAndWait(ctx)
		if err != nil {
			fmt.Fprintf(r.out, "\033[31merror: %s\033[0m\n\n", err)
			break
		}
		if outcome.Err != nil {
			fmt.Fprintf(r.out, "\033[31mRun failed: %s\033[0m\n\n", play.ErrorMessage(outcome.Err))
			break
		}
		play.WriteText(r.out, outcome.Run, r.translator)
		fmt.Fprintln(r.out)
	case "/show":
		fmt.Fprint(r.out, r.widget.Code())
		fmt.Fprintln(r.out)
	case "/clear":
		r.widget.SetCode("")
		fmt.Fprintln(r.out, "Buffer cleared.")
	case "/reset":
		r.widget.Reset()
		fmt.Fprintln(r.out, "Widget reset.")
	case "/help":
		fmt.Fprintln(r.out, "Commands:")
		fmt.Fprintln(r.out, "  /run    - Run the buffer on carc.in")
		fmt.Fprintln(r.out, "  /show   - Print the buffer")
		fmt.Fprintln(r.out, "  /clear  - Empty the buffer")
		fmt.Fprintln(r.out, "  /reset  - Clear the last result")
		fmt.Fprintln(r.out, "  /quit   - Exit")
		fmt.Fprintln(r.out)
	default:
		fmt.Fprintf(r.out, "Unknown command: %s (try /help)\n\n", input)
	}
	return false
}
