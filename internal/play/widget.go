// Package play implements the playground widget: per-block editor state,
// the run lifecycle against a carcin.Runner, and HTML rendering of the
// result.
package play

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/michaelbrown/carcin-play/internal/carcin"
)

// State is the lifecycle state of a widget.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateFailure State = "failure"
)

// ErrRunInProgress is returned by Run while a previous run is in flight.
var ErrRunInProgress = errors.New("run already in progress")

// Colorizer turns ANSI escape sequences into HTML. Its output is trusted
// and must already be escaped.
type Colorizer interface {
	ColorizeHTML(s string) string
}

// Config is shared by all widgets built from the same page or server.
type Config struct {
	Options    carcin.Options
	Translator *carcin.Translator
	Colorizer  Colorizer // nil means plain escaped text

	// LockOnFailure keeps a failed widget looking busy with its run action
	// disabled until Reset.
	LockOnFailure bool

	Logger *log.Logger
}

// Outcome is the single result delivered for a run.
type Outcome struct {
	Run *carcin.Run
	Err error
}

// Widget is one embedded editor.
type Widget struct {
	id     string
	runner carcin.Runner
	cfg    Config

	mu          sync.Mutex
	code        string
	state       State
	loading     bool
	hasError    bool
	runDisabled bool
	run         *carcin.Run
	err         error
}

// New creates an idle widget holding code.
func New(id, code string, runner carcin.Runner, cfg Config) *Widget {
	if cfg.Translator == nil {
		cfg.Translator = carcin.NewTranslator(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Widget{
		id:     id,
		runner: runner,
		cfg:    cfg,
		code:   code,
		state:  StateIdle,
	}
}

// ID returns the widget identifier.
func (w *Widget) ID() string { return w.id }

// Code returns the current editor contents.
func (w *Widget) Code() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.code
}

// SetCode replaces the editor contents. A run already in flight keeps the
// code it was started with.
func (w *Widget) SetCode(code string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.code = code
}

// State returns the lifecycle state.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Result returns the last successful run and the last error, if any.
func (w *Widget) Result() (*carcin.Run, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.run, w.err
}

// Run submits the current editor contents. The returned channel receives
// exactly one Outcome and is then closed. The widget state is updated
// before the outcome is sent.
func (w *Widget) Run(ctx context.Context) (<-chan Outcome, error) {
	return w.start(ctx, nil)
}

// RunCode replaces the editor contents and runs them. While a run is in
// flight it returns ErrRunInProgress and leaves the editor untouched.
func (w *Widget) RunCode(ctx context.Context, code string) (<-chan Outcome, error) {
	return w.start(ctx, &code)
}

func (w *Widget) start(ctx context.Context, newCode *string) (<-chan Outcome, error) {
	w.mu.Lock()
	if w.state == StateLoading {
		w.mu.Unlock()
		return nil, ErrRunInProgress
	}
	if newCode != nil {
		w.code = *newCode
	}
	w.state = StateLoading
	w.loading = true
	w.runDisabled = true
	code := w.code
	w.mu.Unlock()

	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		run, err := w.runner.Submit(ctx, code, w.cfg.Options)
		if err != nil {
			w.fail(err)
		} else {
			w.succeed(run)
		}
		ch <- Outcome{Run: run, Err: err}
	}()
	return ch, nil
}

// RunAndWait starts a run and blocks until its outcome arrives. A run that
// fails still returns a nil error; the failure is in the Outcome.
func (w *Widget) RunAndWait(ctx context.Context) (Outcome, error) {
	return wait(w.Run(ctx))
}

// RunCodeAndWait is RunCode followed by waiting for the outcome.
func (w *Widget) RunCodeAndWait(ctx context.Context, code string) (Outcome, error) {
	return wait(w.RunCode(ctx, code))
}

func wait(ch <-chan Outcome, err error) (Outcome, error) {
	if err != nil {
		return Outcome{}, err
	}
	return <-ch, nil
}

func (w *Widget) succeed(run *carcin.Run) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state = StateSuccess
	w.loading = false
	w.runDisabled = false
	w.hasError = run.ExitCode != 0
	w.run = run
	w.err = nil

	w.cfg.Logger.Printf("widget %s: run %s finished with exit code %d", w.id, run.ID, run.ExitCode)
}

func (w *Widget) fail(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state = StateFailure
	w.err = err
	if !w.cfg.LockOnFailure {
		w.loading = false
		w.runDisabled = false
		w.hasError = true
	}

	w.cfg.Logger.Printf("widget %s: run failed: %v", w.id, err)
}

// Reset returns the widget to idle, clearing results and any failure lock.
// The editor contents are kept. Reset during a run is ignored.
func (w *Widget) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateLoading {
		return
	}
	w.state = StateIdle
	w.loading = false
	w.runDisabled = false
	w.hasError = false
	w.run = nil
	w.err = nil
}
