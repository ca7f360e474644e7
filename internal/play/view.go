package play

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"

	"github.com/michaelbrown/carcin-play/internal/carcin"
)

// View is an immutable snapshot of everything needed to draw a widget.
type View struct {
	ID          string        `json:"id"`
	Code        string        `json:"code"`
	State       State         `json:"state"`
	Loading     bool          `json:"loading"`
	HasError    bool          `json:"has_error"`
	RunDisabled bool          `json:"run_disabled"`
	ShowStdout  bool          `json:"show_stdout"`
	Stdout      string        `json:"stdout,omitempty"`
	ShowStderr  bool          `json:"show_stderr"`
	StderrHTML  template.HTML `json:"stderr_html,omitempty"`
	StatusHTML  template.HTML `json:"status_html,omitempty"`
	Run         *carcin.Run   `json:"run,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// View snapshots the widget.
func (w *Widget) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := View{
		ID:          w.id,
		Code:        w.code,
		State:       w.state,
		Loading:     w.loading,
		HasError:    w.hasError,
		RunDisabled: w.runDisabled,
		Run:         w.run,
	}

	if w.run != nil {
		v.ShowStdout = w.run.Stdout != ""
		v.Stdout = w.run.Stdout
		if w.run.Stderr != "" {
			v.ShowStderr = true
			v.StderrHTML = w.stderrHTML(w.run.Stderr)
		}
		v.StatusHTML = statusHTML(w.run)
	}

	if w.err != nil {
		v.Error = ErrorMessage(w.err)
		if !w.cfg.LockOnFailure {
			v.StatusHTML = failureHTML(v.Error)
		}
	}
	return v
}

func (w *Widget) stderrHTML(stderr string) template.HTML {
	text := w.cfg.Translator.Translate(stderr)
	if w.cfg.Colorizer != nil {
		return template.HTML(w.cfg.Colorizer.ColorizeHTML(text))
	}
	return template.HTML(template.HTMLEscapeString(text))
}

// ErrorMessage renders a run error for display.
func ErrorMessage(err error) string {
	var svcErr *carcin.ServiceError
	if errors.As(err, &svcErr) {
		if msg := svcErr.Message(); msg != "" {
			return msg
		}
	}
	return err.Error()
}

var statusTmpl = template.Must(template.New("status").Parse(
	`Compiled with {{.Language}} {{.Version}}. Exit code: {{.ExitCode}} ({{.CreatedAt}}, <a href="{{.HTMLURL}}"><code>{{.ID}}</code></a>)`))

var failureTmpl = template.Must(template.New("failure").Parse(`Run failed: {{.}}`))

func statusHTML(run *carcin.Run) template.HTML {
	return mustExecute(statusTmpl, run)
}

func failureHTML(msg string) template.HTML {
	return mustExecute(failureTmpl, msg)
}

// mustExecute renders a fragment template. The templates are fixed and their
// data types known, so a failure is a programming error and panics.
func mustExecute(t *template.Template, data any) template.HTML {
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		panic(fmt.Sprintf("play: rendering %s: %v", t.Name(), err))
	}
	return template.HTML(b.String())
}

var widgetTmpl = template.Must(template.New("widget").Parse(`<div class="carcin-play{{if .Loading}} loading{{end}}{{if .HasError}} error{{end}}" id="carcin-play-{{.ID}}" data-widget-id="{{.ID}}">` +
	`<textarea class="carcin-play__editor" spellcheck="false">{{.Code}}</textarea>` +
	`<div class="carcin-play__actions">` +
	`<button class="md-button md-button--primary" title="Run code (Ctrl + Enter)"{{if .RunDisabled}} disabled{{end}}>` +
	`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><path d="M8 5v14l11-7z"/></svg></button>` +
	`</div>` +
	`<div class="carcin-play__output">` +
	`<pre class="carcin-play__stdout"{{if not .ShowStdout}} style="display: none"{{end}}><code>{{.Stdout}}</code></pre>` +
	`<pre class="carcin-play__stderr"{{if not .ShowStderr}} style="display: none"{{end}}><code>{{.StderrHTML}}</code></pre>` +
	`<div class="carcin-play__status">{{.StatusHTML}}</div>` +
	`</div>` +
	`</div>`))

// Render writes the widget's HTML subtree.
func (w *Widget) Render(out io.Writer) error {
	return w.View().Render(out)
}

// Render writes the HTML subtree for the snapshot.
func (v View) Render(out io.Writer) error {
	return widgetTmpl.Execute(out, v)
}

// HTML renders the snapshot to a string.
func (v View) HTML() (string, error) {
	var b bytes.Buffer
	if err := v.Render(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}
