package server

import (
	"bytes"
	"log"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/michaelbrown/carcin-play/internal/page"
	"github.com/michaelbrown/carcin-play/internal/play"
)

// handleDocs serves the docs directory. HTML pages get their code blocks
// turned into widgets; everything else is served as-is.
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	root := http.Dir(s.cfg.Docs.Dir)
	name := path.Clean("/" + strings.TrimPrefix(r.URL.Path, "/docs"))

	f, err := root.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	info, err := f.Stat()
	f.Close()
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if info.IsDir() {
		name = path.Join(name, "index.html")
	}

	if path.Ext(name) != ".html" {
		http.ServeFileFS(w, r, os.DirFS(s.cfg.Docs.Dir), strings.TrimPrefix(name, "/"))
		return
	}

	src, err := root.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer src.Close()

	var out bytes.Buffer
	widgets, err := page.Process(src, &out, page.Options{
		Class: s.cfg.Widget.Selector,
		NewWidget: func(code string) (*play.Widget, error) {
			return s.widgets.Create(code, s.runner, s.widgetCfg), nil
		},
		Manifest:    s.manifest,
		Stylesheets: []string{"/static/carcin-play.css"},
		Scripts:     []string{"/static/carcin-play.js"},
	})
	if err != nil {
		log.Printf("rendering %s: %v", name, err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	if len(widgets) > 0 {
		log.Printf("rendered %s with %d widgets", name, len(widgets))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(out.Bytes())
}
