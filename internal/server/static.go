package server

import (
	"io/fs"
	"net/http"

	"github.com/michaelbrown/carcin-play/web"
)

// staticHandler serves the embedded widget assets under /static/.
func staticHandler() http.Handler {
	static, _ := fs.Sub(web.Assets, "static")
	return http.StripPrefix("/static/", http.FileServer(http.FS(static)))
}
