package page

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	latestAlias         = "latest"
	versionCurrentClass = "md-version__current"
)

// Version is one entry of a versions.json manifest.
type Version struct {
	Version string   `json:"version"`
	Title   string   `json:"title"`
	Aliases []string `json:"aliases"`
}

// Manifest is the parsed versions.json.
type Manifest []Version

// Latest returns the first entry aliased "latest".
func (m Manifest) Latest() (Version, bool) {
	for _, v := range m {
		if slices.Contains(v.Aliases, latestAlias) {
			return v, true
		}
	}
	return Version{}, false
}

// Outdated reports whether current is not the latest version. Without a
// latest entry nothing is outdated.
func (m Manifest) Outdated(current string) bool {
	latest, ok := m.Latest()
	if !ok {
		return false
	}
	return strings.TrimSpace(current) != latest.Version
}

// ParseManifest decodes a versions.json document.
func ParseManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding versions manifest: %w", err)
	}
	return m, nil
}

// LoadManifest reads a manifest from an http(s) URL or a local path.
func LoadManifest(ctx context.Context, src string, hc *http.Client) (Manifest, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("opening versions manifest: %w", err)
		}
		defer f.Close()
		return ParseManifest(f)
	}

	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching versions manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("versions manifest returned %d: %s", resp.StatusCode, string(body))
	}
	return ParseManifest(resp.Body)
}

// AnnotateVersion appends "(outdated)" next to the version selector when the
// version it shows is not the latest. It reports whether it did.
func AnnotateVersion(doc *html.Node, m Manifest) bool {
	var current *html.Node
	walk(doc, func(n *html.Node) {
		if current == nil && hasClass(n, versionCurrentClass) {
			current = n
		}
	})
	if current == nil || current.Parent == nil || !m.Outdated(textContent(current)) {
		return false
	}

	small := element(atom.Small)
	small.AppendChild(&html.Node{Type: html.TextNode, Data: "(outdated)"})
	current.Parent.AppendChild(&html.Node{Type: html.TextNode, Data: " "})
	current.Parent.AppendChild(small)
	return true
}
