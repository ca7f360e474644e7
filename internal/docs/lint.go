// Package docs checks and rewrites the markdown sources of the docs site.
package docs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// WarningKind classifies a lint finding.
type WarningKind string

const (
	// KindNonMarkdownLink is an internal link that points at rendered output
	// (".html" or a directory) instead of the ".md" source.
	KindNonMarkdownLink WarningKind = "non-markdown-link"
	// KindAbsoluteSelfLink is an absolute link back into the site itself.
	KindAbsoluteSelfLink WarningKind = "absolute-self-link"
)

// Warning is one lint finding.
type Warning struct {
	File string
	Kind WarningKind
	Link string
}

func (w Warning) String() string {
	switch w.Kind {
	case KindNonMarkdownLink:
		return fmt.Sprintf("Documentation file '%s' contains an internal link that doesn't end with .md: '%s'", w.File, w.Link)
	case KindAbsoluteSelfLink:
		return fmt.Sprintf("Documentation file '%s' contains an absolute link to the site itself: '%s'", w.File, w.Link)
	default:
		return fmt.Sprintf("Documentation file '%s': %s: '%s'", w.File, w.Kind, w.Link)
	}
}

var (
	nonMarkdownLinkRe = regexp.MustCompile(`\[\w.*?\]\(([^ )]*?(?:\.html|/)(?:#[^ )]*?)?)\)`)
	selfLinkRe        = regexp.MustCompile(`\]\(((?:https?://crystal-lang\.org/reference)?/[^ )]*?)\)`)
)

const apiLatestURL = "https://crystal-lang.org/api/latest/"

// Check lints one markdown document. path is only used for reporting.
func Check(path, markdown string) []Warning {
	var warnings []Warning
	for _, m := range nonMarkdownLinkRe.FindAllStringSubmatch(markdown, -1) {
		if strings.HasPrefix(m[1], "http") {
			continue
		}
		warnings = append(warnings, Warning{File: path, Kind: KindNonMarkdownLink, Link: m[1]})
	}
	for _, m := range selfLinkRe.FindAllStringSubmatch(markdown, -1) {
		warnings = append(warnings, Warning{File: path, Kind: KindAbsoluteSelfLink, Link: m[1]})
	}
	return warnings
}

// RewriteAPIVersion pins links to the "latest" API docs to version.
func RewriteAPIVersion(markdown, version string) string {
	if version == "" || version == "latest" {
		return markdown
	}
	return strings.ReplaceAll(markdown, apiLatestURL, "https://crystal-lang.org/api/"+version+"/")
}

// CheckDir lints every .md file under root. Reported paths are relative to
// root.
func CheckDir(root string) ([]Warning, error) {
	var warnings []Warning
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".md" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		warnings = append(warnings, Check(filepath.ToSlash(rel), string(data))...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return warnings, nil
}
