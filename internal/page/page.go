// Package page rewrites documentation HTML: code blocks become playground
// widgets and the version selector is flagged when outdated.
package page

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/michaelbrown/carcin-play/internal/play"
)

// DefaultClass marks the containers whose code blocks become widgets.
const DefaultClass = "crystal-play"

const clipboardClass = "md-clipboard"

// Factory creates the widget for one code block.
type Factory func(code string) (*play.Widget, error)

// Options controls Process.
type Options struct {
	Class     string
	NewWidget Factory

	// Manifest, when set, drives the outdated version banner.
	Manifest Manifest

	// Stylesheets and Scripts are appended to <head> and <body>.
	Stylesheets []string
	Scripts     []string
}

// Process parses an HTML document from r, replaces its code blocks with
// widgets and writes the result to w.
func Process(r io.Reader, w io.Writer, opts Options) ([]*play.Widget, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	widgets, err := Bootstrap(doc, opts.Class, opts.NewWidget)
	if err != nil {
		return nil, err
	}
	if opts.Manifest != nil {
		AnnotateVersion(doc, opts.Manifest)
	}
	if len(widgets) > 0 {
		injectAssets(doc, opts.Stylesheets, opts.Scripts)
	}

	if err := html.Render(w, doc); err != nil {
		return nil, fmt.Errorf("rendering html: %w", err)
	}
	return widgets, nil
}

// Bootstrap replaces every code element sitting in a pre directly under an
// element with the given class. The widgets are returned in document order.
func Bootstrap(doc *html.Node, class string, newWidget Factory) ([]*play.Widget, error) {
	if class == "" {
		class = DefaultClass
	}

	var targets []*html.Node
	walk(doc, func(n *html.Node) {
		if isPlayCode(n, class) {
			targets = append(targets, n)
		}
	})

	widgets := make([]*play.Widget, 0, len(targets))
	for _, code := range targets {
		pre := code.Parent
		removeAll(pre.Parent, func(n *html.Node) bool { return hasClass(n, clipboardClass) })

		w, err := newWidget(textContent(code))
		if err != nil {
			return nil, fmt.Errorf("creating widget: %w", err)
		}

		markup, err := w.View().HTML()
		if err != nil {
			return nil, fmt.Errorf("rendering widget: %w", err)
		}
		nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
			Type:     html.ElementNode,
			Data:     "div",
			DataAtom: atom.Div,
		})
		if err != nil {
			return nil, fmt.Errorf("parsing widget markup: %w", err)
		}
		for _, n := range nodes {
			pre.InsertBefore(n, code)
		}
		pre.RemoveChild(code)

		widgets = append(widgets, w)
	}
	return widgets, nil
}

func isPlayCode(n *html.Node, class string) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Code {
		return false
	}
	pre := n.Parent
	if pre == nil || pre.DataAtom != atom.Pre {
		return false
	}
	return pre.Parent != nil && hasClass(pre.Parent, class)
}

func injectAssets(doc *html.Node, stylesheets, scripts []string) {
	if head := findElement(doc, atom.Head); head != nil {
		for _, href := range stylesheets {
			head.AppendChild(element(atom.Link, "rel", "stylesheet", "href", href))
		}
	}
	if body := findElement(doc, atom.Body); body != nil {
		for _, src := range scripts {
			body.AppendChild(element(atom.Script, "src", src))
		}
	}
}

// --- node helpers ---

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findElement(doc *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) {
		if found == nil && n.Type == html.ElementNode && n.DataAtom == a {
			found = n
		}
	})
	return found
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key == "class" && slices.Contains(strings.Fields(attr.Val), class) {
			return true
		}
	}
	return false
}

func removeAll(root *html.Node, match func(*html.Node) bool) {
	var doomed []*html.Node
	walk(root, func(n *html.Node) {
		if n != root && match(n) {
			doomed = append(doomed, n)
		}
	})
	for _, n := range doomed {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}
