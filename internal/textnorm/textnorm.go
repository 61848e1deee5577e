// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textnorm converts HTML fragments from post titles and bodies
// into plain text. Block-level elements become line breaks and inline
// markup disappears without inserting separators. Normalize never fails:
// broken markup degrades to best-effort text.
package textnorm

import (
	stdhtml "html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	reTag      = regexp.MustCompile(`<[^>]*>`)
	reNewlines = regexp.MustCompile(`\n{3,}`)
)

// blockElements end the current line before and after their content.
var blockElements = map[atom.Atom]bool{
	atom.Address:    true,
	atom.Article:    true,
	atom.Aside:      true,
	atom.Blockquote: true,
	atom.Dd:         true,
	atom.Details:    true,
	atom.Div:        true,
	atom.Dl:         true,
	atom.Dt:         true,
	atom.Figcaption: true,
	atom.Figure:     true,
	atom.Footer:     true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Header:     true,
	atom.Hr:         true,
	atom.Li:         true,
	atom.Ol:         true,
	atom.P:          true,
	atom.Pre:        true,
	atom.Section:    true,
	atom.Summary:    true,
	atom.Table:      true,
	atom.Tr:         true,
	atom.Ul:         true,
}

// Normalize returns the plain text of an HTML fragment.
func Normalize(fragment string) (text string) {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			text = fallback(fragment)
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fallback(fragment)
	}
	doc.Find("script, style, template").Remove()

	var w lineWriter
	for _, n := range doc.Nodes {
		w.walk(n)
	}
	return tidy(string(w.buf))
}

// fallback strips tags with a regular expression and decodes entities.
func fallback(fragment string) string {
	return tidy(stdhtml.UnescapeString(reTag.ReplaceAllString(fragment, "")))
}

// lineWriter accumulates text and tracks whether the last byte ended a line.
type lineWriter struct {
	buf []byte
}

func (w *lineWriter) breakLine() {
	if len(w.buf) > 0 && w.buf[len(w.buf)-1] != '\n' {
		w.buf = append(w.buf, '\n')
	}
}

func (w *lineWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.buf = append(w.buf, n.Data...)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if n.DataAtom == atom.Br {
			w.buf = append(w.buf, '\n')
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		w.breakLine()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	if block {
		w.breakLine()
	}
}

// tidy normalizes line endings, drops trailing blanks on each line and
// collapses runs of empty lines to a single blank line.
func tidy(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\u00a0")
	}
	s = strings.Join(lines, "\n")
	s = reNewlines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
