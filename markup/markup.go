// Package markup wraps the HTML parser used for slot discovery and exposes
// the few raw-text helpers the merge step needs to keep author bytes intact.
package markup

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var voidTags = map[string]struct{}{
	"area":   {},
	"base":   {},
	"br":     {},
	"col":    {},
	"embed":  {},
	"hr":     {},
	"img":    {},
	"input":  {},
	"link":   {},
	"meta":   {},
	"param":  {},
	"source": {},
	"track":  {},
	"wbr":    {},
}

// IsVoid reports whether tag is an HTML void element.
func IsVoid(tag string) bool {
	_, ok := voidTags[strings.ToLower(tag)]
	return ok
}

// Parse builds a navigable document from markup text.
func Parse(src string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// ParseFragment builds a document from page markup parsed as the content
// of a template element, where table parts such as td and tr are kept even
// without an enclosing table.
func ParseFragment(src string) (*goquery.Document, error) {
	tmpl := &html.Node{Type: html.ElementNode, Data: "template", DataAtom: atom.Template}
	nodes, err := html.ParseFragment(strings.NewReader(src), tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse html fragment: %w", err)
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// Attributes returns the attributes of the first node in sel keyed by name.
func Attributes(sel *goquery.Selection) map[string]string {
	attrs := make(map[string]string)
	if sel == nil || len(sel.Nodes) == 0 {
		return attrs
	}
	for _, attr := range sel.Nodes[0].Attr {
		key := attr.Key
		if attr.Namespace != "" {
			key = attr.Namespace + ":" + attr.Key
		}
		attrs[key] = attr.Val
	}
	return attrs
}

// OuterHTML serializes the first node in sel including its own tag.
func OuterHTML(sel *goquery.Selection) string {
	out, err := goquery.OuterHtml(sel)
	if err != nil {
		return ""
	}
	return out
}

// InnerHTML serializes the children of the first node in sel.
func InnerHTML(sel *goquery.Selection) string {
	if sel == nil || len(sel.Nodes) == 0 {
		return ""
	}
	var sb strings.Builder
	for c := sel.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return ""
		}
	}
	return sb.String()
}
