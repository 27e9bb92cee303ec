// Package slot implements layout slot discovery, page provider extraction,
// page normalization and the raw-text merge of provider content into the
// layout.
package slot

import (
	"sort"
	"strings"
)

const (
	// AttrSlot declares a slot on a layout element.
	AttrSlot = "slot"
	// AttrSlotMode selects how a slot is filled.
	AttrSlotMode = "slot-mode"
	// AttrForSlot declares a provider on a page element.
	AttrForSlot = "for-slot"
)

// ClosingStyle describes how an element is terminated in source markup.
type ClosingStyle int

const (
	Explicit ClosingStyle = iota
	SelfClosing
	Void
)

func (c ClosingStyle) String() string {
	switch c {
	case SelfClosing:
		return "self-closing"
	case Void:
		return "void"
	default:
		return "explicit"
	}
}

// Leaf reports whether the style leaves no inner region to fill.
func (c ClosingStyle) Leaf() bool {
	return c == SelfClosing || c == Void
}

// ModeKind enumerates the fill modes.
type ModeKind int

const (
	ModeHTML ModeKind = iota
	ModeText
	ModeAttr
	ModeMarkdown
)

// FillMode is a parsed slot-mode value.
type FillMode struct {
	Kind ModeKind
	// Attr names the target attribute for ModeAttr.
	Attr string
}

// ParseMode parses a slot-mode attribute value. Unrecognised values resolve
// to ModeHTML with ok=false.
func ParseMode(raw string) (FillMode, bool) {
	value := strings.TrimSpace(raw)
	switch {
	case value == "" || strings.EqualFold(value, "html"):
		return FillMode{Kind: ModeHTML}, true
	case strings.EqualFold(value, "text"):
		return FillMode{Kind: ModeText}, true
	case strings.EqualFold(value, "markdown"):
		return FillMode{Kind: ModeMarkdown}, true
	case len(value) > len("attr:") && strings.EqualFold(value[:len("attr:")], "attr:"):
		// The parser lowercases attribute names, so the target must match.
		name := strings.ToLower(strings.TrimSpace(value[len("attr:"):]))
		if name == "" {
			return FillMode{Kind: ModeHTML}, false
		}
		return FillMode{Kind: ModeAttr, Attr: name}, true
	default:
		return FillMode{Kind: ModeHTML}, false
	}
}

func (m FillMode) String() string {
	switch m.Kind {
	case ModeText:
		return "text"
	case ModeAttr:
		return "attr:" + m.Attr
	case ModeMarkdown:
		return "markdown"
	default:
		return "html"
	}
}

// Spec identifies one layout slot.
type Spec struct {
	Name    string
	Mode    FillMode
	Tag     string
	Closing ClosingStyle
}

// Content is the resolved filler for one slot on one page.
type Content struct {
	Tag   string
	Inner string
	Attrs map[string]string
	// Original holds the verbatim provider markup; empty forces Render to
	// rebuild the element from Tag, Attrs and Inner.
	Original string
	Closing  ClosingStyle
}

// Render returns the provider markup used when writing a normalized page.
func (c Content) Render() string {
	if c.Original != "" {
		return c.Original
	}
	return buildMarkup(c.Tag, c.Attrs, c.Inner, c.Closing)
}

func buildMarkup(tag string, attrs map[string]string, inner string, closing ClosingStyle) string {
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		switch {
		case a == AttrForSlot:
			return b != AttrForSlot
		case b == AttrForSlot:
			return false
		default:
			return a < b
		}
	})

	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(tag)
	for _, key := range keys {
		sb.WriteByte(' ')
		sb.WriteString(key)
		sb.WriteString(`="`)
		sb.WriteString(escapeAttr(attrs[key]))
		sb.WriteByte('"')
	}

	switch closing {
	case SelfClosing:
		sb.WriteString(" />")
	case Void:
		sb.WriteByte('>')
	default:
		sb.WriteByte('>')
		sb.WriteString(inner)
		sb.WriteString("</")
		sb.WriteString(tag)
		sb.WriteByte('>')
	}
	return sb.String()
}

func escapeAttr(value string) string {
	return strings.ReplaceAll(value, `"`, "&quot;")
}
