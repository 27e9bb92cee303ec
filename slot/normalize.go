package slot

import (
	"slices"
	"strings"
)

// Normalized is the canonical form of a page together with what changed.
type Normalized struct {
	// Text is the canonical page text in the original file's line-ending
	// and trailing-newline convention.
	Text string
	// Changed is true when Text differs from the original in anything other
	// than line endings or trailing newlines.
	Changed bool
	// Reordered is true when the page declared its providers out of layout
	// order.
	Reordered bool
	// Missing lists the slots that received synthesized placeholders.
	Missing []string
	// Resolved holds content for every catalog slot, placeholders included.
	Resolved map[string]Content
}

// Placeholder synthesizes an empty provider for spec.
func Placeholder(spec Spec) Content {
	attrs := map[string]string{AttrForSlot: spec.Name}
	if spec.Mode.Kind == ModeAttr {
		attrs[spec.Mode.Attr] = ""
	}
	return Content{
		Tag:     spec.Tag,
		Attrs:   attrs,
		Closing: spec.Closing,
	}
}

// Normalize reconciles providers against cat and renders the canonical page
// text. original is the page file content as read from disk.
func Normalize(cat *Catalog, providers *Providers, original string) Normalized {
	result := Normalized{Resolved: make(map[string]Content, cat.Len())}

	expected := make([]string, 0, providers.Len())
	for _, spec := range cat.Specs {
		if _, ok := providers.Get(spec.Name); ok {
			expected = append(expected, spec.Name)
		}
	}
	result.Reordered = !slices.Equal(expected, providers.Order)

	blocks := make([]string, 0, cat.Len())
	for _, spec := range cat.Specs {
		content, ok := providers.Get(spec.Name)
		if !ok {
			content = Placeholder(spec)
			result.Missing = append(result.Missing, spec.Name)
		}
		result.Resolved[spec.Name] = content
		blocks = append(blocks, content.Render())
	}

	canonical := strings.TrimRight(strings.Join(blocks, "\n\n"), "\n")
	current := strings.TrimRight(ToLF(original), "\n")
	result.Changed = canonical != current

	text := canonical
	if strings.HasSuffix(original, "\n") {
		text += "\n"
	}
	if strings.Contains(original, "\r\n") {
		text = strings.ReplaceAll(text, "\n", "\r\n")
	}
	result.Text = text
	return result
}

// ToLF converts CRLF line endings to LF.
func ToLF(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
