package slot

import (
	"fmt"
	"strings"
)

// MarkdownFunc renders markdown source to HTML for markdown-mode slots.
type MarkdownFunc func(src string) (string, error)

// Merge splices resolved content into the raw layout text. Bytes outside the
// matched slot elements are left untouched. Slots without resolved content
// are skipped. Slots whose opening or closing tag cannot be located in the
// raw text, such as an unquoted slot attribute, are left as they are and
// returned in unlocated.
func Merge(layout string, cat *Catalog, resolved map[string]Content, markdown MarkdownFunc) (out string, unlocated []string, err error) {
	out = layout
	for _, spec := range cat.Specs {
		content, ok := resolved[spec.Name]
		if !ok {
			continue
		}
		next, found, err := mergeSlot(out, spec, content, markdown)
		if err != nil {
			return "", nil, fmt.Errorf("slot %q: %w", spec.Name, err)
		}
		if !found {
			unlocated = append(unlocated, spec.Name)
			continue
		}
		out = next
	}
	return out, unlocated, nil
}

func mergeSlot(text string, spec Spec, content Content, markdown MarkdownFunc) (string, bool, error) {
	loc := openTagPattern(spec.Tag, spec.Name).FindStringSubmatchIndex(text)
	if loc == nil {
		return text, false, nil
	}
	openStart, openEnd := loc[0], loc[1]
	termStart := loc[2]
	head := strings.TrimRight(stripSlotAttrs(text[openStart:termStart]), " \t\r\n")
	terminator := text[termStart:openEnd]

	if spec.Mode.Kind == ModeAttr {
		if value, ok := content.Attrs[spec.Mode.Attr]; ok {
			head += " " + spec.Mode.Attr + `="` + escapeAttr(value) + `"`
		}
	}
	opening := head + terminator

	if spec.Closing.Leaf() {
		return text[:openStart] + opening + text[openEnd:], true, nil
	}

	closeLoc := closeTagPattern(spec.Tag).FindStringIndex(text[openEnd:])
	if closeLoc == nil {
		return text, false, nil
	}
	closeStart := openEnd + closeLoc[0]

	inner := text[openEnd:closeStart]
	switch spec.Mode.Kind {
	case ModeAttr:
	case ModeMarkdown:
		if markdown == nil {
			inner = content.Inner
			break
		}
		rendered, err := markdown(content.Inner)
		if err != nil {
			return "", false, fmt.Errorf("render markdown: %w", err)
		}
		inner = rendered
	default:
		inner = content.Inner
	}

	return text[:openStart] + opening + inner + text[closeStart:], true, nil
}
