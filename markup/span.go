package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Span locates an element inside the raw source text. Offsets are byte
// positions; Inner* bound the children and equal End for childless elements.
type Span struct {
	Tag         string
	Start       int
	End         int
	InnerStart  int
	InnerEnd    int
	SelfClosing bool
	// Attrs holds the opening tag's attributes, keys lowercased and values
	// unescaped. Repeated keys keep their first value.
	Attrs map[string]string
}

// Outer returns the verbatim element text.
func (s Span) Outer(src string) string {
	return src[s.Start:s.End]
}

// Inner returns the verbatim text between the opening and closing tags.
func (s Span) Inner(src string) string {
	return src[s.InnerStart:s.InnerEnd]
}

type openSpan struct {
	value string
	span  Span
	depth int
}

// FindSpans walks the tokenizer over src and returns, for every distinct
// value of attr, the raw span of the first element carrying it. Elements
// whose end tag cannot be matched (implied closes, truncated input) are
// left out so callers fall back to serialized markup.
func FindSpans(src, attr string) map[string]Span {
	spans := make(map[string]Span)
	attr = strings.ToLower(attr)

	z := html.NewTokenizer(strings.NewReader(src))
	var open []*openSpan
	offset := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return spans
		}
		start := offset
		offset += len(z.Raw())

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			value, found := "", false
			attrs := make(map[string]string)
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				k := string(key)
				if _, dup := attrs[k]; !dup {
					attrs[k] = string(val)
				}
				if k == attr && !found {
					value, found = string(val), true
				}
			}

			leaf := tt == html.SelfClosingTagToken || IsVoid(tag)
			if !found || claimed(spans, open, value) {
				if !leaf {
					for _, o := range open {
						if o.span.Tag == tag {
							o.depth++
						}
					}
				}
				continue
			}
			if leaf {
				spans[value] = Span{
					Tag:         tag,
					Start:       start,
					End:         offset,
					InnerStart:  offset,
					InnerEnd:    offset,
					SelfClosing: tt == html.SelfClosingTagToken,
					Attrs:       attrs,
				}
				continue
			}
			open = append(open, &openSpan{
				value: value,
				span:  Span{Tag: tag, Start: start, InnerStart: offset, Attrs: attrs},
			})

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			for i := len(open) - 1; i >= 0; i-- {
				o := open[i]
				if o.span.Tag != tag {
					continue
				}
				if o.depth > 0 {
					o.depth--
					break
				}
				o.span.InnerEnd = start
				o.span.End = offset
				spans[o.value] = o.span
				open = append(open[:i], open[i+1:]...)
				break
			}
		}
	}
}

func claimed(spans map[string]Span, open []*openSpan, value string) bool {
	if _, ok := spans[value]; ok {
		return true
	}
	for _, o := range open {
		if o.value == value {
			return true
		}
	}
	return false
}
