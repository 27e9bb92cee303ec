package slot

import (
	"sort"

	"github.com/PuerkitoBio/goquery"

	"github.com/iedon/slotmerge/markup"
)

// Providers maps slot names to the content a page supplies for them.
type Providers struct {
	// Order lists slot names in the order the page first declares them.
	Order []string

	byName map[string]Content
}

// Get returns the provider for name.
func (p *Providers) Get(name string) (Content, bool) {
	content, ok := p.byName[name]
	return content, ok
}

// Len returns the number of distinct providers.
func (p *Providers) Len() int {
	return len(p.Order)
}

type located struct {
	name    string
	pos     int
	content Content
}

// Extract collects for-slot providers from page markup. Only the first
// provider for a given slot name counts. Providers the tokenizer can bound
// are taken verbatim from the source; the parsed tree covers the rest, such
// as elements closed implicitly.
func Extract(page string) (*Providers, error) {
	doc, err := markup.ParseFragment(page)
	if err != nil {
		return nil, err
	}
	spans := markup.FindSpans(page, AttrForSlot)

	var found []located
	seen := make(map[string]struct{})
	last := -1
	doc.Find("[" + AttrForSlot + "]").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr(AttrForSlot)
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		if span, ok := spans[name]; ok {
			last = span.Start
			found = append(found, located{name: name, pos: span.Start, content: spanContent(page, span)})
			return
		}
		tag := goquery.NodeName(sel)
		outer := markup.OuterHTML(sel)
		found = append(found, located{name: name, pos: last, content: Content{
			Tag:      tag,
			Inner:    markup.InnerHTML(sel),
			Attrs:    markup.Attributes(sel),
			Original: outer,
			Closing:  providerClosing(outer, tag),
		}})
	})

	// Elements the parser discarded, e.g. table parts in an unexpected
	// position, are still visible to the tokenizer.
	for name, span := range spans {
		if _, ok := seen[name]; ok {
			continue
		}
		found = append(found, located{name: name, pos: span.Start, content: spanContent(page, span)})
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].pos < found[j].pos
	})

	providers := &Providers{byName: make(map[string]Content, len(found))}
	for _, f := range found {
		providers.Order = append(providers.Order, f.name)
		providers.byName[f.name] = f.content
	}
	return providers, nil
}

func spanContent(page string, span markup.Span) Content {
	outer := span.Outer(page)
	return Content{
		Tag:      span.Tag,
		Inner:    span.Inner(page),
		Attrs:    span.Attrs,
		Original: outer,
		Closing:  providerClosing(outer, span.Tag),
	}
}
