package slot

import (
	"sort"

	"github.com/PuerkitoBio/goquery"

	"github.com/iedon/slotmerge/markup"
)

// Catalog is the ordered set of slots a layout declares.
type Catalog struct {
	Specs []Spec
	// Duplicates lists slot names declared more than once; only the first
	// declaration is kept.
	Duplicates []string
	// InvalidModes lists slots whose slot-mode value was not recognised and
	// fell back to html.
	InvalidModes []string

	index map[string]int
}

// Discover scans layout markup for elements carrying a slot attribute.
func Discover(layout string) (*Catalog, error) {
	doc, err := markup.Parse(layout)
	if err != nil {
		return nil, err
	}

	cat := &Catalog{index: make(map[string]int)}
	doc.Find("[" + AttrSlot + "]").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr(AttrSlot)
		if _, exists := cat.index[name]; exists {
			cat.Duplicates = append(cat.Duplicates, name)
			return
		}
		rawMode, _ := sel.Attr(AttrSlotMode)
		mode, ok := ParseMode(rawMode)
		if !ok {
			cat.InvalidModes = append(cat.InvalidModes, name)
		}
		tag := goquery.NodeName(sel)
		cat.index[name] = len(cat.Specs)
		cat.Specs = append(cat.Specs, Spec{
			Name:    name,
			Mode:    mode,
			Tag:     tag,
			Closing: inferClosing(layout, tag, name),
		})
	})
	return cat, nil
}

// Len returns the number of distinct slots.
func (c *Catalog) Len() int {
	return len(c.Specs)
}

// Lookup returns the spec for name.
func (c *Catalog) Lookup(name string) (Spec, bool) {
	idx, ok := c.index[name]
	if !ok {
		return Spec{}, false
	}
	return c.Specs[idx], true
}

// Names returns slot names in layout order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Specs))
	for _, spec := range c.Specs {
		names = append(names, spec.Name)
	}
	return names
}

// Unknown returns, sorted, the provider names the layout does not declare.
func (c *Catalog) Unknown(providers *Providers) []string {
	var extra []string
	for _, name := range providers.Order {
		if _, ok := c.index[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return extra
}
