package slot

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/iedon/slotmerge/markup"
)

var (
	patternCache sync.Map // string -> *regexp.Regexp

	stripSlotRe = regexp.MustCompile(`(?i)\s+slot\s*=\s*(?:"[^"]*"|'[^']*')`)
	stripModeRe = regexp.MustCompile(`(?i)\s+slot-mode\s*=\s*(?:"[^"]*"|'[^']*')`)
)

func cachedPattern(expr string) *regexp.Regexp {
	if re, ok := patternCache.Load(expr); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(expr)
	actual, _ := patternCache.LoadOrStore(expr, re)
	return actual.(*regexp.Regexp)
}

// openTagPattern matches the literal opening tag of tag carrying
// slot="name". Group 1 is the tag terminator including any whitespace and
// the optional self-closing slash.
func openTagPattern(tag, name string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(name)
	return cachedPattern(fmt.Sprintf(
		`(?is)<%s\b[^>]*?\sslot\s*=\s*(?:"%s"|'%s')[^>]*?(\s*/?>)`,
		regexp.QuoteMeta(tag), quoted, quoted,
	))
}

func closeTagPattern(tag string) *regexp.Regexp {
	return cachedPattern(fmt.Sprintf(`(?i)</%s\s*>`, regexp.QuoteMeta(tag)))
}

// inferClosing inspects the raw layout text because the parser rewrites
// self-closing notation.
func inferClosing(layout, tag, name string) ClosingStyle {
	if loc := openTagPattern(tag, name).FindStringIndex(layout); loc != nil {
		snippet := strings.TrimRight(layout[loc[0]:loc[1]], " \t\r\n")
		if strings.HasSuffix(snippet, "/>") {
			return SelfClosing
		}
	}
	if markup.IsVoid(tag) {
		return Void
	}
	return Explicit
}

// providerClosing judges a page provider's style from its outer markup.
func providerClosing(outer, tag string) ClosingStyle {
	trimmed := strings.TrimRight(outer, " \t\r\n")
	closing := "</" + strings.ToLower(tag) + ">"
	hasClose := strings.Contains(strings.ToLower(trimmed), closing)
	switch {
	case strings.HasSuffix(trimmed, "/>") && !hasClose:
		return SelfClosing
	case hasClose:
		return Explicit
	case markup.IsVoid(tag):
		return Void
	default:
		return Explicit
	}
}

func stripSlotAttrs(fragment string) string {
	fragment = stripSlotRe.ReplaceAllString(fragment, "")
	return stripModeRe.ReplaceAllString(fragment, "")
}
