package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeepsVerbatimMarkup(t *testing.T) {
	page := `<title   for-slot='title'>Home &amp; Away</title>

<div for-slot="body" class=card><p>Hi<br>there</p></div>
`
	providers, err := Extract(page)
	require.NoError(t, err)
	require.Equal(t, []string{"title", "body"}, providers.Order)

	title, ok := providers.Get("title")
	require.True(t, ok)
	assert.Equal(t, "title", title.Tag)
	assert.Equal(t, `<title   for-slot='title'>Home &amp; Away</title>`, title.Original)
	assert.Equal(t, "Home &amp; Away", title.Inner)
	assert.Equal(t, Explicit, title.Closing)

	body, _ := providers.Get("body")
	assert.Equal(t, `<div for-slot="body" class=card><p>Hi<br>there</p></div>`, body.Original)
	assert.Equal(t, `<p>Hi<br>there</p>`, body.Inner)
	assert.Equal(t, map[string]string{"for-slot": "body", "class": "card"}, body.Attrs)
}

func TestExtractFirstProviderWins(t *testing.T) {
	providers, err := Extract(`<div for-slot="a">one</div><div for-slot="a">two</div>`)
	require.NoError(t, err)

	require.Equal(t, 1, providers.Len())
	a, _ := providers.Get("a")
	assert.Equal(t, "one", a.Inner)
}

func TestExtractHandlesNestedSameTag(t *testing.T) {
	providers, err := Extract(`<div for-slot="a"><div>inner</div>tail</div>`)
	require.NoError(t, err)

	a, _ := providers.Get("a")
	assert.Equal(t, `<div>inner</div>tail`, a.Inner)
	assert.Equal(t, `<div for-slot="a"><div>inner</div>tail</div>`, a.Original)
}

func TestExtractClosingStyles(t *testing.T) {
	providers, err := Extract(`<img for-slot="hero" src="a.png" />

<meta for-slot="desc" content="x">

<section for-slot="body"></section>`)
	require.NoError(t, err)

	hero, _ := providers.Get("hero")
	assert.Equal(t, SelfClosing, hero.Closing)
	assert.Equal(t, `<img for-slot="hero" src="a.png" />`, hero.Original)

	desc, _ := providers.Get("desc")
	assert.Equal(t, Void, desc.Closing)
	assert.Equal(t, "x", desc.Attrs["content"])

	body, _ := providers.Get("body")
	assert.Equal(t, Explicit, body.Closing)
	assert.Empty(t, body.Inner)
}

func TestExtractFallsBackToSerializedMarkup(t *testing.T) {
	providers, err := Extract(`<p for-slot="x">text`)
	require.NoError(t, err)

	x, ok := providers.Get("x")
	require.True(t, ok)
	assert.Equal(t, `<p for-slot="x">text</p>`, x.Original)
	assert.Equal(t, "text", x.Inner)
	assert.Equal(t, Explicit, x.Closing)
}

func TestExtractKeepsTablePartProviders(t *testing.T) {
	providers, err := Extract("<td for-slot=\"cell\" class=\"num\">Important</td>\n")
	require.NoError(t, err)
	require.Equal(t, []string{"cell"}, providers.Order)

	cell, ok := providers.Get("cell")
	require.True(t, ok)
	assert.Equal(t, "td", cell.Tag)
	assert.Equal(t, "Important", cell.Inner)
	assert.Equal(t, `<td for-slot="cell" class="num">Important</td>`, cell.Original)
	assert.Equal(t, map[string]string{"for-slot": "cell", "class": "num"}, cell.Attrs)
	assert.Equal(t, Explicit, cell.Closing)
}

func TestExtractOrdersTablePartsAmongOtherProviders(t *testing.T) {
	page := `<span for-slot="title">T</span>

<tr for-slot="row"><td>1</td></tr>

<div for-slot="body">B</div>`
	providers, err := Extract(page)
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "row", "body"}, providers.Order)

	row, _ := providers.Get("row")
	assert.Equal(t, "<td>1</td>", row.Inner)
}
