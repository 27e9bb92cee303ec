package site

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iedon/slotmerge/config"
	"github.com/iedon/slotmerge/slot"
)

const testLayout = `<!doctype html>
<html>
<head>
  <title slot="title"></title>
  <meta name="description" slot="desc" slot-mode="attr:content">
</head>
<body>
  <!-- header stays put -->
  <main slot="body"></main>
</body>
</html>
`

const homePage = `<span for-slot="title">Home</span>

<meta for-slot="desc" content="Landing page">

<div for-slot="body"><p>Hi</p></div>
`

type fixture struct {
	t   *testing.T
	src string
	out string
	svc *Service
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	f := &fixture{t: t, src: filepath.Join(root, "src"), out: filepath.Join(root, "dist")}
	require.NoError(t, os.MkdirAll(f.src, 0o755))
	if _, ok := files["_layout.html"]; !ok {
		f.write("_layout.html", testLayout)
	}
	for name, body := range files {
		f.write(name, body)
	}

	cfg := config.Default()
	cfg.SourceDir = f.src
	cfg.OutputDir = f.out
	svc, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	svc.retryDelay = time.Millisecond
	f.svc = svc
	return f
}

func (f *fixture) write(rel, body string) {
	f.t.Helper()
	path := filepath.Join(f.src, rel)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, []byte(body), 0o644))
}

func (f *fixture) read(path string) string {
	f.t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(f.t, err)
	return string(data)
}

func (f *fixture) output(name string) string {
	return f.read(filepath.Join(f.out, name))
}

func (f *fixture) build(changes ...string) Report {
	return f.svc.Build(context.Background(), changes)
}

func TestNewRejectsMissingSourceAndLayout(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.SourceDir = filepath.Join(root, "absent")
	cfg.OutputDir = filepath.Join(root, "dist")
	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, ErrSourceNotFound)

	cfg.SourceDir = root
	_, err = New(cfg, nil)
	assert.ErrorIs(t, err, ErrLayoutNotFound)
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestBuildMergesTitleAndBody(t *testing.T) {
	f := newFixture(t, map[string]string{"index.html": homePage})

	report := f.build()
	require.True(t, report.OK())
	assert.True(t, report.Full)
	assert.Equal(t, 1, report.Built)

	want := `<!doctype html>
<html>
<head>
  <title>Home</title>
  <meta name="description" content="Landing page">
</head>
<body>
  <!-- header stays put -->
  <main><p>Hi</p></main>
</body>
</html>
`
	assert.Equal(t, want, f.output("index.html"))
	assert.Equal(t, homePage, f.read(filepath.Join(f.src, "index.html")))
}

func TestBuildIsIdempotent(t *testing.T) {
	f := newFixture(t, map[string]string{"index.html": `<div for-slot="body">x</div>`})

	first := f.build()
	require.True(t, first.OK())
	assert.Equal(t, 1, first.Normalized)
	normalized := f.read(filepath.Join(f.src, "index.html"))

	second := f.build()
	require.True(t, second.OK())
	assert.Zero(t, second.Normalized)
	assert.Zero(t, second.Built)
	assert.Equal(t, 1, second.Unchanged)
	assert.Equal(t, normalized, f.read(filepath.Join(f.src, "index.html")))
}

func TestBuildNormalizesMissingSlotsAndKeepsLineEndings(t *testing.T) {
	f := newFixture(t, map[string]string{
		"about.html": "<div for-slot=\"body\">\r\n<p>About</p>\r\n</div>\r\n\r\n<b for-slot=\"title\">About</b>",
	})

	report := f.build()
	require.True(t, report.OK())

	want := "<b for-slot=\"title\">About</b>\r\n\r\n" +
		"<meta for-slot=\"desc\" content=\"\">\r\n\r\n" +
		"<div for-slot=\"body\">\r\n<p>About</p>\r\n</div>"
	assert.Equal(t, want, f.read(filepath.Join(f.src, "about.html")))
	assert.Contains(t, f.output("about.html"), `<meta name="description" content="">`)
	assert.Contains(t, f.output("about.html"), "<main>\n<p>About</p>\n</main>")
}

func TestBuildRejectsUnknownSlotButBuildsSiblings(t *testing.T) {
	f := newFixture(t, map[string]string{
		"index.html": homePage,
		"ghost.html": `<span for-slot="title">Boo</span><p for-slot="ghost">?</p>`,
	})

	report := f.build()
	assert.False(t, report.OK())
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Built)
	assert.NoFileExists(t, filepath.Join(f.out, "ghost.html"))
	assert.FileExists(t, filepath.Join(f.out, "index.html"))

	original := `<span for-slot="title">Boo</span><p for-slot="ghost">?</p>`
	assert.Equal(t, original, f.read(filepath.Join(f.src, "ghost.html")))
}

func TestBuildPageErrorWrapsUnknownSlot(t *testing.T) {
	f := newFixture(t, map[string]string{"ghost.html": `<p for-slot="ghost">?</p>`})
	cat, err := slot.Discover(testLayout)
	require.NoError(t, err)

	_, _, err = f.svc.buildPage(testLayout, cat, f.svc.newPage(filepath.Join(f.src, "ghost.html")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSlot)

	var pe *PageError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "ghost.html", pe.Page)
	assert.Equal(t, []string{"ghost"}, pe.Slots)
}

func TestPartialRebuildTouchesOnlyChangedPages(t *testing.T) {
	f := newFixture(t, map[string]string{"a.html": homePage, "b.html": homePage})
	require.True(t, f.build().OK())

	f.write("a.html", `<span for-slot="title">A</span>`)
	report := f.build(filepath.Join(f.src, "a.html"))
	require.True(t, report.OK())
	assert.False(t, report.Full)
	assert.Equal(t, 1, report.Pages)
	assert.Contains(t, f.output("a.html"), "<title>A</title>")
}

func TestLayoutChangeForcesFullRebuild(t *testing.T) {
	f := newFixture(t, map[string]string{"a.html": homePage, "b.html": homePage})
	require.True(t, f.build().OK())

	f.write("_layout.html", "<title slot=\"title\"></title>\n<main slot=\"body\"></main>\n<meta slot=\"desc\" slot-mode=\"attr:content\">\n")
	report := f.build(filepath.Join(f.src, "a.html"), filepath.Join(f.src, "_layout.html"))
	require.True(t, report.OK())
	assert.True(t, report.Full)
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, "<title>Home</title>\n<main><p>Hi</p></main>\n<meta content=\"Landing page\">\n", f.output("b.html"))
}

func TestLayoutMatchedByNameUnderSourceRoot(t *testing.T) {
	f := newFixture(t, nil)
	assert.True(t, f.svc.matchesLayout(filepath.Join(f.src, "_LAYOUT.html")))
	assert.True(t, f.svc.matchesLayout(f.svc.absolute("_layout.html")))
	assert.False(t, f.svc.matchesLayout(filepath.Join(f.src, "sub", "_layout.html")))
}

func TestMissingOutputForcesFullRebuild(t *testing.T) {
	f := newFixture(t, map[string]string{"a.html": homePage, "b.html": homePage})
	require.True(t, f.build().OK())
	require.NoError(t, os.Remove(filepath.Join(f.out, "b.html")))

	report := f.build(filepath.Join(f.src, "a.html"))
	assert.True(t, report.Full)
	assert.FileExists(t, filepath.Join(f.out, "b.html"))
}

func TestDeletedPageRemovesOutput(t *testing.T) {
	f := newFixture(t, map[string]string{"a.html": homePage, "b.html": homePage})
	require.True(t, f.build().OK())
	require.NoError(t, os.Remove(filepath.Join(f.src, "b.html")))

	report := f.build(filepath.Join(f.src, "b.html"))
	require.True(t, report.OK())
	assert.True(t, report.Full)
	assert.Equal(t, 1, report.Removed)
	assert.NoFileExists(t, filepath.Join(f.out, "b.html"))
	assert.FileExists(t, filepath.Join(f.out, "a.html"))
}

func TestDeletedAssetDirRemovesMirror(t *testing.T) {
	f := newFixture(t, map[string]string{"img/logo.svg": "<svg/>"})
	require.True(t, f.build().OK())
	require.NoError(t, os.RemoveAll(filepath.Join(f.src, "img")))

	report := f.build(filepath.Join(f.src, "img"))
	assert.Equal(t, 1, report.Removed)
	assert.NoDirExists(t, filepath.Join(f.out, "img"))
}

func TestRemoveOutputIgnoresPathsOutsideSource(t *testing.T) {
	f := newFixture(t, nil)
	assert.False(t, f.svc.removeOutput(filepath.Join(filepath.Dir(f.src), "elsewhere.html")))
	assert.False(t, f.svc.removeOutput(f.svc.LayoutPath()))
}

func TestMarkdownSlotRendersProviderMarkdown(t *testing.T) {
	f := newFixture(t, map[string]string{
		"_layout.html": "<title slot=\"title\"></title>\n<article slot=\"doc\" slot-mode=\"markdown\"></article>\n",
		"doc.html":     "<span for-slot=\"title\">Doc</span>\n\n<div for-slot=\"doc\">\n  # Heading\n\n  Some *text*.\n</div>\n",
	})

	require.True(t, f.build().OK())
	out := f.output("doc.html")
	assert.Contains(t, out, `<h1 id="heading">Heading</h1>`)
	assert.Contains(t, out, "<em>text</em>")
}

func TestBuildWarnsAboutUnlocatedSlots(t *testing.T) {
	f := newFixture(t, map[string]string{
		"_layout.html": `<title slot="title"></title><main slot=body></main>`,
		"index.html":   `<b for-slot="title">T</b>` + "\n\n" + `<div for-slot="body">B</div>`,
	})
	var logs bytes.Buffer
	f.svc.logger = slog.New(slog.NewTextHandler(&logs, nil))

	report := f.build()
	require.True(t, report.OK())
	assert.Equal(t, `<title>T</title><main slot=body></main>`, f.output("index.html"))
	assert.Contains(t, logs.String(), "Slot tag not found in layout text")
	assert.Contains(t, logs.String(), "slots=[body]")
}

func TestBuildKeepsTableCellProviderContent(t *testing.T) {
	page := "<td for-slot=\"cell\">Important</td>\n"
	f := newFixture(t, map[string]string{
		"_layout.html": "<table><tr><td slot=\"cell\"></td></tr></table>\n",
		"grid.html":    page,
	})

	report := f.build()
	require.True(t, report.OK())
	assert.Zero(t, report.Normalized)
	assert.Equal(t, page, f.read(filepath.Join(f.src, "grid.html")))
	assert.Equal(t, "<table><tr><td>Important</td></tr></table>\n", f.output("grid.html"))
}
