package renderer

import (
	"bytes"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

const htmlMediaType = "text/html"

func newMinifier() *minify.M {
	m := minify.New()
	m.Add(htmlMediaType, &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
		KeepWhitespace:   false,
	})
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	return m
}

// MinifyHTML optimizes merged page markup. It returns the input unchanged
// when minification is disabled.
func (r *Renderer) MinifyHTML(raw []byte) ([]byte, error) {
	if !r.minify {
		return raw, nil
	}
	var buf bytes.Buffer
	if err := newMinifier().Minify(htmlMediaType, &buf, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
