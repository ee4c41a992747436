package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Options controls how Markdown is converted.
type Options struct {
	// Tables enables GitHub-flavoured pipe tables.
	Tables bool
	// Unsafe passes raw HTML through instead of replacing it with a comment.
	// Reference lists are emitted as raw HTML, so readers turn this on.
	Unsafe bool
}

// DefaultOptions returns the options used by the citation reader.
func DefaultOptions() Options {
	return Options{Tables: true, Unsafe: true}
}

func newGoldmark(opts Options) goldmark.Markdown {
	var exts []goldmark.Extender
	if opts.Tables {
		exts = append(exts, extension.Table)
	}
	var rendererOpts []goldmark.Option
	if opts.Unsafe {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	return goldmark.New(append(rendererOpts, goldmark.WithExtensions(exts...))...)
}

// Render converts a Markdown body to HTML.
func Render(body []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := newGoldmark(opts).Convert(body, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
