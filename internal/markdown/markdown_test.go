package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_CitationLinkBecomesAnchor(t *testing.T) {
	out, err := Render([]byte("See [[1]](#cite_1).\n"), DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, "<p>See <a href=\"#cite_1\">[1]</a>.</p>\n", string(out))
}

func TestRender_RawHTMLRequiresUnsafe(t *testing.T) {
	src := []byte("<p>[1]  <a id=\"cite_1\" href=\"http://example.com\">http://example.com</a></p>\n")

	out, err := Render(src, DefaultOptions())
	require.NoError(t, err)
	require.Contains(t, string(out), `<a id="cite_1"`)

	out, err = Render(src, Options{})
	require.NoError(t, err)
	require.Contains(t, string(out), "raw HTML omitted")
}

func TestRender_Tables(t *testing.T) {
	src := []byte("| a | b |\n|---|---|\n| 1 | 2 |\n")

	out, err := Render(src, DefaultOptions())
	require.NoError(t, err)
	require.Contains(t, string(out), "<table>")

	out, err = Render(src, Options{Unsafe: true})
	require.NoError(t, err)
	require.NotContains(t, string(out), "<table>")
}
