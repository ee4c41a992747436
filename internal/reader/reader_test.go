package reader

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/vancouver/internal/config"
	"git.home.luguber.info/inful/vancouver/internal/foundation/errors"
	"git.home.luguber.info/inful/vancouver/internal/metrics"
)

type recordingRecorder struct {
	mu       sync.Mutex
	resolved int
	unbound  int
	outcomes []metrics.OutcomeLabel
}

func (r *recordingRecorder) IncCitations(resolved, unbound int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved += resolved
	r.unbound += unbound
}

func (r *recordingRecorder) IncDocumentOutcome(o metrics.OutcomeLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingRecorder) ObserveConvertDuration(time.Duration) {}

const article = `---
title: Notes on citations
---
# Background

Numbered styles were popularised in Vancouver [@icmje] and see [@missing].

| a | b |
|---|---|
| 1 | 2 |

[icmje "ICMJE Recommendations"]: https://www.icmje.org/recommendations/
`

func newReader(t *testing.T, opts ...Option) *Reader {
	t.Helper()
	r, err := New(config.Default(), opts...)
	require.NoError(t, err)
	return r
}

func TestConvert_FullPipeline(t *testing.T) {
	rec := &recordingRecorder{}
	r := newReader(t, WithRecorder(rec))

	doc, err := r.Convert("notes.md", []byte(article))
	require.NoError(t, err)

	require.Contains(t, doc.Content, "<h2>Background</h1>")
	require.Contains(t, doc.Content, `<a href="#cite_1">[1]</a>`)
	require.Contains(t, doc.Content, "[@missing]")
	require.Contains(t, doc.Content, `<table class="table table-condensed">`)
	require.Contains(t, doc.Content, `<p>[1] ICMJE Recommendations <a name="cite_1" id="cite_1" class="reference" href="https://www.icmje.org/recommendations/">https://www.icmje.org/recommendations/</a></p>`)
	require.NotContains(t, doc.Content, "[icmje")

	require.Len(t, doc.Citations, 1)
	require.Equal(t, []string{"missing"}, doc.Unbound)
	require.Equal(t, "Notes on citations", doc.Metadata["title"])
	require.Equal(t, r.Script(), doc.Metadata[MetaCitation])
	require.Equal(t, 1, doc.Metadata[MetaCitations])
	require.NotEmpty(t, doc.Metadata[MetaFingerprint])

	require.Equal(t, 1, rec.resolved)
	require.Equal(t, 1, rec.unbound)
	require.Equal(t, []metrics.OutcomeLabel{metrics.OutcomeConverted}, rec.outcomes)
}

func TestConvert_DocumentCitationMetadataWins(t *testing.T) {
	r := newReader(t)
	doc, err := r.Convert("own.md", []byte("---\ncitation: \"<script>custom()</script>\"\n---\nSee [@a].\n\n[a]: http://a.example\n"))
	require.NoError(t, err)
	require.Equal(t, "<script>custom()</script>", doc.Metadata[MetaCitation])
}

func TestConvert_ScriptUsesConfiguredClass(t *testing.T) {
	cfg := config.Default()
	cfg.Citations.HighlightClass = "is-cited"
	r, err := New(cfg)
	require.NoError(t, err)

	require.Contains(t, r.Script(), `classList.toggle("is-cited")`)
	require.Contains(t, r.Script(), `classList.remove("is-cited")`)
	require.NotContains(t, r.Script(), "{{")
}

func TestConvert_WithoutCitationsStillInjectsScript(t *testing.T) {
	rec := &recordingRecorder{}
	r := newReader(t, WithRecorder(rec))

	doc, err := r.Convert("plain.md", []byte("## Plain\n\nNo references here.\n"))
	require.NoError(t, err)
	require.Equal(t, "<h3>Plain</h2>\n<p>No references here.</p>\n", doc.Content)
	require.Equal(t, r.Script(), doc.Metadata[MetaCitation])
	require.Equal(t, 0, doc.Metadata[MetaCitations])
	require.Equal(t, []metrics.OutcomeLabel{metrics.OutcomeUnchanged}, rec.outcomes)
}

func TestConvert_PostProcessingCanBeDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Citations.HeadingShift = 0
	cfg.Citations.BootstrapTables = false
	r, err := New(cfg)
	require.NoError(t, err)

	doc, err := r.Convert("t.md", []byte("# T\n\n| a |\n|---|\n| 1 |\n"))
	require.NoError(t, err)
	require.Contains(t, doc.Content, "<h1>T</h1>")
	require.Contains(t, doc.Content, "<table>")
}

func TestConvert_FingerprintStable(t *testing.T) {
	r := newReader(t)
	a, err := r.Convert("a.md", []byte(article))
	require.NoError(t, err)
	b, err := r.Convert("b.md", []byte(article))
	require.NoError(t, err)
	require.Equal(t, a.Metadata[MetaFingerprint], b.Metadata[MetaFingerprint])

	c, err := r.Convert("c.md", []byte(article+"\nMore.\n"))
	require.NoError(t, err)
	require.NotEqual(t, a.Metadata[MetaFingerprint], c.Metadata[MetaFingerprint])
}

func TestConvert_Errors(t *testing.T) {
	rec := &recordingRecorder{}
	r := newReader(t, WithRecorder(rec))

	_, err := r.Convert("bin", []byte{0x89, 'P', 'N', 'G', 0x00})
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = r.Convert("open.md", []byte("---\ntitle: x\nbody\n"))
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = r.Convert("badyaml.md", []byte("---\ntitle: [x\n---\nbody\n"))
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))

	require.Equal(t, []metrics.OutcomeLabel{metrics.OutcomeFailed, metrics.OutcomeFailed, metrics.OutcomeFailed}, rec.outcomes)
}

func TestConvert_WarnsOnLinkWithoutEntry(t *testing.T) {
	var logs bytes.Buffer
	r := newReader(t, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	// The definition lives in a fenced block, so its entry renders as code.
	_, err := r.Convert("fenced.md", []byte("See [@a].\n\n```\n[a]: http://a.example\n```\n"))
	require.NoError(t, err)
	require.Contains(t, logs.String(), "Citation link without reference entry")
	require.Contains(t, logs.String(), "anchor=cite_1")
}

func TestConvert_AnchorCheckOnlyWithCitations(t *testing.T) {
	var logs bytes.Buffer
	r := newReader(t, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	_, err := r.Convert("manual.md", []byte("A hand-written [link](#cite_9).\n"))
	require.NoError(t, err)
	require.NotContains(t, logs.String(), "Citation link without reference entry")
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "post.md")
	require.NoError(t, os.WriteFile(path, []byte(article), 0o600))

	r := newReader(t)
	doc, err := r.Read(path)
	require.NoError(t, err)
	require.Equal(t, path, doc.Source)
	require.Len(t, doc.Citations, 1)

	_, err = r.Read(filepath.Join(dir, "absent.md"))
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestHandlesAndExtensions(t *testing.T) {
	r := newReader(t)
	require.True(t, r.Enabled())
	require.True(t, r.Handles("posts/a.md"))
	require.True(t, r.Handles("posts/A.Markdown"))
	require.False(t, r.Handles("posts/a.rst"))
	require.False(t, r.Handles("README"))

	exts := r.Extensions()
	exts[0] = "changed"
	require.Equal(t, "md", r.Extensions()[0])
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Citations.HighlightClass = "bad class"
	_, err := New(cfg)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
