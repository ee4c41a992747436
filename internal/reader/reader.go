// Package reader converts Markdown sources with citation markers into HTML
// fragments plus metadata, ready for a static site generator.
package reader

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/vancouver/internal/citations"
	"git.home.luguber.info/inful/vancouver/internal/config"
	"git.home.luguber.info/inful/vancouver/internal/foundation/errors"
	"git.home.luguber.info/inful/vancouver/internal/frontmatter"
	"git.home.luguber.info/inful/vancouver/internal/htmlpost"
	"git.home.luguber.info/inful/vancouver/internal/logfields"
	"git.home.luguber.info/inful/vancouver/internal/markdown"
	"git.home.luguber.info/inful/vancouver/internal/metrics"
)

// Metadata keys written by the reader. Keys already set by the document win.
const (
	MetaCitation    = "citation"
	MetaCitations   = "citations"
	MetaFingerprint = mdfp.FingerprintField
)

// Document is a converted source.
type Document struct {
	Source    string
	Content   string
	Metadata  frontmatter.Metadata
	Citations []citations.Citation
	Unbound   []string
}

// Reader converts Markdown sources. It is safe for concurrent use.
type Reader struct {
	cfg       config.CitationsConfig
	enabled   bool
	exts      []string
	script    string
	processor *citations.Processor
	mdOpts    markdown.Options
	logger    *slog.Logger
	recorder  metrics.Recorder
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the reader's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Reader) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// New creates a Reader. The highlight script is rendered once here.
func New(cfg *config.Config, opts ...Option) (*Reader, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Reader{
		cfg:      cfg.Citations,
		enabled:  cfg.Reader.Enabled,
		exts:     slices.Clone(cfg.Reader.Extensions),
		mdOpts:   markdown.DefaultOptions(),
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.processor = citations.NewProcessor(citations.WithLogger(r.logger))

	script, err := renderScript(r.cfg.HighlightClass)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to render citation script").Build()
	}
	r.script = script
	return r, nil
}

// Enabled reports whether the reader is switched on in config.
func (r *Reader) Enabled() bool { return r.enabled }

// Extensions lists the file extensions (without dot) the reader handles.
func (r *Reader) Extensions() []string { return slices.Clone(r.exts) }

// Script returns the highlight script injected as citation metadata.
func (r *Reader) Script() string { return r.script }

// Handles reports whether path has one of the reader's extensions.
func (r *Reader) Handles(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return ext != "" && slices.Contains(r.exts, ext)
}

// Read loads and converts the source at path.
func (r *Reader) Read(path string) (*Document, error) {
	content, err := readSource(path)
	if err != nil {
		r.recorder.IncDocumentOutcome(metrics.OutcomeFailed)
		return nil, err
	}
	return r.Convert(path, content)
}

func readSource(path string) ([]byte, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewError(errors.CategoryNotFound, "source not found").WithContext("source", path).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to open source").WithContext("source", path).Build()
	}
	defer func() {
		_ = f.Close() // read-only
	}()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read source").WithContext("source", path).Build()
	}
	return content, nil
}

// Convert turns raw Markdown content into a Document. source names the
// content in logs and errors.
func (r *Reader) Convert(source string, content []byte) (*Document, error) {
	start := time.Now()
	doc, err := r.convert(source, content)
	r.recorder.ObserveConvertDuration(time.Since(start))
	if err != nil {
		r.recorder.IncDocumentOutcome(metrics.OutcomeFailed)
		return nil, err
	}

	r.recorder.IncCitations(len(doc.Citations), len(doc.Unbound))
	if len(doc.Citations) > 0 {
		r.recorder.IncDocumentOutcome(metrics.OutcomeConverted)
	} else {
		r.recorder.IncDocumentOutcome(metrics.OutcomeUnchanged)
	}
	r.logger.Debug("Converted document",
		logfields.Source(source),
		logfields.Citations(len(doc.Citations)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return doc, nil
}

func (r *Reader) convert(source string, content []byte) (*Document, error) {
	if !utf8.Valid(content) || bytes.IndexByte(content, 0) >= 0 {
		return nil, errors.ValidationError("source is not UTF-8 text").WithContext("source", source).Build()
	}

	split, err := frontmatter.Split(content)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "invalid frontmatter").WithContext("source", source).Build()
	}
	meta, err := split.Parse()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "invalid frontmatter").WithContext("source", source).Build()
	}

	res := r.processor.Process(string(split.Body))
	for _, c := range res.Citations {
		r.logger.Debug("Resolved citation",
			logfields.Source(source),
			logfields.CitationID(c.ID),
			logfields.Identifier(c.Identifier),
			logfields.URL(c.URL))
	}

	rendered, err := markdown.Render([]byte(res.Text), r.mdOpts)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to render markdown").WithContext("source", source).Build()
	}
	html := htmlpost.ReduceHeadingTagSize(string(rendered), r.cfg.HeadingShift)
	if r.cfg.BootstrapTables {
		html = htmlpost.BootstrapTables(html)
	}
	if res.Changed() {
		r.checkAnchors(source, html)
	}

	if !meta.Has(MetaCitation) {
		meta[MetaCitation] = r.script
	}
	if !meta.Has(MetaCitations) {
		meta[MetaCitations] = len(res.Citations)
	}
	if !meta.Has(MetaFingerprint) {
		fp, err := fingerprint(meta, split.Body)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryInternal, "failed to fingerprint document").WithContext("source", source).Build()
		}
		meta[MetaFingerprint] = fp
	}

	return &Document{
		Source:    source,
		Content:   html,
		Metadata:  meta,
		Citations: res.Citations,
		Unbound:   res.Unbound,
	}, nil
}

// checkAnchors warns about citation links that lost their reference entry,
// e.g. when a definition sits inside a code block.
func (r *Reader) checkAnchors(source, html string) {
	anchors, err := htmlpost.CitationAnchors(html)
	if err != nil {
		r.logger.Warn("Failed to inspect citation anchors", logfields.Source(source), logfields.Error(err))
		return
	}
	for _, missing := range anchors.Missing() {
		r.logger.Warn("Citation link without reference entry", logfields.Source(source), slog.String("anchor", missing))
	}
}

// fingerprint hashes the author-supplied metadata and the Markdown body.
// Keys the reader derives are excluded so the value is stable across runs.
func fingerprint(meta frontmatter.Metadata, body []byte) (string, error) {
	fields, err := frontmatter.Serialize(meta.Without(MetaCitation, MetaCitations, MetaFingerprint))
	if err != nil {
		return "", err
	}
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(fields), "\n"), string(body)), nil
}
