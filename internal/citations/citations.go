// Package citations rewrites inline citation markers into numbered,
// cross-linked references.
//
// A marker has the form [@identifier]. It is bound to the first Markdown link
// reference definition for the same identifier whose destination uses an
// http, https, ftp or ftps scheme:
//
//	See [@smith2020] for details.
//
//	[smith2020 "Smith et al."]: https://example.org/smith2020
//
// Bound markers are numbered in order of appearance (Vancouver style) and
// replaced by [[n]](#cite_n). The source is cut at the earliest definition
// used and the numbered reference list is appended in its place.
package citations

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/vancouver/internal/logfields"
	"git.home.luguber.info/inful/vancouver/internal/markdown"
)

// markerPattern finds [@identifier]. Go's regexp has no lookahead, so markers
// directly followed by ':' are filtered in Process.
var markerPattern = regexp.MustCompile(`\[@(\w+)\]`)

// Citation is a marker bound to its link reference definition.
type Citation struct {
	// ID is the 1-based citation number.
	ID         int
	Identifier string
	Title      string
	URL        string

	// Byte offsets into the original source.
	MarkerStart     int
	MarkerEnd       int
	DefinitionStart int
	DefinitionEnd   int
}

// Anchor is the in-page anchor name of the reference entry.
func (c Citation) Anchor() string {
	return fmt.Sprintf("cite_%d", c.ID)
}

// Marker is the Markdown that replaces the citation marker.
func (c Citation) Marker() string {
	return fmt.Sprintf("[[%d]](#%s)", c.ID, c.Anchor())
}

// Reference is the HTML reference list entry for the citation.
func (c Citation) Reference() string {
	a := c.Anchor()
	return fmt.Sprintf(`<p>[%d] %s <a name="%s" id="%s" class="reference" href="%s">%s</a></p>`,
		c.ID, c.Title, a, a, c.URL, c.URL)
}

// Result is the outcome of processing one source text.
type Result struct {
	Text      string
	Citations []Citation
	// Unbound holds identifiers of markers without a definition, in order of appearance.
	Unbound []string
}

// Changed reports whether any marker was resolved.
func (r Result) Changed() bool { return len(r.Citations) > 0 }

// Processor resolves citation markers. It holds no per-text state and is safe
// for concurrent use.
type Processor struct {
	logger *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger used for unbound-citation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProcessor creates a Processor.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessCitations rewrites the citation markers in text using a default Processor.
func ProcessCitations(text string) string {
	return NewProcessor().Process(text).Text
}

// Process rewrites every bound marker in text and replaces everything from the
// earliest used definition onward with the reference list. Text without any
// bound marker is returned unchanged.
func (p *Processor) Process(text string) Result {
	res := Result{Text: text}
	defs := definitionIndex{source: text}
	firstReference := len(text)

	for _, m := range markerPattern.FindAllStringSubmatchIndex(text, -1) {
		if m[1] < len(text) && text[m[1]] == ':' {
			continue
		}
		ident := text[m[2]:m[3]]
		def, ok := defs.lookup(ident)
		if !ok {
			p.logger.Debug("Unbound citation", logfields.Identifier(ident))
			res.Unbound = append(res.Unbound, ident)
			continue
		}

		c := Citation{
			ID:              len(res.Citations) + 1,
			Identifier:      ident,
			Title:           def.title,
			URL:             def.url,
			MarkerStart:     m[0],
			MarkerEnd:       m[1],
			DefinitionStart: def.start,
			DefinitionEnd:   def.end,
		}
		res.Citations = append(res.Citations, c)
		firstReference = min(firstReference, def.start)
	}

	if len(res.Citations) == 0 {
		return res
	}

	edits := make([]markdown.Edit, 0, len(res.Citations)+1)
	entries := make([]string, 0, len(res.Citations))
	for _, c := range res.Citations {
		entries = append(entries, c.Reference())
		// Markers past the cut point disappear with the tail.
		if c.MarkerEnd <= firstReference {
			edits = append(edits, markdown.Edit{Start: c.MarkerStart, End: c.MarkerEnd, Replacement: []byte(c.Marker())})
		}
	}
	edits = append(edits, markdown.Edit{
		Start:       firstReference,
		End:         len(text),
		Replacement: []byte(strings.Join(entries, "\n")),
	})

	out, err := markdown.ApplyEdits([]byte(text), edits)
	if err != nil {
		// Marker and definition spans never overlap; keep the source if they somehow do.
		p.logger.Error("Failed to apply citation edits", logfields.Error(err))
		return Result{Text: text, Unbound: res.Unbound}
	}
	res.Text = string(out)
	return res
}

type definition struct {
	start, end int
	title      string
	url        string
}

// definitionIndex resolves identifiers to their first link reference
// definition in source, compiling each identifier's pattern once.
type definitionIndex struct {
	source string
	cache  map[string]*definition
}

func definitionPattern(ident string) *regexp.Regexp {
	return regexp.MustCompile(`\[` + regexp.QuoteMeta(ident) + `(?:\s+"([^"]*)")?\]:\s*((?:https?|ftps?)://\S+)`)
}

func (d *definitionIndex) lookup(ident string) (definition, bool) {
	if d.cache == nil {
		d.cache = make(map[string]*definition)
	}
	if def, seen := d.cache[ident]; seen {
		if def == nil {
			return definition{}, false
		}
		return *def, true
	}

	m := definitionPattern(ident).FindStringSubmatchIndex(d.source)
	if m == nil {
		d.cache[ident] = nil
		return definition{}, false
	}
	def := &definition{start: m[0], end: m[1], url: d.source[m[4]:m[5]]}
	if m[2] >= 0 {
		def.title = d.source[m[2]:m[3]]
	}
	d.cache[ident] = def
	return *def, true
}
