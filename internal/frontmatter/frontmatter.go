// Package frontmatter splits and parses the YAML metadata block that may lead
// a Markdown source.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a source split into its raw frontmatter and Markdown body.
type Document struct {
	// Frontmatter is nil when the source does not open with `---`.
	Frontmatter []byte
	Body        []byte
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// A source that does not open with the delimiter is all body.
func Split(content []byte) (Document, error) {
	nl := detectNewline(content)
	doc := Document{Body: content}

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return doc, nil
	}
	rest := content[len(open):]

	if bytes.HasPrefix(rest, open) {
		doc.Frontmatter = []byte{}
		doc.Body = rest[len(open):]
		return doc, nil
	}

	closing := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closing)
	if idx < 0 {
		// A closing delimiter at EOF without a trailing newline still counts.
		if bytes.HasSuffix(rest, []byte(nl+"---")) {
			idx = len(rest) - len(nl+"---")
			doc.Frontmatter = rest[:idx+len(nl)]
			doc.Body = []byte{}
			return doc, nil
		}
		return Document{}, ErrMissingClosingDelimiter
	}

	doc.Frontmatter = rest[:idx+len(nl)]
	doc.Body = rest[idx+len(closing):]
	return doc, nil
}

// Metadata is parsed frontmatter.
type Metadata map[string]any

// Has reports whether key is set, even to an empty value.
func (m Metadata) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// String returns the value of key when it is a string.
func (m Metadata) String(key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// Without returns a copy of m without the given keys.
func (m Metadata) Without(keys ...string) Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Parse parses the document's frontmatter. Documents without frontmatter
// yield empty metadata.
func (d Document) Parse() (Metadata, error) {
	return ParseYAML(d.Frontmatter)
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(raw []byte) (Metadata, error) {
	fields := Metadata{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = Metadata{}
	}
	return fields, nil
}

// Serialize encodes metadata as YAML with sorted keys and LF newlines.
// Empty metadata serializes to an empty slice.
func Serialize(m Metadata) ([]byte, error) {
	if len(m) == 0 {
		return []byte{}, nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any(m)); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
