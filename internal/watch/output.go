package watch

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/vancouver/internal/foundation/errors"
	"git.home.luguber.info/inful/vancouver/internal/frontmatter"
	"git.home.luguber.info/inful/vancouver/internal/reader"
)

// OutputPaths returns the HTML and metadata paths for a source relative to srcDir.
func OutputPaths(srcDir, outDir, source string) (htmlPath, metaPath string, err error) {
	rel, err := filepath.Rel(srcDir, source)
	if err != nil || !filepath.IsLocal(rel) {
		return "", "", errors.ValidationError("source outside of watched directory").
			WithContext("source", source).Build()
	}
	base := filepath.Join(outDir, strings.TrimSuffix(rel, filepath.Ext(rel)))
	return base + ".html", base + ".meta.yaml", nil
}

// WriteDocument writes the HTML fragment and its YAML metadata side by side.
func WriteDocument(doc *reader.Document, htmlPath, metaPath string) error {
	if err := os.MkdirAll(filepath.Dir(htmlPath), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", filepath.Dir(htmlPath)).Build()
	}
	if err := os.WriteFile(htmlPath, []byte(doc.Content), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write HTML").
			WithContext("path", htmlPath).Build()
	}
	meta, err := frontmatter.Serialize(doc.Metadata)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to serialize metadata").
			WithContext("source", doc.Source).Build()
	}
	if err := os.WriteFile(metaPath, meta, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write metadata").
			WithContext("path", metaPath).Build()
	}
	return nil
}
