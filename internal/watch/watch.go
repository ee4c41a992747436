// Package watch converts a directory of Markdown sources and keeps the output
// current as sources change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/vancouver/internal/foundation/errors"
	"git.home.luguber.info/inful/vancouver/internal/logfields"
	"git.home.luguber.info/inful/vancouver/internal/reader"
)

// Converter is the part of *reader.Reader the watcher needs.
type Converter interface {
	Read(path string) (*reader.Document, error)
	Handles(path string) bool
}

// DefaultDebounce coalesces editor save bursts into one conversion.
const DefaultDebounce = 300 * time.Millisecond

// Watcher converts every handled source below a directory into an output tree.
type Watcher struct {
	srcDir    string
	outDir    string
	conv      Converter
	logger    *slog.Logger
	debounce  time.Duration
	converted func(doc *reader.Document, htmlPath string)
}

// Option configures a Watcher.
type Option func(*Watcher)

func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithConvertedHook registers a callback run after each successful write.
func WithConvertedHook(fn func(doc *reader.Document, htmlPath string)) Option {
	return func(w *Watcher) { w.converted = fn }
}

// New creates a Watcher for srcDir writing into outDir.
func New(srcDir, outDir string, conv Converter, opts ...Option) (*Watcher, error) {
	absSrc, err := filepath.Abs(srcDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to resolve source directory").
			WithContext("path", srcDir).Build()
	}
	info, err := os.Stat(absSrc)
	if err != nil {
		return nil, errors.NewError(errors.CategoryNotFound, "source directory not found").
			WithContext("path", srcDir).Build()
	}
	if !info.IsDir() {
		return nil, errors.FileSystemError("source path is not a directory").
			WithContext("path", srcDir).Build()
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to resolve output directory").
			WithContext("path", outDir).Build()
	}

	w := &Watcher{
		srcDir:   absSrc,
		outDir:   absOut,
		conv:     conv,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// ConvertAll converts every handled source once. A failing document is logged
// and skipped; the returned count covers successful conversions.
func (w *Watcher) ConvertAll() (int, error) {
	var sources []string
	err := filepath.WalkDir(w.srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == w.outDir {
				return filepath.SkipDir
			}
			return nil
		}
		if w.conv.Handles(path) {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryFileSystem, "failed to walk source directory").
			WithContext("path", w.srcDir).Build()
	}
	sort.Strings(sources)

	converted := 0
	for _, src := range sources {
		if w.convertOne(src) {
			converted++
		}
	}
	return converted, nil
}

func (w *Watcher) convertOne(source string) bool {
	doc, err := w.conv.Read(source)
	if err != nil {
		// Editors often replace files by rename; the event may outlive the source.
		if errors.HasCategory(err, errors.CategoryNotFound) {
			w.logger.Debug("Source vanished before conversion", logfields.Source(source))
			return false
		}
		w.logger.Error("Failed to convert source", logfields.Source(source), logfields.Error(err))
		return false
	}
	htmlPath, metaPath, err := OutputPaths(w.srcDir, w.outDir, source)
	if err == nil {
		err = WriteDocument(doc, htmlPath, metaPath)
	}
	if err != nil {
		w.logger.Error("Failed to write output", logfields.Source(source), logfields.Error(err))
		return false
	}
	attrs := []any{logfields.Source(source), logfields.Output(htmlPath), logfields.Citations(len(doc.Citations))}
	if title, ok := doc.Metadata.String("title"); ok {
		attrs = append(attrs, slog.String("title", title))
	}
	w.logger.Info("Converted source", attrs...)
	if w.converted != nil {
		w.converted(doc, htmlPath)
	}
	return true
}

// Run converts everything once, then re-converts changed sources until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryWatch, "failed to create file watcher").Build()
	}
	defer func() { _ = fsw.Close() }()

	if err := w.addTree(fsw, w.srcDir); err != nil {
		return err
	}
	if _, err := w.ConvertAll(); err != nil {
		return err
	}
	w.logger.Info("Watching for changes", logfields.Source(w.srcDir), logfields.Output(w.outDir))

	pending := map[string]struct{}{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(fsw, event, pending) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", logfields.Error(err))
		case <-timer.C:
			w.flush(pending)
		}
	}
}

// handleEvent records interesting events and reports whether a conversion is due.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event, pending map[string]struct{}) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(fsw, event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", logfields.Source(event.Name), logfields.Error(err))
			}
			return false
		}
	}
	if !w.conv.Handles(event.Name) {
		return false
	}
	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		w.logger.Debug("Source changed", logfields.Source(event.Name))
		pending[event.Name] = struct{}{}
		return true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(pending, event.Name)
		w.removeOutput(event.Name)
	}
	return false
}

func (w *Watcher) flush(pending map[string]struct{}) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		delete(pending, p)
		w.convertOne(p)
	}
}

func (w *Watcher) removeOutput(source string) {
	htmlPath, metaPath, err := OutputPaths(w.srcDir, w.outDir, source)
	if err != nil {
		return
	}
	for _, p := range []string{htmlPath, metaPath} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			w.logger.Warn("Failed to remove output", logfields.Output(p), logfields.Error(err))
		}
	}
	w.logger.Info("Removed output for deleted source", logfields.Source(source))
}

// addTree watches root and every directory below it; fsnotify is not recursive.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path == w.outDir {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryWatch, "failed to watch directory").
			WithContext("path", root).Build()
	}
	return nil
}
