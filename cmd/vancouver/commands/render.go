package commands

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/vancouver/internal/foundation/errors"
	"git.home.luguber.info/inful/vancouver/internal/frontmatter"
	"git.home.luguber.info/inful/vancouver/internal/logfields"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	Source string `arg:"" help:"Markdown source file" type:"path"`
	Output string `short:"o" help:"Write HTML to this file instead of stdout" type:"path"`
	Meta   string `short:"m" help:"Write metadata as YAML to this file ('-' for stdout after the HTML)"`
}

func (r *RenderCmd) Run(g *Global, root *CLI) (err error) {
	rd, flush, err := newReader(root.LoadedConfig())
	if err != nil {
		return err
	}
	defer func() {
		if ferr := flush(); ferr != nil {
			err = stderrors.Join(err, ferr)
		}
	}()
	if !rd.Enabled() {
		return errors.ConfigError("reader is disabled in configuration").Build()
	}
	if !rd.Handles(r.Source) {
		slog.Warn("Source extension not configured for the reader; converting anyway", logfields.Source(r.Source))
	}

	doc, err := rd.Read(r.Source)
	if err != nil {
		return err
	}
	for _, ident := range doc.Unbound {
		slog.Info("Citation without definition left as text", logfields.Source(r.Source), logfields.Identifier(ident))
	}

	if err := writeTo(r.Output, g.Stdout, []byte(doc.Content)); err != nil {
		return err
	}
	if r.Meta != "" {
		meta, err := frontmatter.Serialize(doc.Metadata)
		if err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "failed to serialize metadata").Build()
		}
		if r.Meta == "-" {
			_, _ = fmt.Fprintln(g.Stdout, "---")
			_, _ = g.Stdout.Write(meta)
		} else if err := writeTo(r.Meta, g.Stdout, meta); err != nil {
			return err
		}
	}

	slog.Info("Rendered document", logfields.Source(r.Source), logfields.Citations(len(doc.Citations)))
	return nil
}

func writeTo(path string, stdout io.Writer, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write output").WithContext("path", path).Build()
	}
	return nil
}
