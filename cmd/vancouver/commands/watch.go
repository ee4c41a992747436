package commands

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/vancouver/internal/logfields"
	"git.home.luguber.info/inful/vancouver/internal/reader"
	"git.home.luguber.info/inful/vancouver/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Source   string        `arg:"" help:"Directory of Markdown sources" type:"existingdir"`
	Output   string        `short:"o" help:"Output directory" default:"./out" type:"path"`
	Debounce time.Duration `help:"Delay before re-converting after a change" default:"300ms"`
	Once     bool          `help:"Convert everything once and exit"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) (err error) {
	rd, flush, err := newReader(root.LoadedConfig())
	if err != nil {
		return err
	}
	defer func() {
		if ferr := flush(); ferr != nil {
			err = stderrors.Join(err, ferr)
		}
	}()

	opts := []watch.Option{watch.WithDebounce(w.Debounce)}
	if root.LoadedConfig().Metrics.Textfile != "" {
		opts = append(opts, watch.WithConvertedHook(func(*reader.Document, string) {
			if err := flush(); err != nil {
				slog.Warn("Failed to write metrics", logfields.Error(err))
			}
		}))
	}
	watcher, err := watch.New(w.Source, w.Output, rd, opts...)
	if err != nil {
		return err
	}

	if w.Once {
		n, err := watcher.ConvertAll()
		if err != nil {
			return err
		}
		slog.Info("Conversion complete", logfields.Source(w.Source), slog.Int("documents", n))
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return watcher.Run(ctx)
}
