package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/vancouver/internal/config"
	"git.home.luguber.info/inful/vancouver/internal/logfields"
	"git.home.luguber.info/inful/vancouver/internal/metrics"
	"git.home.luguber.info/inful/vancouver/internal/reader"
)

// Global carries state shared by all commands.
type Global struct {
	Stdout io.Writer
	Stderr io.Writer
	// RunID tags every log line of one invocation.
	RunID string
}

// NewGlobal returns a Global writing to the process streams with a fresh run id.
func NewGlobal() *Global {
	return &Global{Stdout: os.Stdout, Stderr: os.Stderr, RunID: uuid.NewString()}
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"vancouver.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Render RenderCmd `cmd:"" help:"Convert one Markdown source to an HTML fragment"`
	Watch  WatchCmd  `cmd:"" help:"Convert a directory of sources and re-convert on change"`
	Init   InitCmd   `cmd:"" help:"Write a default configuration file"`

	cfg *config.Config `kong:"-"`
}

// AfterApply loads configuration and installs the logger once flags are parsed.
func (c *CLI) AfterApply(g *Global) error {
	cfg, err := config.LoadOrDefault(c.Config)
	if err != nil {
		return err
	}
	c.cfg = cfg

	stderr := g.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := cfg.Logging.NewLogger(stderr, c.Verbose)
	if g.RunID != "" {
		logger = logger.With(logfields.RunID(g.RunID))
	}
	slog.SetDefault(logger)
	return nil
}

// LoadedConfig returns the configuration loaded in AfterApply, or defaults.
func (c *CLI) LoadedConfig() *config.Config {
	if c.cfg == nil {
		return config.Default()
	}
	return c.cfg
}

// newReader builds a reader wired to a Prometheus recorder when a metrics
// textfile is configured. flush writes the textfile and is always safe to call.
func newReader(cfg *config.Config) (r *reader.Reader, flush func() error, err error) {
	flush = func() error { return nil }
	opts := []reader.Option{reader.WithLogger(slog.Default())}

	if cfg.Metrics.Textfile != "" {
		rec := metrics.NewPrometheusRecorder(prom.NewRegistry())
		opts = append(opts, reader.WithRecorder(rec))
		flush = func() error { return rec.WriteTextfile(cfg.Metrics.Textfile) }
	}

	r, err = reader.New(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return r, flush, nil
}
