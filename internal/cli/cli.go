package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/boxaug/pkg/buildinfo"
	"github.com/matzehuels/boxaug/pkg/cache"
	"github.com/matzehuels/boxaug/pkg/config"
	"github.com/matzehuels/boxaug/pkg/journal"
	"github.com/matzehuels/boxaug/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "boxaug"

	// defaultJournal is the journal DSN used when --journal is not given.
	defaultJournal = "boxaug.db"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "boxaug augments object detection datasets",
		Long: `boxaug applies randomized rotation, shifts, noise and flips to the images of a
COCO-style dataset and rewrites every bounding box to match the transformed image.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return config.LoadDotEnv("")
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.augmentCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.journalCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// storeFlags selects the cache and journal backends of a command.
type storeFlags struct {
	cache   string
	noCache bool
	journal string
}

func (f *storeFlags) register(cmd *cobra.Command, withJournal bool) {
	cmd.Flags().StringVar(&f.cache, "cache", "", "cache location: a directory, redis://host:port/db, or none (default: user cache dir)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the result cache")
	if withJournal {
		cmd.Flags().StringVar(&f.journal, "journal", defaultJournal, "run journal: a SQLite path, mongodb://host/db, or none")
	}
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, f storeFlags) (*pipeline.Runner, error) {
	store, err := newCache(ctx, f)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(store, nil, c.Logger)
	if f.journal != "" {
		j, err := journal.Open(ctx, f.journal)
		if err != nil {
			store.Close()
			return nil, err
		}
		r.Journal = j
	}
	return r, nil
}

func newCache(ctx context.Context, f storeFlags) (cache.Cache, error) {
	if f.noCache {
		return cache.NewNullCache(), nil
	}
	location := f.cache
	if location == "" {
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		location = dir
	}
	return cache.Open(ctx, location)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the default cache directory (~/.cache/boxaug/ on Linux).
func cacheDir() (string, error) {
	return cache.DefaultDir()
}

// =============================================================================
// Config Helpers
// =============================================================================

// loadConfig reads path, or returns the defaults when path is empty.
// Environment overrides apply in both cases.
func loadConfig(path string) (config.Config, error) {
	return config.Load(path)
}
