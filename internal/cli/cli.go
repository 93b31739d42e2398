// Package cli implements the paramdb command-line interface.
//
// This package provides commands for inspecting a parameter store: listing
// commit history, dumping snapshots, drawing the parameter tree, and
// serving a read-only history viewer. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - history: List commits, optionally as an interactive browser
//   - show: Dump a commit's canonical JSON
//   - graph: Render a commit's parameter tree as DOT or SVG
//   - serve: Serve commit history over HTTP for local inspection
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/PainterQubits/paramdb/pkg/buildinfo"
	"github.com/PainterQubits/paramdb/pkg/cache"
	"github.com/PainterQubits/paramdb/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "paramdb"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
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
		Use:          appName,
		Short:        "paramdb inspects versioned parameter stores",
		Long:         `paramdb is a CLI tool for inspecting versioned parameter stores: browsing commit history, dumping snapshots, and drawing parameter trees.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default paramdb.toml if present)")

	root.AddCommand(c.historyCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// openStore opens the configured store. Callers must Dispose it.
func (c *CLI) openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	backend, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	return store.New(backend,
		store.WithLogger(loggerFromContext(cmd.Context())),
		store.WithCache(cache.NewMemoryCache(0)),
	), nil
}
