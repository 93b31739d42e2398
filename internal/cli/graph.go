package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PainterQubits/paramdb/pkg/errors"
	"github.com/PainterQubits/paramdb/pkg/render"
)

// graphCommand creates the graph command drawing a commit's parameter tree.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph [id]",
		Short: "Render a commit's parameter tree",
		Long: `Render the parameter tree of a commit as a node-link diagram.

With no argument the latest commit is rendered. The diagram is written as
Graphviz DOT or as SVG.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "dot" && format != "svg" {
				return errors.New(errors.ErrCodeInvalidInput,
					"unknown format %q (expected dot or svg)", format)
			}
			id, err := commitIDArg(args)
			if err != nil {
				return err
			}

			db, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Dispose()

			p := newProgress(loggerFromContext(cmd.Context()))
			doc, entry, err := db.LoadRaw(cmd.Context(), id)
			if err != nil {
				return err
			}
			dot, err := render.ToDOT(doc, render.Options{Detailed: detailed})
			if err != nil {
				return err
			}

			data := []byte(dot)
			if format == "svg" {
				if data, err = render.RenderSVG(dot); err != nil {
					return err
				}
			}

			path := output
			if path == "" {
				path = fmt.Sprintf("commit-%d.%s", entry.ID, format)
			} else if !strings.HasSuffix(path, "."+format) {
				path += "." + format
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeStorageIO, err, "write %s", path)
			}

			p.done(fmt.Sprintf("Rendered commit %d", entry.ID))
			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}
			printFile(abs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default commit-<id>.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: dot or svg")
	cmd.Flags().BoolVarP(&detailed, "detailed", "d", false, "include leaf values and timestamps in labels")

	return cmd
}
