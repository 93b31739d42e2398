package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/PainterQubits/paramdb/pkg/errors"
)

// showCommand creates the show command dumping a commit's canonical JSON.
func (c *CLI) showCommand() *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Dump a commit's snapshot as JSON",
		Long: `Dump the canonical JSON snapshot of a commit.

With no argument the latest commit is shown. The snapshot is printed with
type tags and timestamps intact, so it works for commits whose record
types are not declared in this process.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := commitIDArg(args)
			if err != nil {
				return err
			}

			db, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Dispose()

			raw, entry, err := db.RawJSON(cmd.Context(), id)
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("loaded snapshot",
				"id", entry.ID, "bytes", len(raw))

			if !compact {
				var buf bytes.Buffer
				if err := json.Indent(&buf, raw, "", "  "); err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "format snapshot JSON")
				}
				raw = buf.Bytes()
			}
			fmt.Println(string(raw))
			return nil
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "print unformatted JSON")

	return cmd
}

// commitIDArg parses an optional commit id argument; absent means latest.
func commitIDArg(args []string) (int64, error) {
	if len(args) == 0 || args[0] == "latest" {
		return 0, nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid commit id %q", args[0])
	}
	return id, nil
}
