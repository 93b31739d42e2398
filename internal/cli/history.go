package cli

import (
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/PainterQubits/paramdb/pkg/errors"
	"github.com/PainterQubits/paramdb/pkg/store"
)

// historyCommand creates the history command listing commits.
func (c *CLI) historyCommand() *cobra.Command {
	var (
		startArg    string
		endArg      string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List commits in the store",
		Long: `List commits in the store in ascending id order.

The --start and --end flags select a sub-range with list-slice semantics:
zero-based, end-exclusive, and negative values count from the end. For
example, --start -10 shows the last ten commits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := sliceArg(startArg)
			if err != nil {
				return err
			}
			end, err := sliceArg(endArg)
			if err != nil {
				return err
			}

			db, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer db.Dispose()

			p := newProgress(loggerFromContext(cmd.Context()))
			entries, err := db.CommitHistory(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			p.done(fmt.Sprintf("Listed %d commits", len(entries)))

			if len(entries) == 0 {
				printInfo("No commits")
				return nil
			}
			if interactive {
				return browseHistory(entries)
			}
			fmt.Println(historyTable(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&startArg, "start", "", "slice start (inclusive, negative counts from the end)")
	cmd.Flags().StringVar(&endArg, "end", "", "slice end (exclusive, negative counts from the end)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse commits interactively")

	return cmd
}

// sliceArg parses an optional slice index flag. Empty means unbounded.
func sliceArg(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid slice index %q", s)
	}
	return &i, nil
}

// historyTable formats commit entries as a bordered table.
func historyTable(entries []store.CommitEntry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			strconv.FormatInt(e.ID, 10),
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Message,
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Timestamp", "Message").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return StyleNumber
			}
			if col == 1 {
				return StyleDim
			}
			return StyleValue
		}).
		Render()
}

// browseHistory runs the interactive commit browser.
func browseHistory(entries []store.CommitEntry) error {
	model := NewCommitListModel(entries)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "run commit browser")
	}
	if m, ok := final.(CommitListModel); ok && m.Selected != nil {
		printSelectedCommit(*m.Selected)
	}
	return nil
}

func printSelectedCommit(e store.CommitEntry) {
	printSuccess("Commit %d", e.ID)
	printDetail("Message:   %s", e.Message)
	printDetail("Timestamp: %s", e.Timestamp.Local().Format(time.RFC3339))
	printDetail("Show data: paramdb show %d", e.ID)
}
