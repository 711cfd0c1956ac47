package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/boxaug/pkg/journal"
)

// journalCommand creates the journal inspection command.
func (c *CLI) journalCommand() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect recorded augmentation runs",
	}
	cmd.PersistentFlags().StringVar(&dsn, "journal", defaultJournal, "run journal: a SQLite path or mongodb:// URI")

	cmd.AddCommand(c.journalRunsCommand(&dsn))
	cmd.AddCommand(c.journalShowCommand(&dsn))

	return cmd
}

// journalRunsCommand creates the "journal runs" subcommand.
func (c *CLI) journalRunsCommand(dsn *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			j, err := journal.Open(ctx, *dsn)
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.Runs(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No runs recorded")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), runsTable(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs (0 for all)")

	return cmd
}

// journalShowCommand creates the "journal show" subcommand.
func (c *CLI) journalShowCommand(dsn *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and the outcome of every image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			j, err := journal.Open(ctx, *dsn)
			if err != nil {
				return err
			}
			defer j.Close()

			run, err := j.Run(ctx, args[0])
			if err != nil {
				return err
			}
			entries, err := j.Entries(ctx, run.ID)
			if err != nil {
				return err
			}

			printRun(*run)
			if len(entries) > 0 {
				printNewline()
				fmt.Fprintln(cmd.OutOrStdout(), entriesTable(entries))
			}
			return nil
		},
	}
}

func printRun(r journal.Run) {
	printKeyValue("run", StyleHighlight.Render(r.ID))
	printKeyValue("started", r.StartedAt.Local().Format(time.DateTime))
	if r.Finished() {
		printKeyValue("duration", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String())
	} else {
		printKeyValue("status", StyleWarning.Render("unfinished"))
	}
	printKeyValue("images", r.ImagesDir)
	printKeyValue("output", r.OutputDir)
	printKeyValue("seed", fmt.Sprint(r.Seed))
	printKeyValue("config", r.ConfigHash)
	printStats(r.Kept, r.Dropped, 0)
	if r.Failed > 0 {
		printWarning("%d of %d images failed", r.Failed, r.Images)
	}
}

// =============================================================================
// Tables
// =============================================================================

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...)
}

func runsTable(runs []journal.Run) string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		status := "running"
		if r.Finished() {
			status = "done"
		}
		rows[i] = []string{
			r.ID,
			formatRelativeTime(r.StartedAt, time.Now()),
			fmt.Sprint(r.Images),
			fmt.Sprint(r.Kept),
			fmt.Sprint(r.Dropped),
			fmt.Sprint(r.Failed),
			status,
		}
	}

	return newTable("Run", "Started", "Images", "Kept", "Dropped", "Failed", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row < 0:
				return tableHeaderStyle
			case col == 5 && runs[row].Failed > 0:
				return StyleWarning
			case col == 6 && !runs[row].Finished():
				return StyleDim
			case col == 6:
				return StyleSuccess
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func entriesTable(entries []journal.Entry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		result := fmt.Sprintf("%d → %d", e.AnnotationsIn, e.AnnotationsOut)
		if e.Error != "" {
			result = e.Error
		}
		source := "fresh"
		if e.CacheHit {
			source = iconCached
		}
		rows[i] = []string{
			e.FileName,
			fmt.Sprintf("%dx%d", e.Width, e.Height),
			strings.Join(e.Applied, ", "),
			result,
			source,
		}
	}

	return newTable("File", "Size", "Applied", "Boxes", "Source").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row < 0:
				return tableHeaderStyle
			case entries[row].Error != "":
				return StyleWarning
			case col == 4 && entries[row].CacheHit:
				return styleCached
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// formatRelativeTime renders t relative to now for recent times and as a
// date otherwise.
func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
