package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/mysa/internal/app"
	"github.com/MrSnakeDoc/mysa/internal/domain"
	"github.com/MrSnakeDoc/mysa/internal/session"
)

func printEntries(out io.Writer, entries []domain.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No entries. Add one with `mysa add url|file <reference>`.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tID\tKind\tEvery\tReference")
	for i, e := range entries {
		every := "once"
		if e.Recurring() {
			every = fmt.Sprintf("%dm", e.IntervalMinutes)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, e.ID, e.Ref.Kind, every, e.Ref.Value)
	}
	_ = w.Flush()
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List entries in display order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd, opts, func(_ context.Context, core *app.Core) error {
				printEntries(cmd.OutOrStdout(), core.Session.Entries())
				return nil
			})
		},
	}
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a web address or a local file",
	}
	add.AddCommand(
		newAddKindCmd(opts, domain.KindURL, "url <address>", "Add a web address"),
		newAddKindCmd(opts, domain.KindFile, "file <path>", "Add a local file or folder"),
	)
	return add
}

func newAddKindCmd(opts *rootOptions, kind domain.Kind, use, short string) *cobra.Command {
	var every int
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd, opts, func(ctx context.Context, core *app.Core) error {
				e, err := core.Session.Add(ctx, session.Input{
					Kind:            kind,
					Reference:       args[0],
					IntervalMinutes: every,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ added %s %s (%s)\n", e.Ref.Kind, e.Ref.Value, e.ID)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&every, "every", "e", 0, "re-open every N minutes (0 = open once)")
	return cmd
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var (
		every int
		kind  string
	)
	cmd := &cobra.Command{
		Use:   "edit <id|#n> <reference>",
		Short: "Replace the reference and interval of an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd, opts, func(ctx context.Context, core *app.Core) error {
				ids, err := resolveIDs(core, args[:1])
				if err != nil {
					return err
				}
				e, err := core.Session.Edit(ctx, ids[0], session.Input{
					Kind:            domain.Kind(kind),
					Reference:       args[1],
					IntervalMinutes: every,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ updated %s\n", e.ID)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&every, "every", "e", 0, "re-open every N minutes (0 = open once)")
	cmd.Flags().StringVar(&kind, "kind", "", "url or file (default: keep, or derive from the reference)")
	return cmd
}

func newRmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id|#n>...",
		Aliases: []string{"delete"},
		Short:   "Delete entries",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd, opts, func(ctx context.Context, core *app.Core) error {
				// Resolve every row before deleting so "#1 #2" means the rows as listed.
				ids, err := resolveIDs(core, args)
				if err != nil {
					return err
				}
				n, err := core.Session.Delete(ctx, ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "🗑️  deleted %d entr%s\n", n, plural(n, "y", "ies"))
				return nil
			})
		},
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
