package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/mysa/internal/app"
	"github.com/MrSnakeDoc/mysa/internal/scheduler"
	"github.com/MrSnakeDoc/mysa/internal/session"
)

const notificationPoll = 500 * time.Millisecond

func newOpenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open [id|#n ...]",
		Short: "Open all entries, or only the given ones",
		Long: `Open all entries, or only the given ones. Recurring entries keep
re-opening until interrupted (Ctrl+C), which stops every chain.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd, opts, func(ctx context.Context, core *app.Core) error {
				chains, err := startChains(core, args)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(chains) == 0 {
					fmt.Fprintln(out, "Nothing to open.")
					return nil
				}
				for _, c := range chains {
					e := c.Entry()
					every := "once"
					if e.Recurring() {
						every = fmt.Sprintf("every %dm", e.IntervalMinutes)
					}
					fmt.Fprintf(out, "▶️  %s (%s)\n", e.Ref.Value, every)
				}

				sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				return waitChains(sigCtx, core, out)
			})
		},
	}
}

func startChains(core *app.Core, args []string) ([]*scheduler.Chain, error) {
	if len(args) == 0 {
		return core.Session.OpenAll(), nil
	}
	ids, err := resolveIDs(core, args)
	if err != nil {
		return nil, err
	}
	return core.Session.OpenSelected(ids)
}

// waitChains blocks until every chain is done or ctx ends, printing open
// failures as they arrive. On ctx end every chain is stopped.
func waitChains(ctx context.Context, core *app.Core, out io.Writer) error {
	quiet := make(chan error, 1)
	go func() { quiet <- core.Scheduler.WaitQuiet(ctx) }()

	ticker := time.NewTicker(notificationPoll)
	defer ticker.Stop()

	var seen uint64
	for {
		select {
		case <-ticker.C:
			seen = printNotifications(out, core.Session.Notifications(seen), seen)
		case err := <-quiet:
			// Let the last firing report its failure before the final print.
			idleCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			_ = core.Scheduler.WaitIdle(idleCtx)
			cancel()
			printNotifications(out, core.Session.Notifications(seen), seen)

			if err != nil {
				n := core.Session.StopAll()
				fmt.Fprintf(out, "⏹️  stopped %d chain%s\n", n, plural(n, "", "s"))
			}
			return nil
		}
	}
}

func printNotifications(out io.Writer, notes []session.Notification, seen uint64) uint64 {
	for _, n := range notes {
		fmt.Fprintf(out, "⚠️  %s\n", n.Message)
		seen = n.Seq
	}
	return seen
}
