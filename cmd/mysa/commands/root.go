// Package commands holds the mysa command tree.
package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/mysa/internal/app"
	"github.com/MrSnakeDoc/mysa/internal/config"
	"github.com/MrSnakeDoc/mysa/internal/logger"
)

type rootOptions struct {
	verbose bool
}

// NewRootCmd builds the full command tree. Configuration comes from
// MYSA_* environment variables.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "mysa",
		Short: "Open your sites and files, once or on a schedule",
		Long: `mysa keeps a list of web addresses and local files. Each entry can be
opened once or re-opened every N minutes until you stop it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at the configured level instead of warnings only")

	root.AddCommand(
		newServeCmd(),
		newListCmd(opts),
		newAddCmd(opts),
		newEditCmd(opts),
		newRmCmd(opts),
		newOpenCmd(opts),
		newImportCmd(opts),
		newVersionCmd(),
	)
	return root
}

// withCore loads config, builds a core and closes it once fn returns.
func withCore(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, core *app.Core) error) error {
	cfg := config.Load()
	level := "warn"
	if opts.verbose {
		level = cfg.LogLevel
	}
	log := logger.New(level, cfg.PrettyLog)
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	core, err := app.NewCore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer core.Close()

	return fn(ctx, core)
}

// resolveIDs turns arguments into entry IDs. "#n" names the n-th row of
// `mysa list`; anything else is taken as an ID.
func resolveIDs(core *app.Core, args []string) ([]string, error) {
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		if !strings.HasPrefix(arg, "#") {
			ids = append(ids, arg)
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid row %q: want #1, #2, ...", arg)
		}
		resolved, err := core.Session.IDsAt([]int{n - 1})
		if err != nil {
			return nil, err
		}
		ids = append(ids, resolved...)
	}
	return ids, nil
}
