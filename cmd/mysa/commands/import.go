package commands

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/mysa/internal/app"
	"github.com/MrSnakeDoc/mysa/internal/sources/seed"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <seed.yaml>",
		Short: "Append the entries of a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := seed.NewLoader(afero.NewOsFs(), args[0]).Load()
			if err != nil {
				return err
			}
			inputs, err := seed.NewMapper().MapEntries(file)
			if err != nil {
				return err
			}

			return withCore(cmd, opts, func(ctx context.Context, core *app.Core) error {
				added, err := core.Session.AddMany(ctx, inputs)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ imported %d entr%s from %s\n", len(added), plural(len(added), "y", "ies"), args[0])
				return nil
			})
		},
	}
}
