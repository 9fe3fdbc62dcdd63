package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"PlantScout/internal/infrastructure/storage"
)

// NewImportCommand creates the import command for reference data.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load reference data into the database",
	}

	cmd.AddCommand(newImportFileCommand(rootOpts, "regions",
		"Load zip code regions from a CSV with zip,region columns",
		(*storage.Repository).ImportRegions))
	cmd.AddCommand(newImportFileCommand(rootOpts, "nurseries",
		"Load nurseries from a CSV with name,url,address,city,state,zip,served_zip,miles columns",
		(*storage.Repository).ImportNurseries))
	return cmd
}

type importFunc func(*storage.Repository, context.Context, io.Reader) (int, error)

func newImportFileCommand(rootOpts *RootOptions, name, short string, load importFunc) *cobra.Command {
	return &cobra.Command{
		Use:   name + " FILE",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := rootOpts.load(cmd.ErrOrStderr())

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			repo, err := storage.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer repo.Close()

			n, err := load(repo, cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("import %s: %w", name, err)
			}
			logger.Info("import finished", "kind", name, "rows", n)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d %s\n", n, name)
			return nil
		},
	}
}
