package cli

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"PlantScout/internal/usecase"
)

// RecommendOptions holds flags for the recommend command.
type RecommendOptions struct {
	*RootOptions
	Zip      string
	Shade    string
	Moisture string
}

// NewRecommendCommand creates the recommend command.
func NewRecommendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecommendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Stream one recommendation session to stdout",
		Long: `Runs a single session and writes its server-sent events to stdout.
Logs go to stderr.

Example:
  plantscout recommend --zip 48104 --shade "Full Sun" --moisture Medium`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := usecase.ParseQuery(opts.Zip, opts.Shade, opts.Moisture)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			application, _, err := opts.application(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Recommend(ctx, q, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Zip, "zip", "", "five digit US zip code (required)")
	cmd.Flags().StringVar(&opts.Shade, "shade", "Full Sun", "Full Sun | Partial Shade | Full Shade")
	cmd.Flags().StringVar(&opts.Moisture, "moisture", "Medium", "Low | Medium | High")
	_ = cmd.MarkFlagRequired("zip")

	return cmd
}
