// Package rank implements the rank command.
package rank

import (
	"github.com/spf13/cobra"

	"github.com/luisKisters/bahnhofjaeger/cmd/application"
	"github.com/luisKisters/bahnhofjaeger/internal/cmd/output"
	"github.com/luisKisters/bahnhofjaeger/internal/datasets"
	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
	"github.com/luisKisters/bahnhofjaeger/pkg/fuzzy"
	"github.com/luisKisters/bahnhofjaeger/pkg/logging"
)

// NewCommand creates the rank command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		target string
		limit  int
	)

	cmd := &cobra.Command{
		Use:     "rank <name>",
		GroupID: "tools",
		Short:   "Rank target stations against one name",
		Long: `Rank runs the fuzzy strategies for a single name against the OSM export and
prints the best candidates. The candidate marked as accepted is the one the
match command would take without asking the arbiter.`,
		Example: `  stationmatch rank "Berlin Hbf" --target osm.csv --limit 5`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := app.Logger()
			ctx := logging.WithLogger(cmd.Context(), logger)
			matching := app.Matching()

			if !cmd.Flags().Changed("target") {
				target = app.Paths().Target
			}
			if target == "" {
				return errors.NewValidationError("target", target, "--target is required")
			}
			if !cmd.Flags().Changed("limit") {
				limit = matching.TopK
			}

			targets, _, err := datasets.LoadTargets(ctx, target)
			if err != nil {
				return err
			}
			n, err := app.Normalizer()
			if err != nil {
				return err
			}
			generator, err := fuzzy.NewGenerator(n, fuzzy.NewPool(targets, n.Fold),
				fuzzy.WithThresholds(matching.PrimaryThreshold, matching.FallbackThreshold))
			if err != nil {
				return err
			}

			outcome := generator.Match(args[0])
			ranking := output.Ranking{
				Query:      args[0],
				Accepted:   outcome.Accepted,
				Attempted:  outcome.Attempted,
				Candidates: outcome.Top(limit),
			}
			format := output.DetectFormat(app.OutputFormat())
			return output.Print(cmd.OutOrStdout(), format, ranking, ranking.TableData())
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "OSM station export CSV")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of candidates to show")

	return cmd
}
