// Package match implements the match command, which runs the full
// reconciliation pipeline over the two station lists.
package match

import (
	"github.com/spf13/cobra"

	"github.com/luisKisters/bahnhofjaeger/cmd/application"
	"github.com/luisKisters/bahnhofjaeger/internal/cmd/output"
	"github.com/luisKisters/bahnhofjaeger/internal/datasets"
	"github.com/luisKisters/bahnhofjaeger/internal/matcher"
	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
	"github.com/luisKisters/bahnhofjaeger/pkg/logging"
	"github.com/luisKisters/bahnhofjaeger/pkg/reconciler"
)

// Flags override the configured files and matching settings.
type Flags struct {
	Source    string
	Target    string
	Output    string
	Unmatched string

	Primary   int
	Fallback  int
	TopK      int
	NoArbiter bool

	Only []string
}

// NewCommand creates the match command.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "match",
		GroupID: "core",
		Short:   "Match price list stations to OSM stations",
		Long: `Match links every station of the price list to at most one station of the
OSM export.

Stations are tried in tiers: an exact match on the folded name, then fuzzy
matching with abbreviation expansion and qualifier stripping, then an
optional Gemini arbiter for what is left. Every station ends up in exactly
one tier or unmatched.`,
		Example: `  stationmatch match --source preisliste.csv --target osm.csv
  stationmatch match --no-arbiter -o json
  stationmatch match --primary 92 --fallback 85
  stationmatch match --only 'berlin*' --only '^hamburg'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Source, "source", "", "price list CSV (semicolon delimited)")
	cmd.Flags().StringVar(&flags.Target, "target", "", "OSM station export CSV (comma delimited)")
	cmd.Flags().StringVar(&flags.Output, "out", "", "combined output CSV")
	cmd.Flags().StringVar(&flags.Unmatched, "unmatched", "", "unmatched stations CSV (empty to skip)")
	cmd.Flags().IntVar(&flags.Primary, "primary", 0, "cutoff for the plain and expanded fuzzy strategies")
	cmd.Flags().IntVar(&flags.Fallback, "fallback", 0, "cutoff for the qualifier-stripped fuzzy strategies")
	cmd.Flags().IntVar(&flags.TopK, "top-k", 0, "candidates offered to the arbiter per station")
	cmd.Flags().BoolVar(&flags.NoArbiter, "no-arbiter", false, "skip the arbiter tier")
	cmd.Flags().StringSliceVar(&flags.Only, "only", nil, "only match price list stations whose name matches a glob or regex (repeatable)")

	return cmd
}

// resolve merges explicitly set flags over the configured values.
func resolve(cmd *cobra.Command, app application.Application, flags *Flags) (application.Paths, application.Matching) {
	paths := app.Paths()
	matching := app.Matching()
	set := cmd.Flags().Changed

	if set("source") {
		paths.Source = flags.Source
	}
	if set("target") {
		paths.Target = flags.Target
	}
	if set("out") {
		paths.Output = flags.Output
	}
	if set("unmatched") {
		paths.Unmatched = flags.Unmatched
	}
	if set("primary") {
		matching.PrimaryThreshold = flags.Primary
	}
	if set("fallback") {
		matching.FallbackThreshold = flags.Fallback
	}
	if set("top-k") {
		matching.TopK = flags.TopK
	}
	return paths, matching
}

func run(cmd *cobra.Command, app application.Application, flags *Flags) error {
	logger := app.Logger()
	ctx := logging.WithLogger(cmd.Context(), logger)
	paths, matching := resolve(cmd, app, flags)

	if paths.Source == "" || paths.Target == "" {
		return errors.NewValidationError("source", paths.Source, "both --source and --target are required")
	}
	if paths.Output == "" {
		return errors.NewValidationError("out", paths.Output, "an output file is required")
	}

	normalizer, err := app.Normalizer()
	if err != nil {
		return err
	}
	filter, err := matcher.New(normalizer.Fold, flags.Only...)
	if err != nil {
		return errors.NewValidationError("only", flags.Only, err.Error())
	}

	// Step 1: Load both lists
	sources, sourceReport, err := datasets.LoadSources(ctx, paths.Source)
	if err != nil {
		return err
	}
	targets, targetReport, err := datasets.LoadTargets(ctx, paths.Target)
	if err != nil {
		return err
	}
	if len(flags.Only) > 0 {
		loaded := len(sources)
		sources = filter.Sources(sources)
		logger.Info().
			Strs("patterns", filter.Patterns()).
			Int("selected", len(sources)).
			Int("loaded", loaded).
			Msg("Filtered price list stations")
	}

	// Step 2: Build the reconciler
	opts := []reconciler.Option{
		reconciler.WithNormalizer(normalizer),
		reconciler.WithThresholds(matching.PrimaryThreshold, matching.FallbackThreshold),
		reconciler.WithTopK(matching.TopK),
		reconciler.WithLogger(logger),
	}
	if !flags.NoArbiter {
		adapter, err := app.Arbiter()
		if err != nil {
			return err
		}
		opts = append(opts, reconciler.WithArbiter(adapter))
	}
	r, err := reconciler.New(opts...)
	if err != nil {
		return err
	}

	// Step 3: Reconcile
	result, err := r.Reconcile(ctx, sources, targets)
	if err != nil {
		return err
	}
	result.Stats.RowsSkipped = sourceReport.Skipped + targetReport.Skipped
	for _, batchErr := range result.Errors {
		logger.Warn().Err(batchErr).Msg("Arbiter batch failed; its stations stay unmatched")
	}

	// Step 4: Write output files
	if err := datasets.WriteResults(paths.Output, sources, targets, result.Results); err != nil {
		return err
	}
	if paths.Unmatched != "" {
		if err := datasets.WriteUnmatched(paths.Unmatched, sources, result.Results); err != nil {
			return err
		}
	}
	logger.Info().
		Str("output", paths.Output).
		Str("unmatched", paths.Unmatched).
		Msg(result.Summary())

	// Step 5: Print the summary
	summary := output.NewSummary(result)
	summary.OutputFile = paths.Output
	summary.UnmatchedFile = paths.Unmatched
	format := output.DetectFormat(app.OutputFormat())
	return output.Print(cmd.OutOrStdout(), format, summary, summary.TableData())
}
