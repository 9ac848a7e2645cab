// Package normalize implements the normalize command.
package normalize

import (
	"github.com/spf13/cobra"

	"github.com/luisKisters/bahnhofjaeger/cmd/application"
	"github.com/luisKisters/bahnhofjaeger/internal/cmd/output"
	"github.com/luisKisters/bahnhofjaeger/pkg/normalize"
)

// NewCommand creates the normalize command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "normalize <name>...",
		GroupID: "tools",
		Short:   "Show the matching forms of station names",
		Long: `Normalize prints the forms the matcher derives from each name: the folded
exact key, the abbreviation-expanded form, and the form with bracketed
qualifiers removed.`,
		Example: `  stationmatch normalize "Frankfurt (M) Hbf" "St. Ingbert"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := app.Normalizer()
			if err != nil {
				return err
			}

			names := Forms(n, args)
			format := output.DetectFormat(app.OutputFormat())
			return output.Print(cmd.OutOrStdout(), format, names, output.NormalizedTableData(names))
		},
	}
}

// Forms derives the matching forms of each raw name.
func Forms(n *normalize.Normalizer, raw []string) []output.NormalizedName {
	names := make([]output.NormalizedName, 0, len(raw))
	for _, name := range raw {
		folded := n.Fold(name)
		names = append(names, output.NormalizedName{
			Raw:      name,
			Folded:   folded,
			Expanded: n.Normalize(name),
			NoParens: normalize.StripParentheticals(folded),
		})
	}
	return names
}
