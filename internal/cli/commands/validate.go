package commands

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// ConfigCommands creates the validate command
func ConfigCommands(load Loader) []*cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the services configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			doc := rt.Document
			fmt.Fprintf(out, "✅ %s is valid (version %s)\n", doc.Path(), doc.Version)
			if doc.Description != "" {
				fmt.Fprintf(out, "   %s\n", doc.Description)
			}
			fmt.Fprintln(out)

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tCRITICAL\tORDER\tDEPENDS ON\tFILES")
			for _, svc := range rt.Services() {
				critical := ""
				if svc.Critical {
					critical = "yes"
				}
				deps := "-"
				if len(svc.Dependencies) > 0 {
					deps = strings.Join(svc.Dependencies, ",")
				}
				kind := string(svc.Type)
				if svc.ColimaProfile != "" {
					kind = "profile"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\n",
					svc.ID, kind, critical, svc.StartupOrder, deps, svc.Files.Count())
			}
			w.Flush()

			if warnings := doc.Warnings(); len(warnings) > 0 {
				fmt.Fprintf(out, "\n⚠️  %d warning(s):\n", len(warnings))
				for _, warning := range warnings {
					fmt.Fprintf(out, "  - %s\n", warning)
				}
			}

			if len(doc.FutureServices) > 0 {
				ids := make([]string, 0, len(doc.FutureServices))
				for id := range doc.FutureServices {
					ids = append(ids, id)
				}
				sort.Strings(ids)

				fmt.Fprintln(out, "\nPlanned services:")
				for _, id := range ids {
					future := doc.FutureServices[id]
					line := fmt.Sprintf("  - %s", future.DisplayName)
					if future.EstimatedPhase != "" {
						line += fmt.Sprintf(" (%s)", future.EstimatedPhase)
					}
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}

	return []*cobra.Command{validateCmd}
}
