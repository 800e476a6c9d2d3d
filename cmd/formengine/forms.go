package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formengine/pkg/schema"
)

func newFormsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "forms",
		Short: "List the forms of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orch, closer, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer closer.Close()

			forms, err := a.catalog(cmd.Context(), orch)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(forms)
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tFIELDS")
			for _, form := range forms {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", form.FormID, form.Title, len(schema.LeafIDs(form.Fields)))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the normalized catalog as JSON")
	return cmd
}
