package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	formengine "github.com/goliatone/go-formengine"
)

func newSubmissionsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "List the submissions stored by the provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := formengine.NewClient(a.cfg.Provider, a.logger)
			if err != nil {
				return err
			}
			list, err := client.FetchSubmissions(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, strings.Join(list.Columns, "\t"))
			for _, row := range list.Rows {
				cells := make([]string, len(list.Columns))
				for i, column := range list.Columns {
					cells[i] = cell(row[column])
				}
				fmt.Fprintln(tw, strings.Join(cells, "\t"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw listing as JSON")
	return cmd
}

func cell(v any) string {
	switch value := v.(type) {
	case nil:
		return "-"
	case string:
		if value == "" {
			return "-"
		}
		return value
	case []any:
		parts := make([]string, len(value))
		for i, item := range value {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(value)
	}
}
