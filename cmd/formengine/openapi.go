package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formengine/pkg/openapi"
)

func newOpenAPICmd(a *app) *cobra.Command {
	var (
		format    string
		output    string
		serverURL string
	)
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI description of the submission API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			orch, closer, err := a.orchestrator(ctx)
			if err != nil {
				return err
			}
			defer closer.Close()

			forms, err := a.catalog(ctx, orch)
			if err != nil {
				return err
			}
			doc, err := openapi.SubmissionDocument(forms, openapi.Info{
				Title:     a.cfg.Server.Title,
				ServerURL: serverURL,
			})
			if err != nil {
				return err
			}
			if err := openapi.Validate(ctx, doc); err != nil {
				return err
			}
			data, err := openapi.Encode(doc, openapi.Format(format))
			if err != nil {
				return err
			}
			if output == "" {
				_, err = a.stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(a.stdout, "OpenAPI document written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(openapi.FormatYAML), "output format (json, yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&serverURL, "server-url", "", "server URL recorded in the document")
	return cmd
}
