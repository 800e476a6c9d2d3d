package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	internalLoader "github.com/goliatone/go-formengine/internal/loader"
	"github.com/goliatone/go-formengine/pkg/schema"
)

func newValidateCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate <forms.json|forms.yaml|url>",
		Short: "Check a form catalog against the schema contract",
		Long:  "validate loads a catalog, checks JSON documents against the wire contract, enforces the structural rules and reports lint findings.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := internalLoader.New(schema.NewLoaderOptions(
				schema.WithHTTPFallback(true),
				schema.WithRequestTimeout(a.cfg.Provider.Timeout),
			))
			src, err := schema.ParseSource(args[0])
			if err != nil {
				return err
			}
			if src == nil {
				return errors.New("validate: a catalog location is required")
			}
			forms, err := loader.LoadForms(cmd.Context(), src)
			if err != nil {
				var verr *schema.ValidationError
				if errors.As(err, &verr) {
					for _, issue := range verr.Issues {
						fmt.Fprintf(a.stdout, "  error  %s\n", issue)
					}
				}
				return err
			}

			findings := 0
			for _, form := range forms {
				for _, issue := range schema.Lint(form) {
					findings++
					fmt.Fprintf(a.stdout, "  warn   %s: %s\n", form.FormID, issue)
				}
			}
			fmt.Fprintf(a.stdout, "%d form(s) valid, %d lint finding(s)\n", len(forms), findings)
			if strict && findings > 0 {
				return fmt.Errorf("%d lint finding(s)", findings)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on lint findings")
	return cmd
}
