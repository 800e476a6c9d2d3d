package main

import (
	"fmt"

	"github.com/spf13/cobra"

	formengine "github.com/goliatone/go-formengine"
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/provider"
	"github.com/goliatone/go-formengine/pkg/renderers/tui"
)

func newFillCmd(a *app) *cobra.Command {
	var (
		format string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "fill <formId>",
		Short: "Fill a form interactively and submit it",
		Long:  "fill prompts for every visible field, waits for dependent options, re-prompts fields that block the submit and posts the values to the provider. Progress is saved between runs.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			renderOpts, err := a.renderOptions()
			if err != nil {
				return err
			}
			filler, err := tui.New(
				tui.WithOutput(a.stdout),
				tui.WithOutputFormat(tui.OutputFormat(format)),
				tui.WithRenderOptions(renderOpts),
				tui.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}

			orch, closer, err := a.orchestrator(ctx)
			if err != nil {
				return err
			}
			defer closer.Close()

			form, err := a.form(ctx, orch, args[0])
			if err != nil {
				return err
			}
			eng, err := orch.Engine(ctx, form)
			if err != nil {
				return err
			}
			if eng.Restored() {
				fmt.Fprintln(a.stdout, "Resuming saved progress.")
			}

			handler, err := a.submitHandler(dryRun)
			if err != nil {
				return err
			}
			values, err := filler.Fill(ctx, eng, handler)
			if err != nil {
				return err
			}
			encoded, err := filler.Encode(values)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, string(encoded))
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", string(tui.OutputFormatJSON), "output format of the submitted values (json, form, pretty)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the values without submitting them")
	return cmd
}

func (a *app) submitHandler(dryRun bool) (engine.SubmitHandler, error) {
	if dryRun {
		return nil, nil
	}
	client, err := formengine.NewClient(a.cfg.Provider, a.logger)
	if err != nil {
		return nil, err
	}
	return client.SubmitHandler(func(receipt provider.Receipt) {
		fmt.Fprintf(a.stdout, "Submitted, receipt %s\n", receipt.ID)
	}), nil
}
