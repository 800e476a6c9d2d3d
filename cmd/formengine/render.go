package main

import (
	"fmt"
	"os"
	"strings"

	theme "github.com/goliatone/go-theme"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formengine/pkg/orchestrator"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/html"
	"github.com/goliatone/go-formengine/pkg/renderers/tui"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		rendererName string
		output       string
		action       string
		sets         []string
	)
	cmd := &cobra.Command{
		Use:   "render <formId>",
		Short: "Render a form as HTML or text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			registry, err := a.registry()
			if err != nil {
				return err
			}
			renderOpts, err := a.renderOptions()
			if err != nil {
				return err
			}
			renderOpts.Action = action

			orch, closer, err := a.orchestrator(ctx, orchestrator.WithRegistry(registry))
			if err != nil {
				return err
			}
			defer closer.Close()

			form, err := a.form(ctx, orch, args[0])
			if err != nil {
				return err
			}
			values, err := parseAssignments(form, sets)
			if err != nil {
				return err
			}

			out, err := orch.Generate(ctx, orchestrator.Request{
				Forms:         []schema.FormSchema{form},
				FormID:        form.FormID,
				Renderer:      rendererName,
				Values:        values,
				RenderOptions: renderOpts,
			})
			if err != nil {
				return err
			}
			if output == "" {
				_, err = a.stdout.Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(a.stdout, "Form written to %s\n", output)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&rendererName, "renderer", "r", "html", "renderer to use (html, tui)")
	flags.StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	flags.StringVar(&action, "action", "", "form action URL")
	flags.StringArrayVar(&sets, "set", nil, "prefill a field, id=value (checkbox values are comma separated)")
	return cmd
}

// registry builds the HTML and text renderers with the configured theme.
func (a *app) registry() (*render.Registry, error) {
	var htmlOpts []html.Option
	if a.cfg.Render.Theme != "" || a.cfg.Render.Variant != "" {
		htmlOpts = append(htmlOpts, html.WithTheme(&theme.RendererConfig{
			Theme:   a.cfg.Render.Theme,
			Variant: a.cfg.Render.Variant,
		}))
	}
	if a.cfg.Render.Stylesheet != "" {
		htmlOpts = append(htmlOpts, html.WithStylesheetURL(a.cfg.Render.Stylesheet))
	}
	htmlRenderer, err := html.New(htmlOpts...)
	if err != nil {
		return nil, err
	}
	textRenderer, err := tui.New(tui.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	registry := render.NewRegistry()
	registry.MustRegister(htmlRenderer)
	registry.MustRegister(textRenderer)
	return registry, nil
}

// renderOptions carries the configured locale and translations.
func (a *app) renderOptions() (render.RenderOptions, error) {
	opts := render.RenderOptions{Locale: a.cfg.Render.Locale}
	if a.cfg.Render.Translations == "" {
		return opts, nil
	}
	data, err := os.ReadFile(a.cfg.Render.Translations)
	if err != nil {
		return opts, fmt.Errorf("read translations: %w", err)
	}
	var table render.MapTranslator
	if err := yaml.Unmarshal(data, &table); err != nil {
		return opts, fmt.Errorf("parse translations %s: %w", a.cfg.Render.Translations, err)
	}
	opts.Translator = table
	return opts, nil
}

// parseAssignments turns id=value pairs into values of form. Checkbox
// values are split on commas.
func parseAssignments(form schema.FormSchema, sets []string) (state.Values, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	index := schema.Index(form.Fields)
	values := make(state.Values, len(sets))
	for _, set := range sets {
		id, raw, ok := strings.Cut(set, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --set %q, want id=value", set)
		}
		field, known := index[id]
		if !known || field.IsGroup() {
			return nil, fmt.Errorf("--set %s: %s has no editable field %q", id, form.FormID, id)
		}
		if !field.Kind.IsMulti() {
			values[id] = state.Text(raw)
			continue
		}
		var items []string
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		values[id] = state.List(items...)
	}
	return values, nil
}
