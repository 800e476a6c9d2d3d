package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	formengine "github.com/goliatone/go-formengine"
	"github.com/goliatone/go-formengine/pkg/config"
	"github.com/goliatone/go-formengine/pkg/logging"
	"github.com/goliatone/go-formengine/pkg/orchestrator"
	"github.com/goliatone/go-formengine/pkg/schema"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand once the persistent
// flags are parsed.
type app struct {
	configPath string
	formsPath  string
	baseURL    string
	logLevel   string
	logFormat  string
	color      bool

	cfg    config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "formengine",
		Short:         "Schema-driven insurance forms",
		Long:          "formengine loads insurance form schemas, renders them as HTML or text, fills them interactively and serves a reference provider.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML configuration file")
	flags.StringVar(&a.formsPath, "forms", "", "read the form catalog from this file or URL instead of the provider")
	flags.StringVar(&a.baseURL, "base-url", "", "Schema Provider base URL")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (console, json, text)")
	flags.BoolVar(&a.color, "color", false, "colorize console logs")

	root.AddCommand(
		newFormsCmd(a),
		newValidateCmd(a),
		newRenderCmd(a),
		newFillCmd(a),
		newSubmissionsCmd(a),
		newServeCmd(a),
		newOpenAPICmd(a),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("forms") {
		cfg.Provider.Forms = a.formsPath
	}
	if flags.Changed("base-url") {
		cfg.Provider.BaseURL = a.baseURL
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}

	logger, err := logging.New(a.stderr, logging.Format(cfg.Log.Format), cfg.Log.Level, a.color)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// orchestrator assembles the pipeline from the loaded configuration.
func (a *app) orchestrator(ctx context.Context, extra ...orchestrator.Option) (*orchestrator.Orchestrator, io.Closer, error) {
	return formengine.FromConfig(ctx, a.cfg, a.logger, extra...)
}

// catalog resolves the configured form catalog.
func (a *app) catalog(ctx context.Context, orch *orchestrator.Orchestrator) ([]schema.FormSchema, error) {
	req, err := formengine.CatalogRequest(a.cfg)
	if err != nil {
		return nil, err
	}
	return orch.Catalog(ctx, req)
}

// form resolves one form of the configured catalog.
func (a *app) form(ctx context.Context, orch *orchestrator.Orchestrator, formID string) (schema.FormSchema, error) {
	req, err := formengine.CatalogRequest(a.cfg)
	if err != nil {
		return schema.FormSchema{}, err
	}
	req.FormID = formID
	return orch.Form(ctx, req)
}
