package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/internal/config"
	"github.com/goliatone/go-formstate/internal/logging"
	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// app carries state shared by subcommands once PersistentPreRunE has run.
type app struct {
	fs       afero.Fs
	cfgFile  string
	cfg      config.Config
	logger   *zap.Logger
	closeLog func() error
}

func newRootCmd(fsys afero.Fs) *cobra.Command {
	a := &app{fs: fsys, logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:           "formstate",
		Short:         "Fill, validate and submit declarative forms",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			logger, closeFn, err := logging.New(logging.Config{
				Level:       cfg.Log.Level,
				File:        cfg.Log.File,
				Development: cfg.Log.Development,
			})
			if err != nil {
				return err
			}
			a.logger, a.closeLog = logger, closeFn
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if a.closeLog != nil {
				return a.closeLog()
			}
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "write logs to a rotating file instead of stderr")
	flags.Bool("log-dev", false, "human readable development logs")

	cmd.AddCommand(newFillCmd(a))
	cmd.AddCommand(newCheckCmd(a))
	return cmd
}

// source selects where a form definition comes from.
type source struct {
	definition string
	openapi    string
	operation  string
}

func (s *source) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.definition, "definition", "d", "", "YAML form definition")
	cmd.Flags().StringVar(&s.openapi, "openapi", "", "OpenAPI document to derive the form from")
	cmd.Flags().StringVar(&s.operation, "operation", "", "operationId whose request body defines the form")
	cmd.MarkFlagsMutuallyExclusive("definition", "openapi")
	cmd.MarkFlagsOneRequired("definition", "openapi")
	cmd.MarkFlagsRequiredTogether("openapi", "operation")
}

func (s *source) schema(ctx context.Context, fsys afero.Fs) (*schema.Schema, error) {
	var (
		doc *definition.Document
		err error
	)
	switch {
	case strings.TrimSpace(s.definition) != "":
		doc, err = definition.Load(fsys, s.definition)
	case strings.TrimSpace(s.openapi) != "":
		var raw []byte
		raw, err = afero.ReadFile(fsys, s.openapi)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.openapi, err)
		}
		doc, err = definition.FromOpenAPI(ctx, raw, s.operation)
	default:
		return nil, errors.New("either --definition or --openapi is required")
	}
	if err != nil {
		return nil, err
	}
	return doc.Schema()
}
