package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	formstate "github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/internal/prompt"
	"github.com/goliatone/go-formstate/pkg/submission"
)

func newFillCmd(a *app) *cobra.Command {
	src := &source{}
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill a form interactively and submit it",
		Long: "Prompts every field of the form, attaches files by path and submits.\n" +
			"Without an endpoint the payload is printed as JSON.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			s, err := src.schema(ctx, a.fs)
			if err != nil {
				return err
			}

			options := []formstate.Option{formstate.WithLogger(a.logger)}
			if a.cfg.Submit.Sanitize {
				options = append(options, formstate.WithSanitizer(bluemonday.StrictPolicy()))
			}
			form, err := formstate.New(s, a.collaborator(cmd), options...)
			if err != nil {
				return err
			}
			defer form.Close()

			session := prompt.NewSession(form, prompt.NewSurveyDriver(cmd.OutOrStdout()),
				prompt.WithFileSystem(a.fs),
				prompt.WithLogger(a.logger))
			_, err = session.Run(ctx)
			if errors.Is(err, prompt.ErrAborted) || errors.Is(err, context.Canceled) {
				a.logger.Info("fill aborted", zap.String("form", s.ID()))
				return nil
			}
			return err
		},
	}
	src.register(cmd)
	cmd.Flags().String("endpoint", "", "submission URL (prints the payload when empty)")
	cmd.Flags().String("method", "POST", "HTTP method used for submission")
	cmd.Flags().Duration("timeout", 0, "submission timeout (0 uses the configured default)")
	cmd.Flags().Bool("sanitize", true, "strip markup from text values before submitting")
	return cmd
}

func (a *app) collaborator(cmd *cobra.Command) submission.Collaborator {
	if a.cfg.Submit.Endpoint == "" {
		return submission.NewWriterCollaborator(cmd.OutOrStdout())
	}
	return submission.NewHTTPCollaborator(a.cfg.Submit.Endpoint,
		submission.WithMethod(a.cfg.Submit.Method),
		submission.WithTimeout(a.cfg.Submit.Timeout))
}
