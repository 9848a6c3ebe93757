package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/schema"
)

var errInvalidValues = errors.New("values do not satisfy the form")

func newCheckCmd(a *app) *cobra.Command {
	src := &source{}
	var (
		valuesPath string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a values file against a form",
		Long: "Validates every field of the values file the same way a submit attempt\n" +
			"does and prints the failing fields in form order.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := src.schema(cmd.Context(), a.fs)
			if err != nil {
				return err
			}
			raw, err := afero.ReadFile(a.fs, valuesPath)
			if err != nil {
				return fmt.Errorf("read %s: %w", valuesPath, err)
			}
			decoded, err := definition.ParseValues(s, raw)
			if err != nil {
				return err
			}

			values := s.InitialValues()
			for name, value := range decoded {
				values[name] = value
			}
			failures := s.Ordered(s.ValidateAll(values))
			a.logger.Debug("values checked",
				zap.String("form", s.ID()),
				zap.Int("fields", s.Len()),
				zap.Int("errors", len(failures)))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if failures == nil {
					failures = []schema.FieldError{}
				}
				if err := enc.Encode(failures); err != nil {
					return err
				}
			} else if len(failures) == 0 {
				fmt.Fprintln(out, "ok")
			} else {
				for _, fe := range failures {
					fmt.Fprintf(out, "%s: %s\n", fe.Field, fe.Message)
				}
			}
			if len(failures) > 0 {
				return errInvalidValues
			}
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&valuesPath, "values", "", "YAML or JSON values file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print failures as JSON")
	_ = cmd.MarkFlagRequired("values")
	return cmd
}
