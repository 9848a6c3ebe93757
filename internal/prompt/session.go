package prompt

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	formstate "github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/attachment"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/submission"
)

// ErrGaveUp is returned by Run when the user declines to resubmit after a
// failed submission.
var ErrGaveUp = errors.New("prompt: submission abandoned")

// Option configures a Session.
type Option func(*Session)

// WithFileSystem sets the filesystem attachment paths are read from.
func WithFileSystem(fsys afero.Fs) Option {
	return func(s *Session) {
		if fsys != nil {
			s.files = fsys
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session fills and submits one form interactively.
type Session struct {
	form   *formstate.Form
	driver Driver
	files  afero.Fs
	logger *zap.Logger
}

// NewSession binds form to driver.
func NewSession(form *formstate.Form, driver Driver, options ...Option) *Session {
	s := &Session{
		form:   form,
		driver: driver,
		files:  afero.NewOsFs(),
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Run prompts every field, then submits. Invalid fields are reported and
// prompted again; after a collaborator failure the user is asked whether to
// resubmit with the same input.
func (s *Session) Run(ctx context.Context) (submission.Outcome, error) {
	if err := s.Fill(ctx, s.form.Schema().Names()); err != nil {
		return submission.Outcome{}, err
	}

	for {
		outcome := s.form.RequestSubmit(ctx)
		switch outcome.Status {
		case submission.StatusSubmitted:
			if err := s.driver.Info(ctx, fmt.Sprintf("Submitted (%s).", outcome.ID)); err != nil {
				return outcome, err
			}
			return outcome, nil

		case submission.StatusInvalid:
			ordered := s.form.Schema().Ordered(outcome.Errors)
			names := make([]string, 0, len(ordered))
			for _, fe := range ordered {
				names = append(names, fe.Field)
				if err := s.driver.Info(ctx, fmt.Sprintf("  %s: %s", s.label(fe.Field), fe.Message)); err != nil {
					return outcome, err
				}
			}
			if err := s.Fill(ctx, names); err != nil {
				return outcome, err
			}

		case submission.StatusFailed:
			if err := s.driver.Info(ctx, "Submission failed: "+outcome.Result.Message()); err != nil {
				return outcome, err
			}
			again, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Submit again?", Default: true})
			if err != nil {
				return outcome, err
			}
			if !again {
				return outcome, ErrGaveUp
			}

		default:
			if outcome.Err != nil {
				return outcome, outcome.Err
			}
			return outcome, fmt.Errorf("prompt: submission %s", outcome.Status)
		}
	}
}

// Fill prompts the named fields in order.
func (s *Session) Fill(ctx context.Context, names []string) error {
	for _, name := range names {
		spec, ok := s.form.Schema().Field(name)
		if !ok {
			continue
		}
		if err := s.promptField(ctx, spec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) label(name string) string {
	if spec, ok := s.form.Schema().Field(name); ok && spec.Label != "" {
		return spec.Label
	}
	return name
}

func (s *Session) promptField(ctx context.Context, spec schema.FieldSpec) error {
	if ctrl := s.form.Attachments(); ctrl != nil && ctrl.Field() == spec.Name {
		return s.promptAttachment(ctx, spec, ctrl)
	}
	if spec.Kind == model.KindFileList {
		// Only the designated attachment field can receive files.
		return s.form.SetTouched(spec.Name)
	}

	current := s.form.Snapshot().Values[spec.Name]
	answer, err := s.driver.Input(ctx, InputConfig{
		Message: promptMessage(spec),
		Default: current.String(),
		Help:    kindHelp(spec.Kind),
		Validator: func(text string) error {
			_, err := model.Coerce(spec.Kind, text)
			return err
		},
	})
	if err != nil {
		return err
	}

	value, err := model.Coerce(spec.Kind, answer)
	if err != nil {
		if infoErr := s.driver.Info(ctx, "  "+err.Error()); infoErr != nil {
			return infoErr
		}
		return s.promptField(ctx, spec)
	}
	if err := s.form.SetValue(spec.Name, value); err != nil {
		return err
	}
	if msg, ok := s.form.Snapshot().Error(spec.Name); ok {
		return s.driver.Info(ctx, "  "+msg)
	}
	return nil
}

func (s *Session) promptAttachment(ctx context.Context, spec schema.FieldSpec, ctrl *attachment.Controller) error {
	help := "Comma separated file paths; leave blank to keep the current selection."
	if att, ok := s.form.Schema().Attachment(); ok && len(att.Accept) > 0 {
		help += " Accepts " + strings.Join(att.Accept, ", ") + "."
	}
	answer, err := s.driver.Input(ctx, InputConfig{Message: promptMessage(spec), Help: help})
	if err != nil {
		return err
	}

	paths := splitPaths(answer)
	if len(paths) == 0 {
		return s.form.SetTouched(spec.Name)
	}

	files := make([]*model.File, 0, len(paths))
	for _, path := range paths {
		file, err := LoadFile(s.files, path)
		if err != nil {
			if infoErr := s.driver.Info(ctx, "  "+err.Error()); infoErr != nil {
				return infoErr
			}
			return s.promptAttachment(ctx, spec, ctrl)
		}
		files = append(files, file)
	}

	if len(ctrl.Files()) > 0 {
		if err := ctrl.Clear(); err != nil {
			return err
		}
	}
	if err := ctrl.Select(files...); err != nil {
		return err
	}
	st := ctrl.State()
	if st.Phase == attachment.PhaseRejected {
		s.logger.Info("attachment rejected", zap.String("field", spec.Name), zap.String("reason", st.RejectionReason))
		if err := s.driver.Info(ctx, "  "+st.RejectionReason); err != nil {
			return err
		}
		return s.promptAttachment(ctx, spec, ctrl)
	}
	if skipped := len(files) - len(st.Files); skipped > 0 {
		return s.driver.Info(ctx, fmt.Sprintf("  %d file(s) were not attached", skipped))
	}
	return nil
}

// LoadFile reads path from fsys into an attachable file. The MIME type comes
// from the extension, falling back to content sniffing.
func LoadFile(fsys afero.Fs, path string) (*model.File, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("prompt: read %s: %w", path, err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" && len(data) > 0 {
		mimeType = http.DetectContentType(data)
	}
	return &model.File{
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Size:     int64(len(data)),
		Data:     data,
	}, nil
}

func promptMessage(spec schema.FieldSpec) string {
	if spec.Required {
		return spec.Label + " *"
	}
	return spec.Label
}

func kindHelp(kind model.Kind) string {
	switch kind {
	case model.KindNumber:
		return "A number."
	case model.KindDate:
		return "A date as YYYY-MM-DD."
	case model.KindStringSet:
		return "Comma separated values."
	default:
		return ""
	}
}

func splitPaths(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
