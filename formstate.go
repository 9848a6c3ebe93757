// Package formstate binds the form engine together for one form instance: a
// state store seeded from a schema, an attachment controller when the schema
// designates an attachment field, and a submission coordinator that forwards
// valid payloads to a collaborator.
package formstate

import (
	"context"
	"errors"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/attachment"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/state"
	"github.com/goliatone/go-formstate/pkg/submission"
)

// ErrNoAttachment is returned by attachment operations on forms whose schema
// designates no attachment field.
var ErrNoAttachment = errors.New("formstate: form has no attachment field")

// ErrAttachmentField is returned by SetValue for the designated attachment
// field. Files are attached through Attachments().
var ErrAttachmentField = errors.New("formstate: attachment field is set through the attachment controller")

// Option configures a Form.
type Option func(*config)

type config struct {
	logger         *zap.Logger
	sanitizer      *bluemonday.Policy
	idGenerator    func() string
	submissionHook submission.TransitionHook
	attachmentHook attachment.TransitionHook
}

// WithLogger routes every component's logs to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSanitizer strips markup from string values before submission.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(c *config) {
		c.sanitizer = policy
	}
}

// WithIDGenerator overrides the submission ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *config) {
		c.idGenerator = fn
	}
}

// WithSubmissionHook observes submission phase transitions.
func WithSubmissionHook(hook submission.TransitionHook) Option {
	return func(c *config) {
		c.submissionHook = hook
	}
}

// WithAttachmentHook observes attachment phase transitions.
func WithAttachmentHook(hook attachment.TransitionHook) Option {
	return func(c *config) {
		c.attachmentHook = hook
	}
}

// Form is a live form instance.
type Form struct {
	schema      *schema.Schema
	store       *state.Store
	attachments *attachment.Controller
	coordinator *submission.Coordinator
	logger      *zap.Logger
}

// New builds a form for s that submits through collaborator.
func New(s *schema.Schema, collaborator submission.Collaborator, options ...Option) (*Form, error) {
	if s == nil {
		return nil, errors.New("formstate: schema is nil")
	}
	cfg := config{logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	logger := cfg.logger
	if s.ID() != "" {
		logger = logger.With(zap.String("form", s.ID()))
	}

	f := &Form{
		schema: s,
		store:  state.NewStore(s, state.WithLogger(logger)),
		logger: logger,
	}

	coordOpts := []submission.Option{
		submission.WithLogger(logger),
		submission.WithFormID(s.ID()),
		submission.WithSanitizer(cfg.sanitizer),
		submission.WithTransitionHook(cfg.submissionHook),
	}
	if cfg.idGenerator != nil {
		coordOpts = append(coordOpts, submission.WithIDGenerator(cfg.idGenerator))
	}
	if att, ok := s.Attachment(); ok {
		f.attachments = attachment.NewController(att, f.store,
			attachment.WithLogger(logger),
			attachment.WithTransitionHook(cfg.attachmentHook),
		)
		coordOpts = append(coordOpts, submission.WithAttachments(f.attachments))
	}

	coordinator, err := submission.NewCoordinator(f.store, collaborator, coordOpts...)
	if err != nil {
		return nil, err
	}
	f.coordinator = coordinator
	return f, nil
}

// Schema returns the form's schema.
func (f *Form) Schema() *schema.Schema { return f.schema }

// SetValue records a user edit. The attachment field is rejected with
// ErrAttachmentField; use Attachments().Select or Drop instead.
func (f *Form) SetValue(name string, value model.Value) error {
	if att, ok := f.schema.Attachment(); ok && att.Field == name {
		return ErrAttachmentField
	}
	return f.store.SetValue(name, value)
}

// SetTouched marks a field as visited.
func (f *Form) SetTouched(name string) error {
	return f.store.SetTouched(name)
}

// Reset restores initial values and detaches any files.
func (f *Form) Reset() {
	f.store.Reset()
	if f.attachments != nil {
		f.attachments.Reset()
	}
}

// Snapshot returns the current observable state.
func (f *Form) Snapshot() state.Snapshot {
	return f.store.Snapshot()
}

// Attachments returns the attachment controller, or nil when the schema has
// no attachment field.
func (f *Form) Attachments() *attachment.Controller {
	return f.attachments
}

// AttachmentState returns the controller state, or ErrNoAttachment.
func (f *Form) AttachmentState() (attachment.State, error) {
	if f.attachments == nil {
		return attachment.State{}, ErrNoAttachment
	}
	return f.attachments.State(), nil
}

// SubmissionPhase reports the coordinator's current phase.
func (f *Form) SubmissionPhase() submission.Phase {
	return f.coordinator.Phase()
}

// RequestSubmit validates and, when valid, submits the form. It blocks until
// the collaborator answers or the form is closed.
func (f *Form) RequestSubmit(ctx context.Context) submission.Outcome {
	return f.coordinator.RequestSubmit(ctx)
}

// Close tears the form down. A pending submission is canceled and its late
// result is discarded.
func (f *Form) Close() {
	f.coordinator.Close()
}
