// Package submission drives the validate, submit and settle lifecycle of a
// form instance.
//
// A Coordinator allows at most one submission in flight. Further submit
// intents while a collaborator call is pending are ignored without touching
// state. Failures are reported to the caller verbatim and never retried;
// resubmitting is an explicit caller decision.
package submission

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/goliatone/go-formstate/pkg/model"
)

// Phase enumerates coordinator states.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseSubmitting Phase = "submitting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// Status summarises what a submit intent did.
type Status string

const (
	// StatusSubmitted means the collaborator accepted the payload and the
	// form was reset.
	StatusSubmitted Status = "submitted"
	// StatusInvalid means validation failed and no collaborator call was made.
	StatusInvalid Status = "invalid"
	// StatusFailed means the collaborator reported a failure; input is kept.
	StatusFailed Status = "failed"
	// StatusIgnored means the intent was dropped with no state change.
	StatusIgnored Status = "ignored"
	// StatusDiscarded means the form was closed while the call was pending
	// and the late result was dropped.
	StatusDiscarded Status = "discarded"
)

var (
	// ErrInFlight is reported when a submission is already pending.
	ErrInFlight = errors.New("submission: already in flight")
	// ErrClosed is reported once the owning form has been torn down.
	ErrClosed = errors.New("submission: form closed")
)

// Collaborator performs the actual submission. It is never invoked
// concurrently for the same coordinator.
type Collaborator interface {
	Submit(ctx context.Context, payload Payload) Result
}

// CollaboratorFunc adapts a function to Collaborator.
type CollaboratorFunc func(ctx context.Context, payload Payload) Result

// Submit calls f.
func (f CollaboratorFunc) Submit(ctx context.Context, payload Payload) Result {
	return f(ctx, payload)
}

// Store is the slice of the form state store the coordinator drives.
type Store interface {
	PrepareSubmit() (map[string]model.Value, map[string]string)
	SetSubmitting(submitting bool)
	Reset()
}

// Attachments exposes the accepted files of an attachment controller.
type Attachments interface {
	Field() string
	Files() []*model.File
	Reset()
}

// Outcome reports the result of one submit intent.
type Outcome struct {
	Status Status
	ID     string
	Errors map[string]string
	Result Result
	Err    error
}

// TransitionHook observes every phase change.
type TransitionHook func(from, to Phase)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAttachments includes the controller's files in payloads and clears it
// after a successful submission.
func WithAttachments(a Attachments) Option {
	return func(c *Coordinator) {
		c.attachments = a
	}
}

// WithSanitizer strips markup from text values while assembling payloads.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(c *Coordinator) {
		c.sanitizer = policy
	}
}

// WithFormID stamps payloads with the form identifier.
func WithFormID(id string) Option {
	return func(c *Coordinator) {
		c.formID = id
	}
}

// WithIDGenerator overrides the submission ID source.
func WithIDGenerator(fn func() string) Option {
	return func(c *Coordinator) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithTransitionHook registers an observer for phase changes. The hook runs
// while the coordinator is locked and must not call back into it.
func WithTransitionHook(hook TransitionHook) Option {
	return func(c *Coordinator) {
		c.hook = hook
	}
}

// Coordinator owns the submission state machine of one form instance.
type Coordinator struct {
	store        Store
	collaborator Collaborator
	attachments  Attachments
	sanitizer    *bluemonday.Policy
	formID       string
	newID        func() string
	inflight     *semaphore.Weighted
	logger       *zap.Logger
	hook         TransitionHook

	mu     sync.Mutex
	phase  Phase
	closed bool
	cancel context.CancelFunc
}

// NewCoordinator wires a store to a collaborator.
func NewCoordinator(store Store, collaborator Collaborator, options ...Option) (*Coordinator, error) {
	if store == nil {
		return nil, errors.New("submission: store is required")
	}
	if collaborator == nil {
		return nil, errors.New("submission: collaborator is required")
	}
	c := &Coordinator{
		store:        store,
		collaborator: collaborator,
		newID:        uuid.NewString,
		inflight:     semaphore.NewWeighted(1),
		logger:       zap.NewNop(),
		phase:        PhaseIdle,
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Phase returns the current phase.
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// RequestSubmit validates the form and, when valid, invokes the collaborator
// once and settles the store with the result. It blocks until the
// collaborator returns.
func (c *Coordinator) RequestSubmit(ctx context.Context) Outcome {
	if ctx == nil {
		return Outcome{Status: StatusIgnored, Err: errors.New("submission: context is required")}
	}
	if err := ctx.Err(); err != nil {
		return Outcome{Status: StatusIgnored, Err: err}
	}
	if c.isClosed() {
		return Outcome{Status: StatusIgnored, Err: ErrClosed}
	}
	if !c.inflight.TryAcquire(1) {
		c.logger.Debug("submit intent ignored", zap.String("form", c.formID))
		return Outcome{Status: StatusIgnored, Err: ErrInFlight}
	}
	defer c.inflight.Release(1)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Outcome{Status: StatusIgnored, Err: ErrClosed}
	}
	c.cancel = cancel
	c.transition(PhaseValidating)
	values, errs := c.store.PrepareSubmit()
	if len(errs) > 0 {
		c.transition(PhaseIdle)
		c.cancel = nil
		c.mu.Unlock()
		return Outcome{Status: StatusInvalid, Errors: errs}
	}
	c.transition(PhaseSubmitting)
	payload := c.buildPayload(values)
	c.mu.Unlock()

	c.logger.Info("submitting form",
		zap.String("form", c.formID),
		zap.String("submission", payload.ID),
		zap.Int("fields", len(payload.Values)),
		zap.Int("files", len(payload.Files)))

	result := c.invoke(runCtx, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel = nil

	if c.closed {
		c.logger.Debug("late submission result discarded",
			zap.String("form", c.formID),
			zap.String("submission", payload.ID))
		return Outcome{Status: StatusDiscarded, ID: payload.ID, Result: result, Err: ErrClosed}
	}

	if result.OK() {
		c.transition(PhaseSucceeded)
		c.store.Reset()
		if c.attachments != nil {
			c.attachments.Reset()
		}
		c.transition(PhaseIdle)
		c.logger.Info("form submitted",
			zap.String("form", c.formID),
			zap.String("submission", payload.ID))
		return Outcome{Status: StatusSubmitted, ID: payload.ID, Result: result}
	}

	c.transition(PhaseFailed)
	c.store.SetSubmitting(false)
	c.transition(PhaseIdle)
	c.logger.Warn("form submission failed",
		zap.String("form", c.formID),
		zap.String("submission", payload.ID),
		zap.String("kind", string(result.Kind())),
		zap.String("message", result.Message()))
	return Outcome{Status: StatusFailed, ID: payload.ID, Result: result, Err: result.Err()}
}

// Close tears the coordinator down. A pending collaborator call has its
// context cancelled and its eventual result is discarded.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Coordinator) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Coordinator) invoke(ctx context.Context, payload Payload) (result Result) {
	defer func() {
		if recovered := recover(); recovered != nil {
			result = Failure(ErrorKindUnknown, fmt.Sprintf("collaborator panic: %v", recovered))
		}
	}()
	return c.collaborator.Submit(ctx, payload)
}

func (c *Coordinator) buildPayload(values map[string]model.Value) Payload {
	payload := Payload{
		ID:     c.newID(),
		Form:   c.formID,
		Values: make(map[string]model.Value, len(values)),
		Files:  []*model.File{},
	}
	skip := ""
	if c.attachments != nil {
		skip = c.attachments.Field()
		payload.FileField = skip
		payload.Files = append(payload.Files, c.attachments.Files()...)
	}
	for name, value := range values {
		if name == skip {
			continue
		}
		payload.Values[name] = c.sanitize(value)
	}
	return payload
}

func (c *Coordinator) sanitize(value model.Value) model.Value {
	if c.sanitizer == nil {
		return value
	}
	switch value.Kind() {
	case model.KindString:
		s, _ := value.AsString()
		return model.String(c.sanitizer.Sanitize(s))
	case model.KindStringSet:
		items, _ := value.AsStringSet()
		for i, item := range items {
			items[i] = c.sanitizer.Sanitize(item)
		}
		return model.StringSet(items...)
	default:
		return value
	}
}

// transition must be called with c.mu held.
func (c *Coordinator) transition(next Phase) {
	prev := c.phase
	c.phase = next
	c.logger.Debug("submission transition",
		zap.String("form", c.formID),
		zap.String("from", string(prev)),
		zap.String("to", string(next)))
	if c.hook != nil {
		c.hook(prev, next)
	}
}
