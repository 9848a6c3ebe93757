// Package state holds the mutable values, touched flags and validation
// errors of a single form instance.
//
// A Store is the only writer of its FormState. Field writes validate just the
// written field; whole-form validation happens when a submission is prepared.
// Errors are only surfaced for fields the user touched or after a submit
// attempt, so a pristine form never shows messages.
package state

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// ErrUnknownField is returned for writes to names the schema does not
// declare. The value set is fixed at construction.
var ErrUnknownField = errors.New("state: unknown field")

// Option configures a Store.
type Option func(*Store)

// WithLogger attaches a structured logger. Values are never logged.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store tracks values, touched flags and errors keyed by field name.
type Store struct {
	mu          sync.Mutex
	schema      *schema.Schema
	values      map[string]model.Value
	touched     map[string]bool
	errors      map[string]string
	submitting  bool
	submitCount int
	logger      *zap.Logger
}

// NewStore seeds a store with each field's initial value.
func NewStore(s *schema.Schema, options ...Option) *Store {
	st := &Store{
		schema:  s,
		values:  s.InitialValues(),
		touched: make(map[string]bool),
		errors:  make(map[string]string),
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(st)
		}
	}
	return st
}

// Schema returns the schema the store was built from.
func (s *Store) Schema() *schema.Schema { return s.schema }

// SetValue writes a field, marks it touched and revalidates that field only.
func (s *Store) SetValue(name string, value model.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.schema.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	s.values[name] = value
	s.touched[name] = true
	s.revalidate(name)
	return nil
}

// SetTouched marks a field touched without changing its value, typically on
// blur. The field is revalidated so its message becomes visible.
func (s *Store) SetTouched(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.schema.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	s.touched[name] = true
	s.revalidate(name)
	return nil
}

func (s *Store) revalidate(name string) {
	msg := s.schema.ValidateField(name, s.values)
	if msg == "" {
		delete(s.errors, name)
	} else {
		s.errors[name] = msg
	}
	s.logger.Debug("field updated",
		zap.String("form", s.schema.ID()),
		zap.String("field", name),
		zap.Bool("valid", msg == ""))
}

// Reset restores initial values and clears touched flags, errors and the
// submitting flag. The submit count is preserved.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = s.schema.InitialValues()
	s.touched = make(map[string]bool)
	s.errors = make(map[string]string)
	s.submitting = false
	s.logger.Debug("form reset", zap.String("form", s.schema.ID()))
}

// Value returns the current value of a field.
func (s *Store) Value(name string) (model.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[name]
	return v, ok
}

// IsSubmitting reports whether a submission is in flight.
func (s *Store) IsSubmitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// PrepareSubmit records a submit attempt: it bumps the submit count, marks
// every field touched and validates the whole form. When the form is valid
// it flips the submitting flag and returns a copy of the values; otherwise
// it returns the failing fields and leaves the flag untouched.
func (s *Store) PrepareSubmit() (map[string]model.Value, map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitCount++
	for _, name := range s.schema.Names() {
		s.touched[name] = true
	}
	errs := s.schema.ValidateAll(s.values)
	s.errors = errs
	if len(errs) > 0 {
		s.logger.Debug("submit blocked by validation",
			zap.String("form", s.schema.ID()),
			zap.Int("errors", len(errs)),
			zap.Int("submit_count", s.submitCount))
		return nil, cloneErrors(errs)
	}
	s.submitting = true
	return cloneValues(s.values), nil
}

// SetSubmitting updates the in-flight flag without touching values.
func (s *Store) SetSubmitting(submitting bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = submitting
}

// Snapshot returns an immutable copy of the current state. Errors only
// contain messages for touched fields, or for every failing field once a
// submit was attempted.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Fields:       s.schema.Names(),
		Values:       cloneValues(s.values),
		Touched:      make(map[string]bool, len(s.touched)),
		Dirty:        make(map[string]bool),
		Errors:       make(map[string]string, len(s.errors)),
		IsSubmitting: s.submitting,
		SubmitCount:  s.submitCount,
	}
	for name, touched := range s.touched {
		if touched {
			snap.Touched[name] = true
		}
	}
	for _, spec := range s.schema.Fields() {
		if !s.values[spec.Name].Equal(spec.Initial) {
			snap.Dirty[spec.Name] = true
		}
	}
	for name, msg := range s.errors {
		if s.touched[name] || s.submitCount > 0 {
			snap.Errors[name] = msg
		}
	}
	return snap
}

func cloneValues(src map[string]model.Value) map[string]model.Value {
	out := make(map[string]model.Value, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func cloneErrors(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
