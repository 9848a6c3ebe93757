package state

import "github.com/goliatone/go-formstate/pkg/model"

// Snapshot is a read-only copy of a form's state handed to consumers.
type Snapshot struct {
	Fields       []string
	Values       map[string]model.Value
	Touched      map[string]bool
	Dirty        map[string]bool
	Errors       map[string]string
	IsSubmitting bool
	SubmitCount  int
}

// Error returns the visible message for a field.
func (s Snapshot) Error(name string) (string, bool) {
	msg, ok := s.Errors[name]
	return msg, ok
}

// HasErrors reports whether any message is visible.
func (s Snapshot) HasErrors() bool { return len(s.Errors) > 0 }

// IsDirty reports whether any field differs from its initial value.
func (s Snapshot) IsDirty() bool { return len(s.Dirty) > 0 }
