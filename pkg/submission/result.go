package submission

import (
	"encoding/json"

	"github.com/goliatone/go-formstate/pkg/model"
)

// ErrorKind classifies collaborator failures.
type ErrorKind string

const (
	ErrorKindNetwork  ErrorKind = "network"
	ErrorKindServer   ErrorKind = "server"
	ErrorKindEncoding ErrorKind = "encoding"
	ErrorKindCanceled ErrorKind = "canceled"
	ErrorKindUnknown  ErrorKind = "unknown"
)

// Payload is the finished submission handed to a collaborator.
type Payload struct {
	ID        string                 `json:"id"`
	Form      string                 `json:"form,omitempty"`
	Values    map[string]model.Value `json:"values"`
	FileField string                 `json:"fileField,omitempty"`
	Files     []*model.File          `json:"files"`
}

// MarshalJSON keeps values and files as JSON objects/arrays even when empty.
func (p Payload) MarshalJSON() ([]byte, error) {
	type alias Payload
	out := alias(p)
	if out.Values == nil {
		out.Values = map[string]model.Value{}
	}
	if out.Files == nil {
		out.Files = []*model.File{}
	}
	return json.Marshal(out)
}

// Result is the tagged outcome reported by a collaborator: either Success
// echoing the payload or Failure with a kind and message.
type Result struct {
	ok      bool
	echo    Payload
	kind    ErrorKind
	message string
}

// Success reports an accepted submission.
func Success(echo Payload) Result {
	return Result{ok: true, echo: echo}
}

// Failure reports a rejected or failed submission.
func Failure(kind ErrorKind, message string) Result {
	if kind == "" {
		kind = ErrorKindUnknown
	}
	return Result{kind: kind, message: message}
}

// OK reports whether the result is a Success.
func (r Result) OK() bool { return r.ok }

// Payload returns the echoed payload of a Success.
func (r Result) Payload() Payload { return r.echo }

// Kind returns the failure kind; empty for Success.
func (r Result) Kind() ErrorKind { return r.kind }

// Message returns the failure message; empty for Success.
func (r Result) Message() string { return r.message }

// Err converts a Failure into a *SubmissionError, or nil for Success.
func (r Result) Err() error {
	if r.ok {
		return nil
	}
	return &SubmissionError{Kind: r.kind, Message: r.message}
}

// SubmissionError carries a collaborator failure verbatim to the caller.
type SubmissionError struct {
	Kind    ErrorKind
	Message string
}

func (e *SubmissionError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}
