package schema

import "fmt"

// SchemaError reports an invalid schema definition. It is only produced by
// New, before any form instance exists.
type SchemaError struct {
	Field  string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	if e.Field == "" {
		return "schema: " + msg
	}
	return fmt.Sprintf("schema: field %q: %s", e.Field, msg)
}

func (e *SchemaError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func schemaErr(field, reason string) *SchemaError {
	return &SchemaError{Field: field, Reason: reason}
}
