// Package schema holds the immutable, ordered definition of a form's fields.
//
// A Schema is built once with New and never changes afterwards. Construction
// fails fast with a *SchemaError on duplicate or malformed field definitions
// so no form instance can exist over an invalid schema. Field order is the
// canonical order used when reporting errors.
package schema
