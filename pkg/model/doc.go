// Package model defines the typed values a form instance holds. Field values
// are a tagged union over the kinds the engine understands (string, number,
// calendar date, string-set and file-list) plus an explicit null used for
// "not yet provided" inputs such as an unset date picker. Validators dispatch
// on Value.Kind and never inspect Go dynamic types.
//
// Validation rules are also declared here in their serialisable form
// (ValidationRule{Kind, Params, Message}) so form definitions loaded from YAML
// or OpenAPI documents can carry them before package validation compiles them
// into executable rules. Numeric bounds and lengths encode their threshold in
// Params["value"]; set-membership rules list options in Params["values"] as a
// comma separated string.
package model
