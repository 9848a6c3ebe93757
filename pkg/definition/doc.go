// Package definition compiles declarative form definitions into schemas.
//
// Definitions come from YAML documents (Parse, Load) or from the request body
// of an OpenAPI operation (FromOpenAPI). Both produce a Document whose Schema
// method builds the immutable *schema.Schema consumed by the form engine.
package definition
