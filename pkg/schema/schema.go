package schema

import (
	"strings"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// FieldSpec declares one named field. Rules run in order; when Required is
// set a required rule is prepended unless the list already starts with one.
// Non-required fields holding an empty value skip their rules entirely.
type FieldSpec struct {
	Name            string
	Kind            model.Kind
	Label           string
	Initial         model.Value
	Rules           []validation.Rule
	Required        bool
	RequiredMessage string
}

// Attachment configures the accept-filter for the field that mirrors the
// attachment controller. Accept entries are MIME types ("image/png"),
// wildcards ("image/*") or extensions (".pdf"). MaxFiles of zero is
// unbounded.
type Attachment struct {
	Field    string
	Accept   []string
	Multiple bool
	MaxFiles int
}

// FieldError pairs a field name with its validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Option configures schema construction.
type Option func(*Schema)

// WithID names the schema for logs and payloads.
func WithID(id string) Option {
	return func(s *Schema) {
		s.id = strings.TrimSpace(id)
	}
}

// WithAttachment designates the attachment field and its accept-filter.
func WithAttachment(cfg Attachment) Option {
	return func(s *Schema) {
		clone := cfg
		clone.Accept = append([]string(nil), cfg.Accept...)
		s.attachment = &clone
	}
}

// Schema is an immutable ordered collection of field specifications.
type Schema struct {
	id         string
	fields     []FieldSpec
	index      map[string]int
	attachment *Attachment
}

// New validates and freezes the field list.
func New(fields []FieldSpec, options ...Option) (*Schema, error) {
	s := &Schema{
		fields: make([]FieldSpec, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	for _, spec := range fields {
		normalized, err := normalizeField(spec)
		if err != nil {
			return nil, err
		}
		if _, exists := s.index[normalized.Name]; exists {
			return nil, schemaErr(normalized.Name, "duplicate field name")
		}
		s.index[normalized.Name] = len(s.fields)
		s.fields = append(s.fields, normalized)
	}

	if err := s.checkAttachment(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNew panics if the schema is invalid. Useful for package-level form
// declarations and tests.
func MustNew(fields []FieldSpec, options ...Option) *Schema {
	s, err := New(fields, options...)
	if err != nil {
		panic(err)
	}
	return s
}

func normalizeField(spec FieldSpec) (FieldSpec, error) {
	spec.Name = strings.TrimSpace(spec.Name)
	if spec.Name == "" {
		return FieldSpec{}, schemaErr("", "field name is required")
	}

	if spec.Kind == "" {
		if spec.Initial.IsNull() {
			spec.Kind = model.KindString
		} else {
			spec.Kind = spec.Initial.Kind()
		}
	}
	if !spec.Kind.Valid() || spec.Kind == model.KindNull {
		return FieldSpec{}, schemaErr(spec.Name, "unsupported kind "+string(spec.Kind))
	}
	if spec.Initial.IsNull() {
		spec.Initial = model.Zero(spec.Kind)
	} else if spec.Initial.Kind() != spec.Kind {
		return FieldSpec{}, schemaErr(spec.Name, "initial value kind "+string(spec.Initial.Kind())+" does not match "+string(spec.Kind))
	}
	if spec.Label == "" {
		spec.Label = model.DefaultLabeler(spec.Name)
	}

	if validation.HasRequired(spec.Rules) {
		spec.Required = true
	}
	rules := make([]validation.Rule, 0, len(spec.Rules)+1)
	if spec.Required && (len(spec.Rules) == 0 || spec.Rules[0].Kind() != model.ValidationRuleRequired) {
		rules = append(rules, validation.Required(spec.RequiredMessage))
	}
	rules = append(rules, spec.Rules...)
	spec.Rules = rules
	return spec, nil
}

func (s *Schema) checkAttachment() error {
	if s.attachment == nil {
		return nil
	}
	cfg := s.attachment
	cfg.Field = strings.TrimSpace(cfg.Field)
	idx, ok := s.index[cfg.Field]
	if !ok {
		return schemaErr(cfg.Field, "attachment field is not declared")
	}
	if s.fields[idx].Kind != model.KindFileList {
		return schemaErr(cfg.Field, "attachment field must be a file list")
	}
	if cfg.MaxFiles < 0 {
		return schemaErr(cfg.Field, "attachment maxFiles must not be negative")
	}
	if !cfg.Multiple && cfg.MaxFiles > 1 {
		return schemaErr(cfg.Field, "single-file attachment cannot allow more than one file")
	}
	for _, entry := range cfg.Accept {
		if err := checkAcceptEntry(entry); err != "" {
			return schemaErr(cfg.Field, err)
		}
	}
	return nil
}

func checkAcceptEntry(raw string) string {
	entry := strings.TrimSpace(raw)
	switch {
	case entry == "":
		return "empty accept entry"
	case strings.HasPrefix(entry, "."):
		if len(entry) == 1 || strings.ContainsAny(entry, "/ ") {
			return "malformed extension " + raw
		}
	case strings.Contains(entry, "/"):
		parts := strings.SplitN(entry, "/", 2)
		if parts[0] == "" || parts[1] == "" || strings.Contains(parts[1], "/") {
			return "malformed mime pattern " + raw
		}
	default:
		return "accept entry " + raw + " is neither a mime pattern nor an extension"
	}
	return ""
}

// ID returns the schema identifier, if one was configured.
func (s *Schema) ID() string { return s.id }

// Len reports the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Names returns field names in canonical order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Fields returns a copy of the field specifications in canonical order.
func (s *Schema) Fields() []FieldSpec {
	out := make([]FieldSpec, len(s.fields))
	for i, f := range s.fields {
		f.Rules = append([]validation.Rule(nil), f.Rules...)
		out[i] = f
	}
	return out
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	idx, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	f := s.fields[idx]
	f.Rules = append([]validation.Rule(nil), f.Rules...)
	return f, true
}

// Has reports whether name is declared.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Attachment returns the attachment configuration, if any.
func (s *Schema) Attachment() (Attachment, bool) {
	if s.attachment == nil {
		return Attachment{}, false
	}
	cfg := *s.attachment
	cfg.Accept = append([]string(nil), cfg.Accept...)
	return cfg, true
}

// InitialValues returns every field's initial value keyed by name.
func (s *Schema) InitialValues() map[string]model.Value {
	out := make(map[string]model.Value, len(s.fields))
	for _, f := range s.fields {
		out[f.Name] = f.Initial
	}
	return out
}

// ValidateField runs the named field's rules against values[name] and
// returns the first failure, or "" when the field is valid. Only that
// field's value is consulted. Unknown names are valid.
func (s *Schema) ValidateField(name string, values map[string]model.Value) string {
	idx, ok := s.index[name]
	if !ok {
		return ""
	}
	return validateSpec(s.fields[idx], values[name])
}

// ValidateAll validates every field and returns only the failing entries.
func (s *Schema) ValidateAll(values map[string]model.Value) map[string]string {
	errs := make(map[string]string)
	for _, f := range s.fields {
		if msg := validateSpec(f, values[f.Name]); msg != "" {
			errs[f.Name] = msg
		}
	}
	return errs
}

// Ordered lists errs in canonical field order. Entries for undeclared names
// are dropped.
func (s *Schema) Ordered(errs map[string]string) []FieldError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]FieldError, 0, len(errs))
	for _, f := range s.fields {
		if msg, ok := errs[f.Name]; ok && msg != "" {
			out = append(out, FieldError{Field: f.Name, Message: msg})
		}
	}
	return out
}

func validateSpec(spec FieldSpec, value model.Value) string {
	if !spec.Required && value.IsEmpty() {
		return ""
	}
	msg, _ := validation.Evaluate(value, spec.Rules)
	return msg
}
