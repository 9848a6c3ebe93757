package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/validation"
)

var (
	// ErrEmptyDocument is returned when a definition declares no fields.
	ErrEmptyDocument = errors.New("definition: document declares no fields")
	// ErrPathRequired is returned when Load receives an empty path.
	ErrPathRequired = errors.New("definition: path is required")
)

// Document is the declarative shape of a form.
type Document struct {
	ID         string         `yaml:"id,omitempty" json:"id,omitempty"`
	Fields     []Field        `yaml:"fields" json:"fields"`
	Attachment *AttachmentDef `yaml:"attachment,omitempty" json:"attachment,omitempty"`
}

// Field declares one form field. Type is one of the model kinds; an empty
// type is inferred from Initial (string when absent).
type Field struct {
	Name     string                 `yaml:"name" json:"name"`
	Type     string                 `yaml:"type,omitempty" json:"type,omitempty"`
	Label    string                 `yaml:"label,omitempty" json:"label,omitempty"`
	Required bool                   `yaml:"required,omitempty" json:"required,omitempty"`
	Message  string                 `yaml:"message,omitempty" json:"message,omitempty"`
	Initial  any                    `yaml:"initial,omitempty" json:"initial,omitempty"`
	Rules    []model.ValidationRule `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// AttachmentDef designates the field mirrored by the attachment controller.
type AttachmentDef struct {
	Field    string   `yaml:"field" json:"field"`
	Accept   []string `yaml:"accept,omitempty" json:"accept,omitempty"`
	Multiple bool     `yaml:"multiple,omitempty" json:"multiple,omitempty"`
	MaxFiles int      `yaml:"maxFiles,omitempty" json:"maxFiles,omitempty"`
}

// Parse decodes a YAML (or JSON) definition. Unknown keys are rejected.
func Parse(raw []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("definition: decode: %w", err)
	}
	if len(doc.Fields) == 0 {
		return nil, ErrEmptyDocument
	}
	return &doc, nil
}

// Load reads and parses the definition stored at path on fsys.
func Load(fsys afero.Fs, path string) (*Document, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrPathRequired
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("definition: read %s: %w", path, err)
	}
	doc, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Schema compiles the document. Rule and initial-value problems surface as
// *schema.SchemaError, the same as structural ones.
func (d *Document) Schema(options ...schema.Option) (*schema.Schema, error) {
	if d == nil || len(d.Fields) == 0 {
		return nil, ErrEmptyDocument
	}

	specs := make([]schema.FieldSpec, 0, len(d.Fields))
	for _, field := range d.Fields {
		spec, err := field.spec()
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	opts := make([]schema.Option, 0, len(options)+2)
	if d.ID != "" {
		opts = append(opts, schema.WithID(d.ID))
	}
	if d.Attachment != nil {
		opts = append(opts, schema.WithAttachment(schema.Attachment{
			Field:    d.Attachment.Field,
			Accept:   d.Attachment.Accept,
			Multiple: d.Attachment.Multiple,
			MaxFiles: d.Attachment.MaxFiles,
		}))
	}
	opts = append(opts, options...)
	return schema.New(specs, opts...)
}

func (f Field) spec() (schema.FieldSpec, error) {
	name := strings.TrimSpace(f.Name)
	kind := model.Kind(strings.TrimSpace(f.Type))

	rules, err := validation.CompileAll(f.Rules)
	if err != nil {
		return schema.FieldSpec{}, &schema.SchemaError{Field: name, Reason: "invalid rule", Err: err}
	}

	spec := schema.FieldSpec{
		Name:            name,
		Kind:            kind,
		Label:           strings.TrimSpace(f.Label),
		Rules:           rules,
		Required:        f.Required,
		RequiredMessage: strings.TrimSpace(f.Message),
	}
	if f.Initial != nil {
		if kind == "" {
			return schema.FieldSpec{}, &schema.SchemaError{Field: name, Reason: "initial value requires an explicit type"}
		}
		initial, err := model.Coerce(kind, f.Initial)
		if err != nil {
			return schema.FieldSpec{}, &schema.SchemaError{Field: name, Reason: "invalid initial value", Err: err}
		}
		spec.Initial = initial
	}
	return spec, nil
}

// DecodeValues coerces loosely typed input (a decoded YAML/JSON values
// document) into typed values for the fields of s. Names that s does not
// declare are reported as errors; missing names are left out.
func DecodeValues(s *schema.Schema, raw map[string]any) (map[string]model.Value, error) {
	out := make(map[string]model.Value, len(raw))
	var errs []error
	for name, input := range raw {
		spec, ok := s.Field(name)
		if !ok {
			errs = append(errs, fmt.Errorf("definition: unknown field %q", name))
			continue
		}
		value, err := model.Coerce(spec.Kind, input)
		if err != nil {
			errs = append(errs, fmt.Errorf("definition: field %q: %w", name, err))
			continue
		}
		out[name] = value
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// ParseValues decodes a YAML values document and coerces it against s.
func ParseValues(s *schema.Schema, raw []byte) (map[string]model.Value, error) {
	var decoded map[string]any
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("definition: decode values: %w", err)
	}
	return DecodeValues(s, decoded)
}
