package definition

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/schema"
)

const productDefinition = `
id: product
fields:
  - name: productName
    required: true
    message: Product name is required
  - name: price
    type: number
    required: true
    rules:
      - kind: positive
        message: Price must be positive
  - name: quantity
    type: number
    initial: 1
    rules:
      - kind: nonNegative
  - name: tags
    type: stringSet
    rules:
      - kind: maxSelected
        params: {value: "2"}
  - name: image
    type: fileList
attachment:
  field: image
  accept: ["image/*", ".png"]
  maxFiles: 1
`

func TestLoadCompilesSchema(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "forms/product.yaml", []byte(productDefinition), 0o644); err != nil {
		t.Fatalf("write definition: %v", err)
	}

	doc, err := Load(fsys, "forms/product.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, err := doc.Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}

	if s.ID() != "product" {
		t.Fatalf("expected id product, got %q", s.ID())
	}
	if diff := cmp.Diff([]string{"productName", "price", "quantity", "tags", "image"}, s.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	quantity, _ := s.Field("quantity")
	if n, _ := quantity.Initial.AsNumber(); n != 1 {
		t.Fatalf("expected quantity initial 1, got %v", quantity.Initial)
	}

	attachment, ok := s.Attachment()
	if !ok {
		t.Fatalf("expected attachment config")
	}
	if diff := cmp.Diff(schema.Attachment{Field: "image", Accept: []string{"image/*", ".png"}, MaxFiles: 1}, attachment); diff != "" {
		t.Fatalf("attachment mismatch (-want +got):\n%s", diff)
	}

	errs := s.ValidateAll(map[string]model.Value{
		"productName": model.String(""),
		"price":       model.Number(-3),
		"quantity":    model.Number(2),
		"tags":        model.StringSet("a", "b", "c"),
		"image":       model.Files(),
	})
	want := []schema.FieldError{
		{Field: "productName", Message: "Product name is required"},
		{Field: "price", Message: "Price must be positive"},
		{Field: "tags", Message: "select at most 2"},
	}
	if diff := cmp.Diff(want, s.Ordered(errs)); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "missing.yaml")
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := Load(afero.NewMemMapFs(), " "); !errors.Is(err, ErrPathRequired) {
		t.Fatalf("expected ErrPathRequired, got %v", err)
	}
}

func TestParseRejectsUnknownKeysAndEmptyDocuments(t *testing.T) {
	if _, err := Parse([]byte("fields:\n  - name: a\n    colour: red\n")); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if _, err := Parse([]byte("")); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if _, err := Parse([]byte("id: x\n")); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestSchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{
			name:  "unknown rule",
			doc:   "fields:\n  - name: a\n    rules:\n      - kind: shout\n",
			field: "a",
		},
		{
			name:  "bad params",
			doc:   "fields:\n  - name: a\n    rules:\n      - kind: minLength\n",
			field: "a",
		},
		{
			name:  "duplicate field",
			doc:   "fields:\n  - name: a\n  - name: a\n",
			field: "a",
		},
		{
			name:  "bad initial",
			doc:   "fields:\n  - name: price\n    type: number\n    initial: cheap\n",
			field: "price",
		},
		{
			name:  "unknown type",
			doc:   "fields:\n  - name: a\n    type: blob\n",
			field: "a",
		},
		{
			name:  "attachment on text field",
			doc:   "fields:\n  - name: a\nattachment:\n  field: a\n",
			field: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.doc))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			_, err = doc.Schema()
			var schemaErr *schema.SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("expected SchemaError, got %v", err)
			}
			if schemaErr.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, schemaErr.Field)
			}
		})
	}
}

func TestParseValues(t *testing.T) {
	doc, err := Parse([]byte(productDefinition))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s, err := doc.Schema()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}

	values, err := ParseValues(s, []byte("productName: Widget\nprice: \"12.5\"\ntags: [a, b]\n"))
	if err != nil {
		t.Fatalf("parse values: %v", err)
	}
	if got, _ := values["productName"].AsString(); got != "Widget" {
		t.Fatalf("unexpected productName %q", got)
	}
	if got, _ := values["price"].AsNumber(); got != 12.5 {
		t.Fatalf("unexpected price %v", got)
	}
	if got, _ := values["tags"].AsStringSet(); !cmp.Equal(got, []string{"a", "b"}) {
		t.Fatalf("unexpected tags %v", got)
	}

	if _, err := ParseValues(s, []byte("colour: red\n")); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if _, err := ParseValues(s, []byte("price: lots\n")); err == nil {
		t.Fatalf("expected coercion error")
	}
}
