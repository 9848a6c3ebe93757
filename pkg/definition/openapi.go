package definition

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formstate/pkg/model"
)

var (
	// ErrOperationNotFound is returned when the document has no operation with
	// the requested operationId.
	ErrOperationNotFound = errors.New("definition: openapi operation not found")
	// ErrNoRequestBody is returned when the operation has no object request
	// body to derive fields from.
	ErrNoRequestBody = errors.New("definition: openapi operation has no object request body")
)

// acceptExtensionKey lists accepted MIME patterns/extensions on a binary
// property, as an array or a comma separated string.
const acceptExtensionKey = "x-accept"

var requestMediaTypes = []string{"application/json", "multipart/form-data", "application/x-www-form-urlencoded"}

// FromOpenAPI derives a Document from the request body of operationID.
// Properties become fields in name order; constraints map onto declarative
// rules. The first binary property becomes the attachment field.
func FromOpenAPI(ctx context.Context, raw []byte, operationID string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("definition: openapi document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("definition: load openapi document: %w", err)
	}

	op := findOperation(spec, strings.TrimSpace(operationID))
	if op == nil {
		return nil, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}
	body := requestSchema(op.RequestBody)
	if body == nil || len(body.Properties) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoRequestBody, operationID)
	}

	required := make(map[string]bool, len(body.Required))
	for _, name := range body.Required {
		required[name] = true
	}

	names := make([]string, 0, len(body.Properties))
	for name := range body.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	doc := &Document{ID: operationID}
	for _, name := range names {
		ref := body.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		field, attachment := convertProperty(name, ref.Value, required[name])
		doc.Fields = append(doc.Fields, field)
		if attachment != nil && doc.Attachment == nil {
			doc.Attachment = attachment
		}
	}
	if len(doc.Fields) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoRequestBody, operationID)
	}
	return doc, nil
}

func findOperation(spec *openapi3.T, operationID string) *openapi3.Operation {
	if spec == nil || spec.Paths == nil || operationID == "" {
		return nil
	}
	paths := spec.Paths.Map()
	keys := make([]string, 0, len(paths))
	for path := range paths {
		keys = append(keys, path)
	}
	sort.Strings(keys)
	for _, path := range keys {
		item := paths[path]
		if item == nil {
			continue
		}
		for _, op := range item.Operations() {
			if op != nil && op.OperationID == operationID {
				return op
			}
		}
	}
	return nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range requestMediaTypes {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func convertProperty(name string, src *openapi3.Schema, required bool) (Field, *AttachmentDef) {
	field := Field{
		Name:     name,
		Label:    strings.TrimSpace(src.Title),
		Required: required,
	}

	switch {
	case src.Type.Is(openapi3.TypeArray) && src.Items != nil && src.Items.Value != nil && isBinary(src.Items.Value):
		field.Type = string(model.KindFileList)
		maxFiles := 0
		if src.MaxItems != nil {
			maxFiles = int(*src.MaxItems)
		}
		accept := acceptList(src.Extensions)
		if len(accept) == 0 {
			accept = acceptList(src.Items.Value.Extensions)
		}
		return field, &AttachmentDef{Field: name, Accept: accept, Multiple: true, MaxFiles: maxFiles}
	case isBinary(src):
		field.Type = string(model.KindFileList)
		return field, &AttachmentDef{Field: name, Accept: acceptList(src.Extensions), MaxFiles: 1}
	case src.Type.Is(openapi3.TypeArray):
		field.Type = string(model.KindStringSet)
		if src.MinItems > 0 {
			field.Rules = append(field.Rules, intRule(model.ValidationRuleMinSelected, int(src.MinItems)))
		}
		if src.MaxItems != nil {
			field.Rules = append(field.Rules, intRule(model.ValidationRuleMaxSelected, int(*src.MaxItems)))
		}
		if src.Items != nil && src.Items.Value != nil && len(src.Items.Value.Enum) > 0 {
			field.Rules = append(field.Rules, oneOfRule(src.Items.Value.Enum))
		}
	case src.Type.Is(openapi3.TypeNumber), src.Type.Is(openapi3.TypeInteger):
		field.Type = string(model.KindNumber)
		if src.Min != nil {
			field.Rules = append(field.Rules, boundRule(model.ValidationRuleMin, *src.Min, src.ExclusiveMin))
		}
		if src.Max != nil {
			field.Rules = append(field.Rules, boundRule(model.ValidationRuleMax, *src.Max, src.ExclusiveMax))
		}
	case src.Format == "date" || src.Format == "date-time":
		field.Type = string(model.KindDate)
		field.Rules = append(field.Rules, model.ValidationRule{Kind: model.ValidationRuleDate})
	default:
		field.Type = string(model.KindString)
		if src.MinLength > 0 {
			field.Rules = append(field.Rules, intRule(model.ValidationRuleMinLength, int(src.MinLength)))
		}
		if src.MaxLength != nil {
			field.Rules = append(field.Rules, intRule(model.ValidationRuleMaxLength, int(*src.MaxLength)))
		}
		if src.Pattern != "" {
			field.Rules = append(field.Rules, model.ValidationRule{
				Kind:   model.ValidationRulePattern,
				Params: map[string]string{"pattern": src.Pattern},
			})
		}
		if len(src.Enum) > 0 {
			field.Rules = append(field.Rules, oneOfRule(src.Enum))
		}
	}

	if src.Default != nil && field.Type != string(model.KindDate) {
		field.Initial = src.Default
	}
	return field, nil
}

func isBinary(src *openapi3.Schema) bool {
	return src.Type.Is(openapi3.TypeString) && (src.Format == "binary" || src.Format == "byte")
}

func intRule(kind string, n int) model.ValidationRule {
	return model.ValidationRule{Kind: kind, Params: map[string]string{"value": strconv.Itoa(n)}}
}

func boundRule(kind string, value float64, exclusive bool) model.ValidationRule {
	params := map[string]string{"value": strconv.FormatFloat(value, 'f', -1, 64)}
	if exclusive {
		params["exclusive"] = "true"
	}
	return model.ValidationRule{Kind: kind, Params: params}
}

func oneOfRule(enum []any) model.ValidationRule {
	values := make([]string, 0, len(enum))
	for _, item := range enum {
		values = append(values, fmt.Sprint(item))
	}
	return model.ValidationRule{
		Kind:   model.ValidationRuleOneOf,
		Params: map[string]string{"values": strings.Join(values, ",")},
	}
}

func acceptList(ext map[string]any) []string {
	raw, ok := ext[acceptExtensionKey]
	if !ok {
		return nil
	}
	var out []string
	switch typed := raw.(type) {
	case string:
		out = splitAccept(typed)
	case []any:
		for _, item := range typed {
			if s, ok := item.(string); ok {
				out = append(out, splitAccept(s)...)
			}
		}
	}
	return out
}

func splitAccept(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
