package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/model"
)

var (
	// ErrUnknownRule is returned when a declarative rule kind has no compiled
	// counterpart.
	ErrUnknownRule = errors.New("validation: unknown rule kind")
	// ErrInvalidParams is returned when a declarative rule carries missing or
	// malformed parameters.
	ErrInvalidParams = errors.New("validation: invalid rule params")
)

// Compile turns a declarative rule into an executable Rule.
func Compile(decl model.ValidationRule) (Rule, error) {
	kind := strings.TrimSpace(decl.Kind)
	msg := strings.TrimSpace(decl.Message)

	switch kind {
	case model.ValidationRuleRequired:
		return Required(msg), nil
	case model.ValidationRuleMinLength, model.ValidationRuleMaxLength,
		model.ValidationRuleMinSelected, model.ValidationRuleMaxSelected:
		n, err := intParam(decl, "value")
		if err != nil {
			return Rule{}, err
		}
		switch kind {
		case model.ValidationRuleMinLength:
			return MinLength(n, msg), nil
		case model.ValidationRuleMaxLength:
			return MaxLength(n, msg), nil
		case model.ValidationRuleMinSelected:
			return MinSelected(n, msg), nil
		default:
			return MaxSelected(n, msg), nil
		}
	case model.ValidationRulePattern:
		expr := decl.Params["pattern"]
		if expr == "" {
			return Rule{}, fmt.Errorf("%w: %s requires params.pattern", ErrInvalidParams, kind)
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return Rule{}, fmt.Errorf("%w: pattern %q: %v", ErrInvalidParams, expr, err)
		}
		return Pattern(re, msg), nil
	case model.ValidationRuleMin, model.ValidationRuleMax:
		value, err := floatParam(decl, "value")
		if err != nil {
			return Rule{}, err
		}
		exclusive := isTrue(decl.Params["exclusive"])
		b := Bounds{}
		if kind == model.ValidationRuleMin {
			b.Min, b.ExclusiveMin = &value, exclusive
		} else {
			b.Max, b.ExclusiveMax = &value, exclusive
		}
		r := Range(b, msg)
		r.kind = kind
		return r, nil
	case model.ValidationRuleRange:
		b := Bounds{
			ExclusiveMin: isTrue(decl.Params["exclusiveMin"]),
			ExclusiveMax: isTrue(decl.Params["exclusiveMax"]),
		}
		if _, ok := decl.Params["min"]; ok {
			v, err := floatParam(decl, "min")
			if err != nil {
				return Rule{}, err
			}
			b.Min = &v
		}
		if _, ok := decl.Params["max"]; ok {
			v, err := floatParam(decl, "max")
			if err != nil {
				return Rule{}, err
			}
			b.Max = &v
		}
		if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
			return Rule{}, fmt.Errorf("%w: range min %v exceeds max %v", ErrInvalidParams, *b.Min, *b.Max)
		}
		return Range(b, msg), nil
	case model.ValidationRulePositive:
		return Positive(msg), nil
	case model.ValidationRuleNonNegative:
		return NonNegative(msg), nil
	case model.ValidationRuleOneOf:
		options := splitOptions(decl.Params["values"])
		if len(options) == 0 {
			return Rule{}, fmt.Errorf("%w: %s requires params.values", ErrInvalidParams, kind)
		}
		return OneOf(options, msg), nil
	case model.ValidationRuleDate:
		return Date(msg), nil
	default:
		return Rule{}, fmt.Errorf("%w: %q", ErrUnknownRule, decl.Kind)
	}
}

// CompileAll compiles decls in order, stopping at the first error.
func CompileAll(decls []model.ValidationRule) ([]Rule, error) {
	if len(decls) == 0 {
		return nil, nil
	}
	out := make([]Rule, 0, len(decls))
	for idx, decl := range decls {
		rule, err := Compile(decl)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", idx, err)
		}
		out = append(out, rule)
	}
	return out, nil
}

func intParam(decl model.ValidationRule, key string) (int, error) {
	raw := strings.TrimSpace(decl.Params[key])
	if raw == "" {
		return 0, fmt.Errorf("%w: %s requires params.%s", ErrInvalidParams, decl.Kind, key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s params.%s=%q is not a non-negative integer", ErrInvalidParams, decl.Kind, key, raw)
	}
	return n, nil
}

func floatParam(decl model.ValidationRule, key string) (float64, error) {
	raw := strings.TrimSpace(decl.Params[key])
	if raw == "" {
		return 0, fmt.Errorf("%w: %s requires params.%s", ErrInvalidParams, decl.Kind, key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s params.%s=%q is not a number", ErrInvalidParams, decl.Kind, key, raw)
	}
	return v, nil
}

func splitOptions(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func isTrue(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}
