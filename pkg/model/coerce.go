package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var errCoerceUnsupported = errors.New("model: unsupported value")

// Coerce converts a loosely typed input (decoded JSON/YAML, prompt text) into
// a Value of the requested kind. Nil and blank text coerce to Null for
// number and date kinds, mirroring empty form inputs.
func Coerce(kind Kind, raw any) (Value, error) {
	if raw == nil {
		return Zero(kind), nil
	}
	if v, ok := raw.(Value); ok {
		return v, nil
	}

	switch kind {
	case KindString:
		switch typed := raw.(type) {
		case string:
			return String(typed), nil
		case fmt.Stringer:
			return String(typed.String()), nil
		case int, int64, float64, bool:
			return String(fmt.Sprint(typed)), nil
		}
	case KindNumber:
		switch typed := raw.(type) {
		case int:
			return Number(float64(typed)), nil
		case int64:
			return Number(float64(typed)), nil
		case float32:
			return Number(float64(typed)), nil
		case float64:
			return Number(typed), nil
		case string:
			trimmed := strings.TrimSpace(typed)
			if trimmed == "" {
				return Null(), nil
			}
			n, err := strconv.ParseFloat(trimmed, 64)
			if err != nil {
				return Value{}, fmt.Errorf("model: %q is not a number", typed)
			}
			return Number(n), nil
		}
	case KindDate:
		switch typed := raw.(type) {
		case time.Time:
			return DateValue(DateOf(typed)), nil
		case Date:
			return DateValue(typed), nil
		case string:
			trimmed := strings.TrimSpace(typed)
			if trimmed == "" {
				return Null(), nil
			}
			d, err := ParseDate(trimmed)
			if err != nil {
				return Value{}, err
			}
			return DateValue(d), nil
		}
	case KindStringSet:
		switch typed := raw.(type) {
		case []string:
			return StringSet(typed...), nil
		case []any:
			items := make([]string, 0, len(typed))
			for _, item := range typed {
				items = append(items, fmt.Sprint(item))
			}
			return StringSet(items...), nil
		case string:
			return StringSet(splitList(typed)...), nil
		}
	case KindFileList:
		switch typed := raw.(type) {
		case []*File:
			return Files(typed...), nil
		case *File:
			return Files(typed), nil
		}
	case KindNull:
		return Null(), nil
	}

	return Value{}, fmt.Errorf("%w: cannot use %T as %s", errCoerceUnsupported, raw, kind)
}

// Zero returns the empty value used as the default initial value for a kind.
func Zero(kind Kind) Value {
	switch kind {
	case KindString:
		return String("")
	case KindStringSet:
		return StringSet()
	case KindFileList:
		return Files()
	default:
		return Null()
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
