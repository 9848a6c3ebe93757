package validation

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/model"
)

type outcome int

const (
	pass outcome = iota
	fail
	mismatch
)

type checkFunc func(model.Value) (outcome, string)

// Rule is a compiled, side-effect free constraint over a single value.
type Rule struct {
	kind    string
	message string
	check   checkFunc
}

// Kind reports the rule identifier (see the model.ValidationRule* constants).
func (r Rule) Kind() string { return r.kind }

// Message returns the configured failure message, if any.
func (r Rule) Message() string { return r.message }

// Check returns "" when v satisfies the rule, otherwise the failure message.
// Custom messages replace the default text for constraint failures; kind
// mismatches always keep their descriptive default.
func (r Rule) Check(v model.Value) (msg string) {
	if r.check == nil {
		return ""
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			msg = r.fallback(fmt.Sprintf("invalid value: %v", recovered))
		}
	}()

	result, detail := r.check(v)
	switch result {
	case pass:
		return ""
	case mismatch:
		return detail
	default:
		return r.fallback(detail)
	}
}

func (r Rule) fallback(detail string) string {
	if r.message != "" {
		return r.message
	}
	if detail == "" {
		return "invalid value"
	}
	return detail
}

// Required fails on null, blank text, empty selections, empty file lists and
// impossible dates.
func Required(message string) Rule {
	return Rule{
		kind:    model.ValidationRuleRequired,
		message: message,
		check: func(v model.Value) (outcome, string) {
			if v.IsEmpty() {
				return fail, "required"
			}
			if d, ok := v.AsDate(); ok && !d.Valid() {
				return fail, "required"
			}
			return pass, ""
		},
	}
}

// MinLength fails when text is shorter than n runes.
func MinLength(n int, message string) Rule {
	return Rule{
		kind:    model.ValidationRuleMinLength,
		message: message,
		check: func(v model.Value) (outcome, string) {
			text, res, detail := textOf(v)
			if res != pass {
				return res, detail
			}
			if len([]rune(text)) < n {
				return fail, fmt.Sprintf("must be at least %d characters", n)
			}
			return pass, ""
		},
	}
}

// MaxLength fails when text is longer than n runes.
func MaxLength(n int, message string) Rule {
	return Rule{
		kind:    model.ValidationRuleMaxLength,
		message: message,
		check: func(v model.Value) (outcome, string) {
			text, res, detail := textOf(v)
			if res != pass {
				return res, detail
			}
			if len([]rune(text)) > n {
				return fail, fmt.Sprintf("must be at most %d characters", n)
			}
			return pass, ""
		},
	}
}

// Pattern fails when text does not match re.
func Pattern(re *regexp.Regexp, message string) Rule {
	return Rule{
		kind:    model.ValidationRulePattern,
		message: message,
		check: func(v model.Value) (outcome, string) {
			text, res, detail := textOf(v)
			if res != pass {
				return res, detail
			}
			if re == nil || !re.MatchString(text) {
				return fail, "does not match required pattern"
			}
			return pass, ""
		},
	}
}

// Bounds describes an optional numeric interval. Nil bounds are open.
type Bounds struct {
	Min          *float64
	Max          *float64
	ExclusiveMin bool
	ExclusiveMax bool
}

// Range fails when the value is absent, non-numeric, or outside b. Numeric
// text is accepted and parsed.
func Range(b Bounds, message string) Rule {
	return Rule{
		kind:    model.ValidationRuleRange,
		message: message,
		check:   rangeCheck(b),
	}
}

// Min is Range with an inclusive lower bound only.
func Min(value float64, message string) Rule {
	r := Range(Bounds{Min: &value}, message)
	r.kind = model.ValidationRuleMin
	return r
}

// Max is Range with an inclusive upper bound only.
func Max(value float64, message string) Rule {
	r := Range(Bounds{Max: &value}, message)
	r.kind = model.ValidationRuleMax
	return r
}

// Positive requires a number strictly greater than zero.
func Positive(message string) Rule {
	zero := 0.0
	check := rangeCheck(Bounds{Min: &zero, ExclusiveMin: true})
	return Rule{
		kind:    model.ValidationRulePositive,
		message: message,
		check: func(v model.Value) (outcome, string) {
			res, detail := check(v)
			if res == fail {
				return fail, "must be positive"
			}
			return res, detail
		},
	}
}

// NonNegative requires a number greater than or equal to zero.
func NonNegative(message string) Rule {
	zero := 0.0
	check := rangeCheck(Bounds{Min: &zero})
	return Rule{
		kind:    model.ValidationRuleNonNegative,
		message: message,
		check: func(v model.Value) (outcome, string) {
			res, detail := check(v)
			if res == fail {
				return fail, "must be non-negative"
			}
			return res, detail
		},
	}
}

func rangeCheck(b Bounds) checkFunc {
	return func(v model.Value) (outcome, string) {
		n, ok := numberOf(v)
		if !ok {
			switch v.Kind() {
			case model.KindNull:
				return mismatch, "must be a number"
			case model.KindNumber:
				return mismatch, "must be a finite number"
			}
			return mismatch, fmt.Sprintf("must be a number, got %s", v.Kind())
		}
		if b.Min != nil {
			if b.ExclusiveMin && n <= *b.Min {
				return fail, "must be greater than " + formatFloat(*b.Min)
			}
			if !b.ExclusiveMin && n < *b.Min {
				return fail, "must be at least " + formatFloat(*b.Min)
			}
		}
		if b.Max != nil {
			if b.ExclusiveMax && n >= *b.Max {
				return fail, "must be less than " + formatFloat(*b.Max)
			}
			if !b.ExclusiveMax && n > *b.Max {
				return fail, "must be at most " + formatFloat(*b.Max)
			}
		}
		return pass, ""
	}
}

// OneOf restricts text to the given options. String-set values must only
// contain listed options.
func OneOf(options []string, message string) Rule {
	allowed := make(map[string]struct{}, len(options))
	for _, option := range options {
		allowed[option] = struct{}{}
	}
	listing := append([]string(nil), options...)
	sort.Strings(listing)
	detail := "must be one of: " + strings.Join(listing, ", ")

	return Rule{
		kind:    model.ValidationRuleOneOf,
		message: message,
		check: func(v model.Value) (outcome, string) {
			switch v.Kind() {
			case model.KindString:
				s, _ := v.AsString()
				if _, ok := allowed[s]; !ok {
					return fail, detail
				}
				return pass, ""
			case model.KindStringSet:
				items, _ := v.AsStringSet()
				for _, item := range items {
					if _, ok := allowed[item]; !ok {
						return fail, detail
					}
				}
				return pass, ""
			default:
				return mismatch, fmt.Sprintf("must be a selection, got %s", v.Kind())
			}
		},
	}
}

// MinSelected requires at least n selected options or attached files.
func MinSelected(n int, message string) Rule {
	return Rule{
		kind:    model.ValidationRuleMinSelected,
		message: message,
		check: func(v model.Value) (outcome, string) {
			count, res, detail := countOf(v)
			if res != pass {
				return res, detail
			}
			if count < n {
				return fail, fmt.Sprintf("select at least %d", n)
			}
			return pass, ""
		},
	}
}

// MaxSelected allows at most n selected options or attached files.
func MaxSelected(n int, message string) Rule {
	return Rule{
		kind:    model.ValidationRuleMaxSelected,
		message: message,
		check: func(v model.Value) (outcome, string) {
			count, res, detail := countOf(v)
			if res != pass {
				return res, detail
			}
			if count > n {
				return fail, fmt.Sprintf("select at most %d", n)
			}
			return pass, ""
		},
	}
}

// Date fails when the value is absent or not a real calendar date. Text in
// YYYY-MM-DD form is accepted.
func Date(message string) Rule {
	return Rule{
		kind:    model.ValidationRuleDate,
		message: message,
		check: func(v model.Value) (outcome, string) {
			switch v.Kind() {
			case model.KindNull:
				return fail, "must be a valid date"
			case model.KindDate:
				d, _ := v.AsDate()
				if !d.Valid() {
					return fail, "must be a valid date"
				}
				return pass, ""
			case model.KindString:
				s, _ := v.AsString()
				if _, err := model.ParseDate(strings.TrimSpace(s)); err != nil {
					return fail, "must be a valid date"
				}
				return pass, ""
			default:
				return mismatch, fmt.Sprintf("must be a date, got %s", v.Kind())
			}
		},
	}
}

// Custom wraps a predicate returning "" for valid values and a message
// otherwise. Panics inside fn are reported as failures.
func Custom(kind string, fn func(model.Value) string) Rule {
	if kind == "" {
		kind = "custom"
	}
	return Rule{
		kind: kind,
		check: func(v model.Value) (outcome, string) {
			if fn == nil {
				return pass, ""
			}
			if msg := fn(v); msg != "" {
				return fail, msg
			}
			return pass, ""
		},
	}
}

func textOf(v model.Value) (string, outcome, string) {
	switch v.Kind() {
	case model.KindNull:
		return "", pass, ""
	case model.KindString:
		s, _ := v.AsString()
		return s, pass, ""
	default:
		return "", mismatch, fmt.Sprintf("must be text, got %s", v.Kind())
	}
}

func numberOf(v model.Value) (float64, bool) {
	switch v.Kind() {
	case model.KindNumber:
		n, _ := v.AsNumber()
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case model.KindString:
		s, _ := v.AsString()
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func countOf(v model.Value) (int, outcome, string) {
	switch v.Kind() {
	case model.KindNull:
		return 0, pass, ""
	case model.KindStringSet, model.KindFileList:
		return v.Len(), pass, ""
	default:
		return 0, mismatch, fmt.Sprintf("must be a selection, got %s", v.Kind())
	}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
