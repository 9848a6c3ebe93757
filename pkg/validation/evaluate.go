package validation

import "github.com/goliatone/go-formstate/pkg/model"

// Evaluate runs rules in order and returns the first failure message. The
// boolean is true when every rule passed.
func Evaluate(v model.Value, rules []Rule) (string, bool) {
	for _, rule := range rules {
		if msg := rule.Check(v); msg != "" {
			return msg, false
		}
	}
	return "", true
}

// HasRequired reports whether rules contain a required rule.
func HasRequired(rules []Rule) bool {
	for _, rule := range rules {
		if rule.kind == model.ValidationRuleRequired {
			return true
		}
	}
	return false
}
