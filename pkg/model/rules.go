package model

const (
	ValidationRuleRequired    = "required"
	ValidationRuleMinLength   = "minLength"
	ValidationRuleMaxLength   = "maxLength"
	ValidationRulePattern     = "pattern"
	ValidationRuleMin         = "min"
	ValidationRuleMax         = "max"
	ValidationRulePositive    = "positive"
	ValidationRuleNonNegative = "nonNegative"
	ValidationRuleRange       = "range"
	ValidationRuleOneOf       = "oneOf"
	ValidationRuleMinSelected = "minSelected"
	ValidationRuleMaxSelected = "maxSelected"
	ValidationRuleDate        = "date"
)

// ValidationRule is the declarative form of a single constraint. Bounds use
// Params["value"] (or Params["min"]/Params["max"] for ranges), patterns use
// Params["pattern"], option sets use Params["values"]. Boolean flags such as
// exclusivity are encoded as "true" to keep definitions stable.
type ValidationRule struct {
	Kind    string            `json:"kind" yaml:"kind"`
	Params  map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Message string            `json:"message,omitempty" yaml:"message,omitempty"`
}
