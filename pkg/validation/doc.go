// Package validation evaluates field values against ordered rule lists.
//
// Rules are pure: they never mutate state, block or panic. A value of the
// wrong kind for a rule (text handed to a numeric range, a number handed to a
// length check) is reported as a failure with a descriptive message. Evaluate
// short-circuits on the first failing rule so every field surfaces at most one
// message, in declaration order.
package validation
