// Package validation evaluates declarative per-field rules against a request
// payload. Every rule runs, so one response reports all violated fields.
package validation

import (
	"strings"
	"unicode/utf8"

	playground "github.com/go-playground/validator/v10"
)

type Predicate func(value string) bool

type Rule struct {
	Field   string
	Check   Predicate
	Message string
}

// Evaluate runs every rule in declared order and returns the failure messages
// in that order. An empty result means the payload is valid.
func Evaluate(payload map[string]string, rules []Rule) []string {
	var failures []string
	for _, rule := range rules {
		if !rule.Check(payload[rule.Field]) {
			failures = append(failures, rule.Message)
		}
	}
	return failures
}

var emailValidator = playground.New()

// Present fails on missing, empty or whitespace-only values.
func Present(value string) bool {
	return strings.TrimSpace(value) != ""
}

func Email(value string) bool {
	return emailValidator.Var(value, "required,email") == nil
}

// MaxLength counts runes, not bytes. Empty values pass so that the Present
// rule owns the missing-field message.
func MaxLength(n int) Predicate {
	return func(value string) bool {
		return utf8.RuneCountInString(value) <= n
	}
}
