// internal/app/system/inputval/inputval.go

// Package inputval validates handler input structs via `validate` tags.
//
// Supported rules:
//   - required:      value must be non-empty after trimming
//   - max=N:         string length must not exceed N
//   - min=N:         string length must be at least N
//   - oneof=a b c:   value must equal one of the listed tokens
//   - email:         value must be a plausible email address
//
// The optional `label` tag names the field in error messages.
package inputval

import (
	"fmt"
	"net/mail"
	"reflect"
	"strconv"
	"strings"
)

// Result collects validation failures for one input struct.
type Result struct {
	errs []string
}

// HasErrors reports whether any rule failed.
func (r Result) HasErrors() bool { return len(r.errs) > 0 }

// First returns the first failure message, or "" when validation passed.
func (r Result) First() string {
	if len(r.errs) == 0 {
		return ""
	}
	return r.errs[0]
}

// All returns every failure message.
func (r Result) All() []string { return r.errs }

// Validate applies the `validate` tag rules of every string field of input.
// Non-struct input yields an empty Result.
func Validate(input any) Result {
	var res Result

	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return res
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		rules := field.Tag.Get("validate")
		if rules == "" || field.Type.Kind() != reflect.String {
			continue
		}

		label := field.Tag.Get("label")
		if label == "" {
			label = field.Name
		}
		value := v.Field(i).String()

		for _, rule := range strings.Split(rules, ",") {
			if msg := apply(rule, label, value); msg != "" {
				res.errs = append(res.errs, msg)
				break // report one failure per field
			}
		}
	}
	return res
}

func apply(rule, label, value string) string {
	switch {
	case rule == "required":
		if strings.TrimSpace(value) == "" {
			return fmt.Sprintf("%s is required.", label)
		}
	case rule == "email":
		if value != "" && !IsValidEmail(value) {
			return fmt.Sprintf("%s must be a valid email address.", label)
		}
	case strings.HasPrefix(rule, "max="):
		if n, err := strconv.Atoi(rule[len("max="):]); err == nil && len(value) > n {
			return fmt.Sprintf("%s must be at most %d characters.", label, n)
		}
	case strings.HasPrefix(rule, "min="):
		if n, err := strconv.Atoi(rule[len("min="):]); err == nil && value != "" && len(value) < n {
			return fmt.Sprintf("%s must be at least %d characters.", label, n)
		}
	case strings.HasPrefix(rule, "oneof="):
		if value == "" {
			return ""
		}
		for _, opt := range strings.Fields(rule[len("oneof="):]) {
			if value == opt {
				return ""
			}
		}
		return fmt.Sprintf("%s is invalid.", label)
	}
	return ""
}

// IsValidEmail reports whether s parses as a bare RFC 5322 address.
// Display-name forms ("Name <a@b>") are rejected.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// mail.ParseAddress accepts display names; require the bare address.
	if addr.Address != s {
		return false
	}
	// Reject dotted edge cases ParseAddress tolerates via quoting.
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" || domain == "" {
		return false
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") ||
		strings.Contains(local, "..") {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") ||
		strings.Contains(domain, "..") {
		return false
	}
	return true
}
