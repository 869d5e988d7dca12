// internal/app/system/normalize/normalize.go

// Package normalize provides canonical forms for user-entered identity
// fields so that lookups and uniqueness checks behave consistently.
package normalize

import "strings"

// Email lowercases and trims an email address. Empty or all-whitespace
// input normalizes to "".
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Category trims whitespace around a document category value. Category
// values are case-sensitive wire values, so case is preserved.
func Category(s string) string {
	return strings.TrimSpace(s)
}
