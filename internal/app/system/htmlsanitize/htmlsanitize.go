// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize strips dangerous markup from user-entered rich text
// (issue descriptions, team descriptions) before it is stored.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

// policy allows common formatting elements while removing scripts, event
// handlers, and javascript: URLs.
var policy = bluemonday.UGCPolicy()

// Sanitize returns s with disallowed HTML removed. Plain text passes
// through unchanged.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}
