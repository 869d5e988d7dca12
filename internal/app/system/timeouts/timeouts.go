// internal/app/system/timeouts/timeouts.go

// Package timeouts centralizes the context deadlines handlers wrap around
// store and provider calls.
//
// Guidelines:
//   - Ping: health checks
//   - Short: single-document reads
//   - Medium: list queries and moderate writes
//   - Long: multi-collection writes
//   - Batch: blob transfers and bulk operations
package timeouts

import "time"

const (
	ping   = 2 * time.Second
	short  = 5 * time.Second
	medium = 10 * time.Second
	long   = 30 * time.Second
	batch  = 60 * time.Second
)

// Ping returns the timeout for connectivity checks.
func Ping() time.Duration { return ping }

// Short returns the timeout for simple single-document operations.
func Short() time.Duration { return short }

// Medium returns the timeout for list queries and moderate writes.
func Medium() time.Duration { return medium }

// Long returns the timeout for multi-collection writes.
func Long() time.Duration { return long }

// Batch returns the timeout for blob transfers and bulk operations.
func Batch() time.Duration { return batch }
