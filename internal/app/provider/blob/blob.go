// internal/app/provider/blob/blob.go

// Package blob defines the object-storage boundary used by the upload
// pipeline: byte transfer with progress reporting, download-locator
// resolution, and removal. Provider failures are mapped to a closed set
// of codes at this boundary.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Code classifies blob-store failures.
type Code string

const (
	// CodeTransfer covers failures while moving bytes.
	CodeTransfer Code = "transfer"
	// CodeNotFound is returned when the object key does not exist.
	CodeNotFound Code = "not-found"
	// CodeUnavailable covers connection and configuration failures.
	CodeUnavailable Code = "unavailable"
)

// Error is the tagged error Store implementations return.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("blob: %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("blob: %s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf extracts the code from err, or CodeUnavailable for foreign errors.
func CodeOf(err error) Code {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeUnavailable
}

// ProgressFunc receives byte counts as a transfer advances. total is the
// declared object size; transferred is cumulative and non-decreasing.
type ProgressFunc func(transferred, total int64)

// Store is the object-storage boundary.
type Store interface {
	// Put streams r to the object at path, invoking progress (when
	// non-nil) as bytes move. size is the total byte count.
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string, progress ProgressFunc) error

	// URL resolves a retrievable download locator for a stored object.
	URL(ctx context.Context, path string) (string, error)

	// Remove deletes the object at path.
	Remove(ctx context.Context, path string) error
}

// progressReader wraps an io.Reader and reports cumulative byte counts.
type progressReader struct {
	r           io.Reader
	total       int64
	transferred int64
	fn          ProgressFunc
}

// NewProgressReader returns a reader that calls fn with running totals as
// it is consumed. fn may be nil.
func NewProgressReader(r io.Reader, total int64, fn ProgressFunc) io.Reader {
	if fn == nil {
		return r
	}
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.transferred += int64(n)
		p.fn(p.transferred, p.total)
	}
	return n, err
}
