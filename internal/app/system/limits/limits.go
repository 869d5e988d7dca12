// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBody is the maximum size for JSON request bodies.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxUploadBody is the maximum size for document upload submissions,
	// file content and multipart framing included.
	MaxUploadBody = 100 << 20 // 100 MB
)
