// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxMessageLength is the maximum length of a connection message in bytes.
	MaxMessageLength = 16 << 10 // 16 KB

	// MaxFormSize is the maximum size for regular form submissions.
	MaxFormSize = 1 << 20 // 1 MB
)
