// Package constants provides shared constants used across the codebase.
package constants

// Handler constants
const (
	// DefaultHistoryLimit is the number of marks returned when no limit is given
	DefaultHistoryLimit = 500

	// MaxHistoryLimit caps the limit query parameter
	MaxHistoryLimit = 10000

	// ExportFilename is the attachment name of the CSV download
	ExportFilename = "attendance.csv"
)

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for event subscriber channels
	EventChannelBuffer = 100
)

// File upload constants
const (
	// MaxUploadSize is the default maximum enrollment upload size in bytes (10MB)
	MaxUploadSize = 10 << 20
)
