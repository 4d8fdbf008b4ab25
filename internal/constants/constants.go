// Package constants provides shared constants used across the codebase.
package constants

// Recognition constants
const (
	// UnknownLabel is drawn for faces that do not match any enrolled student
	UnknownLabel = "Unknown"

	// LabelBarHeight is the height in pixels of the filled bar under a face box
	LabelBarHeight = 30

	// LabelFontSize is the point size of the label text
	LabelFontSize = 18

	// BoxLineWidth is the stroke width of the face rectangle
	BoxLineWidth = 2
)

// Stream constants
const (
	// StreamBoundary separates JPEG parts in the MJPEG response
	StreamBoundary = "frame"

	// FrameChannelBuffer is the capacity of the loop-to-handler frame channel
	FrameChannelBuffer = 1
)

// Processing constants
const (
	// ImportConcurrency is the default number of parallel enrollments during bulk import
	ImportConcurrency = 4

	// DefaultMaxImageSize is the maximum dimension (width or height) of an enrollment photo
	DefaultMaxImageSize = 1920
)
