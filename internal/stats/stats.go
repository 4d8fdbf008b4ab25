// Package stats keeps process-wide diagnostic counters for conditions that
// are logged and swallowed rather than returned to a caller.
package stats

import "sync/atomic"

// Counters are safe for concurrent use. The zero value is ready.
type Counters struct {
	FramesProcessed    atomic.Int64
	FramesEmitted      atomic.Int64
	FramesDropped      atomic.Int64
	FacesDetected      atomic.Int64
	FacesRecognized    atomic.Int64
	DetectionFailures  atomic.Int64
	DetectionTimeouts  atomic.Int64
	LedgerFailures     atomic.Int64
	MarksCreated       atomic.Int64
	RosterRowsSkipped  atomic.Int64
	RosterReloads      atomic.Int64
	StreamsRejected    atomic.Int64
	EventPublishErrors atomic.Int64

	// ActiveStreams is a gauge of open video feeds.
	ActiveStreams atomic.Int64
}

// Snapshot returns the current values keyed by their JSON name.
func (c *Counters) Snapshot() map[string]int64 {
	return map[string]int64{
		"frames_processed":     c.FramesProcessed.Load(),
		"frames_emitted":       c.FramesEmitted.Load(),
		"frames_dropped":       c.FramesDropped.Load(),
		"faces_detected":       c.FacesDetected.Load(),
		"faces_recognized":     c.FacesRecognized.Load(),
		"detection_failures":   c.DetectionFailures.Load(),
		"detection_timeouts":   c.DetectionTimeouts.Load(),
		"ledger_failures":      c.LedgerFailures.Load(),
		"marks_created":        c.MarksCreated.Load(),
		"roster_rows_skipped":  c.RosterRowsSkipped.Load(),
		"roster_reloads":       c.RosterReloads.Load(),
		"streams_rejected":     c.StreamsRejected.Load(),
		"event_publish_errors": c.EventPublishErrors.Load(),
		"active_streams":       c.ActiveStreams.Load(),
	}
}
