// Package adapter defines the notification boundary of a scan.
//
// Adapters publish scan completion notifications to downstream systems.
// The CLI owns adapter lifecycle; users provide configuration only.
package adapter

import (
	"context"
	"fmt"
	"time"
)

// EventTypeScanCompleted is the event type of every ScanCompletedEvent.
const EventTypeScanCompleted = "scan_completed"

// ScanCompletedEvent is the payload published when a file has been indexed.
type ScanCompletedEvent struct {
	Version   string `json:"version"`
	EventType string `json:"event_type"`
	ScanID    string `json:"scan_id"`
	File      string `json:"file"`
	// Outcome is success, partial, failed or canceled.
	Outcome string `json:"outcome"`
	// Cache is the index cache file, if one was written or read.
	Cache string `json:"cache,omitempty"`
	// Timestamp is RFC 3339.
	Timestamp      string `json:"timestamp"`
	Records        int64  `json:"records"`
	LogPasses      int64  `json:"log_passes"`
	Frames         int64  `json:"frames"`
	RecordsSkipped int64  `json:"records_skipped"`
	FatalErrors    int64  `json:"fatal_errors"`
	Error          string `json:"error,omitempty"`
	DurationMs     int64  `json:"duration_ms"`
}

// Adapter publishes scan completion events to a downstream system.
type Adapter interface {
	// Publish sends a scan completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *ScanCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// Backoff returns the delay before retry i (1-based): 500ms doubled per retry.
func Backoff(i int) time.Duration {
	return time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
}

// Retry calls attempt once plus up to retries more times, sleeping Backoff
// between calls. It stops early when attempt succeeds, when ctx is done or
// when permanent reports the error cannot be retried.
func Retry(ctx context.Context, name string, retries int, attempt func(context.Context) error, permanent func(error) bool) error {
	var lastErr error
	attempts := 1 + retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: context canceled: %w", name, err)
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: context canceled during backoff: %w", name, ctx.Err())
			case <-time.After(Backoff(i)):
			}
		}

		lastErr = attempt(ctx)
		if lastErr == nil {
			return nil
		}
		if permanent != nil && permanent(lastErr) {
			return fmt.Errorf("%s: non-retriable error: %w", name, lastErr)
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", name, attempts, lastErr)
}
