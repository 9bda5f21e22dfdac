package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record exists for a handle.
var ErrNotFound = errors.New("job not found")

// JobRecord is one submitted job.
type JobRecord struct {
	// Handle is the provider's job identifier.
	Handle string `json:"handle"`

	// Provider is the service that accepted the job (e.g. "openai", "gamma").
	Provider string `json:"provider"`

	// Kind is the type of work: "research", "presentation" or "image".
	Kind string `json:"kind"`

	// Query is the prompt or input text, possibly truncated by the caller.
	Query string `json:"query"`

	// Model is the provider model, when there is one.
	Model string `json:"model,omitempty"`

	// Status is the last known state (e.g. "submitted", "completed", "timed_out").
	Status string `json:"status"`

	// OutputPath is where the result was written, once it was.
	OutputPath string `json:"output_path,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store persists [JobRecord] values.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Record inserts rec, replacing any record with the same Handle.
	Record(ctx context.Context, rec JobRecord) error

	// UpdateStatus sets the status of an existing record. An empty
	// outputPath leaves the stored path unchanged. Returns [ErrNotFound]
	// for unknown handles.
	UpdateStatus(ctx context.Context, handle, status, outputPath string) error

	// Get returns the record for handle or [ErrNotFound].
	Get(ctx context.Context, handle string) (JobRecord, error)

	// List returns up to limit records, most recently submitted first.
	// A limit of zero or less returns every record.
	List(ctx context.Context, limit int) ([]JobRecord, error)

	Close() error
}
