package registry

import "time"

// Status is the lifecycle state of a process record.
type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next is a forward move.
// Only PROCESSING may move, and only to a terminal state.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusProcessing && next.Terminal()
}

// ProcessRecord is the lifecycle entry for one ingestion-to-completion unit of work.
type ProcessRecord struct {
	ProcessID  string     `db:"process_id"`
	Status     Status     `db:"status"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	FinishedAt *time.Time `db:"finished_at"`
}

// NewProcessRecord returns the initial record written at ingestion time.
func NewProcessRecord(processID string, createdAt time.Time) ProcessRecord {
	return ProcessRecord{
		ProcessID: processID,
		Status:    StatusProcessing,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// MetadataRecord holds the descriptive attributes of one ingestion.
type MetadataRecord struct {
	MetadataID string    `db:"metadata_id"`
	ProcessID  string    `db:"process_id"`
	OwnerEmail string    `db:"owner_email"`
	OwnerName  string    `db:"owner_name"`
	StorageKey string    `db:"storage_key"`
	FrameRate  int       `db:"frame_rate"`
	CreatedAt  time.Time `db:"created_at"`
}
