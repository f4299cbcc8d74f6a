package domain

import "time"

// SyncStatus describes a record's relationship to its remote copy.
type SyncStatus string

// Sync status values. The zero value means sync has never applied to the
// record (no authenticated session existed when it was written).
const (
	SyncStatusNone          SyncStatus = ""
	SyncStatusSynced        SyncStatus = "synced"
	SyncStatusPending       SyncStatus = "pending"
	SyncStatusError         SyncStatus = "error"
	SyncStatusLocalOnly     SyncStatus = "local_only"
	SyncStatusPendingDelete SyncStatus = "pending_delete"
)

// Syncable provides the common fields for entities that participate in
// synchronization. It gets embedded in any domain type that syncs.
type Syncable struct {
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ID          string     `json:"id"`
	SyncStatus  SyncStatus `json:"sync_status,omitempty"`
	OwnerUserID string     `json:"owner_user_id,omitempty"`
}

// Touch updates the UpdatedAt timestamp to the current time.
// Call this whenever the underlying entity changes.
func (s *Syncable) Touch() {
	s.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new entity.
func (s *Syncable) InitTimestamps() {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
}

// NeedsSync reports whether the record has local changes the remote side
// hasn't confirmed. Records awaiting deletion are excluded: those must
// never be re-uploaded.
func (s *Syncable) NeedsSync() bool {
	switch s.SyncStatus {
	case SyncStatusPending, SyncStatusError, SyncStatusLocalOnly:
		return true
	default:
		return false
	}
}

// MarkPendingDelete flags the record as awaiting remote deletion.
func (s *Syncable) MarkPendingDelete() {
	s.SyncStatus = SyncStatusPendingDelete
	s.UpdatedAt = time.Now()
}
