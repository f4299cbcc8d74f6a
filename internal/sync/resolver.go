// Package sync implements the offline-first synchronization engine that
// reconciles the on-device book collection with the cloud record store.
package sync

import "github.com/shelfmark/shelfmark/internal/domain"

// Winner identifies which side of a conflict is authoritative.
type Winner string

// Conflict outcomes.
const (
	WinnerLocal  Winner = "local"
	WinnerRemote Winner = "remote"
)

// ResolveConflict decides which version of the same logical record wins.
//
// Policy is last-write-wins on UpdatedAt, whole-record: the later version is
// kept in full and the other discarded. Ties resolve in favor of local, so a
// record that round-tripped through the backend unchanged never bounces back.
// Deliberately no field merge and no vector clocks: one user per account and
// low write concurrency make LWW the right trade.
func ResolveConflict(local, remote *domain.Book) Winner {
	if remote.UpdatedAt.After(local.UpdatedAt) {
		return WinnerRemote
	}
	return WinnerLocal
}
