package remote

import "errors"

// Sentinel errors returned by the remote store client. The sync engine treats
// all of them as transport/server failures; it never retries here — retry
// policy belongs to the orchestrator.
var (
	ErrUnauthorized = errors.New("remote: unauthorized")
	ErrNotFound     = errors.New("remote: not found")
	ErrRateLimited  = errors.New("remote: rate limited")
	ErrServer       = errors.New("remote: server error")
	ErrBadRequest   = errors.New("remote: bad request")
)
