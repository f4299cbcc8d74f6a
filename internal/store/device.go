package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// DeviceID returns this installation's stable device identifier, generating
// and persisting one on first call. The identifier survives restarts but not
// a wipe of the data directory, which matches the sync engine's assumption
// that a fresh install looks like a new device.
func (s *Store) DeviceID(ctx context.Context) (string, error) {
	var id string
	err := s.get([]byte(deviceIDKey), &id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return "", fmt.Errorf("get device id: %w", err)
	}

	id = uuid.NewString()
	if err := s.set([]byte(deviceIDKey), id); err != nil {
		return "", fmt.Errorf("persist device id: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("generated device id", "device_id", id)
	}
	return id, nil
}
