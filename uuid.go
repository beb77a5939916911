package trix

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// UUID is a thin wrapper over github.com/google/uuid.UUID to keep trix decoupled from the external package.
type UUID uuid.UUID

// ParseUUID converts a string to a UUID. It returns an error if the input is not a valid UUID.
func ParseUUID(id string) (UUID, error) {
	u, err := uuid.Parse(id)
	return UUID(u), err
}

// NewUUID returns a new randomly generated UUID. Generation errors are retried
// with a short constant backoff and the call panics only if all attempts fail
// (which should never happen under normal conditions).
func NewUUID() UUID {
	var id uuid.UUID
	b := retry.NewConstant(1 * time.Millisecond)
	err := retry.Do(context.Background(), retry.WithMaxRetries(10, b), func(ctx context.Context) error {
		var err error
		id, err = uuid.NewRandom()
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		// Generating a UUID is a must; there is no useful recovery.
		panic(err)
	}
	return UUID(id)
}

// NilUUID is the zero-value UUID.
var NilUUID UUID

// IsNil reports whether the UUID equals the zero-value UUID.
func (id UUID) IsNil() bool {
	return bytes.Equal(id[:], NilUUID[:])
}

// String returns the canonical string representation of the UUID.
func (id UUID) String() string {
	return uuid.UUID(id).String()
}

// Compare returns -1, 0 or 1 ordering the two UUIDs by their byte representation.
func (id UUID) Compare(other UUID) int {
	return bytes.Compare(id[:], other[:])
}
