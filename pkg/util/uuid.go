package util

import (
	"github.com/google/uuid"
)

// UUIDGenerator is equal to the signature of the UUID library's UUID
// generation functions. It is used to make the volume identifier that
// is written into a superblock injectable as part of unit tests.
type UUIDGenerator func() (uuid.UUID, error)

var (
	_ UUIDGenerator = uuid.NewRandom
	_ UUIDGenerator = uuid.NewUUID
)
