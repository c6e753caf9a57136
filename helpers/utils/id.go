// Package utils holds small ambient helpers shared across cmd/ entrypoints,
// adapted from the teacher's helpers/utils package.
package utils

import (
	"crypto/rand"
	"fmt"
)

// batchPrefix tags a request id as coming from one resolve-address batch
// run, distinguishing it at a glance from the teacher's bare per-row
// GenerateUUID/GenerateShortID ids, which tagged individual review-queue
// rows rather than a whole CLI invocation.
const batchPrefix = "batch"

// NewRequestID returns a random identifier for tagging every output record
// of one resolve-address CLI invocation, so a batch of resolved/deduplicated
// addresses piped downstream can be traced back to the run that produced it.
// The byte-slicing/hex-formatting shape is grounded on the teacher's
// helpers/utils/uuid.go GenerateUUID; the batch- prefix and single-id-per-run
// (rather than per-row) use are this system's own.
func NewRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%s-%x", batchPrefix, b)
	}
	return fmt.Sprintf("%s-%x-%x-%x-%x-%x", batchPrefix, b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
