package mboutil

import (
	"sync"

	"github.com/google/uuid"
)

// RunID identifies one process lifetime; every bench record written by the
// process carries it so separate process runs against the same feed can be
// told apart in the bench log and archive. All sessions of one process
// share the same RunID.
type RunID = uuid.UUID

var (
	runID     RunID
	runIDOnce sync.Once
)

// CurrentRunID returns the process-wide run identifier, generating it on
// first use.
func CurrentRunID() RunID {
	runIDOnce.Do(func() {
		runID = uuid.Must(uuid.NewV7())
	})
	return runID
}
