package app

import (
	"time"

	"github.com/google/uuid"
)

type session struct {
	runID     string
	startedAt time.Time
}

// newSession names a run after its start time plus a short random suffix, so
// two runs started in the same second never share a summary file.
func newSession(now time.Time) *session {
	now = now.UTC()
	return &session{
		runID:     now.Format("20060102T150405") + "-" + uuid.NewString()[:8],
		startedAt: now,
	}
}
