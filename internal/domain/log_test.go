package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLogEntryView(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	t.Run("full entry", func(t *testing.T) {
		taskID := uuid.New()
		e := NewLogEntry(uuid.New(), taskID, LogStatusSuccess, "hello", 1500*time.Millisecond, ts)

		v := e.View("Ada")
		assert.Equal(t, e.ID.String(), v.ID)
		assert.Equal(t, "2026-03-04 05:06:07", v.Timestamp)
		assert.Equal(t, taskID.String(), v.Task)
		assert.Equal(t, LogTypeAIRun, v.Type)
		assert.Equal(t, "success", v.Status)
		assert.Equal(t, "1.5s", v.Duration)
		assert.Equal(t, "hello", v.Details)
		assert.Equal(t, "Ada", v.User)
	})

	t.Run("missing fields fall back", func(t *testing.T) {
		e := &LogEntry{ID: uuid.New(), Timestamp: ts}

		v := e.View("")
		assert.Equal(t, UnknownLogTask, v.Task)
		assert.Equal(t, DefaultLogType, v.Type)
		assert.Equal(t, DefaultLogStatus, v.Status)
		assert.Equal(t, UnknownDuration, v.Duration)
		assert.Equal(t, DefaultLogUser, v.User)
	})

	t.Run("zero timestamp still formats", func(t *testing.T) {
		e := &LogEntry{ID: uuid.New()}
		v := e.View("")
		_, err := time.Parse(LogTimestampLayout, v.Timestamp)
		assert.NoError(t, err)
	})
}
