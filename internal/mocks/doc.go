// Package mocks provides hand-written test doubles for the application's
// interfaces. Each mock exposes a function field per method; when a field is
// nil the mock falls back to a Delegate (if set) or a zero-value response.
//
//	tasks := &mocks.MockTaskStore{
//	    Delegate: memory.NewTaskStore(),
//	    MarkCompletedFn: func(ctx context.Context, taskID, userID uuid.UUID, result string, now time.Time) error {
//	        return errors.New("write failed")
//	    },
//	}
package mocks
