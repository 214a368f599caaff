package completion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall(t *testing.T) {
	t.Parallel()

	upstream := errors.New("503 from upstream")

	tests := []struct {
		name    string
		svc     ServiceFunc
		timeout time.Duration
		want    string
		wantErr error
	}{
		{
			name: "success",
			svc: func(ctx context.Context, prompt string) (string, error) {
				return "answer to " + prompt, nil
			},
			want: "answer to q",
		},
		{
			name: "upstream error",
			svc: func(ctx context.Context, prompt string) (string, error) {
				return "", upstream
			},
			wantErr: ErrCompletionService,
		},
		{
			name: "empty output",
			svc: func(ctx context.Context, prompt string) (string, error) {
				return "  \n\t", nil
			},
			wantErr: ErrEmptyResponse,
		},
		{
			name: "already classified",
			svc: func(ctx context.Context, prompt string) (string, error) {
				return "", ErrContentBlocked
			},
			wantErr: ErrContentBlocked,
		},
		{
			name:    "deadline",
			timeout: 10 * time.Millisecond,
			svc: func(ctx context.Context, prompt string) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
			wantErr: ErrTimeout,
		},
		{
			name:    "late success is still a timeout",
			timeout: 10 * time.Millisecond,
			svc: func(ctx context.Context, prompt string) (string, error) {
				<-ctx.Done()
				return "too late", nil
			},
			wantErr: ErrTimeout,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Call(context.Background(), tc.svc, "q", tc.timeout)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.wantErr)
				assert.ErrorIs(t, err, ErrCompletionService)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCallInvokesServiceOnce(t *testing.T) {
	t.Parallel()

	calls := 0
	svc := ServiceFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", errors.New("boom")
	})

	_, err := Call(context.Background(), svc, "q", time.Second)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
