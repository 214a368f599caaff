package agent

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/completion"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/mocks"
	"github.com/phrazzld/agentdesk/internal/platform/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type recordedLog struct {
	userID, taskID uuid.UUID
	status         domain.LogStatus
	details        string
	duration       time.Duration
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []recordedLog
}

func (f *fakeRecorder) Record(
	ctx context.Context,
	userID, taskID uuid.UUID,
	status domain.LogStatus,
	details string,
	duration time.Duration,
) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, recordedLog{userID, taskID, status, details, duration})
}

type fixture struct {
	tasks    *memory.TaskStore
	recorder *fakeRecorder
	svc      *mocks.MockCompletionService
	task     *domain.Task
}

// newFixture stores a task and moves it to running, as the controller would.
func newFixture(t *testing.T, title, description string) *fixture {
	t.Helper()
	tasks := memory.NewTaskStore()
	task, err := domain.NewTask(uuid.New(), domain.NewTaskParams{Title: title, Description: description})
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), task))
	running, err := tasks.MarkRunning(context.Background(), task.ID, task.UserID, time.Now())
	require.NoError(t, err)
	return &fixture{
		tasks:    tasks,
		recorder: &fakeRecorder{},
		svc:      &mocks.MockCompletionService{},
		task:     running,
	}
}

func (f *fixture) pipeline(t *testing.T, finalizer TaskFinalizer, opts ...Option) *Pipeline {
	t.Helper()
	if finalizer == nil {
		finalizer = f.tasks
	}
	p, err := NewPipeline(f.svc, finalizer, f.recorder, time.Second, slog.Default(), opts...)
	require.NoError(t, err)
	return p
}

func TestPipelineSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "Reset password", "User locked out")
	f.svc.Response = "Send a reset link.\n\n\n\nConfirm identity first.   "

	res, err := f.pipeline(t, nil).Run(context.Background(), Input{Task: f.task, StartedAt: time.Now()})
	require.NoError(t, err)

	assert.Equal(t, Steps, res.StepsCompleted)
	assert.Equal(t, "Send a reset link.\n\nConfirm identity first.", res.Response)
	assert.Contains(t, res.Analysis, "Analyzing task: Reset password")

	assert.Equal(t, 1, f.svc.Calls())
	assert.Equal(t,
		"You are a support agent. Task title: Reset password. Description: User locked out. Provide a concise response.",
		f.svc.Prompts()[0])

	stored, err := f.tasks.Get(context.Background(), f.task.ID, f.task.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
	assert.Equal(t, 100, stored.Progress)
	require.NotNil(t, stored.Result)
	assert.Equal(t, res.Response, *stored.Result)

	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, domain.LogStatusSuccess, f.recorder.entries[0].status)
	assert.Equal(t, res.Response, f.recorder.entries[0].details)
	assert.Equal(t, f.task.ID, f.recorder.entries[0].taskID)
}

func TestPipelineIncludesUserInput(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "T", "D")
	f.svc.Response = "ok"

	_, err := f.pipeline(t, nil).Run(context.Background(), Input{Task: f.task, UserInput: "  customer is VIP "})
	require.NoError(t, err)
	assert.Equal(t,
		"You are a support agent. Task title: T. Description: D. Provide a concise response. Additional input: customer is VIP",
		f.svc.Prompts()[0])
}

func TestPipelineFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		configure func(f *fixture)
		finalizer func(f *fixture) TaskFinalizer
		wantSteps []string
		wantStep  string
		wantErr   error
	}{
		{
			name: "completion error",
			configure: func(f *fixture) {
				f.svc.Err = errors.New("upstream unavailable")
			},
			wantSteps: []string{StepAnalyzeTask},
			wantStep:  StepCallCompletionService,
			wantErr:   completion.ErrCompletionService,
		},
		{
			name: "completion timeout",
			configure: func(f *fixture) {
				f.svc.CompleteFn = func(ctx context.Context, prompt string) (string, error) {
					<-ctx.Done()
					return "", ctx.Err()
				}
			},
			wantSteps: []string{StepAnalyzeTask},
			wantStep:  StepCallCompletionService,
			wantErr:   completion.ErrTimeout,
		},
		{
			name: "blank completion",
			configure: func(f *fixture) {
				f.svc.Response = " \n "
			},
			wantSteps: []string{StepAnalyzeTask},
			wantStep:  StepCallCompletionService,
			wantErr:   completion.ErrEmptyResponse,
		},
		{
			name: "finalize write fails",
			configure: func(f *fixture) {
				f.svc.Response = "fine"
			},
			finalizer: func(f *fixture) TaskFinalizer {
				return &mocks.MockTaskStore{
					Delegate: f.tasks,
					MarkCompletedFn: func(context.Context, uuid.UUID, uuid.UUID, string, time.Time) error {
						return errors.New("disk full")
					},
				}
			},
			wantSteps: []string{StepAnalyzeTask, StepCallCompletionService, StepPostprocessResponse},
			wantStep:  StepFinalize,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, "T", "D")
			tc.configure(f)
			var finalizer TaskFinalizer
			if tc.finalizer != nil {
				finalizer = tc.finalizer(f)
			}
			p, err := NewPipeline(f.svc, orDefaultFinalizer(finalizer, f.tasks), f.recorder,
				20*time.Millisecond, slog.Default())
			require.NoError(t, err)

			res, err := p.Run(context.Background(), Input{Task: f.task})
			require.Error(t, err)

			var stepErr *StepError
			require.ErrorAs(t, err, &stepErr)
			assert.Equal(t, tc.wantStep, stepErr.Step)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			assert.Equal(t, tc.wantSteps, res.StepsCompleted)
			assert.Empty(t, res.Response)

			// The pipeline never writes the error state or an error log.
			assert.Empty(t, f.recorder.entries)
			stored, err := f.tasks.Get(context.Background(), f.task.ID, f.task.UserID)
			require.NoError(t, err)
			assert.Equal(t, domain.TaskStatusRunning, stored.Status)
			assert.LessOrEqual(t, f.svc.Calls(), 1)
		})
	}
}

func orDefaultFinalizer(f TaskFinalizer, fallback TaskFinalizer) TaskFinalizer {
	if f == nil {
		return fallback
	}
	return f
}

func TestPipelineSpans(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	f := newFixture(t, "T", "D")
	f.svc.Response = "ok"
	_, err := f.pipeline(t, nil, WithTracer(provider.Tracer("test"))).
		Run(context.Background(), Input{Task: f.task})
	require.NoError(t, err)

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{
		"agent.analyze_task",
		"agent.call_completion_service",
		"agent.postprocess_response",
		"agent.finalize",
		"agent.run",
	}, names)
}

func TestPipelineMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("test")

	ok := newFixture(t, "T", "D")
	ok.svc.Response = "fine"
	_, err := ok.pipeline(t, nil, WithMeter(meter)).Run(context.Background(), Input{Task: ok.task})
	require.NoError(t, err)

	bad := newFixture(t, "T", "D")
	bad.svc.Err = errors.New("upstream down")
	_, err = bad.pipeline(t, nil, WithMeter(meter)).Run(context.Background(), Input{Task: bad.task})
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	byOutcome := map[string]int64{}
	var sawHistogram bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "agent.runs":
				sum, isSum := m.Data.(metricdata.Sum[int64])
				require.True(t, isSum)
				for _, dp := range sum.DataPoints {
					v, _ := dp.Attributes.Value(attribute.Key("outcome"))
					byOutcome[v.AsString()] += dp.Value
				}
			case "agent.run.duration":
				sawHistogram = true
			}
		}
	}
	assert.Equal(t, map[string]int64{"success": 1, "error": 1}, byOutcome)
	assert.True(t, sawHistogram)
}

func TestNewPipelineValidatesDependencies(t *testing.T) {
	t.Parallel()

	svc := &mocks.MockCompletionService{}
	tasks := memory.NewTaskStore()
	rec := &fakeRecorder{}

	_, err := NewPipeline(nil, tasks, rec, time.Second, slog.Default())
	assert.Error(t, err)
	_, err = NewPipeline(svc, nil, rec, time.Second, slog.Default())
	assert.Error(t, err)
	_, err = NewPipeline(svc, tasks, nil, time.Second, slog.Default())
	assert.Error(t, err)
	_, err = NewPipeline(svc, tasks, rec, time.Second, nil)
	assert.Error(t, err)
}
