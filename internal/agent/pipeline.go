package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/completion"
	"github.com/phrazzld/agentdesk/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Step names, in execution order.
const (
	StepAnalyzeTask           = "analyze_task"
	StepCallCompletionService = "call_completion_service"
	StepPostprocessResponse   = "postprocess_response"
	StepFinalize              = "finalize"
)

// Steps lists the pipeline steps in order.
var Steps = []string{StepAnalyzeTask, StepCallCompletionService, StepPostprocessResponse, StepFinalize}

const tracerName = "github.com/phrazzld/agentdesk/internal/agent"

// TaskFinalizer writes the successful terminal state of a run.
type TaskFinalizer interface {
	MarkCompleted(ctx context.Context, taskID, userID uuid.UUID, result string, now time.Time) error
}

// Recorder appends a run log entry. It must not fail the run.
type Recorder interface {
	Record(
		ctx context.Context,
		userID, taskID uuid.UUID,
		status domain.LogStatus,
		details string,
		duration time.Duration,
	)
}

// Input is one run request.
type Input struct {
	Task *domain.Task

	// UserInput is the optional free text supplied with the run request.
	UserInput string

	// StartedAt is when the run was accepted; log durations are measured from it.
	StartedAt time.Time
}

// Result describes what a run produced. On failure StepsCompleted holds only
// the steps that finished.
type Result struct {
	StepsCompleted []string
	Analysis       string
	Response       string
}

// StepError reports which step failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Pipeline executes runs. It is safe for concurrent use.
type Pipeline struct {
	completion completion.Service
	tasks      TaskFinalizer
	logs       Recorder
	timeout    time.Duration
	logger     *slog.Logger
	tracer     trace.Tracer
	meter      metric.Meter
	runs       metric.Int64Counter
	runTime    metric.Float64Histogram
	now        func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// WithMeter overrides the meter taken from the global provider.
func WithMeter(m metric.Meter) Option {
	return func(p *Pipeline) { p.meter = m }
}

// NewPipeline builds a pipeline. timeout bounds the completion call.
func NewPipeline(
	svc completion.Service,
	tasks TaskFinalizer,
	logs Recorder,
	timeout time.Duration,
	logger *slog.Logger,
	opts ...Option,
) (*Pipeline, error) {
	if svc == nil {
		return nil, errors.New("completion service cannot be nil")
	}
	if tasks == nil {
		return nil, errors.New("task finalizer cannot be nil")
	}
	if logs == nil {
		return nil, errors.New("log recorder cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	p := &Pipeline{
		completion: svc,
		tasks:      tasks,
		logs:       logs,
		timeout:    timeout,
		logger:     logger.With("component", "agent_pipeline"),
		tracer:     otel.Tracer(tracerName),
		meter:      otel.Meter(tracerName),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	var err error
	p.runs, err = p.meter.Int64Counter("agent.runs",
		metric.WithDescription("Pipeline runs by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create run counter: %w", err)
	}
	p.runTime, err = p.meter.Float64Histogram("agent.run.duration",
		metric.WithDescription("Wall time of a pipeline run"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create run duration histogram: %w", err)
	}
	return p, nil
}

type runState struct {
	in       Input
	analysis string
	raw      string
	response string
}

type step struct {
	name string
	fn   func(ctx context.Context, st *runState) error
}

// Run executes every step in order. The success log entry is written by the
// finalize step; on error nothing is logged and the task is left running for
// the caller to resolve.
func (p *Pipeline) Run(ctx context.Context, in Input) (Result, error) {
	if in.Task == nil {
		return Result{StepsCompleted: []string{}}, errors.New("task cannot be nil")
	}
	if in.StartedAt.IsZero() {
		in.StartedAt = p.now()
	}

	ctx, span := p.tracer.Start(ctx, "agent.run", trace.WithAttributes(
		attribute.String("task.id", in.Task.ID.String()),
		attribute.String("user.id", in.Task.UserID.String()),
	))
	defer span.End()

	log := p.logger.With("task_id", in.Task.ID, "user_id", in.Task.UserID)
	st := &runState{in: in}
	res := Result{StepsCompleted: make([]string, 0, len(Steps))}

	steps := []step{
		{StepAnalyzeTask, p.analyze},
		{StepCallCompletionService, p.callCompletion},
		{StepPostprocessResponse, p.postprocess},
		{StepFinalize, p.finalize},
	}

	for _, s := range steps {
		if err := p.runStep(ctx, s, st); err != nil {
			log.WarnContext(ctx, "agent step failed",
				"step", s.name,
				"steps_completed", res.StepsCompleted,
				"error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, s.name+" failed")
			p.observe(ctx, in.StartedAt, "error", s.name)
			res.Analysis = st.analysis
			return res, &StepError{Step: s.name, Err: err}
		}
		res.StepsCompleted = append(res.StepsCompleted, s.name)
	}

	res.Analysis = st.analysis
	res.Response = st.response
	p.observe(ctx, in.StartedAt, "success", "")
	log.InfoContext(ctx, "agent run completed",
		"duration", p.now().Sub(in.StartedAt).String())
	return res, nil
}

func (p *Pipeline) observe(ctx context.Context, started time.Time, outcome, failedStep string) {
	attrs := []attribute.KeyValue{attribute.String("outcome", outcome)}
	if failedStep != "" {
		attrs = append(attrs, attribute.String("failed_step", failedStep))
	}
	set := metric.WithAttributes(attrs...)
	p.runs.Add(ctx, 1, set)
	p.runTime.Record(ctx, p.now().Sub(started).Seconds(), set)
}

func (p *Pipeline) runStep(ctx context.Context, s step, st *runState) error {
	ctx, span := p.tracer.Start(ctx, "agent."+s.name)
	defer span.End()

	if err := s.fn(ctx, st); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (p *Pipeline) analyze(_ context.Context, st *runState) error {
	st.analysis = fmt.Sprintf("Analyzing task: %s (description: %d chars)",
		st.in.Task.Title, len(st.in.Task.Description))
	return nil
}

func (p *Pipeline) callCompletion(ctx context.Context, st *runState) error {
	text, err := RenderPrompt(st.in.Task.Title, st.in.Task.Description, st.in.UserInput)
	if err != nil {
		return err
	}
	out, err := completion.Call(ctx, p.completion, text, p.timeout)
	if err != nil {
		return err
	}
	st.raw = out
	return nil
}

func (p *Pipeline) postprocess(_ context.Context, st *runState) error {
	st.response = Postprocess(st.raw)
	if st.response == "" {
		return completion.ErrEmptyResponse
	}
	return nil
}

func (p *Pipeline) finalize(ctx context.Context, st *runState) error {
	task := st.in.Task
	now := p.now()
	if err := p.tasks.MarkCompleted(ctx, task.ID, task.UserID, st.response, now); err != nil {
		return fmt.Errorf("failed to mark task completed: %w", err)
	}
	p.logs.Record(ctx, task.UserID, task.ID, domain.LogStatusSuccess, st.response, now.Sub(st.in.StartedAt))
	return nil
}
