package cli

import (
	"context"
	"sync"
	"time"

	"github.com/santiagomed/blendgen/core"
	"github.com/santiagomed/blendgen/llm"
	"github.com/santiagomed/blendgen/logger"
)

type ExecutionRequest struct {
	Ctx        context.Context
	Request    *core.Request
	Publisher  core.StepPublisher
	ResultChan chan ExecutionResult
	CreatedAt  time.Time
}

type ExecutionResult struct {
	Result *core.Result
	Err    error
}

// Engine runs requests through the pipeline on a fixed set of workers.
// The interactive session uses one worker so at most one model call is in flight.
type Engine struct {
	stepManager  *core.StepManager
	logger       logger.Logger
	requests     chan ExecutionRequest
	workers      int
	workerWG     sync.WaitGroup
	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

func NewEngine(client llm.LlmClient, parser *core.Parser, l logger.Logger, workers int) *Engine {
	if l == nil {
		l = logger.NewNullLogger()
	}
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		stepManager:  core.NewDefaultStepManager(client, parser),
		logger:       l,
		requests:     make(chan ExecutionRequest, 16),
		workers:      workers,
		shutdownChan: make(chan struct{}),
	}
}

// Steps returns the steps a request of kind goes through.
func (e *Engine) Steps(kind core.Kind) []core.StepType {
	return e.stepManager.GetSteps(kind)
}

func (e *Engine) Start(ctx context.Context) {
	for i := 0; i < e.workers; i++ {
		e.workerWG.Add(1)
		go e.worker(ctx)
	}
}

func (e *Engine) worker(ctx context.Context) {
	defer e.workerWG.Done()
	for {
		select {
		case req := <-e.requests:
			e.logger.Debug("Picked up request after " + time.Since(req.CreatedAt).String())
			runCtx := req.Ctx
			if runCtx == nil {
				runCtx = ctx
			}
			pipeline := core.NewPipeline(e.stepManager, req.Publisher, e.logger)
			res, err := pipeline.Execute(runCtx, req.Request)
			req.ResultChan <- ExecutionResult{Result: res, Err: err}
			close(req.ResultChan)
		case <-ctx.Done():
			return
		case <-e.shutdownChan:
			return
		}
	}
}

// AddRequest queues r. The returned channel yields exactly one result.
func (e *Engine) AddRequest(ctx context.Context, r *core.Request, pub core.StepPublisher) <-chan ExecutionResult {
	resultChan := make(chan ExecutionResult, 1)
	e.requests <- ExecutionRequest{
		Ctx:        ctx,
		Request:    r,
		Publisher:  pub,
		ResultChan: resultChan,
		CreatedAt:  time.Now(),
	}
	return resultChan
}

// Run queues r and waits for its result.
func (e *Engine) Run(ctx context.Context, r *core.Request, pub core.StepPublisher) (*core.Result, error) {
	select {
	case out := <-e.AddRequest(ctx, r, pub):
		return out.Result, out.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *Engine) Shutdown(timeout time.Duration) {
	e.shutdownOnce.Do(func() { close(e.shutdownChan) })

	done := make(chan struct{})
	go func() {
		e.workerWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("All workers shut down gracefully")
	case <-time.After(timeout):
		e.logger.Warn("Shutdown timed out, some workers may still be running")
	}
}
