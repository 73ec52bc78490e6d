package core

import (
	"context"
	"fmt"
	"time"

	"github.com/santiagomed/blendgen/llm"
	"github.com/santiagomed/blendgen/logger"
)

type Step interface {
	Execute(ctx context.Context, state *State) error
}

type StepType int

const (
	ComposePrompt StepType = iota
	CallModel
	ParseResponse
	Done
)

func (s StepType) String() string {
	switch s {
	case ComposePrompt:
		return "ComposePrompt"
	case CallModel:
		return "CallModel"
	case ParseResponse:
		return "ParseResponse"
	case Done:
		return "Done"
	default:
		return fmt.Sprintf("StepType(%d)", int(s))
	}
}

type State struct {
	Request        *Request
	Prompt         string
	Response       string
	Recommendation *Recommendation
	Logger         logger.Logger
}

// StepManager owns the step implementations and decides which run for a kind.
type StepManager struct {
	steps map[StepType]Step
}

func NewDefaultStepManager(client llm.LlmClient, parser *Parser) *StepManager {
	if parser == nil {
		parser = NewParser()
	}
	return &StepManager{
		steps: map[StepType]Step{
			ComposePrompt: &composePromptStep{},
			CallModel:     &callModelStep{client: client},
			ParseResponse: &parseResponseStep{parser: parser},
			Done:          &doneStep{},
		},
	}
}

// GetSteps returns the ordered steps for kind. Only recommendations are parsed.
func (sm *StepManager) GetSteps(kind Kind) []StepType {
	if kind == KindRecommendation {
		return []StepType{ComposePrompt, CallModel, ParseResponse, Done}
	}
	return []StepType{ComposePrompt, CallModel, Done}
}

func (sm *StepManager) GetStep(t StepType) Step {
	return sm.steps[t]
}

type Pipeline struct {
	stepManager *StepManager
	publisher   StepPublisher
	logger      logger.Logger
}

func NewPipeline(sm *StepManager, pub StepPublisher, l logger.Logger) *Pipeline {
	if pub == nil {
		pub = &DefaultStepPublisher{}
	}
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &Pipeline{stepManager: sm, publisher: pub, logger: l}
}

// Execute runs every step for r in order and stops at the first failure.
// Failures are published and returned; nothing is retried.
func (p *Pipeline) Execute(ctx context.Context, r *Request) (*Result, error) {
	state := &State{
		Request: r,
		Logger:  p.logger.WithField("kind", string(r.Kind)),
	}
	steps := p.stepManager.GetSteps(r.Kind)
	state.Logger.Info("Starting pipeline execution")
	for i, stepType := range steps {
		select {
		case <-ctx.Done():
			state.Logger.Info("Pipeline execution cancelled")
			return nil, ctx.Err()
		default:
		}

		step := p.stepManager.GetStep(stepType)
		if step == nil {
			err := fmt.Errorf("step %v not found", stepType)
			state.Logger.Error(err.Error())
			p.publisher.Error(stepType, err)
			return nil, err
		}

		startTime := time.Now()
		if err := step.Execute(ctx, state); err != nil {
			state.Logger.WithField("error", err.Error()).Error(fmt.Sprintf("Error executing step %v", stepType))
			p.publisher.Error(stepType, err)
			return nil, err
		}
		state.Logger.Debug(fmt.Sprintf("Step %v completed in %v", stepType, time.Since(startTime)))
		p.publisher.PublishStep(stepType)

		if i < len(steps)-1 {
			state.Logger.Debug(fmt.Sprintf("Transitioning from step %v to step %v", stepType, steps[i+1]))
		}
	}

	state.Logger.Info("Pipeline execution completed")
	return &Result{
		Kind:           r.Kind,
		Prompt:         state.Prompt,
		Response:       state.Response,
		Recommendation: state.Recommendation,
	}, nil
}

type composePromptStep struct{}

func (s *composePromptStep) Execute(ctx context.Context, state *State) error {
	prompt, err := Compose(state.Request.Kind, state.Request.Inputs())
	if err != nil {
		return err
	}
	state.Prompt = prompt
	return nil
}

type callModelStep struct {
	client llm.LlmClient
}

func (s *callModelStep) Execute(ctx context.Context, state *State) error {
	res, err := s.client.GetCompletion(ctx, state.Prompt)
	if err != nil {
		return &OperationError{Op: OperationFor(state.Request.Kind), Err: err}
	}
	state.Response = res
	return nil
}

type parseResponseStep struct {
	parser *Parser
}

func (s *parseResponseStep) Execute(ctx context.Context, state *State) error {
	rec, err := s.parser.Parse(state.Response)
	if err != nil {
		return err
	}
	state.Recommendation = rec
	return nil
}

type doneStep struct{}

func (s *doneStep) Execute(ctx context.Context, state *State) error { return nil }

type StepPublisher interface {
	PublishStep(step StepType)
	Error(step StepType, err error)
}

type DefaultStepPublisher struct{}

func (p *DefaultStepPublisher) PublishStep(step StepType) {}

func (p *DefaultStepPublisher) Error(step StepType, err error) {}
