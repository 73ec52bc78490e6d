package cli

import (
	"fmt"

	"github.com/santiagomed/blendgen/core"
	"github.com/santiagomed/blendgen/logger"
)

// CliStepPublisher forwards pipeline progress to the terminal UI.
// Each run gets its own publisher so late readers never see another run's steps.
type CliStepPublisher struct {
	stepChan  chan core.StepType
	errorChan chan error
	logger    logger.Logger
}

func NewCliStepPublisher(logger logger.Logger) *CliStepPublisher {
	return &CliStepPublisher{
		stepChan:  make(chan core.StepType, 10),
		errorChan: make(chan error, 1),
		logger:    logger,
	}
}

func (p *CliStepPublisher) PublishStep(step core.StepType) {
	select {
	case p.stepChan <- step:
		p.logger.Debug(fmt.Sprintf("Successfully published step: %v", step))
	default:
		p.logger.Warn(fmt.Sprintf("Failed to publish step: %v. Channel full.", step))
	}
}

func (p *CliStepPublisher) Error(step core.StepType, err error) {
	select {
	case p.errorChan <- err:
		p.logger.Debug(fmt.Sprintf("Successfully published error for step: %v", step))
	default:
		p.logger.Warn(fmt.Sprintf("Failed to publish error for step: %v. Channel full.", step))
	}
}
