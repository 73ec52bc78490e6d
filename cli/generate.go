package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/list"
	"github.com/santiagomed/blendgen/core"
	"github.com/santiagomed/blendgen/logger"
)

type state int

const (
	Processing state = iota
	Finished
	Failed
	Interrupted
)

type resultMsg ExecutionResult

type stepErrMsg struct{ err error }

// runModel shows the pipeline steps of one request while it executes.
type runModel struct {
	spinner        spinner.Model
	state          state
	request        *core.Request
	steps          []core.StepType
	completedSteps []core.StepType
	resultChan     <-chan ExecutionResult
	cancel         context.CancelFunc
	publisher      *CliStepPublisher
	result         *core.Result
	err            error
	logger         logger.Logger
}

func newRunModel(ctx context.Context, engine *Engine, r *core.Request, l logger.Logger) runModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("202"))

	runCtx, cancel := context.WithCancel(ctx)
	publisher := NewCliStepPublisher(l)
	return runModel{
		spinner:    s,
		state:      Processing,
		request:    r,
		steps:      engine.Steps(r.Kind),
		resultChan: engine.AddRequest(runCtx, r, publisher),
		cancel:     cancel,
		publisher:  publisher,
		logger:     l,
	}
}

// runWithProgress executes r while rendering its steps. Without a terminal
// the request runs silently.
func runWithProgress(ctx context.Context, engine *Engine, r *core.Request, l logger.Logger, interactive bool) (*core.Result, error) {
	if !interactive {
		return engine.Run(ctx, r, nil)
	}

	m := newRunModel(ctx, engine, r, l)
	final, err := tea.NewProgram(m).Run()
	m.cancel()
	if err != nil {
		return nil, fmt.Errorf("error running program: %w", err)
	}
	fm := final.(runModel)
	if fm.state == Interrupted {
		return nil, context.Canceled
	}
	return fm.result, fm.err
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForNextStep, m.waitForResult)
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleQuit(msg)
	case core.StepType:
		return m.handleStep(msg)
	case stepErrMsg:
		m.logger.Error(fmt.Sprintf("Error received during %s: %v", core.OperationFor(m.request.Kind), msg.err))
		return m, nil
	case resultMsg:
		m.result, m.err = msg.Result, msg.Err
		if m.err != nil {
			m.state = Failed
		} else {
			m.state = Finished
		}
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m runModel) View() string {
	switch m.state {
	case Processing:
		return m.stepList() + "\n" + faint.Render("(press esc to cancel)")
	case Finished:
		return m.stepList()
	default:
		return ""
	}
}

func (m runModel) handleStep(step core.StepType) (tea.Model, tea.Cmd) {
	m.logger.Debug(fmt.Sprintf("Received step: %v", step))
	m.completedSteps = append(m.completedSteps, step)
	if step == core.Done {
		return m, nil
	}
	return m, m.listenForNextStep
}

func (m runModel) handleQuit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
		m.logger.Debug("User cancelled the request")
		m.state = Interrupted
		m.cancel()
		return m, tea.Sequence(tea.Printf("%s", faint.Render("Interrupted.")), tea.Quit)
	}
	return m, nil
}

func (m runModel) listenForNextStep() tea.Msg {
	select {
	case step := <-m.publisher.stepChan:
		return step
	case err := <-m.publisher.errorChan:
		return stepErrMsg{err: err}
	}
}

func (m runModel) waitForResult() tea.Msg {
	return resultMsg(<-m.resultChan)
}

func (m runModel) stepList() string {
	enumerator := func(l list.Items, i int) string {
		if i < len(m.completedSteps) {
			return checkStyle.Render("✓")
		}
		if i == len(m.completedSteps) {
			return m.spinner.View()
		}
		return ""
	}

	l := list.New().Enumerator(enumerator)
	for i, step := range m.steps {
		present, past := stepLabels(m.request.Kind, step)
		if i < len(m.completedSteps) {
			l.Item(past)
		} else if i == len(m.completedSteps) {
			l.Item(present)
		}
	}
	return fmt.Sprint(l)
}

func stepLabels(kind core.Kind, step core.StepType) (present, past string) {
	switch step {
	case core.ComposePrompt:
		return "Composing prompt.", "Composed prompt."
	case core.CallModel:
		op := string(core.OperationFor(kind))
		return strings.ToUpper(op[:1]) + op[1:] + ".", "Model responded."
	case core.ParseResponse:
		return "Parsing recommendations.", "Parsed recommendations."
	default:
		return "Done.", "Done."
	}
}
