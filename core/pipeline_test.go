package core

import (
	"context"
	"errors"
	"testing"

	"github.com/santiagomed/blendgen/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLLM is a mock implementation of the LLM client
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) GetCompletion(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type Publisher struct {
	steps  []StepType
	errors []error
}

func (p *Publisher) PublishStep(step StepType) {
	p.steps = append(p.steps, step)
}

func (p *Publisher) Error(step StepType, err error) {
	p.errors = append(p.errors, err)
}

func newTestPipeline(client *MockLLM, pub StepPublisher) *Pipeline {
	return NewPipeline(NewDefaultStepManager(client, nil), pub, logger.NewNullLogger())
}

func TestPipeline_ExecuteMaterial(t *testing.T) {
	mockLLM := new(MockLLM)
	params := MaterialParams{Roughness: High}
	want := ComposeMaterialPrompt("brushed steel", params)
	mockLLM.On("GetCompletion", mock.Anything, want).Return("import bpy", nil).Once()

	pub := &Publisher{}
	res, err := newTestPipeline(mockLLM, pub).Execute(context.Background(), NewMaterialRequest("brushed steel", params))
	require.NoError(t, err)

	assert.Equal(t, KindMaterial, res.Kind)
	assert.Equal(t, want, res.Prompt)
	assert.Equal(t, "import bpy", res.Code())
	assert.Nil(t, res.Recommendation)
	assert.Equal(t, []StepType{ComposePrompt, CallModel, Done}, pub.steps)
	assert.Empty(t, pub.errors)
	mockLLM.AssertExpectations(t)
}

func TestPipeline_ExecuteRecommendation(t *testing.T) {
	mockLLM := new(MockLLM)
	mockLLM.On("GetCompletion", mock.Anything, ComposeRecommendationPrompt("gold")).
		Return("Roughness: Low\nMetallic: 1\nSpecial Effects: Reflection", nil).Once()

	pub := &Publisher{}
	res, err := newTestPipeline(mockLLM, pub).Execute(context.Background(), NewRecommendationRequest("gold"))
	require.NoError(t, err)

	require.NotNil(t, res.Recommendation)
	assert.Equal(t, 1.0, *res.Recommendation.Metallic)
	assert.Equal(t, []string{"Reflection"}, res.Recommendation.SpecialEffects)
	assert.Empty(t, res.Code())
	assert.Equal(t, []StepType{ComposePrompt, CallModel, ParseResponse, Done}, pub.steps)
}

func TestPipeline_ModelErrorIsTerminal(t *testing.T) {
	mockLLM := new(MockLLM)
	cause := errors.New("connection refused")
	mockLLM.On("GetCompletion", mock.Anything, mock.AnythingOfType("string")).Return("", cause).Once()

	pub := &Publisher{}
	res, err := newTestPipeline(mockLLM, pub).Execute(context.Background(), NewModificationRequest("code", "bluer"))
	assert.Nil(t, res)

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, OpModification, opErr.Op)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "error with the model while modifying code: connection refused", err.Error())

	assert.Equal(t, []StepType{ComposePrompt}, pub.steps)
	require.Len(t, pub.errors, 1)
	mockLLM.AssertNumberOfCalls(t, "GetCompletion", 1)
}

func TestPipeline_ParseErrorIsSurfaced(t *testing.T) {
	mockLLM := new(MockLLM)
	mockLLM.On("GetCompletion", mock.Anything, mock.Anything).Return("Metallic: very", nil)

	pub := &Publisher{}
	_, err := newTestPipeline(mockLLM, pub).Execute(context.Background(), NewRecommendationRequest("chrome"))

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, []StepType{ComposePrompt, CallModel}, pub.steps)
}

func TestPipeline_Cancelled(t *testing.T) {
	mockLLM := new(MockLLM)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(mockLLM, nil).Execute(ctx, NewRecommendationRequest("x"))
	assert.ErrorIs(t, err, context.Canceled)
	mockLLM.AssertNotCalled(t, "GetCompletion", mock.Anything, mock.Anything)
}

func TestOperationFor(t *testing.T) {
	assert.Equal(t, OpMaterialGeneration, OperationFor(KindMaterial))
	assert.Equal(t, OpTextureGeneration, OperationFor(KindTexture))
	assert.Equal(t, OpRecommendation, OperationFor(KindRecommendation))
	assert.Equal(t, OpModification, OperationFor(KindModification))
}
