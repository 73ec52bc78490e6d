package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/santiagomed/blendgen/core"
	"github.com/santiagomed/blendgen/logger"
	"github.com/spf13/cobra"
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

func startEngine(t *testing.T, client *MockLLM) *Engine {
	t.Helper()
	e := NewEngine(client, nil, logger.NewNullLogger(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)
	t.Cleanup(func() {
		cancel()
		e.Shutdown(time.Second)
	})
	return e
}

func TestEngine_Run(t *testing.T) {
	mockLLM := new(MockLLM)
	mockLLM.On("GetCompletion", mock.Anything, core.ComposeRecommendationPrompt("mossy stone")).
		Return("Roughness: High\nBase Color: rgb(60, 80, 40)", nil).Once()
	e := startEngine(t, mockLLM)

	pub := NewCliStepPublisher(logger.NewNullLogger())
	res, err := e.Run(context.Background(), core.NewRecommendationRequest("mossy stone"), pub)
	require.NoError(t, err)

	v, ok := res.Recommendation.Get(core.LabelRoughness)
	assert.True(t, ok)
	assert.Equal(t, "High", v)
	assert.Len(t, pub.stepChan, 4)
	mockLLM.AssertExpectations(t)
}

func TestEngine_ModelError(t *testing.T) {
	mockLLM := new(MockLLM)
	mockLLM.On("GetCompletion", mock.Anything, mock.Anything).Return("", errors.New("model not found")).Once()
	e := startEngine(t, mockLLM)

	pub := NewCliStepPublisher(logger.NewNullLogger())
	_, err := e.Run(context.Background(), core.NewModificationRequest("import bpy", "add a bevel"), pub)
	require.Error(t, err)
	assert.Equal(t, "error with the model while modifying code: model not found", err.Error())
	assert.Len(t, pub.errorChan, 1)
}

func TestEngine_StepsPerKind(t *testing.T) {
	e := NewEngine(new(MockLLM), nil, nil, 0)
	assert.Equal(t, 1, e.workers)
	assert.Equal(t, []core.StepType{core.ComposePrompt, core.CallModel, core.Done}, e.Steps(core.KindTexture))
	assert.Contains(t, e.Steps(core.KindRecommendation), core.ParseResponse)
}

func TestRunModel_Update(t *testing.T) {
	e := NewEngine(new(MockLLM), nil, nil, 1)
	m := newRunModel(context.Background(), e, core.NewMaterialRequest("velvet", core.MaterialParams{}), logger.NewNullLogger())
	defer m.cancel()

	next, cmd := m.Update(core.ComposePrompt)
	m = next.(runModel)
	assert.NotNil(t, cmd)
	assert.Equal(t, []core.StepType{core.ComposePrompt}, m.completedSteps)
	assert.Contains(t, m.View(), "Composed prompt.")
	assert.Contains(t, m.View(), "Generating material code.")

	res := &core.Result{Kind: core.KindMaterial, Response: "import bpy"}
	next, cmd = m.Update(resultMsg{Result: res})
	m = next.(runModel)
	assert.NotNil(t, cmd)
	assert.Equal(t, Finished, m.state)
	assert.Equal(t, res, m.result)

	next, _ = m.Update(resultMsg{Err: errors.New("boom")})
	assert.Equal(t, Failed, next.(runModel).state)
}

func TestStepLabels(t *testing.T) {
	present, past := stepLabels(core.KindRecommendation, core.CallModel)
	assert.Equal(t, "Getting recommendations.", present)
	assert.Equal(t, "Model responded.", past)

	present, _ = stepLabels(core.KindTexture, core.CallModel)
	assert.Equal(t, "Generating texture code.", present)
}

func TestApplyMaterialFlags(t *testing.T) {
	cmd := &cobra.Command{}
	addMaterialFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{
		"--type", "Principled BSDF",
		"--color", "rgb(255, 0, 0)",
		"--color", "#00ff00",
		"--metallic", "0.5",
		"--effect", "Glow,Reflection",
	}))

	p := core.MaterialParams{Roughness: core.High}
	require.NoError(t, applyMaterialFlags(cmd, &p))
	assert.Equal(t, core.PrincipledBSDF, p.MaterialType)
	assert.Equal(t, []core.Color{"rgb(255, 0, 0)", "#00ff00"}, p.BaseColors)
	assert.Equal(t, core.High, p.Roughness, "unset flags keep the preset value")
	assert.Equal(t, 0.5, *p.Metallic)
	assert.Equal(t, []core.Effect{core.Glow, core.Reflection}, p.SpecialEffects)

	bad := &cobra.Command{}
	addMaterialFlags(bad)
	require.NoError(t, bad.ParseFlags([]string{"--metallic", "shiny"}))
	assert.ErrorIs(t, applyMaterialFlags(bad, &core.MaterialParams{}), core.ErrInvalidParameter)
}

func TestApplyTextureFlags(t *testing.T) {
	cmd := &cobra.Command{}
	addTextureFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--type", "Voronoi", "--mapping", "UV", "--bump-map", "(0.5,0.5,1)"}))

	var p core.TextureParams
	require.NoError(t, applyTextureFlags(cmd, &p))
	assert.Equal(t, core.TextureParams{TextureType: core.Voronoi, Mapping: core.UV, BumpMap: "(0.5,0.5,1)"}, p)
}

func TestRunPrompt(t *testing.T) {
	cmd := &cobra.Command{}
	addPromptFlags(cmd)
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.ParseFlags([]string{"--prompt", "cracked leather"}))

	require.NoError(t, runPrompt(cmd, []string{"Material"}))
	assert.Equal(t, core.ComposeMaterialPrompt("cracked leather", core.MaterialParams{}), out.String())
	assert.Contains(t, out.String(), "**Roughness:** None")

	assert.ErrorContains(t, runPrompt(cmd, []string{"shader"}), `unknown template "shader"`)
}

func TestMaterialForm(t *testing.T) {
	p := core.MaterialParams{
		MaterialType:   core.Emission,
		BaseColors:     []core.Color{"rgb(10, 20, 30)", "#ffffff"},
		Metallic:       core.Float(0),
		EmissionColor:  "(1,0.5,0)",
		SpecialEffects: []core.Effect{core.Glow},
	}
	f := newMaterialForm(p)
	assert.Equal(t, "rgb(10, 20, 30)\n#ffffff", f.baseColors)
	assert.Equal(t, "0", f.metallic)
	assert.Equal(t, p, f.params())

	assert.Nil(t, newMaterialForm(core.MaterialParams{}).params().Metallic)
}

func TestValidateColorList(t *testing.T) {
	assert.NoError(t, validateColorList(""))
	assert.NoError(t, validateColorList("rgb(1, 2, 3)\n\n#abcdef"))
	assert.Error(t, validateColorList("#000000\n#111111\n#222222\n#333333"))
	assert.Error(t, validateColorList("blue"))
	assert.NoError(t, validateColor("  "))
	assert.Error(t, required("a description")(" "))
}

func TestRenderRecommendation(t *testing.T) {
	rec, err := core.ParseRecommendations("Roughness: Low\nMetallic: 1\nSpecial Effects: Glow, Reflection")
	require.NoError(t, err)

	out := renderRecommendation(rec)
	assert.Contains(t, out, "Roughness")
	assert.Contains(t, out, "Metallic")
	assert.Contains(t, out, "Glow, Reflection")

	empty, err := core.ParseRecommendations("nothing useful")
	require.NoError(t, err)
	assert.Contains(t, renderRecommendation(empty), "did not return any recognizable recommendations")
}
