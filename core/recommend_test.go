package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecommendations_Basic(t *testing.T) {
	rec, err := ParseRecommendations("Roughness: High\nMetallic: 0.5")
	require.NoError(t, err)

	v, ok := rec.Get(LabelRoughness)
	assert.True(t, ok)
	assert.Equal(t, "High", v)
	require.NotNil(t, rec.Metallic)
	assert.Equal(t, 0.5, *rec.Metallic)
	assert.Equal(t, 2, rec.Len())
}

func TestParseRecommendations_SpecialEffects(t *testing.T) {
	rec, err := ParseRecommendations("Special Effects: Glow, Reflection")
	require.NoError(t, err)
	assert.Equal(t, []string{"Glow", "Reflection"}, rec.SpecialEffects)
}

func TestParseRecommendations_MetallicNotNumeric(t *testing.T) {
	rec, err := ParseRecommendations("Roughness: Low\nMetallic: abc")
	assert.Nil(t, rec)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, LabelMetallic, pe.Label)
	assert.Equal(t, "abc", pe.Value)
}

func TestParseRecommendations_MetallicNotFinite(t *testing.T) {
	for _, v := range []string{"NaN", "Inf", "-infinity", "+Inf"} {
		rec, err := ParseRecommendations("Metallic: " + v)
		assert.Nil(t, rec, v)

		var pe *ParseError
		require.ErrorAs(t, err, &pe, v)
		assert.Equal(t, LabelMetallic, pe.Label)
		assert.Equal(t, v, pe.Value)
	}
}

func TestParseRecommendations_SpecialEffectsKeepsEmptyEntries(t *testing.T) {
	rec, err := ParseRecommendations("Special Effects: Glow,,Reflection")
	require.NoError(t, err)
	assert.Equal(t, []string{"Glow", "", "Reflection"}, rec.SpecialEffects)
}

func TestParseRecommendations_ValueKeepsUnderscores(t *testing.T) {
	rec, err := ParseRecommendations("Material Type: __custom__\n**Roughness:** High")
	require.NoError(t, err)

	v, _ := rec.Get(LabelMaterialType)
	assert.Equal(t, "__custom__", v)
	v, _ = rec.Get(LabelRoughness)
	assert.Equal(t, "High", v)
}

func TestParseRecommendations_NoLabels(t *testing.T) {
	rec, err := ParseRecommendations("Sure! Here are my thoughts.\nUse something shiny.")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Len())
	assert.Empty(t, rec.String())
}

func TestParseRecommendations_LastWins(t *testing.T) {
	rec, err := ParseRecommendations("Roughness: Low\nRoughness: High")
	require.NoError(t, err)
	v, _ := rec.Get(LabelRoughness)
	assert.Equal(t, "High", v)
}

func TestParseRecommendations_FullResponse(t *testing.T) {
	text := `Material Type: Principled BSDF
Base Color: rgb(200, 180, 40)
Roughness: Low
Metallic: 1
Transparency: Opaque
Emission Color: #000000
Special Effects: Reflection
Texture Type: Noise
Mapping: UV
Scale: Medium
Normal Map: #808080
Bump Map: #d3d3d3`

	rec, err := ParseRecommendations(text)
	require.NoError(t, err)
	assert.Equal(t, len(Labels), rec.Len())
	assert.Equal(t, text+"\n", rec.String())

	again, err := ParseRecommendations(rec.String())
	require.NoError(t, err)
	assert.Equal(t, rec, again)
}

func TestParseRecommendations_LooseMatching(t *testing.T) {
	// the label may appear anywhere in the line
	rec, err := ParseRecommendations("- Suggested Roughness: Medium\n**Mapping:** Object")
	require.NoError(t, err)

	v, _ := rec.Get(LabelRoughness)
	assert.Equal(t, "Medium", v)
	v, _ = rec.Get(LabelMapping)
	assert.Equal(t, "Object", v)
}

func TestParseRecommendations_PriorityOrder(t *testing.T) {
	// both markers are present; Material Type is checked first
	rec, err := ParseRecommendations("Scale: Low, Material Type: Diffuse")
	require.NoError(t, err)

	v, ok := rec.Get(LabelMaterialType)
	assert.True(t, ok)
	assert.Equal(t, "Diffuse", v)
	_, ok = rec.Get(LabelScale)
	assert.False(t, ok)
}

func TestParser_Anchored(t *testing.T) {
	p := NewParser(WithMatchMode(MatchAnchored))
	rec, err := p.Parse("I'd lower the Roughness: Low for this\n- **Roughness:** High\n1. Scale: Medium\n  * Texture Type: Voronoi")
	require.NoError(t, err)

	v, _ := rec.Get(LabelRoughness)
	assert.Equal(t, "High", v)
	v, _ = rec.Get(LabelScale)
	assert.Equal(t, "Medium", v)
	v, _ = rec.Get(LabelTextureType)
	assert.Equal(t, "Voronoi", v)

	rec, err = p.Parse("Note that Metallic: shiny is not a number")
	require.NoError(t, err)
	assert.Nil(t, rec.Metallic)
}

func TestRecommendation_ApplyToMaterial(t *testing.T) {
	rec, err := ParseRecommendations(`Material Type: Principled BSDF
Base Color: rgb(255, 0, 0), (0.1,0.2,0.3); #00ff00, #0000ff
Roughness: Low
Metallic: 0
Emission Color: #ff0000
Special Effects: Glow, Tiling, Reflection`)
	require.NoError(t, err)

	p := MaterialParams{Transparency: Opaque}
	rec.ApplyToMaterial(&p)

	assert.Equal(t, PrincipledBSDF, p.MaterialType)
	assert.Equal(t, []Color{"rgb(255, 0, 0)", "(0.1,0.2,0.3)", "#00ff00"}, p.BaseColors)
	assert.Equal(t, Low, p.Roughness)
	require.NotNil(t, p.Metallic)
	assert.Equal(t, 0.0, *p.Metallic)
	assert.Equal(t, Opaque, p.Transparency, "unset labels leave the parameter alone")
	assert.Equal(t, Color("#ff0000"), p.EmissionColor)
	assert.Equal(t, []Effect{Glow, Reflection}, p.SpecialEffects)
	assert.NoError(t, p.Validate())
}

func TestRecommendation_ApplyToTexture(t *testing.T) {
	rec, err := ParseRecommendations("Texture Type: Checker\nMapping: Generated\nScale: High\nNormal Map: #808080\nBump Map: #d3d3d3\nSpecial Effects: Glow, Noise")
	require.NoError(t, err)

	var p TextureParams
	rec.ApplyToTexture(&p)
	assert.Equal(t, TextureParams{
		TextureType:    Checker,
		Mapping:        Generated,
		Scale:          High,
		NormalMap:      "#808080",
		BumpMap:        "#d3d3d3",
		SpecialEffects: []Effect{NoiseEffect},
	}, p)
}
