package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColor_Validate(t *testing.T) {
	valid := []Color{"#ff0000", "#A0b1C2", "rgb(0, 0, 0)", "rgb(255,255,255)", "(0.8,0.1,0.1)", "( 1, 0.5, 0 )"}
	for _, c := range valid {
		assert.NoError(t, c.Validate(), c)
	}

	invalid := []Color{"red", "#fff", "rgb(256, 0, 0)", "rgb(1, 2)", "(a,b,c)", ""}
	for _, c := range invalid {
		assert.ErrorIs(t, c.Validate(), ErrInvalidParameter, c)
	}
}

func TestMaterialParams_Validate(t *testing.T) {
	assert.NoError(t, MaterialParams{}.Validate())
	assert.NoError(t, MaterialParams{
		MaterialType:   Diffuse,
		BaseColors:     []Color{RGB(10, 20, 30)},
		Roughness:      Medium,
		Metallic:       Float(1),
		Transparency:   Opaque,
		EmissionColor:  "#ff0000",
		SpecialEffects: []Effect{Translucent},
	}.Validate())

	tests := []struct {
		name   string
		params MaterialParams
		msg    string
	}{
		{"material type", MaterialParams{MaterialType: "Toon"}, "material type"},
		{"metallic", MaterialParams{Metallic: Float(0.7)}, "metallic must be one of 0, 0.5, 1, got 0.7"},
		{"too many colors", MaterialParams{BaseColors: []Color{"#000000", "#000000", "#000000", "#000000"}}, "at most 3 base colors"},
		{"bad color", MaterialParams{BaseColors: []Color{"blue"}}, "base color"},
		{"roughness", MaterialParams{Roughness: "Extreme"}, "roughness"},
		{"transparency", MaterialParams{Transparency: "Clear"}, "transparency"},
		{"emission", MaterialParams{EmissionColor: "orange"}, "emission color"},
		{"texture effect on material", MaterialParams{SpecialEffects: []Effect{TilingEffect}}, "special effect"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			assert.ErrorIs(t, err, ErrInvalidParameter)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestTextureParams_Validate(t *testing.T) {
	assert.NoError(t, TextureParams{
		TextureType:    Image,
		Mapping:        Object,
		Scale:          Low,
		NormalMap:      "#808080",
		BumpMap:        "rgb(211, 211, 211)",
		SpecialEffects: []Effect{NoiseEffect, Distortion},
	}.Validate())

	err := TextureParams{TextureType: "Wave", Mapping: "Sphere", BumpMap: "grey", SpecialEffects: []Effect{Glow}}.Validate()
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.ErrorContains(t, err, "texture type")
	assert.ErrorContains(t, err, "mapping")
	assert.ErrorContains(t, err, "bump map")
	assert.ErrorContains(t, err, "special effect")
}

func TestRequest_Validate(t *testing.T) {
	assert.NoError(t, NewMaterialRequest("gold", MaterialParams{}).Validate())
	assert.ErrorIs(t, NewTextureRequest("", TextureParams{}).Validate(), ErrInvalidParameter)
	assert.ErrorIs(t, NewRecommendationRequest("").Validate(), ErrInvalidParameter)
	assert.ErrorIs(t, NewModificationRequest("", "x").Validate(), ErrNoCode)
	assert.ErrorIs(t, NewModificationRequest("code", "").Validate(), ErrInvalidParameter)
	assert.Error(t, (&Request{Kind: "mesh"}).Validate())
}
