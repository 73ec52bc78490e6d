package core

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// None is substituted into a prompt slot whose parameter is unset.
const None = "None"

// MaxBaseColors is the number of colors the templates allow the model to combine.
const MaxBaseColors = 3

var ErrInvalidParameter = errors.New("invalid parameter")

type MaterialType string

const (
	PrincipledBSDF      MaterialType = "Principled BSDF"
	Diffuse             MaterialType = "Diffuse"
	Emission            MaterialType = "Emission"
	TransparentMaterial MaterialType = "Transparent"
)

var MaterialTypes = []MaterialType{PrincipledBSDF, Diffuse, Emission, TransparentMaterial}

// Level is shared by material roughness and texture scale.
type Level string

const (
	Low    Level = "Low"
	Medium Level = "Medium"
	High   Level = "High"
)

var Levels = []Level{Low, Medium, High}

type Transparency string

const (
	Opaque          Transparency = "Opaque"
	Transparent     Transparency = "Transparent"
	SemiTransparent Transparency = "Semi-Transparent"
)

var Transparencies = []Transparency{Opaque, Transparent, SemiTransparent}

// MetallicValues are the only metallic settings offered to the user.
var MetallicValues = []float64{0, 0.5, 1}

type TextureType string

const (
	Noise   TextureType = "Noise"
	Voronoi TextureType = "Voronoi"
	Image   TextureType = "Image"
	Checker TextureType = "Checker"
)

var TextureTypes = []TextureType{Noise, Voronoi, Image, Checker}

type Mapping string

const (
	UV        Mapping = "UV"
	Object    Mapping = "Object"
	Generated Mapping = "Generated"
	Camera    Mapping = "Camera"
)

var Mappings = []Mapping{UV, Object, Generated, Camera}

type Effect string

const (
	Glow        Effect = "Glow"
	Reflection  Effect = "Reflection"
	Refraction  Effect = "Refraction"
	Translucent Effect = "Translucent"

	Distortion   Effect = "Distortion"
	NoiseEffect  Effect = "Noise"
	TilingEffect Effect = "Tiling"
)

var (
	MaterialEffects = []Effect{Glow, Reflection, Refraction, Translucent}
	TextureEffects  = []Effect{Distortion, NoiseEffect, TilingEffect}
)

// Color is kept as the user typed it: rgb(r, g, b), (x,y,z) or #rrggbb.
type Color string

var (
	rgbColorRe   = regexp.MustCompile(`^rgb\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*\)$`)
	tupleColorRe = regexp.MustCompile(`^\(\s*([0-9.]+)\s*,\s*([0-9.]+)\s*,\s*([0-9.]+)\s*\)$`)
	hexColorRe   = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// Validate reports whether c is in one of the accepted color notations.
func (c Color) Validate() error {
	s := strings.TrimSpace(string(c))
	switch {
	case hexColorRe.MatchString(s):
		return nil
	case rgbColorRe.MatchString(s):
		for _, part := range rgbColorRe.FindStringSubmatch(s)[1:] {
			if n, _ := strconv.Atoi(part); n > 255 {
				return fmt.Errorf("%w: color %q: component %s out of range", ErrInvalidParameter, c, part)
			}
		}
		return nil
	case tupleColorRe.MatchString(s):
		for _, part := range tupleColorRe.FindStringSubmatch(s)[1:] {
			if _, err := strconv.ParseFloat(part, 64); err != nil {
				return fmt.Errorf("%w: color %q: %v", ErrInvalidParameter, c, err)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: malformed color %q", ErrInvalidParameter, c)
}

// RGB formats a color as rgb(r, g, b), the form the color pickers produce.
func RGB(r, g, b uint8) Color {
	return Color(fmt.Sprintf("rgb(%d, %d, %d)", r, g, b))
}

// MaterialParams are the user's material selections. Zero values mean unset.
type MaterialParams struct {
	MaterialType   MaterialType `yaml:"material_type,omitempty" json:"material_type,omitempty"`
	BaseColors     []Color      `yaml:"base_colors,omitempty" json:"base_colors,omitempty"`
	Roughness      Level        `yaml:"roughness,omitempty" json:"roughness,omitempty"`
	Metallic       *float64     `yaml:"metallic,omitempty" json:"metallic,omitempty"`
	Transparency   Transparency `yaml:"transparency,omitempty" json:"transparency,omitempty"`
	EmissionColor  Color        `yaml:"emission_color,omitempty" json:"emission_color,omitempty"`
	SpecialEffects []Effect     `yaml:"special_effects,omitempty" json:"special_effects,omitempty"`
}

// TextureParams are the user's texture selections. Zero values mean unset.
type TextureParams struct {
	TextureType    TextureType `yaml:"texture_type,omitempty" json:"texture_type,omitempty"`
	Mapping        Mapping     `yaml:"mapping,omitempty" json:"mapping,omitempty"`
	Scale          Level       `yaml:"scale,omitempty" json:"scale,omitempty"`
	NormalMap      Color       `yaml:"normal_map,omitempty" json:"normal_map,omitempty"`
	BumpMap        Color       `yaml:"bump_map,omitempty" json:"bump_map,omitempty"`
	SpecialEffects []Effect    `yaml:"special_effects,omitempty" json:"special_effects,omitempty"`
}

// Float returns a pointer to v, for setting Metallic.
func Float(v float64) *float64 {
	return &v
}

// Validate is a caller-side check. The composer itself accepts anything.
func (p MaterialParams) Validate() error {
	var errs []error
	if p.MaterialType != "" && !slices.Contains(MaterialTypes, p.MaterialType) {
		errs = append(errs, enumError("material type", string(p.MaterialType), MaterialTypes))
	}
	if len(p.BaseColors) > MaxBaseColors {
		errs = append(errs, fmt.Errorf("%w: at most %d base colors, got %d", ErrInvalidParameter, MaxBaseColors, len(p.BaseColors)))
	}
	for _, c := range p.BaseColors {
		if err := c.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("base color: %w", err))
		}
	}
	if p.Roughness != "" && !slices.Contains(Levels, p.Roughness) {
		errs = append(errs, enumError("roughness", string(p.Roughness), Levels))
	}
	if p.Metallic != nil && !slices.Contains(MetallicValues, *p.Metallic) {
		errs = append(errs, fmt.Errorf("%w: metallic must be one of 0, 0.5, 1, got %s", ErrInvalidParameter, formatFloat(*p.Metallic)))
	}
	if p.Transparency != "" && !slices.Contains(Transparencies, p.Transparency) {
		errs = append(errs, enumError("transparency", string(p.Transparency), Transparencies))
	}
	if p.EmissionColor != "" {
		if err := p.EmissionColor.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("emission color: %w", err))
		}
	}
	errs = append(errs, validateEffects(p.SpecialEffects, MaterialEffects)...)
	return errors.Join(errs...)
}

func (p TextureParams) Validate() error {
	var errs []error
	if p.TextureType != "" && !slices.Contains(TextureTypes, p.TextureType) {
		errs = append(errs, enumError("texture type", string(p.TextureType), TextureTypes))
	}
	if p.Mapping != "" && !slices.Contains(Mappings, p.Mapping) {
		errs = append(errs, enumError("mapping", string(p.Mapping), Mappings))
	}
	if p.Scale != "" && !slices.Contains(Levels, p.Scale) {
		errs = append(errs, enumError("scale", string(p.Scale), Levels))
	}
	if p.NormalMap != "" {
		if err := p.NormalMap.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("normal map: %w", err))
		}
	}
	if p.BumpMap != "" {
		if err := p.BumpMap.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("bump map: %w", err))
		}
	}
	errs = append(errs, validateEffects(p.SpecialEffects, TextureEffects)...)
	return errors.Join(errs...)
}

func validateEffects(effects, allowed []Effect) []error {
	var errs []error
	for _, e := range effects {
		if !slices.Contains(allowed, e) {
			errs = append(errs, enumError("special effect", string(e), allowed))
		}
	}
	return errs
}

func enumError[T ~string](field, got string, allowed []T) error {
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return fmt.Errorf("%w: %s %q is not one of [%s]", ErrInvalidParameter, field, got, strings.Join(names, ", "))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
