package core

import (
	"fmt"
	"strings"
)

// Kind identifies one of the four prompt templates.
type Kind string

const (
	KindMaterial       Kind = "material"
	KindTexture        Kind = "texture"
	KindRecommendation Kind = "recommendation"
	KindModification   Kind = "modification"
)

var Kinds = []Kind{KindMaterial, KindTexture, KindRecommendation, KindModification}

// ParseKind maps a user-facing template name onto a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown template %q", s)
}

// Inputs is the parameter bag for Compose. Only the fields used by the chosen
// template are read.
type Inputs struct {
	UserPrompt   string
	Material     MaterialParams
	Texture      TextureParams
	ExistingCode string
	Instruction  string
}

// Compose renders the template for kind.
func Compose(kind Kind, in Inputs) (string, error) {
	switch kind {
	case KindMaterial:
		return ComposeMaterialPrompt(in.UserPrompt, in.Material), nil
	case KindTexture:
		return ComposeTexturePrompt(in.UserPrompt, in.Texture), nil
	case KindRecommendation:
		return ComposeRecommendationPrompt(in.UserPrompt), nil
	case KindModification:
		return ComposeModificationPrompt(in.ExistingCode, in.Instruction), nil
	default:
		return "", fmt.Errorf("unknown template %q", kind)
	}
}

const directOutputDirective = `**No Extra Content:** Do not include any additional text, comments, or explanations in your response.  
**Direct Data Only:** Your output should contain only the data that is explicitly requested, with no other text.  
`

// ComposeMaterialPrompt fills the material generation template. Unset
// parameters are written as None; the template tells the model to ignore them.
func ComposeMaterialPrompt(userPrompt string, p MaterialParams) string {
	return fmt.Sprintf(`
Create a Blender Python script for a material based on the following criteria:  
**Material Type:** %s  
**Base Color:** %s  
**Roughness:** %s  
**Metallic:** %s  
**Transparency:** %s  
**Emission Color:** %s  
**Special Effects:** %s  
**Prompt:** %s  

For the following criteria, you can only reply with one option:  
- Material Type  
- Roughness  
- Metallic  
- Transparency  

For colors criteria (Base Color and Emission Color), you can choose up to three RGB colors in the format: (x,y,z).  

You can choose multiple options for:  
- Special Effects

If any of the criteria are set to None, ignore them completely and do not include them in the generated code.

%s`,
		orNone(string(p.MaterialType)),
		joinOrNone(p.BaseColors),
		orNone(string(p.Roughness)),
		metallicOrNone(p.Metallic),
		orNone(string(p.Transparency)),
		orNone(string(p.EmissionColor)),
		joinOrNone(p.SpecialEffects),
		userPrompt,
		directOutputDirective,
	)
}

// ComposeTexturePrompt fills the texture generation template.
func ComposeTexturePrompt(userPrompt string, p TextureParams) string {
	return fmt.Sprintf(`
Create a Blender Python script for a texture based on the following criteria:  
**Texture Type:** %s  
**Mapping:** %s  
**Scale:** %s  
**Normal Map:** %s  
**Bump Map:** %s  
**Special Effects:** %s  
**Prompt:** %s  

Only one option accepted for:  
- Texture Type  
- Mapping  
- Scale  

For colors criteria (Normal Map and Bump Map), you can choose up to three RGB colors in the format: (x,y,z).  

You can choose multiple options for:  
- Special Effects

If any of the criteria are set to None, ignore them completely and do not include them in the generated code.

%s`,
		orNone(string(p.TextureType)),
		orNone(string(p.Mapping)),
		orNone(string(p.Scale)),
		orNone(string(p.NormalMap)),
		orNone(string(p.BumpMap)),
		joinOrNone(p.SpecialEffects),
		userPrompt,
		directOutputDirective,
	)
}

// ComposeRecommendationPrompt asks the model to pick settings for userPrompt
// from the fixed option lists.
func ComposeRecommendationPrompt(userPrompt string) string {
	return fmt.Sprintf(`
Based on the following prompt, give recommendations for the material or texture settings (material type, base color, etc.) to achieve the best results:  

**Prompt:** %s  

**Material Type Options:** ["Principled BSDF", "Diffuse", "Emission", "Transparent"]  
**Base Color Options:** "rgb(0, 0, 0)", "rgb(255, 255, 255)", and more  
**Roughness Options:** ["Low", "Medium", "High"]  
**Metallic Options:** [0, 0.5, 1]  
**Transparency Options:** ["Opaque", "Transparent", "Semi-Transparent"]  
**Emission Color Options:** Any valid RGB hex color code  
**Special Effects Options:** ["Glow", "Reflection", "Refraction", "Translucent"]

**Texture Type Options:** ["Noise", "Voronoi", "Image", "Checker"]  
**Mapping Options:** ["UV", "Object", "Generated", "Camera"]  
**Scale Options:** ["Low", "Medium", "High"]  
**Normal Map Options:** Any valid RGB hex color code  
**Bump Map Options:** Any valid RGB hex color code  
**Special Effects Options:** ["Distortion", "Noise", "Tiling"]  

For the following criteria, you can only reply with one option:  
- Material Type  
- Roughness  
- Metallic  
- Transparency  
- Texture Type  
- Mapping  
- Scale  

For colors criteria (Base Color, Emission Color, Normal Map, and Bump Map), you can choose up to three RGB colors in the format: (x,y,z).  

You can choose multiple options for:  
- Special Effects

%s`, userPrompt, directOutputDirective)
}

// ComposeModificationPrompt embeds the existing code and the instruction verbatim.
func ComposeModificationPrompt(existingCode, instruction string) string {
	return fmt.Sprintf(`
Modify the following Blender Python script for material or texture generation based on these criteria:  

**Existing Code:** %s  
**Modification Request:** %s  

%s`, existingCode, instruction, directOutputDirective)
}

func orNone(s string) string {
	if s == "" {
		return None
	}
	return s
}

func joinOrNone[T ~string](values []T) string {
	if len(values) == 0 {
		return None
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func metallicOrNone(v *float64) string {
	if v == nil {
		return None
	}
	return formatFloat(*v)
}
