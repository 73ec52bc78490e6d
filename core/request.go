package core

import "fmt"

// Request describes one user action: a generation, a recommendation or a modification.
type Request struct {
	Kind         Kind           `yaml:"kind" json:"kind"`
	UserPrompt   string         `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Material     MaterialParams `yaml:"material,omitempty" json:"material,omitempty"`
	Texture      TextureParams  `yaml:"texture,omitempty" json:"texture,omitempty"`
	ExistingCode string         `yaml:"existing_code,omitempty" json:"existing_code,omitempty"`
	Instruction  string         `yaml:"instruction,omitempty" json:"instruction,omitempty"`
}

func NewMaterialRequest(prompt string, p MaterialParams) *Request {
	return &Request{Kind: KindMaterial, UserPrompt: prompt, Material: p}
}

func NewTextureRequest(prompt string, p TextureParams) *Request {
	return &Request{Kind: KindTexture, UserPrompt: prompt, Texture: p}
}

func NewRecommendationRequest(prompt string) *Request {
	return &Request{Kind: KindRecommendation, UserPrompt: prompt}
}

func NewModificationRequest(code, instruction string) *Request {
	return &Request{Kind: KindModification, ExistingCode: code, Instruction: instruction}
}

// Inputs returns the composer inputs for r.
func (r *Request) Inputs() Inputs {
	return Inputs{
		UserPrompt:   r.UserPrompt,
		Material:     r.Material,
		Texture:      r.Texture,
		ExistingCode: r.ExistingCode,
		Instruction:  r.Instruction,
	}
}

// Validate checks the caller-side requirements for r before any model call.
func (r *Request) Validate() error {
	switch r.Kind {
	case KindMaterial:
		if r.UserPrompt == "" {
			return fmt.Errorf("%w: a description is required", ErrInvalidParameter)
		}
		return r.Material.Validate()
	case KindTexture:
		if r.UserPrompt == "" {
			return fmt.Errorf("%w: a description is required", ErrInvalidParameter)
		}
		return r.Texture.Validate()
	case KindRecommendation:
		if r.UserPrompt == "" {
			return fmt.Errorf("%w: a description is required", ErrInvalidParameter)
		}
		return nil
	case KindModification:
		if r.ExistingCode == "" {
			return ErrNoCode
		}
		if r.Instruction == "" {
			return fmt.Errorf("%w: a modification request is required", ErrInvalidParameter)
		}
		return nil
	default:
		return fmt.Errorf("unknown template %q", r.Kind)
	}
}

// Result is what a pipeline run produced.
type Result struct {
	Kind           Kind
	Prompt         string
	Response       string
	Recommendation *Recommendation
}

// Code is the generated script for generation and modification results.
func (r *Result) Code() string {
	if r.Kind == KindRecommendation {
		return ""
	}
	return r.Response
}
