package fs

import (
	"fmt"

	"github.com/santiagomed/blendgen/core"
	"gopkg.in/yaml.v3"
)

// Preset is a saved set of parameters that can be reloaded with --preset.
type Preset struct {
	Creation core.CreationType    `yaml:"creation"`
	Prompt   string               `yaml:"prompt,omitempty"`
	Material *core.MaterialParams `yaml:"material,omitempty"`
	Texture  *core.TextureParams  `yaml:"texture,omitempty"`
}

// PresetFromSession captures the parameters for the session's creation type.
func PresetFromSession(s *core.Session) Preset {
	p := Preset{Creation: s.Creation, Prompt: s.UserPrompt}
	if s.Creation == core.CreateTexture {
		t := s.Texture
		p.Texture = &t
	} else {
		m := s.Material
		p.Material = &m
	}
	return p
}

// Apply loads the preset into s. An empty prompt in the preset keeps the
// session's prompt.
func (p Preset) Apply(s *core.Session) {
	if p.Creation != "" {
		s.Creation = p.Creation
	}
	if p.Prompt != "" {
		s.UserPrompt = p.Prompt
	}
	if p.Material != nil {
		s.Material = *p.Material
	}
	if p.Texture != nil {
		s.Texture = *p.Texture
	}
}

func (fs *FileSystem) SavePreset(path string, p Preset) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("error marshaling preset: %w", err)
	}
	return fs.WriteFile(path, string(data))
}

func (fs *FileSystem) LoadPreset(path string) (Preset, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return Preset{}, err
	}
	var p Preset
	if err := yaml.Unmarshal([]byte(data), &p); err != nil {
		return Preset{}, fmt.Errorf("error parsing preset %s: %w", path, err)
	}
	if p.Creation != "" && p.Creation != core.CreateMaterial && p.Creation != core.CreateTexture {
		return Preset{}, fmt.Errorf("preset %s: unknown creation type %q", path, p.Creation)
	}
	return p, nil
}
