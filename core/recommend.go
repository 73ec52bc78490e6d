package core

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

var errNotFinite = errors.New("value is not a finite number")

// Label is a field name the model is asked to emit as "Label: value".
type Label string

const (
	LabelMaterialType   Label = "Material Type"
	LabelBaseColor      Label = "Base Color"
	LabelRoughness      Label = "Roughness"
	LabelMetallic       Label = "Metallic"
	LabelTransparency   Label = "Transparency"
	LabelEmissionColor  Label = "Emission Color"
	LabelSpecialEffects Label = "Special Effects"
	LabelTextureType    Label = "Texture Type"
	LabelMapping        Label = "Mapping"
	LabelScale          Label = "Scale"
	LabelNormalMap      Label = "Normal Map"
	LabelBumpMap        Label = "Bump Map"
)

// Labels in match priority order. A line is assigned to the first label it matches.
var Labels = []Label{
	LabelMaterialType,
	LabelBaseColor,
	LabelRoughness,
	LabelMetallic,
	LabelTransparency,
	LabelEmissionColor,
	LabelSpecialEffects,
	LabelTextureType,
	LabelMapping,
	LabelScale,
	LabelNormalMap,
	LabelBumpMap,
}

func (l Label) marker() string { return string(l) + ":" }

// ParseError means a recognized label carried a value of the wrong type.
type ParseError struct {
	Label Label
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing recommendation %q: invalid value %q: %v", e.Label, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Recommendation is the structured form of a recommendation response.
// Only labels present in the response are set.
type Recommendation struct {
	Text           map[Label]string `json:"text,omitempty" yaml:"text,omitempty"`
	Metallic       *float64         `json:"metallic,omitempty" yaml:"metallic,omitempty"`
	SpecialEffects []string         `json:"special_effects,omitempty" yaml:"special_effects,omitempty"`
}

// Len is the number of labels that were recognized.
func (r *Recommendation) Len() int {
	n := len(r.Text)
	if r.Metallic != nil {
		n++
	}
	if r.SpecialEffects != nil {
		n++
	}
	return n
}

// Get returns the text value for l. Metallic and Special Effects are typed
// fields and are never returned here.
func (r *Recommendation) Get(l Label) (string, bool) {
	v, ok := r.Text[l]
	return v, ok
}

// String renders the record back into "Label: value" lines in priority order.
func (r *Recommendation) String() string {
	var b strings.Builder
	for _, l := range Labels {
		switch l {
		case LabelMetallic:
			if r.Metallic != nil {
				fmt.Fprintf(&b, "%s %s\n", l.marker(), formatFloat(*r.Metallic))
			}
		case LabelSpecialEffects:
			if r.SpecialEffects != nil {
				fmt.Fprintf(&b, "%s %s\n", l.marker(), strings.Join(r.SpecialEffects, ", "))
			}
		default:
			if v, ok := r.Text[l]; ok {
				fmt.Fprintf(&b, "%s %s\n", l.marker(), v)
			}
		}
	}
	return b.String()
}

// ApplyToMaterial copies the material-related values into p. Special effects
// that are not material effects are skipped.
func (r *Recommendation) ApplyToMaterial(p *MaterialParams) {
	if v, ok := r.Text[LabelMaterialType]; ok {
		p.MaterialType = MaterialType(v)
	}
	if v, ok := r.Text[LabelBaseColor]; ok {
		p.BaseColors = splitColors(v)
	}
	if v, ok := r.Text[LabelRoughness]; ok {
		p.Roughness = Level(v)
	}
	if r.Metallic != nil {
		p.Metallic = Float(*r.Metallic)
	}
	if v, ok := r.Text[LabelTransparency]; ok {
		p.Transparency = Transparency(v)
	}
	if v, ok := r.Text[LabelEmissionColor]; ok {
		p.EmissionColor = Color(v)
	}
	if r.SpecialEffects != nil {
		p.SpecialEffects = filterEffects(r.SpecialEffects, MaterialEffects)
	}
}

// ApplyToTexture copies the texture-related values into p.
func (r *Recommendation) ApplyToTexture(p *TextureParams) {
	if v, ok := r.Text[LabelTextureType]; ok {
		p.TextureType = TextureType(v)
	}
	if v, ok := r.Text[LabelMapping]; ok {
		p.Mapping = Mapping(v)
	}
	if v, ok := r.Text[LabelScale]; ok {
		p.Scale = Level(v)
	}
	if v, ok := r.Text[LabelNormalMap]; ok {
		p.NormalMap = Color(v)
	}
	if v, ok := r.Text[LabelBumpMap]; ok {
		p.BumpMap = Color(v)
	}
	if r.SpecialEffects != nil {
		p.SpecialEffects = filterEffects(r.SpecialEffects, TextureEffects)
	}
}

type MatchMode int

const (
	// MatchContains accepts a label marker anywhere in the line.
	MatchContains MatchMode = iota
	// MatchAnchored requires the marker at the start of the line, after
	// list bullets and markdown emphasis.
	MatchAnchored
)

type Parser struct {
	mode MatchMode
}

type ParserOption func(*Parser)

func WithMatchMode(m MatchMode) ParserOption {
	return func(p *Parser) { p.mode = m }
}

func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{mode: MatchContains}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseRecommendations parses text with the default, contains-anywhere matching.
func ParseRecommendations(text string) (*Recommendation, error) {
	return NewParser().Parse(text)
}

// Parse reads text line by line. Unrecognized lines are ignored and a later
// line for the same label overwrites an earlier one.
func (p *Parser) Parse(text string) (*Recommendation, error) {
	rec := &Recommendation{Text: map[Label]string{}}
	for _, line := range strings.Split(text, "\n") {
		label, raw, ok := p.match(line)
		if !ok {
			continue
		}
		value := cleanValue(raw)
		switch label {
		case LabelMetallic:
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, &ParseError{Label: label, Value: value, Err: err}
			}
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, &ParseError{Label: label, Value: value, Err: errNotFinite}
			}
			rec.Metallic = Float(f)
		case LabelSpecialEffects:
			rec.SpecialEffects = splitList(value)
		default:
			rec.Text[label] = value
		}
	}
	return rec, nil
}

func (p *Parser) match(line string) (Label, string, bool) {
	if p.mode == MatchAnchored {
		line = strings.TrimLeft(line, " \t-*•>#")
		line = strings.TrimLeft(line, "0123456789.) ")
		line = strings.TrimPrefix(line, "**")
		line = strings.TrimPrefix(line, "__")
		for _, l := range Labels {
			if strings.HasPrefix(line, l.marker()) {
				return l, line[len(l.marker()):], true
			}
		}
		return "", "", false
	}

	for _, l := range Labels {
		if i := strings.Index(line, l.marker()); i >= 0 {
			return l, line[i+len(l.marker()):], true
		}
	}
	return "", "", false
}

// cleanValue trims whitespace and the closing bold marker left behind when a
// label is wrapped as in "**Roughness:** High".
func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "**") || strings.HasPrefix(s, "__") {
		s = s[2:]
	}
	return strings.TrimSpace(s)
}

// splitList splits on commas and trims each entry. Empty entries are kept.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

// splitColors separates up to three colors. Commas inside rgb(...) or (x,y,z)
// belong to the color.
func splitColors(s string) []Color {
	var colors []Color
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',', ';':
			if depth == 0 {
				if c := strings.TrimSpace(s[start:i]); c != "" {
					colors = append(colors, Color(c))
				}
				start = i + 1
			}
		}
	}
	if c := strings.TrimSpace(s[start:]); c != "" {
		colors = append(colors, Color(c))
	}
	if len(colors) > MaxBaseColors {
		colors = colors[:MaxBaseColors]
	}
	return colors
}

func filterEffects(values []string, allowed []Effect) []Effect {
	var out []Effect
	for _, v := range values {
		if e := Effect(v); slices.Contains(allowed, e) {
			out = append(out, e)
		}
	}
	return out
}
