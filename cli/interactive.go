package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/santiagomed/blendgen/core"
	"github.com/santiagomed/blendgen/fs"
)

const (
	actionModify     = "modify"
	actionSave       = "save"
	actionPreset     = "preset"
	actionParameters = "parameters"
	actionQuit       = "quit"
)

// session drives one interactive material or texture session.
type session struct {
	app    *app
	engine *Engine
	state  *core.Session
}

func runInteractive(ctx context.Context, a *app, preset *fs.Preset) error {
	engine, err := a.newEngine(1)
	if err != nil {
		return err
	}
	engine.Start(ctx)
	defer engine.Shutdown(5 * time.Second)

	s := &session{app: a, engine: engine, state: core.NewSession(core.CreateMaterial)}
	if preset != nil {
		preset.Apply(s.state)
	}

	fmt.Println(titleStyle.Render("Welcome to blendgen!"))
	err = s.run(ctx)
	if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
		fmt.Println(faint.Render("Interrupted. Exiting application..."))
		return nil
	}
	return err
}

func (s *session) run(ctx context.Context) error {
	wantRecommendation, err := s.intake()
	if err != nil {
		return err
	}

	if wantRecommendation {
		if err := s.recommend(ctx); err != nil {
			return err
		}
	}

	if err := s.editParameters(); err != nil {
		return err
	}
	if err := s.generate(ctx); err != nil {
		return err
	}

	for {
		action, err := s.nextAction()
		if err != nil {
			return err
		}
		switch action {
		case actionModify:
			err = s.modify(ctx)
		case actionSave:
			err = s.saveScript()
		case actionPreset:
			err = s.savePreset()
		case actionParameters:
			if err = s.editParameters(); err == nil {
				err = s.generate(ctx)
			}
		case actionQuit:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *session) intake() (bool, error) {
	creation := string(s.state.Creation)
	wantRecommendation := true
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("What would you like to create?").
			Options(
				huh.NewOption("Material", string(core.CreateMaterial)),
				huh.NewOption("Texture", string(core.CreateTexture)),
			).
			Value(&creation),
		huh.NewText().
			Title("Describe it").
			Placeholder("weathered copper with green patina...").
			Value(&s.state.UserPrompt).
			Validate(required("a description")),
		huh.NewConfirm().
			Title("Ask the model for parameter recommendations first?").
			Value(&wantRecommendation),
	)).Run()
	s.state.Creation = core.CreationType(creation)
	return wantRecommendation, err
}

func (s *session) recommend(ctx context.Context) error {
	res, err := s.execute(ctx, s.state.RecommendationRequest())
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}
	s.state.Apply(res)
	fmt.Println(renderRecommendation(s.state.Recommendation))
	if s.state.Recommendation.Len() == 0 {
		return nil
	}

	accept := true
	if err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title("Use these recommendations as the starting parameters?").Value(&accept),
	)).Run(); err != nil {
		return err
	}
	if accept {
		return s.state.AcceptRecommendation()
	}
	return nil
}

// editParameters shows the parameter form until it validates.
func (s *session) editParameters() error {
	for {
		var err error
		if s.state.Creation == core.CreateTexture {
			f := newTextureForm(s.state.Texture)
			if err = f.form().Run(); err != nil {
				return err
			}
			s.state.Texture = f.params()
			err = s.state.Texture.Validate()
		} else {
			f := newMaterialForm(s.state.Material)
			if err = f.form().Run(); err != nil {
				return err
			}
			s.state.Material = f.params()
			err = s.state.Material.Validate()
		}
		if err == nil {
			return nil
		}
		fmt.Println(errorStyle.Render(err.Error()))
	}
}

func (s *session) generate(ctx context.Context) error {
	res, err := s.execute(ctx, s.state.GenerationRequest())
	if err != nil || res == nil {
		return err
	}
	s.state.Apply(res)
	fmt.Println(renderCode(s.state.Code))
	return nil
}

func (s *session) modify(ctx context.Context) error {
	var instruction string
	if err := huh.NewForm(huh.NewGroup(
		huh.NewText().
			Title("How should the code change?").
			Value(&instruction).
			Validate(required("a modification request")),
	)).Run(); err != nil {
		return err
	}

	req, err := s.state.ModificationRequest(instruction)
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return nil
	}
	res, err := s.execute(ctx, req)
	if err != nil || res == nil {
		return err
	}
	s.state.Apply(res)
	fmt.Println(renderCode(s.state.Code))
	return nil
}

func (s *session) saveScript() error {
	if s.state.Code == "" {
		fmt.Println(errorStyle.Render(core.ErrNoCode.Error()))
		return nil
	}
	name := fs.ScriptName(s.state.UserPrompt)
	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Script name").Value(&name),
	)).Run(); err != nil {
		return err
	}
	path, err := s.app.out.SaveScript(name, s.state.Code)
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return nil
	}
	fmt.Printf("Script saved to %s\n", nameStyle.Render(s.app.outputPath(path)))
	return nil
}

func (s *session) savePreset() error {
	path := "blendgen-preset.yaml"
	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Preset file").Value(&path).Validate(required("a file name")),
	)).Run(); err != nil {
		return err
	}
	if err := s.app.files.SavePreset(path, fs.PresetFromSession(s.state)); err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return nil
	}
	fmt.Printf("Preset saved to %s\n", nameStyle.Render(path))
	return nil
}

func (s *session) nextAction() (string, error) {
	action := actionModify
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("What next?").
			Options(
				huh.NewOption("Modify the code", actionModify),
				huh.NewOption("Save the script", actionSave),
				huh.NewOption("Save parameters as a preset", actionPreset),
				huh.NewOption("Change parameters and regenerate", actionParameters),
				huh.NewOption("Quit", actionQuit),
			).
			Value(&action),
	)).Run()
	return action, err
}

// execute runs r with progress. Model and parse failures are reported and
// leave the session as it was; only cancellation ends it.
func (s *session) execute(ctx context.Context, r *core.Request) (*core.Result, error) {
	res, err := runWithProgress(ctx, s.engine, r, s.app.logger, true)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, context.Canceled) {
		return nil, err
	}
	fmt.Println(errorStyle.Render(err.Error()))
	return nil, nil
}

type materialForm struct {
	materialType  string
	baseColors    string
	roughness     string
	metallic      string
	transparency  string
	emissionColor string
	effects       []string
}

func newMaterialForm(p core.MaterialParams) *materialForm {
	f := &materialForm{
		materialType:  string(p.MaterialType),
		roughness:     string(p.Roughness),
		transparency:  string(p.Transparency),
		emissionColor: string(p.EmissionColor),
		effects:       effectStrings(p.SpecialEffects),
	}
	colors := make([]string, len(p.BaseColors))
	for i, c := range p.BaseColors {
		colors[i] = string(c)
	}
	f.baseColors = strings.Join(colors, "\n")
	if p.Metallic != nil {
		f.metallic = strconv.FormatFloat(*p.Metallic, 'g', -1, 64)
	}
	return f
}

func (f *materialForm) form() *huh.Form {
	metallic := []huh.Option[string]{huh.NewOption(core.None, "")}
	for _, v := range core.MetallicValues {
		s := strconv.FormatFloat(v, 'g', -1, 64)
		metallic = append(metallic, huh.NewOption(s, s))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Material type").Options(enumOptions(core.MaterialTypes)...).Value(&f.materialType),
			huh.NewText().
				Title("Base colors").
				Description(fmt.Sprintf("Up to %d, one per line: rgb(r, g, b), (x,y,z) or #rrggbb", core.MaxBaseColors)).
				Value(&f.baseColors).
				Validate(validateColorList),
			huh.NewSelect[string]().Title("Roughness").Options(enumOptions(core.Levels)...).Value(&f.roughness),
			huh.NewSelect[string]().Title("Metallic").Options(metallic...).Value(&f.metallic),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Transparency").Options(enumOptions(core.Transparencies)...).Value(&f.transparency),
			huh.NewInput().Title("Emission color").Value(&f.emissionColor).Validate(validateColor),
			huh.NewMultiSelect[string]().Title("Special effects").Options(effectOptions(core.MaterialEffects)...).Value(&f.effects),
		),
	)
}

func (f *materialForm) params() core.MaterialParams {
	p := core.MaterialParams{
		MaterialType:   core.MaterialType(f.materialType),
		BaseColors:     parseColorList(f.baseColors),
		Roughness:      core.Level(f.roughness),
		Transparency:   core.Transparency(f.transparency),
		EmissionColor:  core.Color(strings.TrimSpace(f.emissionColor)),
		SpecialEffects: toEffects(f.effects),
	}
	if v, err := strconv.ParseFloat(f.metallic, 64); err == nil {
		p.Metallic = core.Float(v)
	}
	return p
}

type textureForm struct {
	textureType string
	mapping     string
	scale       string
	normalMap   string
	bumpMap     string
	effects     []string
}

func newTextureForm(p core.TextureParams) *textureForm {
	return &textureForm{
		textureType: string(p.TextureType),
		mapping:     string(p.Mapping),
		scale:       string(p.Scale),
		normalMap:   string(p.NormalMap),
		bumpMap:     string(p.BumpMap),
		effects:     effectStrings(p.SpecialEffects),
	}
}

func (f *textureForm) form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Texture type").Options(enumOptions(core.TextureTypes)...).Value(&f.textureType),
			huh.NewSelect[string]().Title("Mapping").Options(enumOptions(core.Mappings)...).Value(&f.mapping),
			huh.NewSelect[string]().Title("Scale").Options(enumOptions(core.Levels)...).Value(&f.scale),
		),
		huh.NewGroup(
			huh.NewInput().Title("Normal map color").Value(&f.normalMap).Validate(validateColor),
			huh.NewInput().Title("Bump map color").Value(&f.bumpMap).Validate(validateColor),
			huh.NewMultiSelect[string]().Title("Special effects").Options(effectOptions(core.TextureEffects)...).Value(&f.effects),
		),
	)
}

func (f *textureForm) params() core.TextureParams {
	return core.TextureParams{
		TextureType:    core.TextureType(f.textureType),
		Mapping:        core.Mapping(f.mapping),
		Scale:          core.Level(f.scale),
		NormalMap:      core.Color(strings.TrimSpace(f.normalMap)),
		BumpMap:        core.Color(strings.TrimSpace(f.bumpMap)),
		SpecialEffects: toEffects(f.effects),
	}
}

// enumOptions lists values after a leading None option that leaves the field unset.
func enumOptions[T ~string](values []T) []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption(core.None, "")}
	for _, v := range values {
		opts = append(opts, huh.NewOption(string(v), string(v)))
	}
	return opts
}

func effectOptions(effects []core.Effect) []huh.Option[string] {
	opts := make([]huh.Option[string], len(effects))
	for i, e := range effects {
		opts[i] = huh.NewOption(string(e), string(e))
	}
	return opts
}

func effectStrings(effects []core.Effect) []string {
	out := make([]string, len(effects))
	for i, e := range effects {
		out[i] = string(e)
	}
	return out
}

func toEffects(values []string) []core.Effect {
	if len(values) == 0 {
		return nil
	}
	out := make([]core.Effect, len(values))
	for i, v := range values {
		out[i] = core.Effect(v)
	}
	return out
}

func parseColorList(s string) []core.Color {
	var colors []core.Color
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			colors = append(colors, core.Color(line))
		}
	}
	return colors
}

func validateColorList(s string) error {
	colors := parseColorList(s)
	if len(colors) > core.MaxBaseColors {
		return fmt.Errorf("at most %d base colors", core.MaxBaseColors)
	}
	for _, c := range colors {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateColor(s string) error {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return core.Color(s).Validate()
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}
