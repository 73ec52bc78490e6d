package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/santiagomed/blendgen/config"
	"github.com/santiagomed/blendgen/core"
	"github.com/santiagomed/blendgen/fs"
	"github.com/santiagomed/blendgen/logger"
	"github.com/santiagomed/blendgen/server"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	configPath     string
	anchoredLabels bool
)

var rootCmd = &cobra.Command{
	Use:   "blendgen",
	Short: "blendgen generates Blender materials and textures with AI",
	Long: `blendgen turns a description of a material or texture into a Blender Python script.
Run without a subcommand for an interactive session.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(configPath, anchoredLabels)
		if err != nil {
			return err
		}
		preset, err := a.loadPreset(mustString(cmd, "preset"))
		if err != nil {
			return err
		}
		return runInteractive(cmd.Context(), a, preset)
	},
}

var materialCmd = &cobra.Command{
	Use:   "material [description]",
	Short: "Generate a material script",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, args, core.CreateMaterial)
	},
}

var textureCmd = &cobra.Command{
	Use:   "texture [description]",
	Short: "Generate a texture script",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, args, core.CreateTexture)
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <description>",
	Short: "Ask the model for parameter recommendations",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRecommend,
}

var modifyCmd = &cobra.Command{
	Use:   "modify",
	Short: "Change an existing script according to an instruction",
	RunE:  runModify,
}

var promptCmd = &cobra.Command{
	Use:       "prompt <material|texture|recommendation|modification>",
	Short:     "Print the prompt that would be sent to the model",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"material", "texture", "recommendation", "modification"},
	RunE:      runPrompt,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := mustString(cmd, "dir")
		if dir == "" {
			var err error
			if dir, err = config.DefaultConfigDir(); err != nil {
				return err
			}
		}
		path, err := config.CreateDefaultConfig(afero.NewOsFs(), dir)
		if err != nil {
			return err
		}
		fmt.Printf("Config written to %s\n", nameStyle.Render(path))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Zip every script in the output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(configPath, anchoredLabels)
		if err != nil {
			return err
		}
		path := mustString(cmd, "out")
		if err := a.out.ExportZip(a.files, path); err != nil {
			return err
		}
		fmt.Printf("Scripts exported to %s\n", nameStyle.Render(path))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generator over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(configPath, anchoredLabels)
		if err != nil {
			return err
		}
		if addr := mustString(cmd, "addr"); addr != "" {
			a.cfg.Server.Addr = addr
		}
		client, err := a.client()
		if err != nil {
			return err
		}
		l := logger.NewWithLevel(os.Stderr, a.cfg.LogLevel)
		srv := server.New(client, server.Options{
			Addr:           a.cfg.Server.Addr,
			AllowedOrigins: a.cfg.Server.AllowedOrigins,
			MatchMode:      a.matchMode(),
		}, l)
		return srv.Run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config file or a directory containing config.yaml")
	rootCmd.PersistentFlags().BoolVar(&anchoredLabels, "anchored-labels", false, "Only accept recommendation labels at the start of a line")
	rootCmd.Flags().String("preset", "", "Start the session from a saved preset")

	addMaterialFlags(materialCmd)
	addTextureFlags(textureCmd)

	recommendCmd.Flags().String("save-preset", "", "Save the recommendation as a preset file")
	recommendCmd.Flags().String("for", "material", "Creation the preset is for: material or texture")

	modifyCmd.Flags().String("code", "", "Path of the script to modify")
	modifyCmd.Flags().StringP("instruction", "i", "", "What to change")
	modifyCmd.Flags().StringP("out", "o", "", "Save the result under this name in the output directory")
	_ = modifyCmd.MarkFlagRequired("code")
	_ = modifyCmd.MarkFlagRequired("instruction")

	addPromptFlags(promptCmd)

	configInitCmd.Flags().String("dir", "", "Directory for config.yaml (default ~/.blendgen)")
	configCmd.AddCommand(configInitCmd)

	exportCmd.Flags().StringP("out", "o", "blendgen-scripts.zip", "Archive to write")

	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")

	rootCmd.AddCommand(materialCmd, textureCmd, recommendCmd, modifyCmd, promptCmd, configCmd, exportCmd, serveCmd)
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("prompt", "p", "", "Description of what to create (or pass it as arguments)")
	cmd.Flags().String("preset", "", "Load parameters from a preset file; flags override it")
	cmd.Flags().StringP("out", "o", "", "Save the script under this name in the output directory")
	cmd.Flags().Bool("dry-run", false, "Print the prompt instead of calling the model")
	cmd.Flags().StringSlice("effect", nil, "Special effect (repeatable)")
}

func addMaterialFlags(cmd *cobra.Command) {
	addGenerateFlags(cmd)
	cmd.Flags().String("type", "", "Material type: Principled BSDF, Diffuse, Emission, Transparent")
	cmd.Flags().StringArray("color", nil, "Base color, up to 3 (repeatable)")
	cmd.Flags().String("roughness", "", "Roughness: Low, Medium, High")
	cmd.Flags().String("metallic", "", "Metallic: 0, 0.5, 1")
	cmd.Flags().String("transparency", "", "Transparency: Opaque, Transparent, Semi-Transparent")
	cmd.Flags().String("emission", "", "Emission color")
}

func addTextureFlags(cmd *cobra.Command) {
	addGenerateFlags(cmd)
	cmd.Flags().String("type", "", "Texture type: Noise, Voronoi, Image, Checker")
	cmd.Flags().String("mapping", "", "Mapping: UV, Object, Generated, Camera")
	cmd.Flags().String("scale", "", "Scale: Low, Medium, High")
	cmd.Flags().String("normal-map", "", "Normal map color")
	cmd.Flags().String("bump-map", "", "Bump map color")
}

func addPromptFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("prompt", "p", "", "User description")
	cmd.Flags().String("preset", "", "Load parameters from a preset file")
	cmd.Flags().String("code", "", "Script to embed in a modification prompt")
	cmd.Flags().StringP("instruction", "i", "", "Modification instruction")
}

func runGenerate(cmd *cobra.Command, args []string, creation core.CreationType) error {
	a, err := loadApp(configPath, anchoredLabels)
	if err != nil {
		return err
	}

	sess := core.NewSession(creation)
	preset, err := a.loadPreset(mustString(cmd, "preset"))
	if err != nil {
		return err
	}
	if preset != nil {
		preset.Apply(sess)
		sess.Creation = creation
	}
	if p := descriptionFrom(cmd, args); p != "" {
		sess.UserPrompt = p
	}
	if creation == core.CreateTexture {
		err = applyTextureFlags(cmd, &sess.Texture)
	} else {
		err = applyMaterialFlags(cmd, &sess.Material)
	}
	if err != nil {
		return err
	}

	req := sess.GenerationRequest()
	if err := req.Validate(); err != nil {
		return err
	}
	if mustBool(cmd, "dry-run") {
		prompt, err := core.Compose(req.Kind, req.Inputs())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), prompt)
		return nil
	}

	res, err := runOnce(cmd.Context(), a, req)
	if err != nil {
		return err
	}
	return a.emitCode(res.Code(), mustString(cmd, "out"))
}

func runRecommend(cmd *cobra.Command, args []string) error {
	a, err := loadApp(configPath, anchoredLabels)
	if err != nil {
		return err
	}
	req := core.NewRecommendationRequest(strings.Join(args, " "))
	if err := req.Validate(); err != nil {
		return err
	}
	res, err := runOnce(cmd.Context(), a, req)
	if err != nil {
		return err
	}

	if isTerminal() {
		fmt.Println(renderRecommendation(res.Recommendation))
	} else {
		fmt.Print(res.Recommendation.String())
	}

	path := mustString(cmd, "save-preset")
	if path == "" {
		return nil
	}
	creation := core.CreateMaterial
	if strings.EqualFold(mustString(cmd, "for"), "texture") {
		creation = core.CreateTexture
	}
	sess := core.NewSession(creation)
	sess.UserPrompt = req.UserPrompt
	sess.Apply(res)
	if err := sess.AcceptRecommendation(); err != nil {
		return err
	}
	if err := a.files.SavePreset(path, fs.PresetFromSession(sess)); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Preset saved to %s\n", nameStyle.Render(path))
	return nil
}

func runModify(cmd *cobra.Command, args []string) error {
	a, err := loadApp(configPath, anchoredLabels)
	if err != nil {
		return err
	}
	code, err := a.files.ReadFile(mustString(cmd, "code"))
	if err != nil {
		return err
	}
	req := core.NewModificationRequest(code, mustString(cmd, "instruction"))
	if err := req.Validate(); err != nil {
		return err
	}
	res, err := runOnce(cmd.Context(), a, req)
	if err != nil {
		return err
	}
	return a.emitCode(res.Code(), mustString(cmd, "out"))
}

// runPrompt composes without validating so unset values show up as None.
func runPrompt(cmd *cobra.Command, args []string) error {
	kind, err := core.ParseKind(args[0])
	if err != nil {
		return err
	}
	req := &core.Request{
		Kind:        kind,
		UserPrompt:  mustString(cmd, "prompt"),
		Instruction: mustString(cmd, "instruction"),
	}

	files := fs.NewOsFileSystem()
	if path := mustString(cmd, "preset"); path != "" {
		p, err := files.LoadPreset(path)
		if err != nil {
			return err
		}
		if p.Material != nil {
			req.Material = *p.Material
		}
		if p.Texture != nil {
			req.Texture = *p.Texture
		}
		if req.UserPrompt == "" {
			req.UserPrompt = p.Prompt
		}
	}
	if path := mustString(cmd, "code"); path != "" {
		if req.ExistingCode, err = files.ReadFile(path); err != nil {
			return err
		}
	}

	prompt, err := core.Compose(kind, req.Inputs())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	return nil
}

// runOnce executes a single request on a one-worker engine.
func runOnce(ctx context.Context, a *app, req *core.Request) (*core.Result, error) {
	engine, err := a.newEngine(1)
	if err != nil {
		return nil, err
	}
	engine.Start(ctx)
	defer engine.Shutdown(5 * time.Second)
	return runWithProgress(ctx, engine, req, a.logger, isTerminal())
}

// emitCode prints code and, when name is set, saves it to the output directory.
func (a *app) emitCode(code, name string) error {
	if isTerminal() {
		fmt.Println(renderCode(code))
	} else {
		fmt.Print(code)
	}
	if name == "" {
		return nil
	}
	path, err := a.out.SaveScript(name, code)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Script saved to %s\n", nameStyle.Render(a.outputPath(path)))
	return nil
}

func descriptionFrom(cmd *cobra.Command, args []string) string {
	if p := mustString(cmd, "prompt"); p != "" {
		return p
	}
	return strings.Join(args, " ")
}

// applyMaterialFlags overrides p with every flag the user set.
func applyMaterialFlags(cmd *cobra.Command, p *core.MaterialParams) error {
	f := cmd.Flags()
	if f.Changed("type") {
		p.MaterialType = core.MaterialType(mustString(cmd, "type"))
	}
	if f.Changed("color") {
		colors, _ := f.GetStringArray("color")
		p.BaseColors = make([]core.Color, len(colors))
		for i, c := range colors {
			p.BaseColors[i] = core.Color(c)
		}
	}
	if f.Changed("roughness") {
		p.Roughness = core.Level(mustString(cmd, "roughness"))
	}
	if f.Changed("metallic") {
		v, err := strconv.ParseFloat(mustString(cmd, "metallic"), 64)
		if err != nil {
			return fmt.Errorf("%w: metallic %q is not a number", core.ErrInvalidParameter, mustString(cmd, "metallic"))
		}
		p.Metallic = core.Float(v)
	}
	if f.Changed("transparency") {
		p.Transparency = core.Transparency(mustString(cmd, "transparency"))
	}
	if f.Changed("emission") {
		p.EmissionColor = core.Color(mustString(cmd, "emission"))
	}
	if f.Changed("effect") {
		effects, _ := f.GetStringSlice("effect")
		p.SpecialEffects = toEffects(effects)
	}
	return nil
}

func applyTextureFlags(cmd *cobra.Command, p *core.TextureParams) error {
	f := cmd.Flags()
	if f.Changed("type") {
		p.TextureType = core.TextureType(mustString(cmd, "type"))
	}
	if f.Changed("mapping") {
		p.Mapping = core.Mapping(mustString(cmd, "mapping"))
	}
	if f.Changed("scale") {
		p.Scale = core.Level(mustString(cmd, "scale"))
	}
	if f.Changed("normal-map") {
		p.NormalMap = core.Color(mustString(cmd, "normal-map"))
	}
	if f.Changed("bump-map") {
		p.BumpMap = core.Color(mustString(cmd, "bump-map"))
	}
	if f.Changed("effect") {
		effects, _ := f.GetStringSlice("effect")
		p.SpecialEffects = toEffects(effects)
	}
	return nil
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func mustBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		stop()
		os.Exit(1)
	}
}
