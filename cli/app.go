package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/santiagomed/blendgen/config"
	"github.com/santiagomed/blendgen/core"
	"github.com/santiagomed/blendgen/fs"
	"github.com/santiagomed/blendgen/llm"
	"github.com/santiagomed/blendgen/logger"
)

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger logger.Logger
	out    *fs.FileSystem
	files  *fs.FileSystem
}

func loadApp(configPath string, anchoredLabels bool) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if anchoredLabels {
		cfg.Parser.AnchoredLabels = true
	}

	if err := logger.InitLogger(cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, faint.Render("logging disabled: "+err.Error()))
	}
	l := logger.GetLogger()
	l.WithField("provider", cfg.Provider).WithField("model", cfg.ModelName).Debug("Configuration loaded")

	return &app{
		cfg:    cfg,
		logger: l,
		out:    fs.NewOutputFileSystem(cfg.OutputDir),
		files:  fs.NewOsFileSystem(),
	}, nil
}

func (a *app) matchMode() core.MatchMode {
	if a.cfg.Parser.AnchoredLabels {
		return core.MatchAnchored
	}
	return core.MatchContains
}

func (a *app) client() (llm.LlmClient, error) {
	return llm.NewClient(a.cfg.LlmConfig(), a.logger)
}

func (a *app) newEngine(workers int) (*Engine, error) {
	client, err := a.client()
	if err != nil {
		return nil, err
	}
	parser := core.NewParser(core.WithMatchMode(a.matchMode()))
	return NewEngine(client, parser, a.logger, workers), nil
}

// outputPath is where a script saved under path lives on disk.
func (a *app) outputPath(path string) string {
	return filepath.Join(a.cfg.OutputDir, path)
}

func (a *app) loadPreset(path string) (*fs.Preset, error) {
	if path == "" {
		return nil, nil
	}
	p, err := a.files.LoadPreset(path)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
