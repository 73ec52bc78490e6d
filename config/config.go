package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/santiagomed/blendgen/llm"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
type Config struct {
	Provider  string       `mapstructure:"provider"`
	BaseURL   string       `mapstructure:"base_url"`
	APIKey    string       `mapstructure:"api_key"`
	ModelName string       `mapstructure:"model_name"`
	TellmURL  string       `mapstructure:"tellm_url"`
	OutputDir string       `mapstructure:"output_dir"`
	LogLevel  string       `mapstructure:"log_level"`
	Server    ServerConfig `mapstructure:"server"`
	Parser    ParserConfig `mapstructure:"parser"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type ParserConfig struct {
	AnchoredLabels bool `mapstructure:"anchored_labels"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Provider:  llm.ProviderOpenAI,
		BaseURL:   llm.DefaultOpenAIBaseURL,
		APIKey:    "ollama",
		ModelName: "llama3.1",
		OutputDir: ".",
		LogLevel:  "info",
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// LoadConfig reads configuration from file or environment variables.
// configPath may be a file or a directory to search for config.yaml.
func LoadConfig(configPath string) (*Config, error) {
	// a .env next to the binary is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	config := DefaultConfig()

	v := viper.New()
	setDefaults(v, config)

	if configPath != "" && filepath.Ext(configPath) != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if configPath != "" {
			v.AddConfigPath(configPath)
		}
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".blendgen"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; defaults and environment apply
	}

	// Environment variables
	v.SetEnvPrefix("BLENDGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api_key", "BLENDGEN_API_KEY", "OPENAI_API_KEY")

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("provider", c.Provider)
	v.SetDefault("base_url", c.BaseURL)
	v.SetDefault("api_key", c.APIKey)
	v.SetDefault("model_name", c.ModelName)
	v.SetDefault("tellm_url", c.TellmURL)
	v.SetDefault("output_dir", c.OutputDir)
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("server.addr", c.Server.Addr)
	v.SetDefault("server.allowed_origins", c.Server.AllowedOrigins)
	v.SetDefault("parser.anchored_labels", c.Parser.AnchoredLabels)
}

func validateConfig(config *Config) error {
	switch config.Provider {
	case llm.ProviderOpenAI, llm.ProviderOllama:
	default:
		return fmt.Errorf("unknown provider %q (want %s or %s)", config.Provider, llm.ProviderOpenAI, llm.ProviderOllama)
	}
	if config.ModelName == "" {
		return fmt.Errorf("model_name is required")
	}
	return nil
}

// LlmConfig returns the model client settings for a session.
func (c *Config) LlmConfig() *llm.LlmConfig {
	return &llm.LlmConfig{
		Provider:  c.Provider,
		BaseURL:   c.BaseURL,
		APIKey:    c.APIKey,
		ModelName: c.ModelName,
		TellmURL:  c.TellmURL,
	}
}

const defaultConfigTemplate = `# blendgen configuration

# Model provider: "openai" for any OpenAI-compatible endpoint, "ollama" for Ollama's native API
provider: openai

# Endpoint of the model service (Ollama's OpenAI-compatible API by default)
base_url: http://localhost:11434/v1

# Model to use for generation
model_name: llama3.1

# API key; local servers accept any value. OPENAI_API_KEY is also read.
# api_key: "your-api-key-here"

# Optional tellm collector for prompt/response logging
# tellm_url: http://localhost:8000

# Directory where generated scripts are saved
output_dir: .

# debug, info, warn or error
log_level: info

server:
  addr: ":8080"
  # allowed_origins: ["http://localhost:3000"]

parser:
  # Only accept "Label: value" at the start of a line
  anchored_labels: false
`

// CreateDefaultConfig writes a commented default config file into dir and
// returns its path. An existing file is left untouched.
func CreateDefaultConfig(fsys afero.Fs, dir string) (string, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("unable to create config directory: %w", err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	exists, err := afero.Exists(fsys, configPath)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("config file already exists at %s", configPath)
	}

	if err := afero.WriteFile(fsys, configPath, []byte(defaultConfigTemplate), 0644); err != nil {
		return "", fmt.Errorf("unable to write default config file: %w", err)
	}
	return configPath, nil
}

// DefaultConfigDir is ~/.blendgen.
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".blendgen"), nil
}
