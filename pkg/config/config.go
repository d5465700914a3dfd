package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath      = "config.yaml"
	defaultOutputDir       = "./outputs"
	defaultTracksDir       = "./outputs/tracks"
	defaultPromptsDir      = "./prompts"
	defaultLLMProvider     = "openai"
	defaultModel           = "gpt-4.1"
	defaultInfoPrompt      = "default"
	defaultScriptPrompt    = "v2-tts"
	defaultTemperature     = 0.7
	defaultTTSModel        = "gemini-2.5-pro-preview-tts"
	defaultVoice           = "Zephyr"
	defaultSpeed           = 1.0
	defaultMaxRetries      = 8
	defaultInitialWaitSecs = 1.0
	defaultMaxWaitSecs     = 60.0
	defaultGCSArtifactRoot = "tracks"
)

type Config struct {
	OpenAIAPIKey string
	GroqAPIKey   string
	GeminiAPIKey string
	GCSBucket    string

	LLM     LLMConfig     `yaml:"llm"`
	TTS     TTSConfig     `yaml:"tts"`
	Output  OutputConfig  `yaml:"output"`
	Prompts PromptsConfig `yaml:"prompts"`
	Retry   RetryConfig   `yaml:"retry"`
	GCS     GCSConfig     `yaml:"gcs"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "openai" or "groq"
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

type TTSConfig struct {
	Model string  `yaml:"model"`
	Voice string  `yaml:"voice"`
	Speed float64 `yaml:"speed"`
}

type OutputConfig struct {
	Dir       string `yaml:"dir"`
	TracksDir string `yaml:"tracks_dir"`
}

type PromptsConfig struct {
	Dir           string `yaml:"dir"`
	InfoVersion   string `yaml:"info_version"`
	ScriptVersion string `yaml:"script_version"`
}

type RetryConfig struct {
	MaxRetries  int     `yaml:"max_retries"`
	InitialWait float64 `yaml:"initial_wait"` // seconds
	MaxWait     float64 `yaml:"max_wait"`     // seconds
}

type GCSConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ArtifactRoot string `yaml:"artifact_root"`
}

// Load reads .env, config.yaml, and defaults, in that order of precedence.
// The returned Config is the only carrier of credentials and tunables;
// nothing else in the program reads the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GCSBucket:    os.Getenv("GCS_BUCKET"),
	}

	loadYAMLConfig(cfg)
	applyDefaults(cfg)

	return cfg
}

func loadYAMLConfig(cfg *Config) {
	data, err := os.ReadFile(defaultConfigPath)
	if err != nil {
		slog.Debug("No config.yaml found, using defaults")
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Error("Failed to parse config.yaml", "error", err)
	}
}

func applyDefaults(cfg *Config) {
	applyLLMDefaults(cfg)
	applyTTSDefaults(cfg)
	applyOutputDefaults(cfg)
	applyPromptsDefaults(cfg)
	applyRetryDefaults(cfg)
	applyGCSDefaults(cfg)
}

func applyLLMDefaults(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaultLLMProvider
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModel
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = defaultTemperature
	}
}

func applyTTSDefaults(cfg *Config) {
	if cfg.TTS.Model == "" {
		cfg.TTS.Model = defaultTTSModel
	}
	if cfg.TTS.Voice == "" {
		cfg.TTS.Voice = defaultVoice
	}
	if cfg.TTS.Speed == 0 {
		cfg.TTS.Speed = defaultSpeed
	}
}

func applyOutputDefaults(cfg *Config) {
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = defaultOutputDir
	}
	if cfg.Output.TracksDir == "" {
		cfg.Output.TracksDir = defaultTracksDir
	}
}

func applyPromptsDefaults(cfg *Config) {
	if cfg.Prompts.Dir == "" {
		cfg.Prompts.Dir = defaultPromptsDir
	}
	if cfg.Prompts.InfoVersion == "" {
		cfg.Prompts.InfoVersion = defaultInfoPrompt
	}
	if cfg.Prompts.ScriptVersion == "" {
		cfg.Prompts.ScriptVersion = defaultScriptPrompt
	}
}

func applyRetryDefaults(cfg *Config) {
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = defaultMaxRetries
	}
	if cfg.Retry.InitialWait == 0 {
		cfg.Retry.InitialWait = defaultInitialWaitSecs
	}
	if cfg.Retry.MaxWait == 0 {
		cfg.Retry.MaxWait = defaultMaxWaitSecs
	}
}

func applyGCSDefaults(cfg *Config) {
	if cfg.GCS.ArtifactRoot == "" {
		cfg.GCS.ArtifactRoot = defaultGCSArtifactRoot
	}
}
