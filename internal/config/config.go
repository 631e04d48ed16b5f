// Package config loads rita's settings from the environment, an optional
// .env file and an optional config.yaml.
package config

import (
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"rita/internal/profile"
)

const (
	BackendAzure  = "azure"
	BackendOpenAI = "openai"
	BackendLocal  = "local"

	ProviderAzure  = "azure"
	ProviderEspeak = "espeak"
)

type Config struct {
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Whisper  WhisperConfig  `mapstructure:"whisper"`
	Speech   SpeechConfig   `mapstructure:"speech"`
	Maps     MapsConfig     `mapstructure:"maps"`
	Kuksa    KuksaConfig    `mapstructure:"kuksa"`
	Seat     SeatConfig     `mapstructure:"seat"`
	Recorder RecorderConfig `mapstructure:"recorder"`
	Duck     DuckConfig     `mapstructure:"duck"`
	HMI      HMIConfig      `mapstructure:"hmi"`
	Control  ControlConfig  `mapstructure:"control"`

	Chime    string            `mapstructure:"chime"`
	Proxy    string            `mapstructure:"proxy"`
	Pause    time.Duration     `mapstructure:"pause"`
	Profiles []profile.Profile `mapstructure:"profiles"`
}

type OpenAIConfig struct {
	Key     string `mapstructure:"key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type WhisperConfig struct {
	Backend    string `mapstructure:"backend"`
	Key        string `mapstructure:"key"`
	Endpoint   string `mapstructure:"endpoint"`
	APIVersion string `mapstructure:"api_version"`
	Model      string `mapstructure:"model"`
	ModelPath  string `mapstructure:"model_path"`
	Language   string `mapstructure:"language"`
}

type SpeechConfig struct {
	Providers  []string `mapstructure:"providers"`
	Key        string   `mapstructure:"key"`
	Region     string   `mapstructure:"region"`
	Voice      string   `mapstructure:"voice"`
	EspeakLang string   `mapstructure:"espeak_lang"`
	EspeakRate int      `mapstructure:"espeak_rate"`
}

type MapsConfig struct {
	APIKey string `mapstructure:"api_key"`
	Radius uint   `mapstructure:"radius"`
}

type KuksaConfig struct {
	Address string        `mapstructure:"address"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SeatConfig struct {
	Position string        `mapstructure:"position"`
	Tilt     string        `mapstructure:"tilt"`
	Height   string        `mapstructure:"height"`
	Pace     time.Duration `mapstructure:"pace"`
}

func (s SeatConfig) Paths() [3]string {
	return [3]string{s.Position, s.Tilt, s.Height}
}

type RecorderConfig struct {
	Duration   time.Duration `mapstructure:"duration"`
	SampleRate int           `mapstructure:"sample_rate"`
	File       string        `mapstructure:"file"`
}

type DuckConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Factor    float64       `mapstructure:"factor"`
	MinVolume int           `mapstructure:"min_volume"`
	Fade      time.Duration `mapstructure:"fade"`
}

type HMIConfig struct {
	URL string `mapstructure:"url"`
}

type ControlConfig struct {
	Socket string `mapstructure:"socket"`
}

// envMappings keeps the variable names of the existing deployments.
var envMappings = map[string]string{
	"openai.key":       "OPEN_AI_KEY",
	"openai.base_url":  "OPEN_AI_BASE_URL",
	"whisper.key":      "AZURE_OPENAI_WHISPER_KEY",
	"whisper.endpoint": "AZURE_OPENAI_WHISPER_ENDPOINT",
	"speech.key":       "AZURE_OPENAI_TTS_KEY",
	"speech.region":    "SPEECH_REGION",
	"maps.api_key":     "GOOGLE_MAPS_API",
	"kuksa.address":    "KUKSA_ADDRESS",
	"kuksa.token":      "KUKSA_TOKEN",
	"hmi.url":          "HMI_BUS_URL",
	"proxy":            "RITA_PROXY",
}

// Load reads envFile (missing is fine), then configFile or config.yaml from
// the search path, then the environment.
func Load(envFile, configFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Debug("No env file loaded", "path", envFile, "err", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RITA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envMappings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.rita")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		log.Debug("Config file not found, using environment and defaults")
	} else {
		log.Info("Using config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Profiles) == 0 {
		cfg.Profiles = profile.Defaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openai.model", "gpt-4")

	v.SetDefault("whisper.backend", BackendAzure)
	v.SetDefault("whisper.api_version", "2023-09-01-preview")
	v.SetDefault("whisper.model", "whisper")
	v.SetDefault("whisper.language", "en")

	v.SetDefault("speech.providers", []string{ProviderAzure, ProviderEspeak})
	v.SetDefault("speech.voice", "en-US-AvaNeural")
	v.SetDefault("speech.espeak_lang", "en")
	v.SetDefault("speech.espeak_rate", 170)

	v.SetDefault("maps.radius", 1000)

	v.SetDefault("kuksa.address", "ws://localhost:8090")
	v.SetDefault("kuksa.timeout", 5*time.Second)

	v.SetDefault("seat.pace", time.Second)

	v.SetDefault("recorder.duration", 5*time.Second)
	v.SetDefault("recorder.sample_rate", 44100)
	v.SetDefault("recorder.file", "my_recording.wav")

	v.SetDefault("duck.enabled", false)
	v.SetDefault("duck.factor", 0.3)
	v.SetDefault("duck.min_volume", 10)
	v.SetDefault("duck.fade", 300*time.Millisecond)

	v.SetDefault("control.socket", "/tmp/rita.sock")
	v.SetDefault("pause", time.Second)
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string

	if c.OpenAI.Key == "" {
		missing = append(missing, "OPEN_AI_KEY")
	}
	if c.Maps.APIKey == "" {
		missing = append(missing, "GOOGLE_MAPS_API")
	}
	if c.Kuksa.Address == "" {
		missing = append(missing, "KUKSA_ADDRESS")
	}

	switch c.Whisper.Backend {
	case BackendAzure:
		if c.Whisper.Key == "" {
			missing = append(missing, "AZURE_OPENAI_WHISPER_KEY")
		}
		if c.Whisper.Endpoint == "" {
			missing = append(missing, "AZURE_OPENAI_WHISPER_ENDPOINT")
		}
	case BackendLocal:
		if c.Whisper.ModelPath == "" {
			missing = append(missing, "whisper.model_path")
		}
	case BackendOpenAI:
	default:
		return fmt.Errorf("unknown whisper backend %q", c.Whisper.Backend)
	}

	for _, p := range c.Speech.Providers {
		if p != ProviderAzure && p != ProviderEspeak {
			return fmt.Errorf("unknown speech provider %q", p)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Store builds the profile store from the configured profiles.
func (c *Config) Store() (*profile.Store, error) {
	return profile.NewStore(c.Profiles...)
}
