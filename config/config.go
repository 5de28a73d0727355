package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	LLM      LLMConfig      `yaml:"llm"`
	Image    ImageConfig    `yaml:"image"`
	Audio    AudioConfig    `yaml:"audio"`
	Video    VideoConfig    `yaml:"video"`
	Compose  ComposeConfig  `yaml:"compose"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Drive    DriveConfig    `yaml:"drive"`
	Upload   UploadConfig   `yaml:"upload"`

	Secrets Secrets `yaml:"-"`
}

type PipelineConfig struct {
	WorkDir       string `yaml:"work_dir"`
	RetryCount    int    `yaml:"retry_count"`
	RetryDelaySec int    `yaml:"retry_delay_sec"`
	StopOnError   bool   `yaml:"stop_on_error"`
	MaxScenes     int    `yaml:"max_scenes"`
}

type LLMConfig struct {
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	Theme       string  `yaml:"theme"`
}

type ImageConfig struct {
	BaseURL string `yaml:"base_url"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Model   string `yaml:"model"`
	Seed    int    `yaml:"seed"`
	NoLogo  bool   `yaml:"no_logo"`
}

type AudioConfig struct {
	BaseURL  string `yaml:"base_url"`
	VoiceID  string `yaml:"voice_id"`
	Language string `yaml:"language"`
}

type VideoConfig struct {
	ClipDurationSec int    `yaml:"clip_duration_sec"`
	FPS             int    `yaml:"fps"`
	Codec           string `yaml:"codec"`
	PixelFormat     string `yaml:"pixel_format"`
	Width           int    `yaml:"width"`
	Height          int    `yaml:"height"`
}

type ComposeConfig struct {
	BaseURL         string `yaml:"base_url"`
	TemplateID      string `yaml:"template_id"`
	OutputFormat    string `yaml:"output_format"`
	PollIntervalSec int    `yaml:"poll_interval_sec"`
	PollAttempts    int    `yaml:"poll_attempts"`
}

type SheetsConfig struct {
	SheetName string `yaml:"sheet_name"`
	DataRange string `yaml:"data_range"`
}

type DriveConfig struct {
	ImagesFolderID string `yaml:"images_folder_id"`
	VideosFolderID string `yaml:"videos_folder_id"`
	AudioFolderID  string `yaml:"audio_folder_id"`
	FinalFolderID  string `yaml:"final_folder_id"`
}

type UploadConfig struct {
	CategoryID        string `yaml:"category_id"`
	Privacy           string `yaml:"privacy"`
	DefaultLanguage   string `yaml:"default_language"`
	NotifySubscribers bool   `yaml:"notify_subscribers"`
	MadeForKids       bool   `yaml:"made_for_kids"`
}

// Secrets come from the environment (or a local .env), never from YAML.
type Secrets struct {
	AnthropicAPIKey     string
	ElevenLabsAPIKey    string
	CreatomateAPIKey    string
	SpreadsheetID       string
	GoogleCredentials   string
	YouTubeClientID     string
	YouTubeClientSecret string
	YouTubeRefreshToken string
}

// Load reads config.yaml, applies defaults, and overlays secrets from the
// environment. A missing .env is fine (CI provides real env vars).
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	cfg.Secrets = loadSecrets()
	return &cfg, nil
}

// Default returns a usable configuration when no config.yaml exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Secrets = loadSecrets()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Pipeline.WorkDir == "" {
		c.Pipeline.WorkDir = "temp"
	}
	if c.Pipeline.RetryCount <= 0 {
		c.Pipeline.RetryCount = 2
	}
	if c.Pipeline.RetryDelaySec <= 0 {
		c.Pipeline.RetryDelaySec = 3
	}
	if c.Pipeline.MaxScenes <= 0 {
		c.Pipeline.MaxScenes = 5
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 2000
	}
	if c.Image.BaseURL == "" {
		c.Image.BaseURL = "https://image.pollinations.ai/prompt"
	}
	if c.Image.Width <= 0 {
		c.Image.Width = 540
	}
	if c.Image.Height <= 0 {
		c.Image.Height = 960
	}
	if c.Image.Model == "" {
		c.Image.Model = "flux"
	}
	if c.Image.Seed == 0 {
		c.Image.Seed = 42
	}
	if c.Audio.BaseURL == "" {
		c.Audio.BaseURL = "https://api.elevenlabs.io/v1/text-to-speech"
	}
	if c.Audio.Language == "" {
		c.Audio.Language = "en"
	}
	if c.Video.ClipDurationSec <= 0 {
		c.Video.ClipDurationSec = 5
	}
	if c.Video.FPS <= 0 {
		c.Video.FPS = 30
	}
	if c.Video.Codec == "" {
		c.Video.Codec = "libx264"
	}
	if c.Video.PixelFormat == "" {
		c.Video.PixelFormat = "yuv420p"
	}
	if c.Video.Width <= 0 {
		c.Video.Width = 540
	}
	if c.Video.Height <= 0 {
		c.Video.Height = 960
	}
	if c.Compose.BaseURL == "" {
		c.Compose.BaseURL = "https://api.creatomate.com/v1/renders"
	}
	if c.Compose.OutputFormat == "" {
		c.Compose.OutputFormat = "mp4"
	}
	if c.Compose.PollIntervalSec <= 0 {
		c.Compose.PollIntervalSec = 15
	}
	if c.Compose.PollAttempts <= 0 {
		c.Compose.PollAttempts = 10
	}
	if c.Sheets.SheetName == "" {
		c.Sheets.SheetName = "youtube"
	}
	if c.Sheets.DataRange == "" {
		c.Sheets.DataRange = "A:I"
	}
	if c.Upload.CategoryID == "" {
		c.Upload.CategoryID = "22" // People & Blogs
	}
	if c.Upload.Privacy == "" {
		c.Upload.Privacy = "public"
	}
	if c.Upload.DefaultLanguage == "" {
		c.Upload.DefaultLanguage = "en"
	}
}

func loadSecrets() Secrets {
	return Secrets{
		AnthropicAPIKey:     os.Getenv("ANTHROPIC_API_KEY"),
		ElevenLabsAPIKey:    os.Getenv("ELEVENLABS_API_KEY"),
		CreatomateAPIKey:    os.Getenv("CREATOMATE_API_KEY"),
		SpreadsheetID:       os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"),
		GoogleCredentials:   os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		YouTubeClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
		YouTubeClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
		YouTubeRefreshToken: os.Getenv("YOUTUBE_REFRESH_TOKEN"),
	}
}
