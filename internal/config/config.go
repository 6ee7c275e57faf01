package config

import (
	"fmt"
	"strings"
)

type Config struct {
	Whisper      WhisperConfig      `yaml:"whisper"`
	FFmpeg       FFmpegConfig       `yaml:"ffmpeg"`
	Paths        PathsConfig        `yaml:"paths"`
	Logging      LoggingConfig      `yaml:"logging"`
	Performance  PerformanceConfig  `yaml:"performance"`
	Segmentation SegmentationConfig `yaml:"segmentation"`
	Captions     CaptionsConfig     `yaml:"captions"`
	LLM          LLMConfig          `yaml:"llm"`
	Comfy        ComfyConfig        `yaml:"comfy"`
	Storyboard   StoryboardConfig   `yaml:"storyboard"`
	Behaviour    BehaviourConfig    `yaml:"behaviour"`
}

type WhisperConfig struct {
	ModelPath  string `yaml:"model_path"`
	BinaryPath string `yaml:"binary_path"`
	Language   string `yaml:"language"`
	Prompt     string `yaml:"prompt"`
	Threads    int    `yaml:"threads"`
}

type FFmpegConfig struct {
	Binary       string `yaml:"binary"`
	VideoBitrate string `yaml:"video_bitrate"`
	AudioCodec   string `yaml:"audio_codec"`
	AudioBitrate string `yaml:"audio_bitrate"`
	Encoder      string `yaml:"encoder"`
	Preset       string `yaml:"preset"`
	FPS          int    `yaml:"fps"`
}

type PathsConfig struct {
	Input    string `yaml:"input"`
	Output   string `yaml:"output"`
	Archived string `yaml:"archived"`
	Temp     string `yaml:"temp"`
	StateDB  string `yaml:"state_db"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type SegmentationConfig struct {
	Seconds  int `yaml:"seconds"`
	MaxChars int `yaml:"max_chars"`
}

type CaptionsConfig struct {
	MaxChars int     `yaml:"max_chars"`
	Case     string  `yaml:"case"`
	Font     string  `yaml:"font"`
	FontSize int     `yaml:"font_size"`
	Margin   int     `yaml:"margin"`
	Stroke   int     `yaml:"stroke"`
	BgAlpha  float64 `yaml:"bg_alpha"`
}

type LLMConfig struct {
	Provider      string   `yaml:"provider"`
	Model         string   `yaml:"model"`
	BaseURL       string   `yaml:"base_url"`
	APIKeys       []string `yaml:"api_keys"`
	Retries       int      `yaml:"retries"`
	GlobalStyle   string   `yaml:"global_style"`
	NegativeStyle string   `yaml:"negative_style"`
}

type ComfyConfig struct {
	Host       string  `yaml:"host"`
	Port       int     `yaml:"port"`
	Workflow   string  `yaml:"workflow"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Seed       int64   `yaml:"seed"`
	Steps      int     `yaml:"steps"`
	CFG        float64 `yaml:"cfg"`
	Sampler    string  `yaml:"sampler"`
	Scheduler  string  `yaml:"scheduler"`
	TimeoutSec int     `yaml:"timeout_sec"`
	Retries    int     `yaml:"retries"`
}

type StoryboardConfig struct {
	Enabled bool `yaml:"enabled"`
}

type BehaviourConfig struct {
	AllowReuse bool `yaml:"allow_reuse"`
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"

	DefaultGlobalStyle   = "cinematic, soft light, high detail, 35mm, volumetric, tasteful color grading"
	DefaultNegativeStyle = "text, watermark, logo, low quality, blurry, extra fingers, deformed"
)

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := defaults()
	// Validate cannot fail here; it only fills the remaining defaults.
	_ = cfg.Validate()
	return cfg
}

func defaults() *Config {
	cfg := base()
	cfg.Paths = PathsConfig{
		Input:  "data/input",
		Output: "data/output",
	}
	return cfg
}

// base holds the defaults whose zero value is a valid setting. Config files
// are decoded on top of it, so Validate never has to guess whether a zero
// was written or left out.
func base() *Config {
	return &Config{
		Captions: CaptionsConfig{
			Margin:  60,
			Stroke:  2,
			BgAlpha: 0.35,
		},
		LLM:       LLMConfig{Retries: 3},
		Comfy:     ComfyConfig{Seed: 123456, Retries: 2},
		Behaviour: BehaviourConfig{AllowReuse: true},
	}
}

// ComfyURL returns the base HTTP address of the image backend.
func (c ComfyConfig) ComfyURL() string {
	host := c.Host
	if strings.Contains(host, "://") {
		return strings.TrimRight(host, "/")
	}
	return fmt.Sprintf("http://%s:%d", host, c.Port)
}

func (c *Config) Validate() error {
	if c.Paths.Input == "" {
		return fmt.Errorf("paths.input is required")
	}
	if c.Paths.Output == "" {
		return fmt.Errorf("paths.output is required")
	}
	if (c.Whisper.BinaryPath == "") != (c.Whisper.ModelPath == "") {
		return fmt.Errorf("whisper.binary_path and whisper.model_path must be set together")
	}
	if c.Segmentation.Seconds < 0 {
		return fmt.Errorf("segmentation.seconds must be positive")
	}
	if c.Segmentation.MaxChars < 0 {
		return fmt.Errorf("segmentation.max_chars must be positive")
	}
	if c.Captions.BgAlpha < 0 || c.Captions.BgAlpha > 1 {
		return fmt.Errorf("captions.bg_alpha must be between 0 and 1")
	}
	if c.Captions.Margin < 0 || c.Captions.Stroke < 0 {
		return fmt.Errorf("captions.margin and captions.stroke must not be negative")
	}
	if c.LLM.Retries < 0 {
		return fmt.Errorf("llm.retries must not be negative")
	}
	if c.Comfy.Retries < 0 {
		return fmt.Errorf("comfy.retries must not be negative")
	}

	c.Captions.Case = strings.ToLower(c.Captions.Case)
	switch c.Captions.Case {
	case "":
		c.Captions.Case = "title"
	case "title", "sentence", "none":
	default:
		return fmt.Errorf("captions.case %q is not one of title, sentence, none", c.Captions.Case)
	}

	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	switch c.LLM.Provider {
	case "":
		c.LLM.Provider = ProviderGemini
	case ProviderGemini, ProviderOpenAI, ProviderNone:
	default:
		return fmt.Errorf("llm.provider %q is not one of gemini, openai, none", c.LLM.Provider)
	}

	if c.Paths.Archived == "" {
		c.Paths.Archived = "data/archived"
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = "data/temp"
	}
	if c.Paths.StateDB == "" {
		c.Paths.StateDB = "data/state.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 100
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 5
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 8
	}
	if c.Whisper.Language == "" {
		c.Whisper.Language = "en"
	}
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = "ffmpeg"
	}
	if c.FFmpeg.Encoder == "" {
		c.FFmpeg.Encoder = "libx264"
	}
	if c.FFmpeg.VideoBitrate == "" {
		c.FFmpeg.VideoBitrate = "10M"
	}
	if c.FFmpeg.AudioCodec == "" {
		c.FFmpeg.AudioCodec = "aac"
	}
	if c.FFmpeg.AudioBitrate == "" {
		c.FFmpeg.AudioBitrate = "192k"
	}
	if c.FFmpeg.Preset == "" {
		c.FFmpeg.Preset = "medium"
	}
	if c.FFmpeg.FPS == 0 {
		c.FFmpeg.FPS = 30
	}
	if c.Segmentation.Seconds == 0 {
		c.Segmentation.Seconds = 12
	}
	if c.Segmentation.MaxChars == 0 {
		c.Segmentation.MaxChars = 900
	}
	if c.Captions.MaxChars == 0 {
		c.Captions.MaxChars = 88
	}
	if c.Captions.Font == "" {
		c.Captions.Font = "DejaVu Sans"
	}
	if c.Captions.FontSize == 0 {
		c.Captions.FontSize = 42
	}
	if c.LLM.Model == "" {
		if c.LLM.Provider == ProviderOpenAI {
			c.LLM.Model = "gpt-4o-mini"
		} else {
			c.LLM.Model = "gemini-2.5-flash"
		}
	}
	if c.LLM.BaseURL == "" && c.LLM.Provider == ProviderOpenAI {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.GlobalStyle == "" {
		c.LLM.GlobalStyle = DefaultGlobalStyle
	}
	if c.LLM.NegativeStyle == "" {
		c.LLM.NegativeStyle = DefaultNegativeStyle
	}
	if c.Comfy.Host == "" {
		c.Comfy.Host = "127.0.0.1"
	}
	if c.Comfy.Port == 0 {
		c.Comfy.Port = 8188
	}
	if c.Comfy.Width == 0 {
		c.Comfy.Width = 1920
	}
	if c.Comfy.Height == 0 {
		c.Comfy.Height = 1080
	}
	if c.Comfy.Steps == 0 {
		c.Comfy.Steps = 30
	}
	if c.Comfy.CFG == 0 {
		c.Comfy.CFG = 6.5
	}
	if c.Comfy.Sampler == "" {
		c.Comfy.Sampler = "euler"
	}
	if c.Comfy.Scheduler == "" {
		c.Comfy.Scheduler = "normal"
	}
	if c.Comfy.TimeoutSec == 0 {
		c.Comfy.TimeoutSec = 600
	}

	return nil
}
