package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nguyentantai21042004/video-transcriber/internal/language"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Whisper     WhisperConfig     `yaml:"whisper"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
	Downloader  DownloaderConfig  `yaml:"downloader"`
	Paths       PathsConfig       `yaml:"paths"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
	Watch       WatchConfig       `yaml:"watch"`
	Gemini      GeminiConfig      `yaml:"gemini"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

type WhisperConfig struct {
	BinaryPath   string `yaml:"binary_path"`
	ModelDir     string `yaml:"model_dir"`
	ModelSize    string `yaml:"model_size"`
	Threads      int    `yaml:"threads"`
	Prompt       string `yaml:"prompt"`
	AutoDownload bool   `yaml:"auto_download"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
}

type DownloaderConfig struct {
	BinaryPath   string        `yaml:"binary_path"`
	AudioFormat  string        `yaml:"audio_format"`
	AudioQuality string        `yaml:"audio_quality"`
	Timeout      time.Duration `yaml:"timeout"`
}

type PathsConfig struct {
	// Workspace is the scratch root; empty means a fresh temp dir per process.
	Workspace string `yaml:"workspace"`
	Input     string `yaml:"input"`
	Output    string `yaml:"output"`
	Archived  string `yaml:"archived"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
	// MaxPending caps jobs queued or running at once; uploads are held in
	// memory until their job runs.
	MaxPending   int `yaml:"max_pending"`
	JobRetention int `yaml:"job_retention"`
}

type WatchConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Language string `yaml:"language"`
}

type GeminiConfig struct {
	Model   string   `yaml:"model"`
	APIKeys []string `yaml:"api_keys"`
}

// Load reads a YAML config file, validates it and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Default returns a validated configuration for running without a file.
func Default() *Config {
	cfg := &Config{
		Whisper: WhisperConfig{AutoDownload: true},
	}
	applyEnv(cfg)
	// Defaults alone always validate.
	_ = cfg.Validate()
	return cfg
}

func applyEnv(cfg *Config) {
	if len(cfg.Gemini.APIKeys) > 0 {
		return
	}
	raw := os.Getenv("GEMINI_API_KEYS")
	for _, key := range strings.Split(raw, ",") {
		if key = strings.TrimSpace(key); key != "" {
			cfg.Gemini.APIKeys = append(cfg.Gemini.APIKeys, key)
		}
	}
}

func (c *Config) Validate() error {
	if c.Server.MaxUploadMB < 0 {
		return fmt.Errorf("server.max_upload_mb must not be negative")
	}
	if c.Whisper.Threads < 0 {
		return fmt.Errorf("whisper.threads must not be negative")
	}
	if c.Performance.MaxConcurrent < 0 {
		return fmt.Errorf("performance.max_concurrent must not be negative")
	}
	if c.Performance.MaxPending < 0 {
		return fmt.Errorf("performance.max_pending must not be negative")
	}
	if c.Downloader.Timeout < 0 {
		return fmt.Errorf("downloader.timeout must not be negative")
	}
	if _, ok := language.Normalize(c.Watch.Language); !ok {
		return fmt.Errorf("watch.language %q is not a supported language", c.Watch.Language)
	}
	if format := strings.ToLower(c.Logging.Format); format != "" && format != "text" && format != "json" {
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8501"
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 500
	}
	if c.Whisper.BinaryPath == "" {
		c.Whisper.BinaryPath = "whisper-cli"
	}
	if c.Whisper.ModelDir == "" {
		c.Whisper.ModelDir = "models"
	}
	if c.Whisper.ModelSize == "" {
		c.Whisper.ModelSize = "small"
	}
	if c.Whisper.Threads == 0 {
		c.Whisper.Threads = 4
	}
	if c.FFmpeg.BinaryPath == "" {
		c.FFmpeg.BinaryPath = "ffmpeg"
	}
	if c.Downloader.BinaryPath == "" {
		c.Downloader.BinaryPath = "yt-dlp"
	}
	if c.Downloader.AudioFormat == "" {
		c.Downloader.AudioFormat = "mp3"
	}
	if c.Downloader.AudioQuality == "" {
		c.Downloader.AudioQuality = "192K"
	}
	if c.Downloader.Timeout == 0 {
		c.Downloader.Timeout = 10 * time.Minute
	}
	if c.Paths.Input == "" {
		c.Paths.Input = "data/input"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "data/output"
	}
	if c.Paths.Archived == "" {
		c.Paths.Archived = "data/archived"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 1
	}
	if c.Performance.MaxPending == 0 {
		c.Performance.MaxPending = 16
	}
	if c.Performance.JobRetention == 0 {
		c.Performance.JobRetention = 100
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}

	return nil
}

// MaxUploadBytes converts the upload limit to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}
