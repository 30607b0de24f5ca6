// Package config loads the process-wide, immutable configuration for the
// render core via viper: defaults, then config.yaml, then VIDEOCRAFT_
// environment overrides. There is no mutable global — Load returns one
// *Config that every constructor takes as an explicit argument.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Toolchain ToolchainConfig `mapstructure:"toolchain"`
	Subtitles SubtitlesConfig `mapstructure:"subtitles"`
	Mixing    MixingConfig    `mapstructure:"mixing"`
	TTSCache  TTSCacheConfig  `mapstructure:"tts_cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Job       JobConfig       `mapstructure:"job"`
	Log       LogConfig       `mapstructure:"log"`
	Security  SecurityConfig  `mapstructure:"security"`
	External  ExternalConfig  `mapstructure:"external"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ToolchainConfig points at the external encoder/probe binaries (§4.1, §6).
// BinaryPath/ProbePath are handed to os/exec as given, so a bare name is
// looked up on PATH; no bundled copy is searched.
type ToolchainConfig struct {
	BinaryPath         string        `mapstructure:"binary_path"`
	ProbePath          string        `mapstructure:"probe_path"`
	DefaultTimeout     time.Duration `mapstructure:"default_timeout"`
	ProbeTimeout       time.Duration `mapstructure:"probe_timeout"`
	HWEncoderTimeout   time.Duration `mapstructure:"hw_encoder_timeout"`
	SegmentTimeout     time.Duration `mapstructure:"segment_timeout"`
	ConcatTimeout      time.Duration `mapstructure:"concat_timeout"`
	BGMMixTimeout      time.Duration `mapstructure:"bgm_mix_timeout"`
	OverallJobTimeout  time.Duration `mapstructure:"overall_job_timeout"`
	ProgressInterval   time.Duration `mapstructure:"progress_interval"`
	PreferredHWEncoder string        `mapstructure:"preferred_hw_encoder"`
}

type SubtitlesConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	DefaultFont      string `mapstructure:"default_font"`
	ReferenceHeight  int    `mapstructure:"reference_height"`
	DefaultPlayResX  int    `mapstructure:"default_play_res_x"`
	DefaultPlayResY  int    `mapstructure:"default_play_res_y"`
}

// MixingConfig carries the tunable volume baselines the spec's open
// question leaves as a configuration decision rather than a hardcoded
// constant (§9).
type MixingConfig struct {
	VoiceOverBoostDB      float64 `mapstructure:"voice_over_boost_db"`
	OriginalAudioAttenuation float64 `mapstructure:"original_audio_attenuation"`
	AudioSampleRate       int     `mapstructure:"audio_sample_rate"`
}

type TTSCacheConfig struct {
	Dir                  string `mapstructure:"dir"`
	SynthesisConcurrency int    `mapstructure:"synthesis_concurrency"`
}

type StorageConfig struct {
	OutputDir       string        `mapstructure:"output_dir"`
	TempDir         string        `mapstructure:"temp_dir"`
	ProjectsDir     string        `mapstructure:"projects_dir"`
	MaxFileSize     int64         `mapstructure:"max_file_size"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	RetentionDays   int           `mapstructure:"retention_days"`
}

type JobConfig struct {
	Workers              int           `mapstructure:"workers"`
	QueueSize            int           `mapstructure:"queue_size"`
	HeartbeatInterval    time.Duration `mapstructure:"heartbeat_interval"`
	MaxMissedHeartbeats  int           `mapstructure:"max_missed_heartbeats"`
	StdoutIdleTimeout    time.Duration `mapstructure:"stdout_idle_timeout"`
	ProjectLockTimeout   time.Duration `mapstructure:"project_lock_timeout"`
	CancelGracePeriod    time.Duration `mapstructure:"cancel_grace_period"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ExternalConfig points at the out-of-process collaborators named in §6:
// TTS synthesis, font installation, and watermark overlay. All three are
// black boxes reached over HTTP. With an unset URL the font provider
// reports every font as missing, watermark overlay returns an error (so
// a tier that requires a watermark fails its export), and TTS synthesis
// returns an InternalError.
type ExternalConfig struct {
	TTSEndpoint       string        `mapstructure:"tts_endpoint"`
	FontEndpoint      string        `mapstructure:"font_endpoint"`
	WatermarkEndpoint string        `mapstructure:"watermark_endpoint"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	RenderWorkerPath  string        `mapstructure:"render_worker_path"`
}

type SecurityConfig struct {
	APIKey         string   `mapstructure:"api_key"`
	RateLimit      int      `mapstructure:"rate_limit"`
	EnableAuth     bool     `mapstructure:"enable_auth"`
	AllowedDomains []string `mapstructure:"allowed_domains"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/videocraft-render/")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvPrefix("VIDEOCRAFT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = viper.BindEnv("security.allowed_domains", "VIDEOCRAFT_SECURITY_ALLOWED_DOMAINS")
	_ = viper.BindEnv("security.api_key", "VIDEOCRAFT_SECURITY_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Security.EnableAuth && cfg.Security.APIKey == "" && !viper.IsSet("security.api_key") {
		generated, err := generateSecureAPIKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate API key: %w", err)
		}
		cfg.Security.APIKey = generated
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 3002)

	viper.SetDefault("toolchain.binary_path", "ffmpeg")
	viper.SetDefault("toolchain.probe_path", "ffprobe")
	viper.SetDefault("toolchain.default_timeout", "5s")
	viper.SetDefault("toolchain.probe_timeout", "5s")
	viper.SetDefault("toolchain.hw_encoder_timeout", "5s")
	viper.SetDefault("toolchain.segment_timeout", "300s")
	viper.SetDefault("toolchain.concat_timeout", "600s")
	viper.SetDefault("toolchain.bgm_mix_timeout", "900s")
	viper.SetDefault("toolchain.overall_job_timeout", "3600s")
	viper.SetDefault("toolchain.progress_interval", "500ms")
	viper.SetDefault("toolchain.preferred_hw_encoder", "")

	viper.SetDefault("subtitles.enabled", true)
	viper.SetDefault("subtitles.default_font", "Arial")
	viper.SetDefault("subtitles.reference_height", 288)
	viper.SetDefault("subtitles.default_play_res_x", 1920)
	viper.SetDefault("subtitles.default_play_res_y", 1080)

	viper.SetDefault("mixing.voice_over_boost_db", 6.0)
	viper.SetDefault("mixing.original_audio_attenuation", 0.7)
	viper.SetDefault("mixing.audio_sample_rate", 48000)

	viper.SetDefault("tts_cache.dir", "./cache/tts")
	viper.SetDefault("tts_cache.synthesis_concurrency", 2)

	viper.SetDefault("storage.output_dir", "./generated_videos")
	viper.SetDefault("storage.temp_dir", "./temp")
	viper.SetDefault("storage.projects_dir", "./projects")
	viper.SetDefault("storage.max_file_size", 1073741824)
	viper.SetDefault("storage.cleanup_interval", "1h")
	viper.SetDefault("storage.retention_days", 7)

	viper.SetDefault("external.tts_endpoint", "")
	viper.SetDefault("external.font_endpoint", "")
	viper.SetDefault("external.watermark_endpoint", "")
	viper.SetDefault("external.request_timeout", "30s")
	viper.SetDefault("external.render_worker_path", "render_worker")

	viper.SetDefault("job.workers", 4)
	viper.SetDefault("job.queue_size", 100)
	viper.SetDefault("job.heartbeat_interval", "10s")
	viper.SetDefault("job.max_missed_heartbeats", 3)
	viper.SetDefault("job.stdout_idle_timeout", "1h")
	viper.SetDefault("job.project_lock_timeout", "5s")
	viper.SetDefault("job.cancel_grace_period", "500ms")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("security.rate_limit", 100)
	viper.SetDefault("security.enable_auth", true)
	viper.SetDefault("security.allowed_domains", []string{})
}

// generateSecureAPIKey generates a cryptographically secure API key.
func generateSecureAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
