// Package config loads face matching parameters from the environment.
//
// Defaults are baked into an embedded YAML file; every FACE_* variable
// overrides a single option. Loading never fails: an invalid value falls
// back to its default (or is clamped into range) and a warning is logged.
package config

import (
	_ "embed"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// ImageSize is a width/height pair in pixels.
type ImageSize struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// EncoderConfig points at the external face encoding service.
type EncoderConfig struct {
	URL            string `yaml:"url" json:"url"`                         // base URL of the encoder service
	Dim            int    `yaml:"dim" json:"dim"`                         // expected encoding dimensionality
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"` // per-request timeout
}

// Config holds all face matching parameters.
// Construct with Load; the struct is read-only afterwards.
type Config struct {
	LearningTolerance        float64   `yaml:"learning_tolerance" json:"learning_tolerance"`
	RecognitionTolerance     float64   `yaml:"recognition_tolerance" json:"recognition_tolerance"`
	AdaptiveToleranceEnabled bool      `yaml:"adaptive_tolerance_enabled" json:"adaptive_tolerance_enabled"`
	MinFaceSize              int       `yaml:"min_face_size" json:"min_face_size"`
	MinConfidence            float64   `yaml:"min_confidence" json:"min_confidence"`
	NormalizeBrightness      bool      `yaml:"normalize_brightness" json:"normalize_brightness"`
	TargetImageSize          ImageSize `yaml:"target_image_size" json:"target_image_size"`
	PrimaryStrategy          string    `yaml:"primary_strategy" json:"primary_strategy"`
	EnableFallback           bool      `yaml:"enable_fallback" json:"enable_fallback"`
	LogLevel                 string    `yaml:"log_level" json:"log_level"`
	LogMatchDetails          bool      `yaml:"log_match_details" json:"log_match_details"`

	Encoder EncoderConfig `yaml:"encoder" json:"encoder"`
}

// Load builds the configuration from embedded defaults and FACE_* / ENCODER_*
// environment variables. It never fails; bad input is reported and replaced.
func Load() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		// The defaults ship inside the binary, so this cannot happen
		// unless the build itself is broken.
		panic("failed to unmarshal embedded default.yaml: " + err.Error())
	}

	cfg.LearningTolerance = envFloat("FACE_LEARNING_TOLERANCE", cfg.LearningTolerance)
	cfg.RecognitionTolerance = envFloat("FACE_RECOGNITION_TOLERANCE", cfg.RecognitionTolerance)
	cfg.AdaptiveToleranceEnabled = envBool("FACE_ADAPTIVE_TOLERANCE_ENABLED", cfg.AdaptiveToleranceEnabled)
	cfg.MinFaceSize = envInt("FACE_MIN_SIZE", cfg.MinFaceSize)
	cfg.MinConfidence = envFloat("FACE_MIN_CONFIDENCE", cfg.MinConfidence)
	cfg.NormalizeBrightness = envBool("FACE_NORMALIZE_BRIGHTNESS", cfg.NormalizeBrightness)
	cfg.TargetImageSize = envSize("FACE_TARGET_IMAGE_SIZE", cfg.TargetImageSize)
	cfg.PrimaryStrategy = envString("FACE_PRIMARY_STRATEGY", cfg.PrimaryStrategy)
	cfg.EnableFallback = envBool("FACE_ENABLE_FALLBACK", cfg.EnableFallback)
	cfg.LogLevel = envString("FACE_LOG_LEVEL", cfg.LogLevel)
	cfg.LogMatchDetails = envBool("FACE_LOG_MATCH_DETAILS", cfg.LogMatchDetails)

	cfg.Encoder.URL = envString("ENCODER_URL", cfg.Encoder.URL)
	cfg.Encoder.Dim = envInt("ENCODER_DIM", cfg.Encoder.Dim)
	cfg.Encoder.TimeoutSeconds = envInt("ENCODER_TIMEOUT_SECONDS", cfg.Encoder.TimeoutSeconds)

	cfg.validate()
	return &cfg
}

// validate clamps out-of-range values and normalizes enums,
// logging a warning for every correction.
func (c *Config) validate() {
	if c.LearningTolerance < 0 || c.LearningTolerance > 1 {
		slog.Warn("learning_tolerance out of range, clamping", "value", c.LearningTolerance)
		c.LearningTolerance = clamp01(c.LearningTolerance)
	}
	if c.RecognitionTolerance < 0 || c.RecognitionTolerance > 1 {
		slog.Warn("recognition_tolerance out of range, clamping", "value", c.RecognitionTolerance)
		c.RecognitionTolerance = clamp01(c.RecognitionTolerance)
	}
	if c.MinFaceSize < 1 {
		slog.Warn("min_face_size must be at least 1, clamping", "value", c.MinFaceSize)
		c.MinFaceSize = 1
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		slog.Warn("min_confidence out of range, clamping", "value", c.MinConfidence)
		c.MinConfidence = clamp01(c.MinConfidence)
	}
	if c.TargetImageSize.Width < 1 || c.TargetImageSize.Height < 1 {
		slog.Warn("target_image_size must have positive dimensions, clamping",
			"width", c.TargetImageSize.Width, "height", c.TargetImageSize.Height)
		c.TargetImageSize.Width = max(1, c.TargetImageSize.Width)
		c.TargetImageSize.Height = max(1, c.TargetImageSize.Height)
	}

	switch name := strings.ToLower(c.PrimaryStrategy); name {
	case "distance", "landmarks", "hybrid":
		c.PrimaryStrategy = name
	default:
		slog.Warn("invalid primary_strategy, using default",
			"value", c.PrimaryStrategy, "default", "distance")
		c.PrimaryStrategy = "distance"
	}

	switch level := strings.ToUpper(c.LogLevel); level {
	case "DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL":
		c.LogLevel = level
	default:
		slog.Warn("invalid log_level, using default",
			"value", c.LogLevel, "default", "INFO")
		c.LogLevel = "INFO"
	}

	if c.Encoder.Dim < 1 {
		slog.Warn("encoder dim must be at least 1, using default", "value", c.Encoder.Dim)
		c.Encoder.Dim = 128
	}
	if c.Encoder.TimeoutSeconds < 1 {
		slog.Warn("encoder timeout must be at least 1 second, using default",
			"value", c.Encoder.TimeoutSeconds)
		c.Encoder.TimeoutSeconds = 30
	}
}

// SlogLevel maps LogLevel onto slog levels.
// CRITICAL has no slog equivalent and maps to Error.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "DEBUG":
		return slog.LevelDebug
	case "WARNING":
		return slog.LevelWarn
	case "ERROR", "CRITICAL":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}

// envString reads an environment variable, keeping the default when unset.
func envString(key, def string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return def
}

// envInt reads an environment variable and parses it as an integer.
// Returns the default if the variable is unset or unparseable.
func envInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		slog.Warn("invalid integer value, using default", "key", key, "value", s, "default", def)
		return def
	}
	return n
}

// envFloat reads an environment variable and parses it as a finite float.
// Returns the default if the variable is unset, unparseable, or not finite.
func envFloat(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		slog.Warn("invalid float value, using default", "key", key, "value", s, "default", def)
		return def
	}
	return v
}

// envBool reads an environment variable and parses it as a boolean.
// Accepts true/1/yes/on and false/0/no/off, case-insensitive.
func envBool(key string, def bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		slog.Warn("invalid boolean value, using default", "key", key, "value", s, "default", def)
		return def
	}
}

// envSize reads an environment variable and parses it as a WIDTHxHEIGHT
// or WIDTH,HEIGHT pair.
func envSize(key string, def ImageSize) ImageSize {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	parts := strings.Split(strings.ReplaceAll(s, "x", ","), ",")
	if len(parts) != 2 {
		slog.Warn("invalid size value, using default", "key", key, "value", s, "default", def)
		return def
	}
	width, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	height, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil {
		slog.Warn("invalid size value, using default", "key", key, "value", s, "default", def)
		return def
	}
	return ImageSize{Width: width, Height: height}
}
