package config

import (
	"log/slog"
	"os"
	"testing"
)

// faceEnvKeys lists every environment variable Load consults.
var faceEnvKeys = []string{
	"FACE_LEARNING_TOLERANCE",
	"FACE_RECOGNITION_TOLERANCE",
	"FACE_ADAPTIVE_TOLERANCE_ENABLED",
	"FACE_MIN_SIZE",
	"FACE_MIN_CONFIDENCE",
	"FACE_NORMALIZE_BRIGHTNESS",
	"FACE_TARGET_IMAGE_SIZE",
	"FACE_PRIMARY_STRATEGY",
	"FACE_ENABLE_FALLBACK",
	"FACE_LOG_LEVEL",
	"FACE_LOG_MATCH_DETAILS",
	"ENCODER_URL",
	"ENCODER_DIM",
	"ENCODER_TIMEOUT_SECONDS",
}

func clearFaceEnv(t *testing.T) {
	t.Helper()
	for _, key := range faceEnvKeys {
		// Setenv registers cleanup so later tests see the original value.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearFaceEnv(t)

	cfg := Load()

	if cfg.LearningTolerance != 0.45 {
		t.Errorf("expected learning tolerance 0.45, got %f", cfg.LearningTolerance)
	}
	if cfg.RecognitionTolerance != 0.54 {
		t.Errorf("expected recognition tolerance 0.54, got %f", cfg.RecognitionTolerance)
	}
	if !cfg.AdaptiveToleranceEnabled {
		t.Error("expected adaptive tolerance enabled by default")
	}
	if cfg.MinFaceSize != 80 {
		t.Errorf("expected min face size 80, got %d", cfg.MinFaceSize)
	}
	if cfg.MinConfidence != 0.7 {
		t.Errorf("expected min confidence 0.7, got %f", cfg.MinConfidence)
	}
	if !cfg.NormalizeBrightness {
		t.Error("expected brightness normalization enabled by default")
	}
	if cfg.TargetImageSize.Width != 800 || cfg.TargetImageSize.Height != 800 {
		t.Errorf("expected target image size 800x800, got %dx%d",
			cfg.TargetImageSize.Width, cfg.TargetImageSize.Height)
	}
	if cfg.PrimaryStrategy != "distance" {
		t.Errorf("expected primary strategy 'distance', got '%s'", cfg.PrimaryStrategy)
	}
	if !cfg.EnableFallback {
		t.Error("expected fallback enabled by default")
	}
	if cfg.LogLevel != "INFO" {
		t.Errorf("expected log level 'INFO', got '%s'", cfg.LogLevel)
	}
	if !cfg.LogMatchDetails {
		t.Error("expected match detail logging enabled by default")
	}
	if cfg.Encoder.URL != "http://localhost:8000" {
		t.Errorf("expected default encoder URL, got '%s'", cfg.Encoder.URL)
	}
	if cfg.Encoder.Dim != 128 {
		t.Errorf("expected default encoder dim 128, got %d", cfg.Encoder.Dim)
	}
}

func TestLoad_AppliesEnvironment(t *testing.T) {
	clearFaceEnv(t)
	t.Setenv("FACE_LEARNING_TOLERANCE", "0.3")
	t.Setenv("FACE_RECOGNITION_TOLERANCE", "0.6")
	t.Setenv("FACE_ADAPTIVE_TOLERANCE_ENABLED", "no")
	t.Setenv("FACE_MIN_SIZE", "100")
	t.Setenv("FACE_MIN_CONFIDENCE", "0.5")
	t.Setenv("FACE_NORMALIZE_BRIGHTNESS", "off")
	t.Setenv("FACE_TARGET_IMAGE_SIZE", "1024,768")
	t.Setenv("FACE_PRIMARY_STRATEGY", "hybrid")
	t.Setenv("FACE_ENABLE_FALLBACK", "0")
	t.Setenv("FACE_LOG_LEVEL", "debug")
	t.Setenv("FACE_LOG_MATCH_DETAILS", "FALSE")

	cfg := Load()

	if cfg.LearningTolerance != 0.3 {
		t.Errorf("expected learning tolerance 0.3, got %f", cfg.LearningTolerance)
	}
	if cfg.RecognitionTolerance != 0.6 {
		t.Errorf("expected recognition tolerance 0.6, got %f", cfg.RecognitionTolerance)
	}
	if cfg.AdaptiveToleranceEnabled {
		t.Error("expected adaptive tolerance disabled")
	}
	if cfg.MinFaceSize != 100 {
		t.Errorf("expected min face size 100, got %d", cfg.MinFaceSize)
	}
	if cfg.MinConfidence != 0.5 {
		t.Errorf("expected min confidence 0.5, got %f", cfg.MinConfidence)
	}
	if cfg.NormalizeBrightness {
		t.Error("expected brightness normalization disabled")
	}
	if cfg.TargetImageSize.Width != 1024 || cfg.TargetImageSize.Height != 768 {
		t.Errorf("expected target image size 1024x768, got %dx%d",
			cfg.TargetImageSize.Width, cfg.TargetImageSize.Height)
	}
	if cfg.PrimaryStrategy != "hybrid" {
		t.Errorf("expected primary strategy 'hybrid', got '%s'", cfg.PrimaryStrategy)
	}
	if cfg.EnableFallback {
		t.Error("expected fallback disabled")
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("expected log level 'DEBUG', got '%s'", cfg.LogLevel)
	}
	if cfg.LogMatchDetails {
		t.Error("expected match detail logging disabled")
	}
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearFaceEnv(t)
	t.Setenv("FACE_LEARNING_TOLERANCE", "not_a_number")
	t.Setenv("FACE_MIN_SIZE", "eighty")
	t.Setenv("FACE_ADAPTIVE_TOLERANCE_ENABLED", "maybe")
	t.Setenv("FACE_TARGET_IMAGE_SIZE", "100,200,300")
	t.Setenv("FACE_PRIMARY_STRATEGY", "quantum")
	t.Setenv("FACE_LOG_LEVEL", "chatty")

	cfg := Load()

	if cfg.LearningTolerance != 0.45 {
		t.Errorf("expected default learning tolerance for invalid input, got %f", cfg.LearningTolerance)
	}
	if cfg.MinFaceSize != 80 {
		t.Errorf("expected default min face size for invalid input, got %d", cfg.MinFaceSize)
	}
	if !cfg.AdaptiveToleranceEnabled {
		t.Error("expected default adaptive tolerance for invalid input")
	}
	if cfg.TargetImageSize.Width != 800 || cfg.TargetImageSize.Height != 800 {
		t.Errorf("expected default target image size for invalid input, got %dx%d",
			cfg.TargetImageSize.Width, cfg.TargetImageSize.Height)
	}
	if cfg.PrimaryStrategy != "distance" {
		t.Errorf("expected default primary strategy for invalid input, got '%s'", cfg.PrimaryStrategy)
	}
	if cfg.LogLevel != "INFO" {
		t.Errorf("expected default log level for invalid input, got '%s'", cfg.LogLevel)
	}
}

func TestLoad_ClampsOutOfRangeValues(t *testing.T) {
	clearFaceEnv(t)
	t.Setenv("FACE_LEARNING_TOLERANCE", "1.5")
	t.Setenv("FACE_RECOGNITION_TOLERANCE", "-0.2")
	t.Setenv("FACE_MIN_SIZE", "-10")
	t.Setenv("FACE_MIN_CONFIDENCE", "2.0")
	t.Setenv("FACE_TARGET_IMAGE_SIZE", "0,500")

	cfg := Load()

	if cfg.LearningTolerance != 1.0 {
		t.Errorf("expected learning tolerance clamped to 1.0, got %f", cfg.LearningTolerance)
	}
	if cfg.RecognitionTolerance != 0.0 {
		t.Errorf("expected recognition tolerance clamped to 0.0, got %f", cfg.RecognitionTolerance)
	}
	if cfg.MinFaceSize != 1 {
		t.Errorf("expected min face size clamped to 1, got %d", cfg.MinFaceSize)
	}
	if cfg.MinConfidence != 1.0 {
		t.Errorf("expected min confidence clamped to 1.0, got %f", cfg.MinConfidence)
	}
	if cfg.TargetImageSize.Width != 1 || cfg.TargetImageSize.Height != 500 {
		t.Errorf("expected target image size clamped to 1x500, got %dx%d",
			cfg.TargetImageSize.Width, cfg.TargetImageSize.Height)
	}
}

func TestLoad_TargetImageSizeFormats(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		width  int
		height int
	}{
		{"comma separated", "1024,768", 1024, 768},
		{"x separated", "640x480", 640, 480},
		{"spaces around parts", " 320 , 240 ", 320, 240},
		{"single value falls back", "800", 800, 800},
		{"garbage falls back", "abc,def", 800, 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearFaceEnv(t)
			t.Setenv("FACE_TARGET_IMAGE_SIZE", tt.value)

			cfg := Load()

			if cfg.TargetImageSize.Width != tt.width || cfg.TargetImageSize.Height != tt.height {
				t.Errorf("parsed %q as %dx%d, want %dx%d", tt.value,
					cfg.TargetImageSize.Width, cfg.TargetImageSize.Height, tt.width, tt.height)
			}
		})
	}
}

func TestLoad_StrategyCaseInsensitive(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"DISTANCE", "distance"},
		{"Landmarks", "landmarks"},
		{"HyBrId", "hybrid"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearFaceEnv(t)
			t.Setenv("FACE_PRIMARY_STRATEGY", tt.value)

			cfg := Load()

			if cfg.PrimaryStrategy != tt.want {
				t.Errorf("expected strategy '%s', got '%s'", tt.want, cfg.PrimaryStrategy)
			}
		})
	}
}

func TestLoad_BoolFormats(t *testing.T) {
	trueValues := []string{"true", "TRUE", "1", "yes", "Yes", "on", "ON"}
	falseValues := []string{"false", "False", "0", "no", "NO", "off", "Off"}

	for _, v := range trueValues {
		t.Run("true/"+v, func(t *testing.T) {
			clearFaceEnv(t)
			t.Setenv("FACE_ENABLE_FALLBACK", v)
			if cfg := Load(); !cfg.EnableFallback {
				t.Errorf("expected %q to parse as true", v)
			}
		})
	}
	for _, v := range falseValues {
		t.Run("false/"+v, func(t *testing.T) {
			clearFaceEnv(t)
			t.Setenv("FACE_ENABLE_FALLBACK", v)
			if cfg := Load(); cfg.EnableFallback {
				t.Errorf("expected %q to parse as false", v)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"CRITICAL", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := Config{LogLevel: tt.level}
			if got := cfg.SlogLevel(); got != tt.want {
				t.Errorf("SlogLevel(%s) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestLoad_EncoderOverrides(t *testing.T) {
	clearFaceEnv(t)
	t.Setenv("ENCODER_URL", "http://encoder:9000")
	t.Setenv("ENCODER_DIM", "512")
	t.Setenv("ENCODER_TIMEOUT_SECONDS", "5")

	cfg := Load()

	if cfg.Encoder.URL != "http://encoder:9000" {
		t.Errorf("expected encoder URL 'http://encoder:9000', got '%s'", cfg.Encoder.URL)
	}
	if cfg.Encoder.Dim != 512 {
		t.Errorf("expected encoder dim 512, got %d", cfg.Encoder.Dim)
	}
	if cfg.Encoder.TimeoutSeconds != 5 {
		t.Errorf("expected encoder timeout 5s, got %d", cfg.Encoder.TimeoutSeconds)
	}
}

func TestLoad_InvalidEncoderDim(t *testing.T) {
	clearFaceEnv(t)
	t.Setenv("ENCODER_DIM", "-4")

	cfg := Load()

	if cfg.Encoder.Dim != 128 {
		t.Errorf("expected default encoder dim 128 for invalid input, got %d", cfg.Encoder.Dim)
	}
}
