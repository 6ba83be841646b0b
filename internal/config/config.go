package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/mgpai22/kaatna/internal/faults"
)

// Segment controls where cuts fall.
type Segment struct {
	TargetSeconds float64 `toml:"target_seconds"`
	ExtendTail    bool    `toml:"extend_tail"`
}

// Output controls artifact names and locations.
type Output struct {
	Dir            string `toml:"dir"`
	NamePrefix     string `toml:"name_prefix"`
	MediaExtension string `toml:"media_extension"`
	SubtitleFormat string `toml:"subtitle_format"`
	ManifestFormat string `toml:"manifest_format"`
	ManifestName   string `toml:"manifest_name"`
	Language       string `toml:"language"`
	KeepPartial    bool   `toml:"keep_partial"`
}

// Extract configures ffmpeg.
type Extract struct {
	FFmpegPath  string  `toml:"ffmpeg_path"`
	FFprobePath string  `toml:"ffprobe_path"`
	Concurrency int     `toml:"concurrency"`
	StreamCopy  bool    `toml:"stream_copy"`
	VideoCodec  string  `toml:"video_codec"`
	AudioCodec  string  `toml:"audio_codec"`
	Preset      string  `toml:"preset"`
	CRF         int     `toml:"crf"`
	FrameRate   float64 `toml:"frame_rate"`
	Probe       string  `toml:"probe"`
}

type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

type Config struct {
	Segment Segment `toml:"segment"`
	Output  Output  `toml:"output"`
	Extract Extract `toml:"extract"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/kaatna/config.toml")
}

// Load locates, parses, and validates a configuration file. It reports the
// path it considered and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, faults.Wrap(faults.ErrConfig, "open config", resolvedPath, err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, faults.Wrap(faults.ErrConfig, "parse config", resolvedPath, err)
		}
	}

	if err := cfg.Prepare(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Prepare normalizes and validates; call it again after overriding fields.
func (c *Config) Prepare() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, faults.Errorf(faults.ErrConfig, "load config", "config file %s does not exist", expanded)
			}
			return "", false, faults.Wrap(faults.ErrConfig, "stat config", expanded, err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("kaatna.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// TargetDuration is the segment target as a duration, truncated to milliseconds.
func (c *Config) TargetDuration() time.Duration {
	ms := int64(c.Segment.TargetSeconds * 1000)
	return time.Duration(ms) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
