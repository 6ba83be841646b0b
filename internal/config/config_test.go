package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/mgpai22/kaatna/internal/faults"
)

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("KAATNA_FFMPEG_PATH", "")
	t.Setenv("KAATNA_FFPROBE_PATH", "")
	t.Chdir(t.TempDir())

	cfg, path, exists, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Errorf("no config file should exist, got %s", path)
	}
	if want := filepath.Join(home, ".config", "kaatna", "config.toml"); path != want {
		t.Errorf("expected default path %s, got %s", want, path)
	}
	if cfg.TargetDuration() != 2*time.Minute {
		t.Errorf("expected 2m target, got %s", cfg.TargetDuration())
	}
	if !filepath.IsAbs(cfg.Output.Dir) {
		t.Errorf("output dir should be absolute, got %s", cfg.Output.Dir)
	}
	if cfg.Extract.Concurrency != 3 || cfg.Output.SubtitleFormat != "vtt" || cfg.Output.ManifestFormat != "json" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	content := `
[segment]
target_seconds = 30.5
extend_tail = true

[output]
dir = "~/clips"
subtitle_format = "SRT"
manifest_format = "sqlite"
language = "EN-us"
media_extension = "mkv"

[extract]
concurrency = 6
stream_copy = true
probe = "Vidio"

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Errorf("expected %s to be loaded, got %s (exists=%v)", path, resolved, exists)
	}
	if cfg.TargetDuration() != 30500*time.Millisecond || !cfg.Segment.ExtendTail {
		t.Errorf("unexpected segment config: %+v", cfg.Segment)
	}
	home, _ := os.UserHomeDir()
	if cfg.Output.Dir != filepath.Join(home, "clips") {
		t.Errorf("expected ~ expansion, got %s", cfg.Output.Dir)
	}
	if cfg.Output.SubtitleFormat != "srt" || cfg.Output.ManifestFormat != "sqlite" {
		t.Errorf("formats not normalized: %+v", cfg.Output)
	}
	if cfg.Output.Language != "en-US" {
		t.Errorf("expected canonical language en-US, got %q", cfg.Output.Language)
	}
	if cfg.Output.MediaExtension != ".mkv" {
		t.Errorf("expected .mkv, got %q", cfg.Output.MediaExtension)
	}
	if cfg.Extract.Concurrency != 6 || !cfg.Extract.StreamCopy || cfg.Extract.Probe != "vidio" {
		t.Errorf("unexpected extract config: %+v", cfg.Extract)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadProjectFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile("kaatna.toml", []byte("[extract]\nconcurrency = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, path, exists, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || filepath.Base(path) != "kaatna.toml" {
		t.Errorf("expected project config, got %s (exists=%v)", path, exists)
	}
	if cfg.Extract.Concurrency != 1 {
		t.Errorf("expected concurrency 1, got %d", cfg.Extract.Concurrency)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{name: "syntax", content: "[segment\ntarget_seconds = 1"},
		{name: "unknown key", content: "[segment]\ntarget_minutes = 2\n"},
		{name: "zero target", content: "[segment]\ntarget_seconds = 0\n"},
		{name: "negative target", content: "[segment]\ntarget_seconds = -5\n"},
		{name: "sub-millisecond target", content: "[segment]\ntarget_seconds = 0.0001\n"},
		{name: "bad subtitle format", content: "[output]\nsubtitle_format = \"txt\"\n"},
		{name: "bad manifest format", content: "[output]\nmanifest_format = \"yaml\"\n"},
		{name: "bad language", content: "[output]\nlanguage = \"not a tag\"\n"},
		{name: "prefix with separator", content: "[output]\nname_prefix = \"a/b\"\n"},
		{name: "zero concurrency", content: "[extract]\nconcurrency = 0\n"},
		{name: "bad crf", content: "[extract]\ncrf = 80\n"},
		{name: "bad probe", content: "[extract]\nprobe = \"mediainfo\"\n"},
		{name: "bad level", content: "[logging]\nlevel = \"loud\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := Load(path)
			if !errors.Is(err, faults.ErrConfig) {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, _, _, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, faults.ErrConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestEnvFallbackForBinaries(t *testing.T) {
	t.Setenv("KAATNA_FFMPEG_PATH", "/env/ffmpeg")
	t.Setenv("KAATNA_FFPROBE_PATH", "/env/ffprobe")

	cfg := Default()
	cfg.Extract.FFprobePath = "/file/ffprobe"
	if err := cfg.Prepare(); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if cfg.Extract.FFmpegPath != "/env/ffmpeg" {
		t.Errorf("expected env ffmpeg path, got %q", cfg.Extract.FFmpegPath)
	}
	if cfg.Extract.FFprobePath != "/file/ffprobe" {
		t.Errorf("file value should win over env, got %q", cfg.Extract.FFprobePath)
	}
}

func TestCreateSampleLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}

	loaded, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("sample does not load: %v", err)
	}
	if loaded.Segment.TargetSeconds != defaultTargetSeconds {
		t.Errorf("sample target differs from default: %v", loaded.Segment.TargetSeconds)
	}
}
