package config

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

func (c *Config) normalize() error {
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	c.normalizeExtract()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeOutput() error {
	dir := strings.TrimSpace(c.Output.Dir)
	if dir == "" {
		dir = defaultOutputDir
	}
	expanded, err := expandPath(dir)
	if err != nil {
		return err
	}
	c.Output.Dir = expanded

	c.Output.NamePrefix = strings.TrimSpace(c.Output.NamePrefix)
	if c.Output.NamePrefix == "" {
		c.Output.NamePrefix = defaultNamePrefix
	}

	ext := strings.ToLower(strings.TrimSpace(c.Output.MediaExtension))
	if ext == "" {
		ext = defaultMediaExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Output.MediaExtension = ext

	c.Output.SubtitleFormat = strings.ToLower(strings.TrimSpace(c.Output.SubtitleFormat))
	if c.Output.SubtitleFormat == "" {
		c.Output.SubtitleFormat = defaultSubtitleFormat
	}
	c.Output.ManifestFormat = strings.ToLower(strings.TrimSpace(c.Output.ManifestFormat))
	if c.Output.ManifestFormat == "" {
		c.Output.ManifestFormat = defaultManifestFormat
	}
	c.Output.ManifestName = strings.TrimSpace(c.Output.ManifestName)
	if c.Output.ManifestName == "" {
		c.Output.ManifestName = defaultManifestName
	}

	// invalid tags are left untouched for Validate to report
	c.Output.Language = strings.TrimSpace(c.Output.Language)
	if c.Output.Language != "" {
		if tag, err := language.Parse(c.Output.Language); err == nil {
			c.Output.Language = tag.String()
		}
	}
	return nil
}

func (c *Config) normalizeExtract() {
	c.Extract.FFmpegPath = strings.TrimSpace(c.Extract.FFmpegPath)
	if c.Extract.FFmpegPath == "" {
		c.Extract.FFmpegPath = strings.TrimSpace(os.Getenv("KAATNA_FFMPEG_PATH"))
	}
	c.Extract.FFprobePath = strings.TrimSpace(c.Extract.FFprobePath)
	if c.Extract.FFprobePath == "" {
		c.Extract.FFprobePath = strings.TrimSpace(os.Getenv("KAATNA_FFPROBE_PATH"))
	}

	c.Extract.VideoCodec = strings.TrimSpace(c.Extract.VideoCodec)
	c.Extract.AudioCodec = strings.TrimSpace(c.Extract.AudioCodec)
	c.Extract.Preset = strings.TrimSpace(c.Extract.Preset)
	c.Extract.Probe = strings.ToLower(strings.TrimSpace(c.Extract.Probe))
	if c.Extract.Probe == "" {
		c.Extract.Probe = defaultProbeBackend
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
