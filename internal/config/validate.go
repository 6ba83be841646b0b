package config

import (
	"math"
	"strings"

	"golang.org/x/text/language"

	"github.com/mgpai22/kaatna/internal/faults"
	"github.com/mgpai22/kaatna/internal/manifest"
	"github.com/mgpai22/kaatna/internal/subtitle"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSegment(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateExtract(); err != nil {
		return err
	}
	return c.validateLogging()
}

func invalid(format string, args ...any) error {
	return faults.Errorf(faults.ErrConfig, "validate config", format, args...)
}

func (c *Config) validateSegment() error {
	t := c.Segment.TargetSeconds
	if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
		return invalid("segment.target_seconds must be positive, got %v", t)
	}
	if c.TargetDuration() <= 0 {
		return invalid("segment.target_seconds must be at least one millisecond, got %v", t)
	}
	return nil
}

func (c *Config) validateOutput() error {
	if strings.ContainsAny(c.Output.NamePrefix, `/\`) {
		return invalid("output.name_prefix must not contain path separators: %q", c.Output.NamePrefix)
	}
	if strings.ContainsAny(c.Output.ManifestName, `/\`) {
		return invalid("output.manifest_name must not contain path separators: %q", c.Output.ManifestName)
	}
	if _, err := subtitle.ParseFormat(c.Output.SubtitleFormat); err != nil {
		return faults.Wrap(faults.ErrConfig, "validate config", "output.subtitle_format", err)
	}
	if _, err := manifest.ParseFormat(c.Output.ManifestFormat); err != nil {
		return err
	}
	if c.Output.Language != "" {
		if _, err := language.Parse(c.Output.Language); err != nil {
			return faults.Wrap(faults.ErrConfig, "validate config", "output.language "+c.Output.Language, err)
		}
	}
	return nil
}

func (c *Config) validateExtract() error {
	if c.Extract.Concurrency < 1 {
		return invalid("extract.concurrency must be at least 1, got %d", c.Extract.Concurrency)
	}
	if c.Extract.CRF < 0 || c.Extract.CRF > 51 {
		return invalid("extract.crf must be between 0 and 51, got %d", c.Extract.CRF)
	}
	if c.Extract.FrameRate < 0 || math.IsNaN(c.Extract.FrameRate) {
		return invalid("extract.frame_rate must not be negative, got %v", c.Extract.FrameRate)
	}
	switch c.Extract.Probe {
	case "ffprobe", "vidio":
	default:
		return invalid("extract.probe must be ffprobe or vidio, got %q", c.Extract.Probe)
	}
	if !c.Extract.StreamCopy && c.Extract.VideoCodec == "" {
		return invalid("extract.video_codec is required unless stream_copy is set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return invalid("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
}
