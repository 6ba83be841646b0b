package config

const (
	defaultTargetSeconds  = 120
	defaultOutputDir      = "./"
	defaultNamePrefix     = "clip"
	defaultMediaExtension = ".mp4"
	defaultSubtitleFormat = "vtt"
	defaultManifestFormat = "json"
	defaultManifestName   = "manifest"
	defaultConcurrency    = 3
	defaultVideoCodec     = "libx264"
	defaultAudioCodec     = "aac"
	defaultPreset         = "veryfast"
	defaultCRF            = 20
	defaultProbeBackend   = "ffprobe"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Segment: Segment{
			TargetSeconds: defaultTargetSeconds,
		},
		Output: Output{
			Dir:            defaultOutputDir,
			NamePrefix:     defaultNamePrefix,
			MediaExtension: defaultMediaExtension,
			SubtitleFormat: defaultSubtitleFormat,
			ManifestFormat: defaultManifestFormat,
			ManifestName:   defaultManifestName,
		},
		Extract: Extract{
			Concurrency: defaultConcurrency,
			VideoCodec:  defaultVideoCodec,
			AudioCodec:  defaultAudioCodec,
			Preset:      defaultPreset,
			CRF:         defaultCRF,
			Probe:       defaultProbeBackend,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

const sampleConfig = `# kaatna configuration

[segment]
# cut once the summed cue span reaches this many seconds
target_seconds = 120
# stretch the last segment to the end of the media when it outlasts the last cue
extend_tail = false

[output]
dir = "./"
name_prefix = "clip"
media_extension = ".mp4"
subtitle_format = "vtt"   # vtt, srt or ass
manifest_format = "json"  # json, toml or sqlite
manifest_name = "manifest"
# language = "en"
keep_partial = false

[extract]
# ffmpeg_path = "/usr/local/bin/ffmpeg"
# ffprobe_path = "/usr/local/bin/ffprobe"
concurrency = 3
stream_copy = false
video_codec = "libx264"
audio_codec = "aac"
preset = "veryfast"
crf = 20
# frame_rate = 0 keeps the probed source rate
frame_rate = 0
probe = "ffprobe"         # ffprobe or vidio

[logging]
format = "console"        # console or json
level = "info"
`
