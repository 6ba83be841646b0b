package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mgpai22/kaatna/internal/config"
	"github.com/mgpai22/kaatna/internal/manifest"
	"github.com/mgpai22/kaatna/internal/pipeline"
	"github.com/mgpai22/kaatna/internal/subtitle"
	"github.com/mgpai22/kaatna/internal/video"
)

var splitCmd = &cobra.Command{
	Use:   "split [video_file]",
	Short: "Split a video into clips",
	Long: `Split a video into clips and write a manifest.

With --subtitles, a cut is made on the cue that brings the summed cue
time to the target duration, so no cue is ever split. Each clip gets a
subtitle file re-timed to start at zero. Without subtitles the video is
cut every --duration.

Examples:
  kaatna split movie.mp4 -s movie.srt
  kaatna split movie.mp4 -s movie.vtt -d 90s -o clips/
  kaatna split lecture.mkv -d 5m --copy --manifest-format sqlite`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)
	addSegmentFlags(splitCmd)
	addExtractFlags(splitCmd)
}

// flags shared by split and plan
func addSegmentFlags(cmd *cobra.Command) {
	defaults := config.Default()
	cmd.Flags().
		StringP("subtitles", "s", "", "Subtitle file (srt, vtt, ass) to cut along")
	cmd.Flags().
		DurationP("duration", "d", defaults.TargetDuration(), "Target clip duration")
	cmd.Flags().
		StringP("format", "f", "vtt", "Subtitle format for clips (srt, vtt, ass)")
	cmd.Flags().
		Bool("extend-tail", false, "Let the last clip run to the end of the video")
}

func addExtractFlags(cmd *cobra.Command) {
	cmd.Flags().
		Int("concurrency", 3, "Number of parallel ffmpeg workers")
	cmd.Flags().
		Float64("fps", 0, "Output frame rate (0 keeps the source rate)")
	cmd.Flags().
		Bool("copy", false, "Copy streams instead of re-encoding (faster, cuts snap to keyframes)")
	cmd.Flags().
		Bool("keep-partial", false, "Keep clips already written when a run fails")
	cmd.Flags().
		String("manifest-format", "json", "Manifest format (json, toml, sqlite)")
}

// copies explicitly set flags over the loaded config
func applyFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("duration") {
		d, _ := flags.GetDuration("duration")
		c.Segment.TargetSeconds = d.Seconds()
	}
	if flags.Changed("format") {
		c.Output.SubtitleFormat, _ = flags.GetString("format")
	}
	if flags.Changed("extend-tail") {
		c.Segment.ExtendTail, _ = flags.GetBool("extend-tail")
	}
	if flags.Changed("concurrency") {
		c.Extract.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("fps") {
		c.Extract.FrameRate, _ = flags.GetFloat64("fps")
	}
	if flags.Changed("copy") {
		c.Extract.StreamCopy, _ = flags.GetBool("copy")
	}
	if flags.Changed("keep-partial") {
		c.Output.KeepPartial, _ = flags.GetBool("keep-partial")
	}
	if flags.Changed("manifest-format") {
		c.Output.ManifestFormat, _ = flags.GetString("manifest-format")
	}
	return c.Prepare()
}

// builds the pipeline request from a prepared config
func buildRequest(c *config.Config, videoPath, subtitlesPath string) (pipeline.Request, error) {
	subFormat, err := subtitle.ParseFormat(c.Output.SubtitleFormat)
	if err != nil {
		return pipeline.Request{}, err
	}
	manifestFormat, err := manifest.ParseFormat(c.Output.ManifestFormat)
	if err != nil {
		return pipeline.Request{}, err
	}

	return pipeline.Request{
		Video:          videoPath,
		Subtitles:      subtitlesPath,
		OutputDir:      c.Output.Dir,
		NamePrefix:     c.Output.NamePrefix,
		MediaExtension: c.Output.MediaExtension,
		SubtitleFormat: subFormat,
		ManifestFormat: manifestFormat,
		ManifestName:   c.Output.ManifestName,
		Language:       c.Output.Language,
		Target:         c.TargetDuration(),
		ExtendTail:     c.Segment.ExtendTail,
		Concurrency:    c.Extract.Concurrency,
		KeepPartial:    c.Output.KeepPartial,
		Extract: video.ExtractOptions{
			FrameRate:  c.Extract.FrameRate,
			StreamCopy: c.Extract.StreamCopy,
			VideoCodec: c.Extract.VideoCodec,
			AudioCodec: c.Extract.AudioCodec,
			Preset:     c.Extract.Preset,
			CRF:        c.Extract.CRF,
		},
	}, nil
}

func newRunner(c *config.Config) (*pipeline.Runner, error) {
	processor := processorFor(c)
	prober, err := video.NewProber(c.Extract.Probe, processor)
	if err != nil {
		return nil, err
	}
	return pipeline.New(prober, processor, logger), nil
}

func runSplit(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	subtitlesPath, _ := cmd.Flags().GetString("subtitles")

	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	req, err := buildRequest(cfg, videoPath, subtitlesPath)
	if err != nil {
		return err
	}

	runner, err := newRunner(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	runner.Progress = func(job pipeline.Job) {
		fmt.Fprintf(out, "Segment %d: %s - %s\n", job.Segment.Index, job.Segment.Start, job.Segment.End)
	}

	logger.Infow("Starting split",
		"video", videoPath,
		"subtitles", subtitlesPath,
		"output", req.OutputDir,
		"target", req.Target.String(),
		"concurrency", req.Concurrency,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := runner.Run(ctx, req)
	if err != nil {
		return err
	}

	writeEntries(out, result.Entries)
	fmt.Fprintf(out, "Manifest written: %s\n", result.ManifestPath)
	return nil
}
