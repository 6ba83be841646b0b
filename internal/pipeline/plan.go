package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mgpai22/kaatna/internal/faults"
	"github.com/mgpai22/kaatna/internal/manifest"
	"github.com/mgpai22/kaatna/internal/segment"
	"github.com/mgpai22/kaatna/internal/subtitle"
	"github.com/mgpai22/kaatna/internal/timecode"
	"github.com/mgpai22/kaatna/internal/video"
)

// Request describes one segmentation run.
type Request struct {
	Video     string
	Subtitles string // optional; fixed windows are cut when empty

	OutputDir      string
	NamePrefix     string // artifact base name, "clip" gives clip1.mp4
	MediaExtension string
	SubtitleFormat subtitle.Format // empty keeps the source format
	ManifestFormat manifest.Format
	ManifestName   string
	Language       string

	Target      time.Duration
	ExtendTail  bool
	Concurrency int
	Extract     video.ExtractOptions
	KeepPartial bool
}

type Mode string

const (
	ModeCues  Mode = "cues"
	ModeFixed Mode = "fixed"
)

// Job is one segment with its artifact paths and re-based cues.
type Job struct {
	Segment   segment.Segment
	Media     string // absolute path
	Subtitles string // absolute path, empty when the segment has no cue file
	Cues      []subtitle.Entry
}

// Plan is everything decided before any artifact is written.
type Plan struct {
	Mode     Mode
	Info     *video.Info
	Jobs     []Job
	Template subtitle.File
	Sink     subtitle.Sink
	Extract  video.ExtractOptions
}

func (r *Request) withDefaults() {
	if r.NamePrefix == "" {
		r.NamePrefix = "clip"
	}
	if r.MediaExtension == "" {
		r.MediaExtension = filepath.Ext(r.Video)
	}
	if r.ManifestFormat == "" {
		r.ManifestFormat = manifest.FormatJSON
	}
	if r.ManifestName == "" {
		r.ManifestName = "manifest"
	}
	if r.Concurrency <= 0 {
		r.Concurrency = 3
	}
}

func (r *Request) validate() error {
	if r.Video == "" {
		return faults.Errorf(faults.ErrConfig, "plan", "no video given")
	}
	if r.Target <= 0 {
		return faults.Errorf(faults.ErrConfig, "plan", "target duration must be positive, got %s", r.Target)
	}
	if r.OutputDir == "" {
		return faults.Errorf(faults.ErrConfig, "plan", "no output directory given")
	}
	return nil
}

// ManifestPath is where a successful run writes its manifest.
func (r Request) ManifestPath() string {
	return filepath.Join(r.OutputDir, r.ManifestName+r.ManifestFormat.Extension())
}

// Plan probes the video, reads cues and decides every segment without writing anything.
func (r *Runner) Plan(ctx context.Context, req Request) (*Plan, error) {
	req.withDefaults()
	if err := req.validate(); err != nil {
		return nil, err
	}
	return r.plan(ctx, req)
}

func (r *Runner) plan(ctx context.Context, req Request) (*Plan, error) {
	info, err := r.prober.GetInfo(ctx, req.Video)
	if err != nil {
		return nil, err
	}
	total, err := timecode.FromDuration(info.Duration)
	if err != nil {
		return nil, err
	}
	r.logger.Debugw("probed video",
		"video", req.Video,
		"duration", total.String(),
		"frame_rate", info.FrameRate,
		"codec", info.Codec,
	)

	plan := &Plan{Info: info, Extract: req.Extract}
	if plan.Extract.FrameRate <= 0 && !plan.Extract.StreamCopy {
		plan.Extract.FrameRate = info.FrameRate
	}

	var segments []segment.Segment
	if req.Subtitles == "" {
		plan.Mode = ModeFixed
		if segments, err = segment.Fixed(total, req.Target); err != nil {
			return nil, err
		}
	} else {
		plan.Mode = ModeCues
		template, err := r.source.Open(req.Subtitles)
		if err != nil {
			return nil, err
		}
		plan.Template = template

		format := req.SubtitleFormat
		if format == "" {
			format = template.Format()
		}
		language := req.Language
		if language == "" {
			language = template.Subtitle().Language
		}
		plan.Sink = subtitle.Sink{Format: format, Template: template, Language: language}

		var opts []segment.Option
		if req.ExtendTail {
			opts = append(opts, segment.WithTotal(total))
		}
		if segments, err = segment.Split(template.Subtitle().Cues(), req.Target, opts...); err != nil {
			return nil, err
		}
	}

	plan.Jobs = make([]Job, 0, len(segments))
	for _, seg := range segments {
		job := Job{
			Segment: seg,
			Media:   filepath.Join(req.OutputDir, fmt.Sprintf("%s%d%s", req.NamePrefix, seg.Index, req.MediaExtension)),
		}
		if plan.Mode == ModeCues && len(seg.Cues) > 0 {
			if job.Cues, err = seg.Rebased(); err != nil {
				return nil, err
			}
			job.Subtitles = filepath.Join(req.OutputDir, fmt.Sprintf("%s%d%s", req.NamePrefix, seg.Index, plan.Sink.Extension()))
		}
		plan.Jobs = append(plan.Jobs, job)
	}

	r.logger.Infow("planned segments",
		"mode", string(plan.Mode),
		"segments", len(plan.Jobs),
		"target", req.Target.String(),
	)
	return plan, nil
}
