package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"

	"github.com/mgpai22/kaatna/internal/faults"
	"github.com/mgpai22/kaatna/internal/fileutil"
	"github.com/mgpai22/kaatna/internal/logging"
	"github.com/mgpai22/kaatna/internal/manifest"
	"github.com/mgpai22/kaatna/internal/subtitle"
	"github.com/mgpai22/kaatna/internal/video"
)

const lockName = ".kaatna.lock"

// ErrBusy means another run holds the output directory.
var ErrBusy = errors.New("output directory is locked by another run")

// cue files only need to be opened; Source satisfies it
type cueOpener interface {
	Open(path string) (subtitle.File, error)
}

// Runner turns a Request into clips, cue files and a manifest.
type Runner struct {
	prober    video.Prober
	extractor video.Extractor
	source    cueOpener
	logger    *logging.Logger

	// Progress, when set, is called once per finished job in emission order.
	Progress func(Job)
}

func New(prober video.Prober, extractor video.Extractor, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		prober:    prober,
		extractor: extractor,
		source:    subtitle.Source{},
		logger:    logger.Named("pipeline"),
	}
}

// Result of a successful run.
type Result struct {
	Plan         *Plan
	Manifest     *manifest.Manifest
	Entries      []manifest.Entry
	ManifestPath string
}

type jobResult struct {
	index   int
	job     Job
	written []string
	err     error
}

// Run plans, extracts every segment and writes the manifest. On any failure
// the artifacts written by this run are removed (unless KeepPartial) and no
// manifest is written.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	req.withDefaults()
	if err := req.validate(); err != nil {
		return nil, err
	}

	plan, err := r.plan(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, faults.Wrap(faults.ErrSinkWrite, "run", "failed to create output directory", err)
	}

	lock := flock.New(filepath.Join(req.OutputDir, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, faults.Wrap(faults.ErrSinkWrite, "run", "lock output directory", err)
	}
	if !locked {
		return nil, faults.Wrap(faults.ErrSinkWrite, "run", req.OutputDir, ErrBusy)
	}
	defer func() { _ = lock.Unlock() }()

	// an earlier manifest may list clips this run is about to overwrite
	manifestPath := req.ManifestPath()
	if err := os.Remove(manifestPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, faults.Wrap(faults.ErrSinkWrite, "run", "remove previous manifest", err)
	}

	results, runErr := r.execute(ctx, req, plan)
	if runErr != nil {
		r.cleanup(req, results)
		return nil, runErr
	}

	m := manifest.New(req.Video, req.Subtitles, req.Target)
	m.Language = plan.Sink.Language
	if m.Language == "" {
		m.Language = req.Language
	}
	for _, res := range results {
		subs := ""
		if res.job.Subtitles != "" {
			subs = filepath.Base(res.job.Subtitles)
		}
		if err := m.Record(res.job.Segment, filepath.Base(res.job.Media), subs); err != nil {
			r.cleanup(req, results)
			return nil, err
		}
	}
	entries := m.Finalize()

	if err := m.Write(ctx, manifestPath, req.ManifestFormat); err != nil {
		r.cleanup(req, results)
		return nil, err
	}

	r.logger.Infow("run complete",
		"run_id", m.RunID,
		"segments", len(entries),
		"manifest", manifestPath,
	)
	return &Result{
		Plan:         plan,
		Manifest:     m,
		Entries:      entries,
		ManifestPath: manifestPath,
	}, nil
}

// runs the jobs on a bounded pool; results come back sorted by segment index
func (r *Runner) execute(ctx context.Context, req Request, plan *Plan) ([]jobResult, error) {
	if len(plan.Jobs) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	concurrency := min(req.Concurrency, len(plan.Jobs))
	workChan := make(chan int, len(plan.Jobs))
	resultChan := make(chan jobResult, len(plan.Jobs))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Go(func() {
			for idx := range workChan {
				if ctx.Err() != nil {
					resultChan <- jobResult{index: idx, job: plan.Jobs[idx], err: ctx.Err()}
					continue
				}
				written, err := r.runJob(ctx, req, plan, plan.Jobs[idx])
				resultChan <- jobResult{index: idx, job: plan.Jobs[idx], written: written, err: err}
			}
		})
	}

	for i := range plan.Jobs {
		workChan <- i
	}
	close(workChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// in-flight jobs finish; queued ones are skipped once a failure cancels ctx
	var firstErr error
	results := make([]jobResult, 0, len(plan.Jobs))
	for result := range resultChan {
		results = append(results, result)
		if result.err != nil && firstErr == nil && !errors.Is(result.err, context.Canceled) {
			firstErr = fmt.Errorf("segment %d failed: %w", result.job.Segment.Index, result.err)
			cancel()
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].index < results[j].index
	})

	if firstErr == nil {
		for _, res := range results {
			if res.err != nil {
				firstErr = fmt.Errorf("segment %d failed: %w", res.job.Segment.Index, res.err)
				break
			}
		}
	}
	if firstErr != nil {
		return results, firstErr
	}

	if r.Progress != nil {
		for _, res := range results {
			r.Progress(res.job)
		}
	}
	return results, nil
}

func (r *Runner) runJob(ctx context.Context, req Request, plan *Plan, job Job) ([]string, error) {
	var written []string
	seg := job.Segment

	if job.Subtitles != "" {
		if err := plan.Sink.Write(job.Subtitles, job.Cues); err != nil {
			return written, err
		}
		written = append(written, job.Subtitles)
	}

	// a failed or cancelled extraction may leave a partial file behind
	written = append(written, job.Media)
	if err := r.extractor.ExtractSegment(
		ctx,
		req.Video,
		seg.Start.Seconds(),
		seg.End.Seconds(),
		plan.Extract,
		job.Media,
	); err != nil {
		return written, err
	}

	r.logger.Infow("segment written",
		"segment", seg.Index,
		"start", seg.Start.String(),
		"end", seg.End.String(),
		"cues", len(job.Cues),
		"media", filepath.Base(job.Media),
	)
	return written, nil
}

func (r *Runner) cleanup(req Request, results []jobResult) {
	var paths []string
	for _, res := range results {
		paths = append(paths, res.written...)
	}
	if req.KeepPartial {
		r.logger.Warnw("keeping partial artifacts", "count", len(paths))
		return
	}
	if err := fileutil.RemoveAll(paths); err != nil {
		r.logger.Warnw("failed to remove partial artifacts", "error", err)
		return
	}
	if len(paths) > 0 {
		r.logger.Infow("removed partial artifacts", "count", len(paths))
	}
}
