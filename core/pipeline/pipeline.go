package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"lectura/config"
	"lectura/core/audio"
	"lectura/core/transcribe"
	"lectura/core/transcript"
	"lectura/core/video"
	"lectura/logger"
	"lectura/model"
	"lectura/status"
)

// ErrEmptyUpload is returned when an upload arrives without a filename or
// without any bytes. Rejected synchronously; no job is created.
var ErrEmptyUpload = errors.New("no video file provided")

// job describes one unit of pipeline work. Exactly one of url/videoPath is
// set: remote jobs still need downloading, upload jobs are already on disk.
type job struct {
	id        string
	url       string
	videoPath string
}

// remoteAcquirer is the slice of the downloader the pipeline depends on;
// narrowed to an interface so tests can run without yt-dlp.
type remoteAcquirer interface {
	ProbeDuration(ctx context.Context, rawURL string) (int, bool)
	Download(ctx context.Context, rawURL, id string, onProgress func(percent float64)) (string, error)
}

// audioExtractor mirrors the extractor surface the pipeline uses.
type audioExtractor interface {
	Extract(ctx context.Context, videoPath, audioPath string) error
}

// Pipeline drives acquisition, audio extraction, transcription and
// persistence for each video, one background worker per in-flight job up to
// the pool size. Submitting is fire-and-forget: callers poll the status
// tracker.
type Pipeline struct {
	cfg         *config.Config
	downloader  remoteAcquirer
	extractor   audioExtractor
	transcriber transcribe.Transcriber
	tracker     status.Tracker
	store       *transcript.Store

	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New creates the pipeline and starts its worker pool.
func New(
	cfg *config.Config,
	downloader *video.Downloader,
	extractor *audio.Extractor,
	transcriber transcribe.Transcriber,
	tracker status.Tracker,
	store *transcript.Store,
) *Pipeline {
	p := &Pipeline{
		cfg:         cfg,
		downloader:  downloader,
		extractor:   extractor,
		transcriber: transcriber,
		tracker:     tracker,
		store:       store,
		jobs:        make(chan job, 64),
	}
	p.startWorkers()
	return p
}

func (p *Pipeline) startWorkers() {
	workers := p.cfg.PipelineWorkers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				p.run(j)
			}
		}()
	}
}

// Stop drains the queue and waits for in-flight jobs. Started jobs always run
// to completion or failure; there is no per-job cancel. The write lock is
// only taken once every pending enqueue has finished its send, so the
// channel is never closed under a sender.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// enqueue hands a job to the pool without ever blocking the caller. A job
// that arrives after Stop is dropped; its status stays queued.
func (p *Pipeline) enqueue(j job) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		logger.Warn("pipeline stopped, job dropped", logger.String("id", j.id))
		return
	}
	select {
	case p.jobs <- j:
		p.mu.RUnlock()
		return
	default:
	}
	p.mu.RUnlock()

	// Queue full; complete the handoff in the background. The read lock held
	// across the blocking send keeps Stop from closing the channel mid-send.
	go func() {
		p.mu.RLock()
		defer p.mu.RUnlock()
		if p.closed {
			logger.Warn("pipeline stopped, job dropped", logger.String("id", j.id))
			return
		}
		p.jobs <- j
	}()
}

// SubmitUpload validates and stores an uploaded video, schedules its
// transcription job and returns the new video id. The upload itself is
// written synchronously; everything after that happens in the background.
func (p *Pipeline) SubmitUpload(file io.Reader, filename string) (string, error) {
	if filename == "" || file == nil {
		return "", ErrEmptyUpload
	}

	id := video.IdentifyUpload(filename)

	if err := os.MkdirAll(p.cfg.UploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	videoPath := filepath.Join(p.cfg.UploadDir, id+".mp4")
	out, err := os.Create(videoPath)
	if err != nil {
		return "", fmt.Errorf("failed to create video file: %w", err)
	}

	written, err := io.Copy(out, file)
	out.Close()
	if err != nil {
		os.Remove(videoPath)
		return "", fmt.Errorf("failed to store uploaded video: %w", err)
	}
	if written == 0 {
		os.Remove(videoPath)
		return "", ErrEmptyUpload
	}

	p.tracker.Set(id, model.Status{Stage: model.StageQueued, Progress: 0})
	p.enqueue(job{id: id, videoPath: videoPath})

	logger.Info("upload accepted", logger.String("id", id), logger.Int64("bytes", written))
	return id, nil
}

// SubmitRemote validates a remote source, applies the duration guard and
// schedules a download-and-transcribe job. When a transcript for the same URL
// already exists on durable storage the job is skipped entirely and cached is
// true: neither the downloader nor a transcription backend is touched.
func (p *Pipeline) SubmitRemote(ctx context.Context, rawURL string) (id string, cached bool, err error) {
	if err := video.ValidateURL(rawURL); err != nil {
		return "", false, err
	}

	id = video.IdentifyURL(rawURL)

	if p.store.Exists(id) {
		if _, err := p.store.Load(id); err == nil {
			p.tracker.Set(id, model.Status{Stage: model.StageCompleted, Progress: 100})
			logger.Info("transcript already persisted, reusing", logger.String("id", id))
			return id, true, nil
		}
		// A persisted transcript that fails to load is treated as absent and
		// regenerated by a fresh run.
	}

	// Duration guard: refuse before any download I/O. Unknown means allow.
	if seconds, known := p.downloader.ProbeDuration(ctx, rawURL); known && seconds > p.cfg.MaxVideoDuration {
		return "", false, &video.DurationExceededError{Seconds: seconds}
	}

	p.tracker.Set(id, model.Status{Stage: model.StageQueued, Progress: 0})
	p.enqueue(job{id: id, url: rawURL})

	logger.Info("remote job scheduled", logger.String("id", id), logger.String("url", rawURL))
	return id, false, nil
}

// run executes one job. Every stage failure is converted into a terminal
// error status here; nothing escapes to crash the worker.
func (p *Pipeline) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			p.fail(j.id, "Internal pipeline error", fmt.Errorf("panic: %v", r))
		}
	}()

	// Cancellation is not implemented; the context threaded through the
	// stages is the hook point for adding it later.
	ctx := context.Background()

	videoPath := j.videoPath
	if j.url != "" {
		var err error
		videoPath, err = p.downloader.Download(ctx, j.url, j.id, func(percent float64) {
			// Raw download progress occupies the first quarter of the
			// overall pipeline.
			p.tracker.Set(j.id, model.Status{
				Stage:    model.StageDownloading,
				Progress: int(percent * 0.25),
			})
		})
		if err != nil {
			p.fail(j.id, "Failed to download video", err)
			return
		}
		p.tracker.Set(j.id, model.Status{Stage: model.StageDownloading, Progress: 25})
	}

	p.process(ctx, j.id, videoPath)
}

// process runs extraction, transcription and persistence for a video already
// on local storage.
func (p *Pipeline) process(ctx context.Context, id, videoPath string) {
	p.tracker.Set(id, model.Status{Stage: model.StageProcessing, Progress: 30})

	audioPath := filepath.Join(p.cfg.UploadDir, id+".mp3")
	p.tracker.Set(id, model.Status{Stage: model.StageProcessing, Progress: 35})

	if err := p.extractor.Extract(ctx, videoPath, audioPath); err != nil {
		p.fail(id, "Failed to extract audio", err)
		return
	}
	// The extracted audio is job-scoped; remove it on success and failure.
	defer os.Remove(audioPath)

	result, err := p.transcriber.Transcribe(ctx, audioPath, func(progress int) {
		p.tracker.Set(id, model.Status{Stage: model.StageProcessing, Progress: progress})
	})
	if err != nil {
		p.fail(id, "Failed to transcribe audio", err)
		return
	}

	if err := p.store.Save(id, result); err != nil {
		p.fail(id, "Failed to persist transcript", err)
		return
	}

	p.tracker.Set(id, model.Status{Stage: model.StageCompleted, Progress: 100})
	logger.Info("pipeline completed", logger.String("id", id),
		logger.Int("segments", len(result.Segments)))
}

// fail records a terminal error status with a human-readable cause.
func (p *Pipeline) fail(id, message string, err error) {
	logger.Error("pipeline stage failed",
		logger.String("id", id), logger.String("message", message), logger.ErrorField(err))
	p.tracker.Set(id, model.Status{
		Stage:   model.StageError,
		Message: message,
		Error:   err.Error(),
	})
}
