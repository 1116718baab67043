package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lectura/config"
	"lectura/logger"
	"lectura/model"
)

// mediaTool is the slice of the audio extractor the API backend needs for
// chunking: probing total duration and cutting chunk files.
type mediaTool interface {
	Duration(ctx context.Context, inputFile string) (float64, error)
	CutChunk(ctx context.Context, audioPath, chunkPath string, start, duration float64) error
}

// APITranscriber transcribes audio through the remote speech API. Files above
// the upload limit are split into fixed-duration chunks that are transcribed
// strictly in order; segment timestamps are globalized before merging.
type APITranscriber struct {
	apiKey       string
	baseURL      string
	model        string
	uploadLimit  int64
	chunkSeconds int

	media      mediaTool
	httpClient *http.Client

	// call performs one transcription request; replaced in tests.
	call func(ctx context.Context, audioPath string) (*model.Transcript, error)
}

// NewAPITranscriber creates the remote-API backend.
func NewAPITranscriber(cfg *config.Config, media mediaTool) *APITranscriber {
	t := &APITranscriber{
		apiKey:       cfg.OpenAIAPIKey,
		baseURL:      cfg.OpenAIBaseURL,
		model:        cfg.WhisperModel,
		uploadLimit:  cfg.APIUploadLimit,
		chunkSeconds: cfg.ChunkSeconds,
		media:        media,
		httpClient:   &http.Client{Timeout: 10 * time.Minute},
	}
	t.call = t.transcribeFile
	return t
}

// Transcribe picks the direct or chunked path based on the audio file size.
func (t *APITranscriber) Transcribe(ctx context.Context, audioPath string, progress ProgressFunc) (*model.Transcript, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat audio file: %w", err)
	}

	if info.Size() <= t.uploadLimit {
		progress(50)
		transcript, err := t.call(ctx, audioPath)
		if err != nil {
			return nil, err
		}
		progress(90)
		return transcript, nil
	}

	logger.Info("audio exceeds the API upload limit, transcribing in chunks",
		logger.Int64("sizeBytes", info.Size()), logger.Int64("limitBytes", t.uploadLimit))
	return t.transcribeChunked(ctx, audioPath, progress)
}

func (t *APITranscriber) transcribeChunked(ctx context.Context, audioPath string, progress ProgressFunc) (*model.Transcript, error) {
	total, err := t.media.Duration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe audio duration: %w", err)
	}

	plan := PlanChunks(total, t.chunkSeconds)
	if len(plan) == 0 {
		return nil, fmt.Errorf("no chunks planned for %.1fs of audio", total)
	}

	base := chunkBase(audioPath)
	results := make([]ChunkResult, 0, len(plan))

	for _, c := range plan {
		progress(chunkProgress(c.Index, len(plan)))

		chunkPath := fmt.Sprintf("%s_chunk%03d.mp3", base, c.Index)
		if err := t.media.CutChunk(ctx, audioPath, chunkPath, c.Start, c.Duration); err != nil {
			sweepChunks(base)
			return nil, fmt.Errorf("failed to cut chunk %d: %w", c.Index, err)
		}

		transcript, err := t.call(ctx, chunkPath)
		// The chunk file is removed as soon as its call returns, on both the
		// success and failure paths.
		os.Remove(chunkPath)
		if err != nil {
			sweepChunks(base)
			return nil, fmt.Errorf("chunk %d transcription failed: %w", c.Index, err)
		}

		results = append(results, ChunkResult{Offset: c.Start, Transcript: transcript})
	}

	progress(90)
	return MergeChunkResults(results), nil
}

// chunkBase strips the extension so chunk files sit next to the source audio
// as <base>_chunkNNN.mp3.
func chunkBase(audioPath string) string {
	return strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
}

// sweepChunks removes any remaining chunk files for the given audio file.
func sweepChunks(base string) {
	matches, err := filepath.Glob(base + "_chunk*.mp3")
	if err != nil {
		return
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove leftover chunk file",
				logger.String("path", m), logger.ErrorField(err))
		}
	}
}

// verboseTranscription mirrors the verbose_json response shape of the speech
// API.
type verboseTranscription struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// transcribeFile performs a single transcription request with segment-level
// timestamps.
func (t *APITranscriber) transcribeFile(ctx context.Context, audioPath string) (*model.Transcript, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("model", t.model); err != nil {
		return nil, err
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return nil, err
	}
	if err := mw.WriteField("timestamp_granularities[]", "segment"); err != nil {
		return nil, err
	}

	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcription API returned status %d: %s", resp.StatusCode, string(b))
	}

	var vr verboseTranscription
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("failed to decode transcription response: %w", err)
	}

	transcript := &model.Transcript{FullText: vr.Text, Segments: []model.Segment{}}
	for _, seg := range vr.Segments {
		transcript.Segments = append(transcript.Segments, model.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	return transcript, nil
}
