package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"lectura/model"
)

// fakeMedia simulates duration probing and chunk cutting.
type fakeMedia struct {
	duration float64
	durErr   error
	cuts     []float64
	cutErr   error
}

func (f *fakeMedia) Duration(ctx context.Context, inputFile string) (float64, error) {
	return f.duration, f.durErr
}

func (f *fakeMedia) CutChunk(ctx context.Context, audioPath, chunkPath string, start, duration float64) error {
	if f.cutErr != nil {
		return f.cutErr
	}
	f.cuts = append(f.cuts, start)
	return os.WriteFile(chunkPath, []byte("chunk"), 0o644)
}

func writeAudioFile(t *testing.T, dir string, size int) string {
	t.Helper()
	path := filepath.Join(dir, "lecture.mp3")
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

// TestTranscribeDirectPath checks the single-request path for small files.
func TestTranscribeDirectPath(t *testing.T) {
	audioPath := writeAudioFile(t, t.TempDir(), 100)

	var calledWith string
	tr := &APITranscriber{
		uploadLimit:  1000,
		chunkSeconds: 120,
		call: func(ctx context.Context, path string) (*model.Transcript, error) {
			calledWith = path
			return &model.Transcript{FullText: "hello"}, nil
		},
	}

	var steps []int
	got, err := tr.Transcribe(context.Background(), audioPath, func(p int) { steps = append(steps, p) })
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if calledWith != audioPath {
		t.Fatalf("call path = %q, want %q", calledWith, audioPath)
	}
	if got.FullText != "hello" {
		t.Fatalf("full text = %q", got.FullText)
	}
	if len(steps) != 2 || steps[0] != 50 || steps[1] != 90 {
		t.Fatalf("progress steps = %v, want [50 90]", steps)
	}
}

// TestTranscribeChunkedOrderAndCleanup checks that chunks are transcribed
// strictly in order and each chunk file is removed after its call.
func TestTranscribeChunkedOrderAndCleanup(t *testing.T) {
	dir := t.TempDir()
	audioPath := writeAudioFile(t, dir, 2000)

	media := &fakeMedia{duration: 250}
	var calls []string
	tr := &APITranscriber{
		uploadLimit:  1000,
		chunkSeconds: 120,
		media:        media,
	}
	tr.call = func(ctx context.Context, path string) (*model.Transcript, error) {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("chunk file missing during call: %v", err)
		}
		calls = append(calls, filepath.Base(path))
		idx := len(calls) - 1
		return &model.Transcript{
			FullText: fmt.Sprintf("part %d", idx),
			Segments: []model.Segment{{Start: 0, End: 5, Text: fmt.Sprintf("part %d", idx)}},
		}, nil
	}

	got, err := tr.Transcribe(context.Background(), audioPath, func(int) {})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	wantCalls := []string{"lecture_chunk000.mp3", "lecture_chunk001.mp3", "lecture_chunk002.mp3"}
	if len(calls) != len(wantCalls) {
		t.Fatalf("call count = %d, want %d", len(calls), len(wantCalls))
	}
	for i := range wantCalls {
		if calls[i] != wantCalls[i] {
			t.Errorf("call[%d] = %q, want %q", i, calls[i], wantCalls[i])
		}
	}

	if got.FullText != "part 0 part 1 part 2" {
		t.Fatalf("full text = %q", got.FullText)
	}
	wantSpans := [][2]float64{{0, 5}, {120, 125}, {240, 245}}
	for i, span := range wantSpans {
		seg := got.Segments[i]
		if seg.Start != span[0] || seg.End != span[1] {
			t.Errorf("segment[%d] = (%v, %v), want (%v, %v)", i, seg.Start, seg.End, span[0], span[1])
		}
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*_chunk*.mp3"))
	if len(leftovers) != 0 {
		t.Fatalf("leftover chunk files: %v", leftovers)
	}
}

// TestTranscribeChunkedFailureSweepsChunks checks that a mid-run failure
// leaves no chunk files behind.
func TestTranscribeChunkedFailureSweepsChunks(t *testing.T) {
	dir := t.TempDir()
	audioPath := writeAudioFile(t, dir, 2000)

	media := &fakeMedia{duration: 250}
	callCount := 0
	tr := &APITranscriber{
		uploadLimit:  1000,
		chunkSeconds: 120,
		media:        media,
	}
	tr.call = func(ctx context.Context, path string) (*model.Transcript, error) {
		callCount++
		if callCount == 2 {
			return nil, errors.New("api unavailable")
		}
		return &model.Transcript{FullText: "ok"}, nil
	}

	_, err := tr.Transcribe(context.Background(), audioPath, func(int) {})
	if err == nil {
		t.Fatal("expected error")
	}
	if callCount != 2 {
		t.Fatalf("call count = %d, want 2 (no calls after the failure)", callCount)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*_chunk*.mp3"))
	if len(leftovers) != 0 {
		t.Fatalf("leftover chunk files after failure: %v", leftovers)
	}
}

// TestTranscribeChunkedDurationProbeFailure checks that a failed duration
// probe aborts before any chunk is cut.
func TestTranscribeChunkedDurationProbeFailure(t *testing.T) {
	dir := t.TempDir()
	audioPath := writeAudioFile(t, dir, 2000)

	media := &fakeMedia{durErr: errors.New("ffprobe failed")}
	tr := &APITranscriber{
		uploadLimit:  1000,
		chunkSeconds: 120,
		media:        media,
		call: func(ctx context.Context, path string) (*model.Transcript, error) {
			t.Fatal("call should not run when the probe fails")
			return nil, nil
		},
	}

	_, err := tr.Transcribe(context.Background(), audioPath, func(int) {})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(media.cuts) != 0 {
		t.Fatalf("cuts = %v, want none", media.cuts)
	}
}
