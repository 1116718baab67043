package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"lectura/logger"
	"lectura/model"
)

// localLanguageHint is the fixed language hint passed to the local model.
const localLanguageHint = "ko"

// LocalTranscriber runs the whisper CLI over the full audio file in one call.
// Local models have no upload-size constraint, so there is no chunked path.
type LocalTranscriber struct {
	binary    string
	modelSize string
}

// NewLocalTranscriber creates the local-model backend.
func NewLocalTranscriber(modelSize string) *LocalTranscriber {
	return &LocalTranscriber{binary: "whisper", modelSize: modelSize}
}

// Available reports whether the whisper binary can be found on PATH.
func (t *LocalTranscriber) Available() bool {
	_, err := exec.LookPath(t.binary)
	return err == nil
}

// whisperJSON mirrors the JSON file the whisper CLI writes with
// --output_format json.
type whisperJSON struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe runs whisper over audioPath and parses the JSON it writes.
// Progress is reported as two checkpoints rather than continuously; the CLI
// gives no machine-readable progress stream.
func (t *LocalTranscriber) Transcribe(ctx context.Context, audioPath string, progress ProgressFunc) (*model.Transcript, error) {
	progress(50)

	outDir, err := os.MkdirTemp("", "lectura_whisper_*")
	if err != nil {
		return nil, fmt.Errorf("failed to create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{
		audioPath,
		"--model", t.modelSize,
		"--language", localLanguageHint,
		"--task", "transcribe",
		"--output_format", "json",
		"--output_dir", outDir,
	}

	cmd := exec.CommandContext(ctx, t.binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper execution failed: %w\nOutput: %s", err, strings.TrimSpace(string(out)))
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	resultPath := filepath.Join(outDir, base+".json")

	data, err := os.ReadFile(resultPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output %s: %w", resultPath, err)
	}

	var wj whisperJSON
	if err := json.Unmarshal(data, &wj); err != nil {
		return nil, fmt.Errorf("failed to parse whisper output: %w", err)
	}

	transcript := &model.Transcript{FullText: strings.TrimSpace(wj.Text), Segments: []model.Segment{}}
	for _, seg := range wj.Segments {
		transcript.Segments = append(transcript.Segments, model.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}

	logger.Info("local transcription finished",
		logger.String("audio", audioPath), logger.Int("segments", len(transcript.Segments)))
	progress(90)
	return transcript, nil
}
