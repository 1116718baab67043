package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"lectura/logger"
)

// Extractor derives compressed audio tracks from videos using ffmpeg.
type Extractor struct {
	ffmpegPath string
}

// NewExtractor creates a new Extractor.
func NewExtractor(ffmpegPath string) *Extractor {
	return &Extractor{ffmpegPath: ffmpegPath}
}

// Extract pulls the audio track out of videoPath and writes it to audioPath
// as mp3 at a fixed quality setting. On failure no partial audio file is left
// behind.
func (e *Extractor) Extract(ctx context.Context, videoPath, audioPath string) error {
	args := []string{
		"-i", videoPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", "4",
		"-y", audioPath,
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("extracting audio",
		logger.String("video", videoPath), logger.String("audio", audioPath))

	if err := cmd.Run(); err != nil {
		os.Remove(audioPath)
		return fmt.Errorf("ffmpeg execution failed for %s: %w\nFFmpeg Error: %s", videoPath, err, stderr.String())
	}
	return nil
}

// CutChunk copies the [start, start+duration) window of audioPath into
// chunkPath without re-encoding.
func (e *Extractor) CutChunk(ctx context.Context, audioPath, chunkPath string, start, duration float64) error {
	args := []string{
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
		"-i", audioPath,
		"-acodec", "copy",
		"-y", chunkPath,
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(chunkPath)
		return fmt.Errorf("ffmpeg chunk cut failed for %s: %w\nFFmpeg Error: %s", audioPath, err, stderr.String())
	}
	return nil
}

// ffprobeOutput defines the structure for ffprobe JSON output.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration uses ffprobe to get the duration of a media file in seconds.
func (e *Extractor) Duration(ctx context.Context, inputFile string) (float64, error) {
	ffprobePath := strings.Replace(e.ffmpegPath, "ffmpeg", "ffprobe", 1)

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		inputFile,
	}

	cmd := exec.CommandContext(ctx, ffprobePath, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe execution failed for %s: %w\nFFprobe Error: %s", inputFile, err, stderr.String())
	}

	var probeData ffprobeOutput
	if err := json.Unmarshal(out.Bytes(), &probeData); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ffprobe output for %s: %w\nFFprobe Output: %s", inputFile, err, out.String())
	}

	if probeData.Format.Duration == "" {
		return 0, fmt.Errorf("duration not found in ffprobe output for %s\nFFprobe Output: %s", inputFile, out.String())
	}

	duration, err := strconv.ParseFloat(probeData.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration string %q for %s: %w", probeData.Format.Duration, inputFile, err)
	}

	return duration, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
