package video

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"lectura/logger"
)

// ErrInvalidURL is returned for URLs that do not reference a single video
// (playlists, channels, search results, user feeds, or malformed input).
var ErrInvalidURL = errors.New("not a single-video URL")

// DurationExceededError is returned when a remote video is longer than the
// configured maximum. It carries the measured duration for the API response.
type DurationExceededError struct {
	Seconds int
}

func (e *DurationExceededError) Error() string {
	return fmt.Sprintf("video duration %ds exceeds the allowed maximum", e.Seconds)
}

// durationProbeTimeout bounds the yt-dlp metadata call so a hung probe never
// blocks a request. On timeout the duration is treated as unknown.
const durationProbeTimeout = 30 * time.Second

var progressRe = regexp.MustCompile(`(\d+\.?\d*)%`)

// Downloader acquires remote videos onto local storage via yt-dlp.
type Downloader struct {
	ytDlpPath   string
	cookiesFile string
	uploadDir   string
}

// NewDownloader creates a Downloader. cookiesFile is optional: when the file
// exists it is passed to yt-dlp for authentication, otherwise it is ignored.
func NewDownloader(ytDlpPath, cookiesFile, uploadDir string) *Downloader {
	return &Downloader{
		ytDlpPath:   ytDlpPath,
		cookiesFile: cookiesFile,
		uploadDir:   uploadDir,
	}
}

// ValidateURL checks that raw is a plausible single-video reference.
// Channel, playlist, search and user-feed URL shapes are rejected with
// ErrInvalidURL before any external process is started.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	path := strings.ToLower(u.Path)
	for _, shape := range []string{"/playlist", "/channel/", "/results", "/feed/", "/user/"} {
		if strings.Contains(path, shape) {
			return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
		}
	}

	// A bare @handle path is a channel feed, not a video.
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 1 && strings.HasPrefix(segments[0], "@") {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	// A list parameter without a video parameter points at a whole playlist.
	q := u.Query()
	if q.Get("list") != "" && q.Get("v") == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}

	return nil
}

// ProbeDuration asks yt-dlp for the remote video duration without downloading
// anything. The second return value is false when the duration is unknown
// (tool failure, timeout, unparseable output); callers must treat unknown as
// "allow, proceed".
func (d *Downloader) ProbeDuration(ctx context.Context, rawURL string) (int, bool) {
	ctx, cancel := context.WithTimeout(ctx, durationProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.ytDlpPath, "--no-playlist", "--get-duration", rawURL)
	out, err := cmd.Output()
	if err != nil {
		logger.Warn("duration probe failed, proceeding without a known duration",
			logger.String("url", rawURL), logger.ErrorField(err))
		return 0, false
	}

	seconds, err := parseClockDuration(strings.TrimSpace(string(out)))
	if err != nil {
		logger.Warn("could not parse probed duration",
			logger.String("output", strings.TrimSpace(string(out))), logger.ErrorField(err))
		return 0, false
	}
	return seconds, true
}

// parseClockDuration parses yt-dlp duration output such as "45", "3:33" or
// "1:23:45" into seconds.
func parseClockDuration(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("unexpected duration format %q", s)
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("unexpected duration format %q: %w", s, err)
		}
		total = total*60 + n
	}
	return total, nil
}

// Download runs yt-dlp against rawURL and writes the result to
// <uploadDir>/<id>.mp4. Parsed progress percentages (raw 0-100 download
// progress) are reported through onProgress as they arrive. A non-zero exit
// fails the download; no retry is attempted.
func (d *Downloader) Download(ctx context.Context, rawURL, id string, onProgress func(percent float64)) (string, error) {
	outputPath := filepath.Join(d.uploadDir, id+".mp4")

	args := []string{
		"--no-playlist",
		"-f", "bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4]/bv*+ba/b",
		"--newline", "--progress",
		"--merge-output-format", "mp4",
	}

	if d.cookiesFile != "" {
		if _, err := os.Stat(d.cookiesFile); err == nil {
			args = append(args, "--cookies", d.cookiesFile)
			logger.Debug("using cookies file for download authentication",
				logger.String("cookiesFile", d.cookiesFile))
		}
	}
	args = append(args, "-o", outputPath, rawURL)

	cmd := exec.CommandContext(ctx, d.ytDlpPath, args...)

	// yt-dlp writes progress to stdout and diagnostics to stderr; merge both
	// so every progress token is seen in order.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		return "", fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(pr)
		for scanner.Scan() {
			percent, ok := ParseProgressLine(scanner.Text())
			if !ok {
				continue
			}
			if onProgress != nil {
				onProgress(percent)
			}
		}
	}()

	err := cmd.Wait()
	pw.Close()
	<-done

	if err != nil {
		// Do not leave a partial video behind.
		os.Remove(outputPath)
		return "", fmt.Errorf("yt-dlp exited with an error: %w", err)
	}
	return outputPath, nil
}

// ParseProgressLine extracts the percentage from a yt-dlp progress line such
// as "[download]  42.3% of 10.00MiB at 1.00MiB/s". Lines without a download
// progress token return ok=false.
func ParseProgressLine(line string) (float64, bool) {
	if !strings.Contains(line, "[download]") || !strings.Contains(line, "%") {
		return 0, false
	}
	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return percent, true
}
