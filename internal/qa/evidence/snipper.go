package evidence

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/daycare-qa/server/internal/qa/model"
	"github.com/daycare-qa/server/internal/qa/timeline"
	"github.com/daycare-qa/server/pkg/retry"
	logx "github.com/daycare-qa/server/pkg/logger"
)

// Snipper downloads a source video once and cuts one clip per planned
// window. Downloads are retried with backoff; individual cut failures skip
// that window only. The downloaded source is removed afterwards, including
// on partial failure.
type Snipper struct {
	Downloader         Downloader
	SnipDir            string
	TmpDir             string
	PointWindowSeconds int
	MaxAttempts        int
	BaseDelay          time.Duration

	// ffmpegPath overrides the binary looked up on PATH; tests use it.
	ffmpegPath string
}

func NewSnipper(dl Downloader, paths model.PathsConfig, answer model.AnswerConfig, rc model.RetryConfig) *Snipper {
	return &Snipper{
		Downloader:         dl,
		SnipDir:            paths.SnipDir,
		TmpDir:             paths.TmpDir,
		PointWindowSeconds: answer.PointWindowSeconds,
		MaxAttempts:        rc.MaxAttempts,
		BaseDelay:          time.Duration(rc.BaseDelaySeconds) * time.Second,
	}
}

// Snip produces clips for the evidence time expressions against one video.
// Returns the output clip paths; malformed expressions are skipped.
func (s *Snipper) Snip(ctx context.Context, videoID, remoteURI string, evidenceTimes []string) ([]string, error) {
	windows := timeline.PlanWindows(evidenceTimes, s.PointWindowSeconds)
	if len(windows) == 0 {
		return nil, nil
	}

	for _, dir := range []string{s.SnipDir, s.TmpDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create clip dir: %w", err)
		}
	}

	// Private temporary path per invocation so concurrent extractions
	// against the same video never collide.
	src := filepath.Join(s.TmpDir, fmt.Sprintf("%s_%s.mp4", videoID, time.Now().Format("20060102_150405")))
	defer func() {
		if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
			logx.Warn().Err(err).Str("path", src).Msg("Failed to remove downloaded source")
		}
	}()

	err := retry.Exec(ctx, "download "+videoID, s.MaxAttempts, s.BaseDelay, func(ctx context.Context) error {
		if err := s.Downloader.Fetch(ctx, remoteURI, src); err != nil {
			_ = os.Remove(src) // drop partial file before the next attempt
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("download source video: %w", err)
	}

	// Jobs run sequentially per video.
	var clips []string
	for _, w := range windows {
		out := filepath.Join(s.SnipDir, fmt.Sprintf("%s__%s__%s.mp4", videoID, safeName(w.Start), safeName(w.End)))
		if err := s.cut(ctx, src, w, out); err != nil {
			logx.Warn().Err(err).Str("video_id", videoID).Str("start", w.Start).Msg("Clip extraction failed, skipping window")
			continue
		}
		clips = append(clips, out)
	}

	logx.Info().Str("video_id", videoID).Int("clips", len(clips)).Int("windows", len(windows)).Msg("Extracted evidence clips")
	return clips, nil
}

// cut re-encodes rather than stream-copies so short windows reliably
// produce playable non-empty output.
func (s *Snipper) cut(ctx context.Context, src string, w timeline.Window, outPath string) error {
	bin := s.ffmpegPath
	if bin == "" {
		bin = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-y",
		"-ss", w.Start,
		"-t", timeline.FormatSeconds(w.Duration),
		"-i", src,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}
	return nil
}

// safeName makes an HH:MM:SS token filesystem-safe.
func safeName(t string) string {
	return strings.ReplaceAll(t, ":", "-")
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
