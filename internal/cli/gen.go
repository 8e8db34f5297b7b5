package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/daycare-qa/server/internal/qa/catalog"
	"github.com/daycare-qa/server/internal/qa/graph/prompts"
	"github.com/daycare-qa/server/internal/qa/llm"
	"github.com/daycare-qa/server/internal/qa/transcript"
	logx "github.com/daycare-qa/server/pkg/logger"
	"github.com/daycare-qa/server/pkg/retry"
)

const transcriptErrorText = "[ERROR] Could not generate transcript for this video."

// genDeps wires the slim dependency set shared by the offline generators.
func genDeps(ctx context.Context) (*AppConfig, *catalog.Catalog, llm.Model, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	cat, err := catalog.Load(cfg.Paths.CatalogPath)
	if err != nil {
		return nil, nil, nil, err
	}
	m, err := llm.NewGemini(ctx, cfg.LLM)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, cat, m, nil
}

func videoContext(v catalog.Video) string {
	return fmt.Sprintf(
		"\nContext for this video:\nVideo ID: %s\nSession: %s\nStart: %s  End: %s\nDescription: %s\n",
		v.ID, v.SessionType, v.StartTime, v.EndTime, v.Description)
}

func newGenTranscriptCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "gen-transcript",
		Short: "Generate the narrative day transcript over all catalog videos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, cat, m, err := genDeps(ctx)
			if err != nil {
				return err
			}
			if date == "" {
				date = transcript.Today()
			}

			days := transcript.NewDayStore(cfg.Paths.TranscriptDir)
			base := prompts.OneTimeTranscript()
			delay := time.Duration(cfg.Retry.BaseDelaySeconds) * time.Second

			lines := []string{fmt.Sprintf("Day Transcript - %s", date), ""}
			for i, v := range cat.List() {
				fmt.Printf("Analyzing %s ...\n", v.ID)
				prompt := base + "\n" + videoContext(v)
				text, err := retry.Value(ctx, "day transcript "+v.ID, cfg.Retry.MaxAttempts, delay,
					func(ctx context.Context) (string, error) {
						return m.CallVideo(ctx, prompt, v.URI)
					})
				if err != nil {
					logx.Error().Err(err).Str("video_id", v.ID).Msg("Transcript generation failed for video")
					text = transcriptErrorText
				}
				lines = append(lines,
					strings.Repeat("=", 80),
					fmt.Sprintf("Video %d: %s\n  Session: %s\n  Start: %s  End: %s\n  Description: %s\n",
						i+1, v.ID, v.SessionType, v.StartTime, v.EndTime, v.Description),
					text,
					"")
			}

			path, err := days.SaveText(date, strings.Join(lines, "\n"))
			if err != nil {
				return err
			}
			fmt.Printf("\nSaved day transcript to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date key YYYY-MM-DD (default today)")
	return cmd
}

func newGenChildTranscriptsCmd() *cobra.Command {
	var date, transcriptPath string

	cmd := &cobra.Command{
		Use:   "gen-child-transcripts",
		Short: "Generate per-(video,outfit) child transcripts from the day transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, cat, m, err := genDeps(ctx)
			if err != nil {
				return err
			}
			if date == "" {
				date = transcript.Today()
			}
			if transcriptPath == "" {
				transcriptPath = filepath.Join(cfg.Paths.TranscriptDir,
					fmt.Sprintf("transcript_%s.txt", date))
			}

			raw, err := os.ReadFile(transcriptPath)
			if err != nil {
				return fmt.Errorf("read day transcript: %w", err)
			}
			sections := transcript.ParseDayText(string(raw))
			if len(sections) == 0 {
				fmt.Println("No video sections found in the day transcript. Nothing to do.")
				return nil
			}

			// Replace any prior run for this date.
			if err := os.RemoveAll(filepath.Join(cfg.Paths.ChildDir, date)); err != nil {
				return fmt.Errorf("clear child transcripts for %s: %w", date, err)
			}

			children := transcript.NewChildStore(cfg.Paths.ChildDir)
			delay := time.Duration(cfg.Retry.BaseDelaySeconds) * time.Second
			saved := 0
			for _, sec := range sections {
				v, err := cat.Metadata(sec.VideoID)
				if err != nil {
					logx.Warn().Str("video_id", sec.VideoID).Msg("Transcript section video not in catalog")
					continue
				}
				for _, label := range sec.Students {
					label := transcript.NormalizeLabel(label)
					if label == "" {
						continue
					}
					fmt.Printf("Analyzing %s in %s ...\n", label, v.ID)
					prompt := prompts.ChildSimpleAnalyzer(v.ID, label) + "\n" + videoContext(v)
					text, err := retry.Value(ctx, "child analysis "+v.ID, cfg.Retry.MaxAttempts, delay,
						func(ctx context.Context) (string, error) {
							return m.CallVideo(ctx, prompt, v.URI)
						})
					entry := decodeSimpleEntry(text, err, v.ID, label)
					path, err := children.SaveByLabel(date, v.ID, transcript.Slugify(label), entry)
					if err != nil {
						return err
					}
					fmt.Printf(" - %s\n", path)
					saved++
				}
			}
			fmt.Printf("\nSaved %d child transcript(s).\n", saved)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date key YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&transcriptPath, "transcript", "", "path to the day text transcript")
	return cmd
}

func newGenChildFromImageCmd() *cobra.Command {
	var date, imagePath string

	cmd := &cobra.Command{
		Use:   "gen-child-from-image",
		Short: "Generate per-video child transcripts guided by a reference photo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := os.Stat(imagePath); err != nil {
				return fmt.Errorf("reference image: %w", err)
			}
			cfg, cat, m, err := genDeps(ctx)
			if err != nil {
				return err
			}
			if date == "" {
				date = transcript.Today()
			}
			slug := transcript.Slugify(strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath)))

			children := transcript.NewChildStore(cfg.Paths.ChildDir)
			delay := time.Duration(cfg.Retry.BaseDelaySeconds) * time.Second
			for _, v := range cat.List() {
				fmt.Printf("Analyzing %s ...\n", v.ID)
				prompt := prompts.ChildMoodAnalyzer(v.ID) + "\n" + videoContext(v)
				text, err := retry.Value(ctx, "image-guided analysis "+v.ID, cfg.Retry.MaxAttempts, delay,
					func(ctx context.Context) (string, error) {
						return m.CallVideoWithImage(ctx, prompt, v.URI, imagePath)
					})
				entry := decodeMoodEntry(text, err, v.ID)
				path, err := children.SaveByImage(date, slug, entry)
				if err != nil {
					return err
				}
				fmt.Printf(" - %s\n", path)
			}
			fmt.Println("\nDone.")
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date key YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&imagePath, "image", "", "path to the child's reference image (jpg/png)")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

// decodeMoodEntry parses the image-guided analyzer output, falling back to
// the placeholder document when the response is unusable.
func decodeMoodEntry(text string, callErr error, videoID string) transcript.ChildVideoEntry {
	if callErr != nil {
		logx.Warn().Err(callErr).Str("video_id", videoID).Msg("Image-guided analysis failed")
		return transcript.DefaultChildEntry(videoID)
	}
	obj, err := llm.ExtractJSONObject(text)
	if err != nil {
		logx.Warn().Err(err).Str("video_id", videoID).Msg("Image-guided analysis returned non-JSON")
		return transcript.DefaultChildEntry(videoID)
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return transcript.DefaultChildEntry(videoID)
	}
	var entry transcript.ChildVideoEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		logx.Warn().Err(err).Str("video_id", videoID).Msg("Image-guided analysis schema mismatch")
		return transcript.DefaultChildEntry(videoID)
	}
	normalizeEntry(&entry, videoID)
	return entry
}

// decodeSimpleEntry maps the outfit-based analyzer payload onto the child
// entry schema shared with the image-guided generator.
func decodeSimpleEntry(text string, callErr error, videoID, label string) transcript.ChildVideoEntry {
	entry := transcript.DefaultChildEntry(videoID)
	entry.ChildLabel = label
	if callErr != nil {
		logx.Warn().Err(callErr).Str("video_id", videoID).Msg("Child analysis failed")
		return entry
	}
	obj, err := llm.ExtractJSONObject(text)
	if err != nil {
		logx.Warn().Err(err).Str("video_id", videoID).Msg("Child analysis returned non-JSON")
		return entry
	}
	var payload struct {
		Participated    bool   `json:"participated"`
		DistressPresent bool   `json:"distress_present"`
		DistressTime    string `json:"distress_time"`
		Summary         string `json:"summary"`
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return entry
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		logx.Warn().Err(err).Str("video_id", videoID).Msg("Child analysis schema mismatch")
		return entry
	}

	entry.Observed = payload.Participated
	entry.Participated = &payload.Participated
	if payload.Summary != "" {
		entry.Summary = payload.Summary
	}
	if payload.DistressPresent && payload.DistressTime != "" {
		entry.DistressEvents = []string{payload.DistressTime}
		entry.EvidenceTimes = []string{payload.DistressTime}
	}
	return entry
}

func normalizeEntry(entry *transcript.ChildVideoEntry, videoID string) {
	if entry.VideoID == "" {
		entry.VideoID = videoID
	}
	if entry.EngagementLevel == "" {
		entry.EngagementLevel = "unknown"
	}
	if entry.Mood == nil {
		entry.Mood = []string{}
	}
	if entry.Behaviors == nil {
		entry.Behaviors = []string{}
	}
	if entry.DistressEvents == nil {
		entry.DistressEvents = []string{}
	}
	if entry.EvidenceTimes == nil {
		entry.EvidenceTimes = []string{}
	}
}
