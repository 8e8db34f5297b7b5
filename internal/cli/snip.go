package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daycare-qa/server/internal/qa/catalog"
	"github.com/daycare-qa/server/internal/qa/evidence"
	"github.com/daycare-qa/server/internal/qa/transcript"
)

func newSnipEvidenceCmd() *cobra.Command {
	var videoID, child, date string
	var times []string

	cmd := &cobra.Command{
		Use:   "snip-evidence",
		Short: "Cut evidence clips from one catalog video",
		Long: "Downloads the source video and cuts one clip per evidence time\n" +
			"expression. Times come from --times or, when --child is given, from the\n" +
			"child's transcript for the date.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cat, err := catalog.Load(cfg.Paths.CatalogPath)
			if err != nil {
				return err
			}
			uri, err := cat.URI(videoID)
			if err != nil {
				return err
			}
			if date == "" {
				date = transcript.Today()
			}

			if len(times) == 0 && child != "" {
				children := transcript.NewChildStore(cfg.Paths.ChildDir)
				doc, err := children.LoadForDate(child, date)
				if err != nil {
					return fmt.Errorf("load child transcript: %w", err)
				}
				if doc != nil {
					if entry, ok := doc.Entry(videoID); ok {
						times = entry.EvidenceTimes
					}
				}
			}
			if len(times) == 0 {
				return fmt.Errorf("no evidence times for %s; pass --times or --child", videoID)
			}

			dl, err := evidence.NewRemoteDownloader(ctx)
			if err != nil {
				return fmt.Errorf("initialise downloader: %w", err)
			}
			snipper := evidence.NewSnipper(dl, cfg.Paths, cfg.Answer, cfg.Retry)

			clips, err := snipper.Snip(ctx, videoID, uri, times)
			if err != nil {
				return err
			}
			if len(clips) == 0 {
				fmt.Println("No clips were produced.")
				return nil
			}
			fmt.Printf("Saved %d clip(s):\n", len(clips))
			for _, c := range clips {
				fmt.Printf(" - %s\n", c)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&videoID, "video-id", "", "catalog video id")
	cmd.Flags().StringVar(&child, "child", "", "child name used to look up evidence times")
	cmd.Flags().StringVar(&date, "date", "", "date key YYYY-MM-DD (default today)")
	cmd.Flags().StringSliceVar(&times, "times", nil, "evidence time expressions (e.g. ~12:30, 10:00-10:45)")
	_ = cmd.MarkFlagRequired("video-id")
	return cmd
}
