package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo \"question\"",
		Short: "Run the transcript-only demo with a preset child",
		Long: "Runs the same conversation loop as ask, but with the demo child\n" +
			"preselected and answering restricted to the cached transcripts, so no\n" +
			"video analysis calls are made.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			opts := conversationOptions{
				ChildInfo:       cfg.Demo.ChildInfo,
				TranscriptsOnly: true,
				DemoMode:        true,
				Greeting: fmt.Sprintf(
					"Hi! I'm your daycare day-recap assistant. I'll answer from today's notes for %s.",
					cfg.Demo.ChildInfo),
			}
			return runConversation(cmd.Context(), app, strings.Join(args, " "), opts)
		},
	}
}
