package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daycare-qa/server/internal/qa/model"
	logx "github.com/daycare-qa/server/pkg/logger"
)

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask \"question\"",
		Short: "Ask a question about the child's day, then take follow-ups interactively",
		Args:  cobra.MinimumNArgs(1),
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
			return runConversation(cmd.Context(), app, strings.Join(args, " "), conversationOptions{})
		},
	}
}

type conversationOptions struct {
	ChildInfo       string
	TranscriptsOnly bool
	DemoMode        bool
	Greeting        string
}

// runConversation drives one top-level question through the pipeline and
// then loops on follow-ups until the parent quits.
func runConversation(ctx context.Context, app *App, question string, opts conversationOptions) error {
	in := bufio.NewReader(os.Stdin)

	if opts.Greeting != "" {
		fmt.Println(opts.Greeting)
	}
	fmt.Printf("\nQuestion: %s\n", question)

	history := []model.ConversationMessage{model.UserMessage(question)}

	st := model.NewRequestState(question, nil)
	st.ChildInfo = opts.ChildInfo
	st.TranscriptsOnly = opts.TranscriptsOnly
	st.DemoMode = opts.DemoMode

	out, err := app.Runner.Ask(ctx, st)
	if err != nil {
		return err
	}

	if out.WaitingForChildInfo {
		fmt.Printf("\n%s\n", out.UserQuestion)
		history = append(history, model.AssistantMessage(out.UserQuestion))

		reply, err := readLine(in, "Your response: ")
		if err != nil {
			return err
		}
		out.ChildInfo = reply
		history = append(history, model.UserMessage(reply))

		out, err = app.Runner.Ask(ctx, out)
		if err != nil {
			return err
		}
	}

	if len(out.TargetVideos) > 0 {
		fmt.Printf("\nVideos analyzed: %s\n", strings.Join(out.TargetVideos, ", "))
	}
	if out.TargetQuestion != "" {
		fmt.Printf("Refined question: %s\n", out.TargetQuestion)
	}
	fmt.Printf("\nFinal answer:\n%s\n", out.FinalAnswer)
	history = append(history, model.AssistantMessage(out.FinalAnswer))

	for {
		followup, err := readLine(in, "\nFollow-up question (or 'quit' to exit): ")
		if err == io.EOF || isQuit(followup) {
			fmt.Println("Goodbye!")
			return nil
		}
		if err != nil {
			return err
		}

		history = append(history, model.UserMessage(followup))

		fst := model.NewRequestState(question, history)
		fst.FinalAnswer = out.FinalAnswer
		fst.ChildInfo = out.ChildInfo
		fst.TranscriptsOnly = opts.TranscriptsOnly
		fst.DemoMode = opts.DemoMode

		fout, err := app.Runner.Followup(ctx, fst)
		if err != nil {
			logx.Error().Err(err).Msg("Follow-up failed")
			fmt.Println("\nSorry, I couldn't process that follow-up. Please try again.")
			continue
		}

		answer := fout.FollowupResponse
		switch {
		case fout.FollowupRoute == model.RouteEvidence:
			fout = app.Extractor.Run(ctx, fout, "")
			answer = fout.EvidenceMessage
		case fout.FinalAnswer != "" && fout.FinalAnswer != out.FinalAnswer:
			// The follow-up looped back through the pipeline for a
			// fresh answer.
			answer = fout.FinalAnswer
			out = fout
		}

		fmt.Printf("\n%s\n", answer)
		history = append(history, model.AssistantMessage(answer))
	}
}

func readLine(in *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		return "", io.EOF
	}
	return line, nil
}

func isQuit(s string) bool {
	switch strings.ToLower(s) {
	case "", "quit", "exit", "q":
		return true
	}
	return false
}
