package cli

import (
	"github.com/spf13/cobra"

	"github.com/daycare-qa/server/internal/api"
	logx "github.com/daycare-qa/server/pkg/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP question-answering server",
		Args:  cobra.NoArgs,
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

			srv := api.NewServer(app.Runner, app.Extractor, app.Sessions)
			logx.Info().Str("addr", cfg.HTTPAddr).Msg("Starting HTTP server")
			return srv.Run(cfg.HTTPAddr)
		},
	}
}
