package cli

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KafClaw/lexteams/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Bot Framework messaging endpoint over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		if strings.TrimSpace(serveAddr) != "" {
			env.ListenAddr = strings.TrimSpace(serveAddr)
		}
		logger := newLogger(cmd.ErrOrStderr(), env)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// A long-running server reuses the app config across requests.
		h, err := buildHandler(ctx, env, logger, true)
		if err != nil {
			return err
		}
		return server.New(h, logger).ListenAndServe(ctx, env.ListenAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides LEXTEAMS_ADDR)")
}
