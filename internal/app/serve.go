package app

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/hookscontent/hooks/internal/db"
	"github.com/hookscontent/hooks/internal/handlers"
	"github.com/hookscontent/hooks/internal/httpserver"
	"github.com/hookscontent/hooks/internal/middleware"
)

func newServeCommand(e *env) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development backend",
		Long: `Run an HTTP server implementing the HooksContent API. Data lives in memory
unless HOOKS_DATABASE_URL points at PostgreSQL (apply 'hookscontent migrate'
first). Hooks come from built-in templates unless HOOKS_BEDROCK_MODEL names a
Bedrock model.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := httpserver.SignalContext(cmd.Context())
			defer stop()

			cfg := e.cfg
			if cmd.Flags().Changed("port") {
				cfg.AppPort = port
			}
			logger := e.logger

			var pool db.Pool
			if cfg.DatabaseURL != "" {
				pgPool, err := db.Connect(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer pgPool.Close()
				pool = pgPool
				logger.Info("using postgres storage")
			} else {
				logger.Warn("HOOKS_DATABASE_URL not set, data is kept in memory")
			}

			deps, err := buildDependencies(ctx, pool, cfg)
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			handlers.RegisterRoutes(mux, deps)

			srv := httpserver.New(cfg.AppPort, middleware.RequestLogger(logger)(mux))

			logger.Info("starting http server", "port", cfg.AppPort, "bedrock", cfg.Bedrock.ModelID != "")
			fmt.Fprintf(cmd.ErrOrStderr(), "Serving the HooksContent API on http://localhost:%d\n", cfg.AppPort)
			return srv.Run(ctx, logger)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default $HOOKS_PORT or 8000)")
	return cmd
}
