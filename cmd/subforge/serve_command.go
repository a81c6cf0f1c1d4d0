package main

import (
	"strings"

	"github.com/spf13/cobra"

	"subforge/internal/api"
	"subforge/internal/logging"
	"subforge/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP control surface for an editor front end",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := ctx.openApp(runCtx)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, r := range preflight.RunAll(runCtx, a.cfg) {
				if r.Passed {
					continue
				}
				logging.WarnWithContext(a.logger, "preflight check failed", "preflight_failed",
					logging.String("check", r.Name),
					logging.String("detail", r.Detail),
					logging.String(logging.FieldImpact, "dependent operations will fail until fixed"),
				)
			}

			addr := a.cfg.API.Bind
			if strings.TrimSpace(bind) != "" {
				addr = strings.TrimSpace(bind)
			}
			router := api.NewRouter(a.wb, a.store, a.cfg.API.AllowedOrigins, a.logger)
			return api.Serve(runCtx, addr, router, a.logger)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides api.bind)")
	return cmd
}
