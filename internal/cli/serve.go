package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tessera/pkg/api"
	"github.com/matzehuels/tessera/pkg/config"
	"github.com/matzehuels/tessera/pkg/observability"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout state over HTTP",
		Long: `Serve the layout state as a JSON API. Every change is saved to the
configured storage backend. Prometheus metrics are exposed on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !noMetrics {
				hooks := observability.NewPrometheusHooks(prometheus.DefaultRegisterer)
				observability.SetStoreHooks(hooks)
				observability.SetPersistHooks(hooks.Persist())
				observability.SetHTTPHooks(hooks.HTTP())
				defer observability.Reset()
			}

			return c.withSession(cmd.Context(), func(s *session) error {
				if addr == "" {
					addr = s.cfg.Server.Addr
				}
				srv := api.New(api.Config[config.Widget]{
					Addr:    addr,
					Store:   s.store,
					Persist: s.persist,
					Key:     s.cfg.Storage.Key,
					TTL:     s.cfg.Storage.TTL,
					Logger:  c.Logger,
				})
				c.Logger.Info("serving layout state", "addr", addr, "state", s.store.Get())
				return srv.ListenAndServe(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default: [server] addr, :8080)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable Prometheus hooks")
	return cmd
}
