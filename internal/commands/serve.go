package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"hackwave/internal/ics"
	appLog "hackwave/internal/log"
	"hackwave/internal/provider"
	"hackwave/internal/store"
	"hackwave/internal/web"
)

func addServe(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and month page.",
		Example: `
hackwave serve
HACKWAVE_LISTEN=:8080 hackwave serve --config /etc/hackwave/config.yaml
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	topLevel.AddCommand(cmd)
}

func (a *app) serve(ctx context.Context) error {
	appLog.Info("hackwave starting",
		"listen", a.cfg.Listen,
		"timezone", a.loc.String(),
		"seed_demo", a.cfg.SeedDemo,
		"feeds", len(a.cfg.RecommendFeeds),
	)

	mem := a.newMemoryStore(ctx, true)
	p := a.newProvider(mem)
	if err := p.Init(ctx); err != nil {
		// The server still starts; clients see the load error flag.
		appLog.Error("initial load failed", err)
	}

	if rec := a.recommender(); rec != nil {
		c := cron.New()
		if _, err := c.AddFunc(a.cfg.RefreshCron, func() { refreshFeeds(ctx, rec, mem, p) }); err != nil {
			appLog.Error("invalid refresh schedule; feeds will not refresh", err, "refresh", a.cfg.RefreshCron)
		} else {
			c.Start()
			defer c.Stop()
			appLog.Info("feed refresh scheduled", "refresh", a.cfg.RefreshCron)
		}
	}

	err := web.StartServer(ctx, a.cfg, p)
	appLog.Info("hackwave exiting")
	return err
}

// refreshFeeds reloads the recommendation feeds into the store and lets the
// provider pick them up. A failed refresh keeps the previous list.
func refreshFeeds(ctx context.Context, rec *ics.Recommender, mem *store.Memory, p *provider.Provider) {
	events, err := rec.Load(ctx)
	if err != nil {
		appLog.Error("feed refresh failed", err)
		return
	}
	mem.SetRecommended(events)
	p.LoadRecommended(ctx)
}
