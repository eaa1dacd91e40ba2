// Package commands wires the hackwave CLI.
package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hackwave/internal/calendar"
	"hackwave/internal/config"
	"hackwave/internal/ics"
	appLog "hackwave/internal/log"
	"hackwave/internal/provider"
	"hackwave/internal/store"
)

const defaultConfigPath = "./hackwave.yaml"

// app is the state shared by every subcommand once the config is loaded.
type app struct {
	v     *viper.Viper
	cfg   *config.Config
	loc   *time.Location
	theme provider.Theme
}

// New builds the root command.
func New() *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "hackwave",
		Short: "HackWave event planner: calendar, agenda and recommendations.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.String("config", defaultConfigPath, "Path to config file (created with defaults if missing)")
	pf.String("listen", "", "HTTP listen address (overrides config)")
	pf.String("timezone", "", "IANA timezone deciding what today is (overrides config)")
	pf.String("log-level", "", "debug, info, warn or error (overrides config)")
	for _, name := range []string{"config", "listen", "timezone", "log-level"} {
		_ = a.v.BindPFlag(name, pf.Lookup(name))
	}

	a.v.SetEnvPrefix("HACKWAVE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	addServe(cmd, a)
	addAgenda(cmd, a)
	addMonth(cmd, a)
	addSnapshot(cmd, a)
	addConfig(cmd, a)
	return cmd
}

// load reads the YAML config and applies flag and HACKWAVE_* overrides.
func (a *app) load() error {
	path := a.v.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}

	if a.v.IsSet("listen") && a.v.GetString("listen") != "" {
		cfg.Listen = a.v.GetString("listen")
	}
	if a.v.IsSet("timezone") && a.v.GetString("timezone") != "" {
		cfg.Timezone = a.v.GetString("timezone")
	}
	if a.v.IsSet("log-level") && a.v.GetString("log-level") != "" {
		cfg.LogLevel = a.v.GetString("log-level")
	}

	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	theme, err := provider.ParseTheme(cfg.Theme)
	if err != nil {
		return fmt.Errorf("config theme: %w", err)
	}
	a.cfg = cfg
	a.loc = loc
	a.theme = theme

	appLog.Debug("effective config",
		"config_path", path,
		"listen", cfg.Listen,
		"timezone", loc.String(),
		"seed_demo", cfg.SeedDemo,
		"feeds", len(cfg.RecommendFeeds),
	)
	return nil
}

func (a *app) today() time.Time {
	return calendar.Today(time.Now(), a.loc)
}

// newMemoryStore builds the local store: demo seed when configured, plus one
// synchronous feed load when feeds are configured. latency is applied only
// when withLatency is set.
func (a *app) newMemoryStore(ctx context.Context, withLatency bool) *store.Memory {
	var opts []store.Option
	if withLatency {
		opts = append(opts, store.WithLatency(a.cfg.Latency))
	}
	if a.cfg.SeedDemo {
		today := a.today()
		opts = append(opts,
			store.WithEvents(store.DemoEvents(today)),
			store.WithRecommended(store.DemoRecommended(today)),
		)
	}
	mem := store.NewMemory(opts...)

	if rec := a.recommender(); rec != nil {
		if events, err := rec.Load(ctx); err != nil {
			appLog.Error("initial feed load failed", err)
		} else {
			mem.SetRecommended(events)
		}
	}
	return mem
}

// recommender returns nil when no feeds are configured.
func (a *app) recommender() *ics.Recommender {
	sources := make([]ics.Source, 0, len(a.cfg.RecommendFeeds))
	for _, f := range a.cfg.RecommendFeeds {
		if f.URL == "" {
			continue
		}
		sources = append(sources, ics.Source{ID: f.ID, URL: f.URL, Category: f.Category})
	}
	if len(sources) == 0 {
		return nil
	}
	return ics.NewRecommender(ics.NewFetcher(a.cfg.CacheDir), sources, a.cfg.FeedHorizon(), a.loc)
}

// newProvider builds a provider over st with the configured zone and theme.
func (a *app) newProvider(st store.Store) *provider.Provider {
	return provider.New(st, provider.WithLocation(a.loc), provider.WithTheme(a.theme))
}

// remoteStore builds an API client, carrying the configured Basic credentials.
func (a *app) remoteStore(baseURL string) (*store.Client, error) {
	var opts []store.ClientOption
	if a.cfg.BasicAuth != nil {
		opts = append(opts, store.WithBasicAuth(a.cfg.BasicAuth.Username, a.cfg.BasicAuth.Password))
	}
	return store.NewClient(baseURL, opts...)
}
