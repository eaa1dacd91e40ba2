package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hackwave/internal/calendar"
	"hackwave/internal/provider"
	"hackwave/internal/store"
	"hackwave/internal/term"
)

type viewOptions struct {
	remote string
	today  string
}

func (o *viewOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.remote, "remote", "", "Read from a running server (e.g. http://127.0.0.1:8080) instead of the local store")
	cmd.Flags().StringVar(&o.today, "today", "", "Reference date YYYY-MM-DD (default: today)")
}

func addAgenda(topLevel *cobra.Command, a *app) {
	o := &viewOptions{}
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Print upcoming events and recommendations.",
		Example: `
hackwave agenda
hackwave agenda --today 2024-06-01
hackwave agenda --remote http://127.0.0.1:8080
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.openProvider(cmd.Context(), o.remote)
			if err != nil {
				return err
			}
			today, err := o.referenceDate(p)
			if err != nil {
				return err
			}
			term.WriteAgenda(cmd.OutOrStdout(), p.Agenda(today, a.cfg.AgendaLimit))
			return nil
		},
	}
	o.addFlags(cmd)
	topLevel.AddCommand(cmd)
}

func (o *viewOptions) referenceDate(p *provider.Provider) (time.Time, error) {
	if o.today == "" {
		return p.Today(), nil
	}
	t, err := calendar.ParseDate(o.today)
	if err != nil {
		return time.Time{}, fmt.Errorf("--today must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// openProvider loads a provider over either the local store or a remote API.
// A failed primary load is an error here: there is nothing to print.
func (a *app) openProvider(ctx context.Context, remote string) (*provider.Provider, error) {
	var st store.Store
	if remote != "" {
		c, err := a.remoteStore(remote)
		if err != nil {
			return nil, err
		}
		st = c
	} else {
		st = a.newMemoryStore(ctx, false)
	}

	p := a.newProvider(st)
	if err := p.Init(ctx); err != nil {
		return nil, err
	}
	return p, nil
}
