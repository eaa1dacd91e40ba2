package commands

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"hackwave/internal/capture"
	appLog "hackwave/internal/log"
	"hackwave/internal/provider"
	"hackwave/internal/web"
)

type snapshotOptions struct {
	url     string
	output  string
	width   int
	height  int
	serve   bool
	timeout time.Duration
}

func addSnapshot(topLevel *cobra.Command, a *app) {
	o := &snapshotOptions{}
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture the month page as a PNG with headless Chromium.",
		Example: `
hackwave snapshot --output ./calendar.png
hackwave snapshot --serve
hackwave snapshot --url http://calendar.lan:8080/calendar?month=5
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.snapshot(cmd.Context(), o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.url, "url", "", "Page to capture (default: snapshot.url or the configured listen address)")
	f.StringVar(&o.output, "output", "", "PNG output path (default: snapshot.output)")
	f.IntVar(&o.width, "width", 0, "Viewport width (default: snapshot.width)")
	f.IntVar(&o.height, "height", 0, "Viewport height (default: snapshot.height)")
	f.BoolVar(&o.serve, "serve", false, "Serve the page in-process on a loopback port for the capture")
	f.DurationVar(&o.timeout, "timeout", 0, "Capture timeout (default 30s)")
	topLevel.AddCommand(cmd)
}

func (a *app) snapshot(ctx context.Context, o *snapshotOptions) error {
	opts := capture.Options{
		URL:        a.cfg.SnapshotURL(),
		OutputPath: a.cfg.Snapshot.Output,
		Width:      a.cfg.Snapshot.Width,
		Height:     a.cfg.Snapshot.Height,
		Timeout:    o.timeout,
	}
	if o.url != "" {
		opts.URL = o.url
	}
	if o.output != "" {
		opts.OutputPath = o.output
	}
	if o.width > 0 {
		opts.Width = o.width
	}
	if o.height > 0 {
		opts.Height = o.height
	}
	if a.cfg.BasicAuth != nil {
		opts.Username = a.cfg.BasicAuth.Username
		opts.Password = a.cfg.BasicAuth.Password
	}

	if o.serve {
		addr, shutdown, err := a.serveLoopback(ctx)
		if err != nil {
			return err
		}
		defer shutdown()
		opts.URL = "http://" + addr + "/calendar"
	}

	return capture.CalendarPNG(ctx, opts)
}

// serveLoopback starts the web handler on an ephemeral loopback port over a
// freshly loaded local store.
func (a *app) serveLoopback(ctx context.Context) (string, func(), error) {
	p := provider.New(a.newMemoryStore(ctx, false), provider.WithLocation(a.loc))
	if err := p.Init(ctx); err != nil {
		return "", nil, err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}
	srv := &http.Server{
		Handler:           web.NewServer(a.cfg, p).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("loopback server failed", err)
		}
	}()

	shutdown := func() {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}
	return ln.Addr().String(), shutdown, nil
}
