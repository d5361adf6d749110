package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vango-dev/carbon/internal/errors"
	"github.com/vango-dev/carbon/internal/preview"
	"github.com/vango-dev/carbon/internal/watch"
	"github.com/vango-dev/carbon/pkg/middleware"
	"github.com/vango-dev/carbon/pkg/render"
)

// templatePatterns selects the files the preview reloads on.
func templatePatterns() []string {
	patterns := make([]string, 0, len(render.DefaultExtensions))
	for _, ext := range render.DefaultExtensions {
		patterns = append(patterns, "**/*"+ext)
	}
	return patterns
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port        int
		host        string
		noWatch     bool
		openBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the preview server",
		Long: `Serve the project's routes with live navigation.

Pages are rendered on the server. Each browser tab keeps a router over a
WebSocket, so links matching the router's link selector navigate without
reloading the page.

Template directories are watched and every open tab re-renders when a
template changes. Templates on S3 are loaded once at startup.

The server also exposes:
  /_carbon/routes   the route table as JSON
  /metrics          Prometheus metrics`,
		Example: `  carbon serve
  carbon serve --port=8080 --host=0.0.0.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(flags)
			if err != nil {
				return err
			}
			if port > 0 {
				p.cfg.Preview.Port = port
			}
			if host != "" {
				p.cfg.Preview.Host = host
			}
			if noWatch {
				p.cfg.Preview.Watch = false
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, flags, p, openBrowser)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from carbon.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from carbon.json)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload when templates change")
	cmd.Flags().BoolVarP(&openBrowser, "open", "o", false, "Open browser on start")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, flags *globalFlags, p *project, openBrowser bool) error {
	logger := newLogger(cmd.ErrOrStderr(), flags)

	srv, err := preview.New(ctx, preview.Config{
		Addr:     p.cfg.PreviewAddress(),
		Origin:   p.cfg.Origin,
		Manifest: p.manifest,
		Router:   p.cfg.RouterPatch(),
		Sources:  p.sources(),
		Metrics:  middleware.Prometheus(),
		Tracing:  middleware.OpenTelemetry(middleware.WithURLFilter(isPageURL)),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	if p.cfg.Preview.Watch && !p.cfg.TemplatesOnS3() {
		w, err := watch.New(watch.Config{
			Dir:      p.cfg.TemplateSource(),
			Patterns: templatePatterns(),
			Logger:   logger,
			OnChange: func(ctx context.Context, changed []string) error {
				if err := srv.Reload(ctx); err != nil {
					logger.Error("reload failed", "files", changed, "error", err)
					return nil
				}
				success(cmd.OutOrStdout(), "Reloaded %d session(s) after %s", srv.SessionCount(), strings.Join(changed, ", "))
				return nil
			},
		})
		if err != nil {
			return errors.New("C201").Wrap(err)
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("template watcher stopped", "error", err)
			}
		}()
	}

	url := p.cfg.PreviewURL()
	fmt.Fprintf(cmd.OutOrStdout(), "\n  carbon preview on %s\n\n", url)
	if openBrowser {
		go openURL(url)
	}

	if err := srv.Run(ctx); err != nil {
		return errors.New("C202").Wrap(err).
			WithSuggestion(fmt.Sprintf("Is another process listening on %s? Try --port.", p.cfg.PreviewAddress()))
	}
	return nil
}

// isPageURL keeps browser favicon probes out of traces.
func isPageURL(url string) bool {
	return !strings.HasPrefix(url, "/favicon.ico")
}

// openURL opens a URL in the default browser.
func openURL(url string) {
	var cmd *exec.Cmd
	switch {
	case commandExists("xdg-open"):
		cmd = exec.Command("xdg-open", url)
	case commandExists("open"):
		cmd = exec.Command("open", url)
	default:
		return
	}
	cmd.Start()
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
