package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panelkit/panel/internal/config"
	"github.com/panelkit/panel/internal/extension"
	"github.com/panelkit/panel/internal/extensions"
	"github.com/panelkit/panel/internal/logging"
	"github.com/panelkit/panel/internal/server"
	"github.com/panelkit/panel/internal/state"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the panel API server",
	Long: `Boot every compiled-in extension in registration order and serve the HTTP API.

Extension routes are mounted under ` + extension.RoutePrefix + `. If any extension
fails to initialize the server does not start.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// app is a booted panel: host state, a Ready registry and the HTTP handler.
type app struct {
	state    *state.State
	registry *extension.Registry
	handler  http.Handler
}

// boot opens the host state and initializes every compiled-in extension.
// The caller owns app.state and must Close it.
func boot(ctx context.Context, s *config.Settings, logger *zap.Logger, promReg *prometheus.Registry) (*app, error) {
	st, err := state.Open(ctx, s, logger)
	if err != nil {
		return nil, err
	}

	reg, err := extension.New(extensions.All(),
		extension.WithLogger(logger),
		extension.WithMetrics(promReg),
	)
	if err != nil {
		st.Close()
		return nil, err
	}
	st.Calls = reg

	extHandler, err := reg.Init(ctx, st)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{
		state:    st,
		registry: reg,
		handler: server.NewRouter(server.Dependencies{
			Registry:   reg,
			Extensions: extHandler,
			Gatherer:   promReg,
			Logger:     logger,
			Version:    buildVersion,
		}),
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	s := *settings
	if serveAddr != "" {
		s.Server.Addr = serveAddr
	}

	logger, err := logging.New(s.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := boot(ctx, &s, logger, promReg)
	if err != nil {
		logger.Error("boot failed", zap.Error(err))
		return fmt.Errorf("booting panel: %w", err)
	}
	defer func() {
		if err := a.state.Close(); err != nil {
			logger.Warn("closing host state", zap.Error(err))
		}
	}()

	logger.Info("panel ready",
		zap.Int("extensions", a.registry.Len()),
		zap.String("version", buildVersion),
	)
	return server.NewManager(a.handler, s.Server, logger).Run(ctx)
}
