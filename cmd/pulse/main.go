// Command pulse analyses Spotify playlists from the command line. It loads
// configuration from an optional TOML file and the environment, connects the
// cache, wraps the resilient Spotify client in the cache-first catalog and
// prints every result as JSON on stdout. Logs go to stderr.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"Playlist-Pulse/pkg/cache"
	"Playlist-Pulse/pkg/config"
	"Playlist-Pulse/pkg/insights"
	"Playlist-Pulse/pkg/logging"
	"Playlist-Pulse/pkg/music"
	"Playlist-Pulse/pkg/spotify"
)

// environment carries the process edges so tests can swap them.
type environment struct {
	out    io.Writer
	errOut io.Writer
	// newCatalog builds the upstream catalog; the cache decorator is added
	// by the caller.
	newCatalog func(cfg config.Config, log logrus.FieldLogger) (music.Catalog, error)
}

func defaultEnvironment() *environment {
	return &environment{out: os.Stdout, errOut: os.Stderr, newCatalog: spotifyCatalog}
}

// spotifyCatalog is the production catalog.
func spotifyCatalog(cfg config.Config, log logrus.FieldLogger) (music.Catalog, error) {
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}
	opts := cfg.SpotifyOptions()
	opts.Logger = log
	return spotify.NewSpotifyClient(opts)
}

// app is the state shared by every subcommand once the root command has
// loaded configuration.
type app struct {
	env     *environment
	cfg     config.Config
	log     *logrus.Logger
	cache   *cache.Cache
	metrics *http.Server
}

// service builds the insights pipeline over the cached catalog.
func (a *app) service() (*insights.Service, error) {
	upstream, err := a.env.newCatalog(a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	return insights.NewService(music.NewCachedCatalog(upstream, a.cache), a.cache, a.log), nil
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.env.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// failed logs err with its full chain and returns the short message shown
// to the user. Bad playlist references are returned as they are.
func (a *app) failed(what string, err error) error {
	if errors.Is(err, insights.ErrInvalidPlaylist) {
		return err
	}
	a.log.WithError(err).WithField("command", what).Error(what + " failed")
	return errors.New(what + " failed")
}

func (a *app) close() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metrics.Shutdown(ctx); err != nil {
			a.log.WithError(err).Warn("metrics server shutdown failed")
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.WithError(err).Warn("cache close failed")
		}
	}
}

// serveMetrics exposes the cache and client collectors on addr.
func (a *app) serveMetrics(addr string) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(cache.Collectors()...)
	reg.MustRegister(spotify.Collectors()...)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	a.metrics = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		a.log.WithField("addr", addr).Info("metrics listening")
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Error("metrics server failed")
		}
	}()
}

// execute runs the CLI with args and releases the cache and metrics
// listener whether or not the command succeeded.
func execute(ctx context.Context, root *cobra.Command, a *app, args []string) error {
	defer a.close()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(env *environment) (*cobra.Command, *app) {
	a := &app{env: env}
	var (
		configPath  string
		logLevel    string
		metricsAddr string
	)

	root := &cobra.Command{
		Use:           "pulse",
		Short:         "Playlist analytics for Spotify",
		Long:          "pulse scores playlists, compares them head to head and tunes recommendations to their sound.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if metricsAddr != "" {
				cfg.MetricsAddr = metricsAddr
			}
			a.cfg = cfg
			a.log, err = logging.New(cfg.Log.Level, cfg.Log.Format, env.errOut)
			if err != nil {
				return err
			}
			a.cache, err = cache.Open(cmd.Context(), cfg.CacheConfig(), a.log)
			if err != nil {
				return err
			}
			if cfg.MetricsAddr != "" {
				a.serveMetrics(cfg.MetricsAddr)
			}
			return nil
		},
	}
	root.SetOut(env.out)
	root.SetErr(env.errOut)
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides PULSE_LOG_LEVEL)")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(
		analyzeCmd(a),
		battleCmd(a),
		recommendCmd(a),
		evolutionCmd(a),
		searchCmd(a),
		cacheCmd(a),
	)
	return root, a
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := defaultEnvironment()
	root, a := newRootCmd(env)
	if err := execute(ctx, root, a, os.Args[1:]); err != nil {
		fmt.Fprintf(env.errOut, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
