package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quaydns/quaydns/internal/dns/common/log"
	"github.com/quaydns/quaydns/internal/dns/config"
	"github.com/quaydns/quaydns/internal/dns/gateways/admin"
	"github.com/quaydns/quaydns/internal/dns/gateways/transport"
	"github.com/quaydns/quaydns/internal/dns/gateways/upstream"
	"github.com/quaydns/quaydns/internal/dns/gateways/wire"
	"github.com/quaydns/quaydns/internal/dns/infra/metrics"
	"github.com/quaydns/quaydns/internal/dns/repos/recordstore"
	"github.com/quaydns/quaydns/internal/dns/services/resolver"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "quaydnsd"

	// Default timeouts
	defaultUpstreamTimeout = 5 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the DNS server.
type Application struct {
	config    *config.AppConfig
	transport *transport.UDPTransport
	resolver  *resolver.Resolver
	store     *recordstore.Store
	admin     *admin.Server
	metrics   *metrics.Recorder
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":    version,
		"env":        cfg.Env,
		"log_level":  cfg.LogLevel,
		"port":       cfg.Port,
		"bind_addr":  cfg.BindAddr,
		"cache_size": cfg.CacheSize,
		"servers":    cfg.Servers,
	}, "Starting "+appName)

	// Build application with all dependencies
	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	// Start the DNS server
	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, "quaydnsd stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	// Initialize logger (already configured globally)
	logger := log.GetLogger()

	// Create DNS wire codec
	codec := wire.NewUDPCodec(logger)

	// Build the sharded record store. It starts empty: records arrive via
	// the admin RPC service or by caching successful upstream forwards.
	store := recordstore.New(logger)

	// Build the upstream client. An empty server list disables forwarding.
	var upstreamClient resolver.UpstreamClient
	var err error
	if len(cfg.Servers) > 0 {
		upstreamClient, err = upstream.NewResolver(upstream.Options{
			Servers: cfg.Servers,
			Timeout: defaultUpstreamTimeout,
			Codec:   codec,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create upstream client: %w", err)
		}
		log.Info(map[string]any{
			"servers": cfg.Servers,
			"timeout": defaultUpstreamTimeout,
		}, "Upstream DNS client configured")
	} else {
		log.Info(nil, "no upstream servers configured, recursion disabled")
	}

	metricsRecorder := metrics.NewRecorder()

	resolverService := resolver.NewResolver(resolver.ResolverOptions{
		Codec:    codec,
		Store:    store,
		Upstream: upstreamClient,
		Logger:   logger,
		Metrics:  metricsRecorder,
	})

	// Build transport layer
	addr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.Port)
	udpTransport := transport.NewUDPTransport(addr, logger)

	// Build the admin RPC service, wired directly into the same dispatcher
	// the UDP transport uses.
	adminAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.AdminPort)
	adminSvc := admin.NewService(store, resolverService, codec, logger)
	adminServer := admin.NewServer(adminAddr, adminSvc, cfg.AdminToken, logger)

	return &Application{
		config:    cfg,
		transport: udpTransport,
		resolver:  resolverService,
		store:     store,
		admin:     adminServer,
		metrics:   metricsRecorder,
	}, nil
}

// Run starts the DNS server and blocks until context is cancelled.
func (app *Application) Run(ctx context.Context) error {
	app.store.Run(ctx)

	// Start UDP transport
	if err := app.transport.Start(ctx, app.resolver); err != nil {
		return fmt.Errorf("failed to start UDP transport: %w", err)
	}

	log.Info(map[string]any{
		"address":   app.transport.Address(),
		"transport": "UDP",
	}, "DNS server started")

	// Start the admin RPC service and the metrics server alongside it.
	if err := app.admin.Start(); err != nil {
		return fmt.Errorf("failed to start admin RPC server: %w", err)
	}

	metricsAddr := fmt.Sprintf("%s:%d", app.config.BindAddr, app.config.MetricsPort)
	if err := app.metrics.Start(metricsAddr, log.GetLogger()); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info(nil, "Shutdown initiated")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	// Stop transport gracefully
	if err := app.transport.Stop(); err != nil {
		log.Warn(map[string]any{"error": err}, "Error during transport shutdown")
	}

	// Stop the admin RPC server; it waits for auto-refresh goroutines itself.
	app.admin.Stop()

	if err := app.metrics.Stop(shutdownCtx); err != nil {
		log.Warn(map[string]any{"error": err}, "Error during metrics server shutdown")
	}

	// Wait for the record store's reapers to join, or time out.
	done := make(chan struct{})
	go func() {
		app.store.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info(nil, "Graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}
}
