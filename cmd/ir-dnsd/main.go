package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haukened/ir-dns/internal/dns/common/clock"
	"github.com/haukened/ir-dns/internal/dns/common/log"
	"github.com/haukened/ir-dns/internal/dns/config"
	"github.com/haukened/ir-dns/internal/dns/gateways/transport"
	"github.com/haukened/ir-dns/internal/dns/gateways/upstream"
	"github.com/haukened/ir-dns/internal/dns/gateways/wire"
	"github.com/haukened/ir-dns/internal/dns/repos/blocklist"
	"github.com/haukened/ir-dns/internal/dns/repos/blocklist/bloom"
	"github.com/haukened/ir-dns/internal/dns/repos/blocklist/bolt"
	"github.com/haukened/ir-dns/internal/dns/repos/blocklist/lru"
	"github.com/haukened/ir-dns/internal/dns/repos/dnscache"
	"github.com/haukened/ir-dns/internal/dns/repos/roothints"
	"github.com/haukened/ir-dns/internal/dns/services/resolver"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "ir-dnsd"

	// Default timeouts
	defaultShutdownTimeout = 10 * time.Second

	// False positive rate for the blocklist bloom filter
	blocklistFPRate = 0.01
)

// Application holds all the components of the DNS server
type Application struct {
	config    *config.AppConfig
	transport resolver.ServerTransport
	resolver  *resolver.Resolver
	cleanup   []func() error
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
		"listen":     cfg.Listen,
		"cache_size": cfg.CacheSize,
		"root_hints": cfg.RootHints,
		"blocklist":  cfg.Blocklist,
	}, "Starting IR-DNS server")

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

	log.Info(nil, "IR-DNS server stopped gracefully")
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	// Create shared clock for consistent time across all components
	clk := &clock.RealClock{}

	// Initialize logger (already configured globally)
	logger := log.GetLogger()

	// Create DNS wire codec
	codec := wire.NewMessageCodec(logger)

	app := &Application{config: cfg}

	// Build repository layer
	repos, err := buildRepositories(cfg, logger, app)
	if err != nil {
		return nil, fmt.Errorf("failed to build repositories: %w", err)
	}

	// Create upstream exchange client
	exchange, err := upstream.NewClient(upstream.Options{
		Timeout: time.Duration(cfg.UpstreamTimeout) * time.Second,
		Codec:   codec,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream client: %w", err)
	}

	// Build service layer
	resolverService := resolver.NewResolver(resolver.ResolverOptions{
		Blocklist:      repos.blocklist,
		Cache:          repos.cache,
		Clock:          clk,
		Exchange:       exchange,
		Logger:         logger,
		Roots:          repos.roots,
		AttemptTimeout: time.Duration(cfg.UpstreamTimeout) * time.Second,
		MaxAttempts:    cfg.MaxAttempts,
	})

	// Build transport layer
	udpTransport, err := transport.NewTransport(transport.TransportUDP, cfg.Listen, codec, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	app.transport = udpTransport
	app.resolver = resolverService
	return app, nil
}

// repositories holds all repository implementations
type repositories struct {
	blocklist resolver.Blocklist
	cache     resolver.Cache
	roots     resolver.RootHints
}

// buildRepositories creates and configures all repository implementations
func buildRepositories(cfg *config.AppConfig, logger log.Logger, app *Application) (*repositories, error) {
	// Create answer cache
	var cache resolver.Cache
	if cfg.DisableCache {
		cache = dnscache.Nop()
		log.Info(map[string]any{"disabled": true}, "DNS response caching disabled")
	} else {
		// Safely convert uint to int with bounds check
		cacheSize := cfg.CacheSize
		if cacheSize > uint(^uint(0)>>1) { // Check if it exceeds max int
			return nil, fmt.Errorf("cache size too large: %d (max %d)", cacheSize, ^uint(0)>>1)
		}
		lruCache, err := dnscache.New(int(cacheSize))
		if err != nil {
			return nil, fmt.Errorf("failed to create answer cache: %w", err)
		}
		cache = lruCache
		log.Info(map[string]any{
			"type": "LRU",
			"size": cfg.CacheSize,
		}, "DNS response cache configured")
	}

	// Create root hints
	roots, err := buildRootHints(cfg)
	if err != nil {
		return nil, err
	}

	// Create blocklist repository
	blocklistRepo, err := buildBlocklist(cfg, logger, app)
	if err != nil {
		return nil, err
	}

	return &repositories{
		blocklist: blocklistRepo,
		cache:     cache,
		roots:     roots,
	}, nil
}

// buildRootHints loads the configured root hints file, or falls back to the
// built-in IANA list when no file is configured.
func buildRootHints(cfg *config.AppConfig) (resolver.RootHints, error) {
	if cfg.RootHints == "" {
		hints := roothints.Defaults()
		log.Info(map[string]any{
			"source":  "builtin",
			"servers": len(hints.Addresses()),
		}, "Root hints initialized")
		return hints, nil
	}

	hints, err := roothints.Load(cfg.RootHints)
	if err != nil {
		return nil, fmt.Errorf("failed to load root hints: %w", err)
	}
	log.Info(map[string]any{
		"source":  cfg.RootHints,
		"servers": len(hints.Addresses()),
	}, "Root hints initialized")
	return hints, nil
}

// buildBlocklist assembles the store, decision cache, and bloom prefilter
// behind the blocklist repository, then loads the configured rule file.
// When no file is configured a no-op blocklist is returned.
func buildBlocklist(cfg *config.AppConfig, logger log.Logger, app *Application) (resolver.Blocklist, error) {
	if cfg.Blocklist == "" {
		log.Info(map[string]any{"enabled": false}, "Blocklist disabled")
		return &blocklist.NoopBlocklist{}, nil
	}

	store, err := bolt.New(cfg.BlocklistDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open blocklist store: %w", err)
	}
	app.cleanup = append(app.cleanup, store.Close)

	decisions, err := lru.New(cfg.BlocklistCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create blocklist decision cache: %w", err)
	}

	repo := blocklist.NewRepository(store, decisions, bloom.NewFactory(), blocklistFPRate)

	rules, err := blocklist.LoadFile(cfg.Blocklist, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load blocklist file: %w", err)
	}

	if err := repo.UpdateAll(rules, 1, time.Now().Unix()); err != nil {
		return nil, fmt.Errorf("failed to index blocklist rules: %w", err)
	}

	log.Info(map[string]any{
		"source": cfg.Blocklist,
		"rules":  len(rules),
	}, "Blocklist initialized")
	return repo, nil
}

// Run starts the DNS server and blocks until context is cancelled
func (app *Application) Run(ctx context.Context) error {
	// Start UDP transport
	if err := app.transport.Start(ctx, app.resolver); err != nil {
		return fmt.Errorf("failed to start UDP transport: %w", err)
	}

	log.Info(map[string]any{
		"address":   app.transport.Address(),
		"transport": "UDP",
	}, "DNS server started")

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

	// Close remaining resources or give up at the timeout
	done := make(chan struct{})
	go func() {
		for _, fn := range app.cleanup {
			if err := fn(); err != nil {
				log.Warn(map[string]any{"error": err}, "Error during cleanup")
			}
		}
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
