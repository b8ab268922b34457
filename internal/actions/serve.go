package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/act3-ai/go-common/pkg/logger"

	"github.com/act3-ai/forge/internal/git"
	"github.com/act3-ai/forge/internal/repocache"
	"github.com/act3-ai/forge/internal/storage"
	"github.com/act3-ai/forge/internal/transport"
	"github.com/act3-ai/forge/internal/web"
	"github.com/act3-ai/forge/pkg/apis/forge.act3-ai.io/v1alpha1"
)

// shutdownGrace bounds how long in-flight requests may run after the serve
// context is canceled.
const shutdownGrace = 10 * time.Second

// Serve runs the smart-HTTP transport server.
type Serve struct {
	*Forge

	// Listen overrides the configured listen address when set.
	Listen string
}

// NewServe creates a new serve action.
func NewServe(forge *Forge) *Serve {
	return &Serve{Forge: forge}
}

// Run serves the transport endpoints until ctx is canceled.
func (action *Serve) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	cfg, err := action.GetConfig(ctx)
	if err != nil {
		return fmt.Errorf("getting configuration: %w", err)
	}

	if cfg.TempDir != "" {
		// rewrite worktrees and pack staging resolve scratch space via TMPDIR
		if err := os.Setenv("TMPDIR", cfg.TempDir); err != nil {
			return fmt.Errorf("setting scratch directory: %w", err)
		}
	}

	store, cache, err := buildStorage(cfg)
	if err != nil {
		return fmt.Errorf("initializing storage backend: %w", err)
	}

	runner := git.NewRunner()
	handlers := &web.Handlers{
		Runner:   runner,
		Cache:    cache,
		Receiver: transport.NewReceiver(runner, store),
		Access:   web.AllowAll{},
	}

	mux := http.NewServeMux()
	handlers.Routes(mux)

	addr := cfg.Listen
	if action.Listen != "" {
		addr = action.Listen
	}

	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go evictLoop(ctx, cache, cfg.CacheTTL.Duration)

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.ErrorContext(ctx, "shutting down server", slog.String("error", err.Error()))
		}
	}()

	log.InfoContext(ctx, "serving git transport",
		slog.String("addr", addr),
		slog.String("backend", cfg.Storage.Backend),
		slog.String("repositoryRoot", cfg.RepositoryRoot))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// buildStorage resolves the configured backend into an object store and the
// repository cache layered over it.
func buildStorage(cfg *v1alpha1.Configuration) (storage.Store, repocache.Cache, error) {
	switch cfg.Storage.Backend {
	case v1alpha1.StorageLocal:
		store, err := storage.NewFSStore(cfg.RepositoryRoot)
		if err != nil {
			return nil, nil, fmt.Errorf("opening local store at %s: %w", cfg.RepositoryRoot, err)
		}
		return store, repocache.NewLocal(cfg.RepositoryRoot), nil
	case v1alpha1.StorageHTTP:
		store, err := storage.NewHTTPStore(cfg.Storage.Endpoint)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to remote store %s: %w", cfg.Storage.Endpoint, err)
		}
		cache := repocache.NewRemote(store, cfg.RepositoryRoot,
			repocache.WithTTL(cfg.CacheTTL.Duration))
		return store, cache, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// evictLoop periodically drops cache entries older than the time-to-live.
func evictLoop(ctx context.Context, cache repocache.Cache, ttl time.Duration) {
	if ttl <= 0 {
		ttl = repocache.DefaultTTL
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := cache.Cleanup(ctx); err != nil {
				logger.FromContext(ctx).ErrorContext(ctx, "evicting cache entries",
					slog.String("error", err.Error()))
			}
		}
	}
}
