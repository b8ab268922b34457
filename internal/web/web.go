// Package web exposes the smart-HTTP surface: ref discovery plus the
// upload-pack and receive-pack request/response bodies. Routing beyond these
// three endpoints, authentication, and authorization business logic live
// elsewhere; only the access verdict is consumed here.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/act3-ai/go-common/pkg/logger"

	"github.com/act3-ai/forge/internal/git"
	"github.com/act3-ai/forge/internal/repocache"
	"github.com/act3-ai/forge/internal/transport"
)

// AccessChecker answers whether a request may read or write a repository.
// Implementations hold the platform's permission model, this package consumes
// only the verdict.
type AccessChecker interface {
	CanRead(ctx context.Context, r *http.Request, owner, name string) bool
	CanWrite(ctx context.Context, r *http.Request, owner, name string) bool
}

// AllowAll grants every request, for single-user or test deployments.
type AllowAll struct{}

// CanRead implements [AccessChecker].
func (AllowAll) CanRead(context.Context, *http.Request, string, string) bool { return true }

// CanWrite implements [AccessChecker].
func (AllowAll) CanWrite(context.Context, *http.Request, string, string) bool { return true }

// Handlers serves the smart protocol for repositories resolved through a
// [repocache.Cache].
type Handlers struct {
	Runner   *git.Runner
	Cache    repocache.Cache
	Receiver *transport.Receiver
	Access   AccessChecker
}

// Routes registers the three smart-HTTP endpoints on mux.
func (h *Handlers) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{owner}/{name}/info/refs", h.InfoRefs)
	mux.HandleFunc("POST /{owner}/{name}/git-upload-pack", h.UploadPack)
	mux.HandleFunc("POST /{owner}/{name}/git-receive-pack", h.ReceivePack)
}

// InfoRefs answers the discovery request for both services.
func (h *Handlers) InfoRefs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, name := r.PathValue("owner"), r.PathValue("name")
	service := r.URL.Query().Get("service")
	if service != transport.UploadPackService && service != transport.ReceivePackService {
		// the legacy dumb protocol is not served
		http.Error(w, "smart protocol required", http.StatusForbidden)
		return
	}

	write := service == transport.ReceivePackService
	if !h.authorized(ctx, r, owner, name, write) {
		http.Error(w, "repository not found", http.StatusNotFound)
		return
	}

	repoPath, release, err := h.acquire(ctx, owner, name)
	if err != nil {
		h.acquireError(ctx, w, err)
		return
	}
	defer release(false)

	w.Header().Set("Content-Type", fmt.Sprintf("application/x-%s-advertisement", service))
	w.Header().Set("Cache-Control", "no-cache")

	if err := transport.AdvertiseRefs(ctx, h.Runner, repoPath, service, w); err != nil {
		// nothing was written yet, the advertisement is staged
		h.serverError(ctx, w, err)
	}
}

// UploadPack serves one fetch round trip.
func (h *Handlers) UploadPack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, name := r.PathValue("owner"), r.PathValue("name")

	if !h.authorized(ctx, r, owner, name, false) {
		http.Error(w, "repository not found", http.StatusNotFound)
		return
	}

	repoPath, release, err := h.acquire(ctx, owner, name)
	if err != nil {
		h.acquireError(ctx, w, err)
		return
	}
	defer release(false)

	w.Header().Set("Content-Type", "application/x-git-upload-pack-result")
	w.Header().Set("Cache-Control", "no-cache")

	if err := transport.UploadPack(ctx, h.Runner, repoPath, r.Body, w); err != nil {
		// the response may be partially written, only log
		logger.FromContext(ctx).ErrorContext(ctx, "upload-pack failed", slog.String("error", err.Error()))
	}
}

// ReceivePack serves one push.
func (h *Handlers) ReceivePack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, name := r.PathValue("owner"), r.PathValue("name")

	if !h.authorized(ctx, r, owner, name, true) {
		http.Error(w, "repository not found", http.StatusNotFound)
		return
	}

	repoPath, release, err := h.acquire(ctx, owner, name)
	if err != nil {
		h.acquireError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-git-receive-pack-result")
	w.Header().Set("Cache-Control", "no-cache")

	statuses, err := h.Receiver.Serve(ctx, repoPath, repocache.StoragePath(owner, name), r.Body, w)
	if err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "receive-pack failed", slog.String("error", err.Error()))
		if len(statuses) == 0 {
			// nothing was written, the request never parsed
			http.Error(w, "malformed request", http.StatusBadRequest)
			release(false)
			return
		}
	}

	modified := false
	for _, st := range statuses {
		if st.OK() {
			modified = true
			break
		}
	}
	release(modified)
}

// acquire materializes the repository and returns a release func that syncs
// it back when modified.
func (h *Handlers) acquire(ctx context.Context, owner, name string) (string, func(modified bool), error) {
	repoPath, err := h.Cache.Acquire(ctx, owner, name)
	if err != nil {
		return "", nil, fmt.Errorf("acquiring repository %s/%s: %w", owner, name, err)
	}
	release := func(modified bool) {
		if err := h.Cache.Release(context.WithoutCancel(ctx), owner, name, modified); err != nil {
			logger.FromContext(ctx).ErrorContext(ctx, "releasing repository",
				slog.String("owner", owner), slog.String("name", name), slog.String("error", err.Error()))
		}
	}
	return repoPath, release, nil
}

func (h *Handlers) authorized(ctx context.Context, r *http.Request, owner, name string, write bool) bool {
	if write {
		return h.Access.CanWrite(ctx, r, owner, name)
	}
	return h.Access.CanRead(ctx, r, owner, name)
}

// acquireError maps an acquisition failure to a response. A name that cannot
// address a hosted repository is reported exactly like a missing one.
func (h *Handlers) acquireError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, repocache.ErrBadName) {
		http.Error(w, "repository not found", http.StatusNotFound)
		return
	}
	h.serverError(ctx, w, err)
}

func (h *Handlers) serverError(ctx context.Context, w http.ResponseWriter, err error) {
	logger.FromContext(ctx).ErrorContext(ctx, "request failed", slog.String("error", err.Error()))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
