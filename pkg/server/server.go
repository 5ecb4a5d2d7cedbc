// Package server serves the hook registry over HTTP: the stored hook list,
// candidate discovery from the host catalog, and locale dictionaries.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/jingkaihe/hushprint/internal/errx"
	"github.com/jingkaihe/hushprint/pkg/hooks"
	"github.com/jingkaihe/hushprint/pkg/host"
	"github.com/jingkaihe/hushprint/pkg/i18n"
	"github.com/jingkaihe/hushprint/pkg/logging"
)

// DefaultBasePath is the prefix hosts mount the registry under.
const DefaultBasePath = "/remove-print"

// HookStore persists the hook list. *store.Store implements it.
type HookStore interface {
	Load(ctx context.Context) hooks.List
	Replace(ctx context.Context, list hooks.List) (hooks.List, error)
	Reset(ctx context.Context) (hooks.List, error)
}

type Config struct {
	Store        HookStore
	Catalog      host.Catalog
	Instrumenter host.Instrumenter
	// BasePath prefixes every route. Empty serves at the root.
	BasePath string
	Emitter  *logging.Emitter
	Logger   *slog.Logger
}

// Server handles registry requests. Replace and reset are serialized so
// the stored list and the installed hooks change together.
type Server struct {
	store    HookStore
	catalog  host.Catalog
	inst     host.Instrumenter
	basePath string
	emitter  *logging.Emitter
	logger   *slog.Logger

	mu sync.Mutex
}

type hooksRequest struct {
	Hooks hooks.List `json:"hooks"`
}

func New(cfg Config) (*Server, error) {
	if cfg.Store == nil || cfg.Catalog == nil || cfg.Instrumenter == nil {
		return nil, errx.With(ErrConfig, ": store, catalog and instrumenter are required")
	}
	basePath := strings.TrimRight(strings.TrimSpace(cfg.BasePath), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		return nil, errx.With(ErrConfig, ": base path %q must start with /", cfg.BasePath)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:    cfg.Store,
		catalog:  cfg.Catalog,
		inst:     cfg.Instrumenter,
		basePath: basePath,
		emitter:  cfg.Emitter,
		logger:   logger.With("component", "server"),
	}, nil
}

// BasePath returns the normalized route prefix.
func (s *Server) BasePath() string {
	return s.basePath
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/hooks", s.handleHooks)
	mux.HandleFunc("/nodes", s.handleNodes)
	mux.HandleFunc("/methods/", s.handleMethods)
	mux.HandleFunc("/locales/", s.handleLocale)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.basePath == "" {
		return mux
	}
	return http.StripPrefix(s.basePath, mux)
}

// ApplyStored installs the stored hooks. Call it once at startup.
func (s *Server) ApplyStored(ctx context.Context) (hooks.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.store.Load(ctx)
	hooked, err := s.inst.Apply(ctx, list)
	if err != nil {
		return nil, errx.Wrap(ErrApplyHooks, err)
	}
	s.logger.Info("stored hooks applied", "count", len(list), "hooked", len(hooked))
	return hooked, nil
}

func (s *Server) handleHooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{"hooks": s.store.Load(r.Context())})
	case http.MethodPost:
		s.handleReplaceHooks(w, r)
	case http.MethodDelete:
		s.handleResetHooks(w, r)
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPost, http.MethodDelete)
	}
}

func (s *Server) handleReplaceHooks(w http.ResponseWriter, r *http.Request) {
	var req hooksRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Hooks == nil {
		writeAPIError(w, http.StatusBadRequest, errx.With(ErrInvalidRequest, ": hooks is required").Error())
		return
	}

	ctx := r.Context()
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.store.Replace(ctx, req.Hooks)
	if err != nil {
		s.logger.Error("save hooks failed", "error", err)
		writeAPIError(w, http.StatusInternalServerError, errx.Wrap(ErrSaveHooks, err).Error())
		return
	}
	hooked, err := s.inst.Apply(ctx, stored)
	if err != nil {
		s.logger.Error("apply hooks failed", "error", err)
		writeAPIError(w, http.StatusInternalServerError, errx.Wrap(ErrApplyHooks, err).Error())
		return
	}

	s.logger.Info("hooks replaced", "submitted", len(req.Hooks), "stored", len(stored), "hooked", len(hooked))
	_ = s.emitter.HooksReplaced(len(req.Hooks), stored, hooked)
	writeJSON(w, http.StatusOK, map[string]interface{}{"hooked": hooked})
}

func (s *Server) handleResetHooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.mu.Lock()
	defer s.mu.Unlock()

	restored, err := s.store.Reset(ctx)
	if err != nil {
		s.logger.Error("reset hooks failed", "error", err)
		writeAPIError(w, http.StatusInternalServerError, errx.Wrap(ErrResetHooks, err).Error())
		return
	}
	hooked, err := s.inst.Apply(ctx, restored)
	if err != nil {
		s.logger.Error("apply hooks failed", "error", err)
		writeAPIError(w, http.StatusInternalServerError, errx.Wrap(ErrApplyHooks, err).Error())
		return
	}

	s.logger.Info("hooks reset to defaults", "count", len(restored), "hooked", len(hooked))
	_ = s.emitter.HooksRestored(restored, hooked)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"hooks":  restored,
		"hooked": hooked,
	})
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"nodes": s.catalog.Nodes()})
}

func (s *Server) handleMethods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	node, ok := pathParam(r, "/methods/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	methods, found := s.catalog.Methods(node)
	if !found {
		writeAPIError(w, http.StatusNotFound, fmt.Sprintf("node %s not found", node))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"methods": methods})
}

func (s *Server) handleLocale(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	locale, ok := pathParam(r, "/locales/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	dict, err := i18n.Builtin(locale)
	if err != nil {
		if errors.Is(err, i18n.ErrUnknownLocale) {
			writeAPIError(w, http.StatusNotFound, err.Error())
			return
		}
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dict)
}

// pathParam returns the single decoded segment after prefix. The escaped
// path is used so an encoded "/" stays inside the segment.
func pathParam(r *http.Request, prefix string) (string, bool) {
	raw := strings.TrimPrefix(r.URL.EscapedPath(), prefix)
	if raw == "" || strings.Contains(raw, "/") {
		return "", false
	}
	value, err := url.PathUnescape(raw)
	if err != nil || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}
