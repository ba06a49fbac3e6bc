package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Simplici0/nactco/internal/catalog"
	"github.com/Simplici0/nactco/internal/engine"
	"github.com/Simplici0/nactco/internal/metrics"
)

const maxBodyBytes = 1 << 20

type server struct {
	log      *zap.Logger
	db       *sql.DB
	auth     *authService
	engine   *engine.Engine
	store    *catalog.Store
	cache    *engine.ResultCache
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	defaults engine.Config

	// mu guards the active catalog. Calculations hold it for reading so a
	// catalog replacement never interleaves with a cache fill.
	mu      sync.RWMutex
	catalog catalog.Catalog
	version uint64

	calls singleflight.Group

	statsMu   sync.Mutex
	lastStats engine.CacheStats
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/vendors", s.handleVendors)
		r.Get("/defaults", s.handleDefaults)
		r.Post("/calculate", s.handleCalculate)
		r.Get("/runs", s.handleRunsList)
		r.Get("/runs/{id}", s.handleRunDetail)
		r.Get("/runs/{id}/text", s.handleRunText)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.auth.requireSession)
			r.Get("/catalog", s.handleCatalogExport)
			r.Put("/catalog", s.handleCatalogReplace)
			r.Get("/cache", s.handleCacheStats)
		})
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleVendors(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	vendors := s.catalog.Vendors()
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, vendors)
}

type defaultsResponse struct {
	Config          engine.Config `json:"config"`
	AllowedHorizons []int         `json:"allowedHorizons"`
}

func (s *server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, defaultsResponse{Config: s.defaults, AllowedHorizons: engine.AllowedHorizons})
}

type calculateRequest struct {
	Label     string          `json:"label"`
	VendorIDs []string        `json:"vendorIds"`
	Config    json.RawMessage `json:"config"`
}

type calculateResponse struct {
	RunID  string        `json:"runId"`
	Config engine.Config `json:"config"`
	Report engine.Report `json:"report"`
}

// handleCalculate runs a comparison. Fields missing from the request config
// keep the server defaults; an empty selection compares the whole catalog.
func (s *server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, cfg, err := s.decodeCalculateRequest(r)
	if err != nil {
		s.metrics.RecordCalculation("bad_request", 0, time.Since(start))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := cfg.Validate(); err != nil {
		s.metrics.RecordCalculation("invalid", 0, time.Since(start))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	report, shared, err := s.calculate(req.VendorIDs, cfg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrInvalidConfig) {
			status = http.StatusUnprocessableEntity
		}
		s.metrics.RecordCalculation("error", 0, time.Since(start))
		s.log.Error("calculation failed", zap.Error(err))
		writeError(w, status, err.Error())
		return
	}

	rounded := roundReport(report)
	run := runDetail{
		runListItem: runListItem{ID: uuid.NewString(), Label: strings.TrimSpace(req.Label)},
		VendorIDs:   req.VendorIDs,
		Config:      cfg,
		Report:      rounded,
	}
	if len(rounded.Order) > 0 {
		best := rounded.Results[rounded.Order[0]]
		run.BestVendorID = best.Vendor.ID
		run.BestTotal = best.TCO.Total
	}
	if err := s.saveRun(r.Context(), run); err != nil {
		s.log.Warn("failed to store calculation run", zap.String("run_id", run.ID), zap.Error(err))
	}

	s.syncCacheMetrics()
	s.metrics.RecordCalculation("ok", len(report.Warnings), time.Since(start))
	s.log.Info("calculation",
		zap.String("run_id", run.ID),
		zap.Strings("vendors", report.Order),
		zap.Int("skipped", len(report.Warnings)),
		zap.Bool("shared", shared),
		zap.Duration("elapsed", time.Since(start)),
	)

	writeJSON(w, http.StatusOK, calculateResponse{RunID: run.ID, Config: cfg, Report: rounded})
}

func (s *server) decodeCalculateRequest(r *http.Request) (calculateRequest, engine.Config, error) {
	var req calculateRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, engine.Config{}, fmt.Errorf("invalid request body: %w", err)
	}

	cfg := s.defaults
	if len(req.Config) > 0 && !bytes.Equal(bytes.TrimSpace(req.Config), []byte("null")) {
		cdec := json.NewDecoder(bytes.NewReader(req.Config))
		cdec.DisallowUnknownFields()
		if err := cdec.Decode(&cfg); err != nil {
			return req, engine.Config{}, fmt.Errorf("invalid config: %w", err)
		}
	}
	return req, cfg, nil
}

// calculate coalesces identical concurrent requests against the same catalog
// version into one engine call.
func (s *server) calculate(ids []string, cfg engine.Config) (engine.Report, bool, error) {
	s.mu.RLock()
	version := s.version
	s.mu.RUnlock()

	cfgKey, err := json.Marshal(cfg)
	if err != nil {
		return engine.Report{}, false, fmt.Errorf("encode config key: %w", err)
	}
	key := fmt.Sprintf("%d|%s|%s", version, strings.Join(ids, ","), cfgKey)

	v, err, shared := s.calls.Do(key, func() (any, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()

		selected := ids
		if len(selected) == 0 {
			selected = s.catalog.IDs()
		}
		return s.engine.CalculateWithCache(s.catalog, selected, cfg, s.cache)
	})
	if err != nil {
		return engine.Report{}, shared, err
	}
	return v.(engine.Report), shared, nil
}

func (s *server) syncCacheMetrics() {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	cur := s.cache.Stats()
	s.metrics.RecordCacheDelta(cur.Hits-s.lastStats.Hits, cur.Misses-s.lastStats.Misses)
	s.lastStats = cur
}

func (s *server) handleRunsList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	runs, err := s.listRuns(r.Context(), query)
	if err != nil {
		s.log.Error("failed to list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load runs")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *server) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *server) handleRunText(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, runText(run))
}

func (s *server) loadRun(w http.ResponseWriter, r *http.Request) (runDetail, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return runDetail{}, false
	}

	run, err := s.getRun(r.Context(), id)
	if errors.Is(err, errRunNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return runDetail{}, false
	}
	if err != nil {
		s.log.Error("failed to load run", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return runDetail{}, false
	}
	return run, true
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	valid, err := s.auth.validateCredentials(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		s.log.Error("authentication error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "authentication error")
		return
	}
	if !valid {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.auth.setSessionCookie(w, strings.TrimSpace(req.Email))
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleCatalogExport(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	data, err := s.catalog.EncodeYAML()
	s.mu.RUnlock()
	if err != nil {
		s.log.Error("failed to encode catalog", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to encode catalog")
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(data)
}

type catalogResponse struct {
	Vendors int `json:"vendors"`
}

// handleCatalogReplace swaps the active catalog for a YAML document and
// drops every cached breakdown computed from the previous one.
func (s *server) handleCatalogReplace(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	cat, err := catalog.ParseYAML(data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Replace(r.Context(), cat); err != nil {
		s.log.Error("failed to store catalog", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store catalog")
		return
	}
	s.catalog = cat
	s.version++
	s.cache.Flush()
	s.metrics.CatalogVendors.Set(float64(len(cat)))

	email, _ := s.auth.sessionEmail(r)
	s.log.Info("catalog replaced", zap.Int("vendors", len(cat)), zap.String("by", email))
	writeJSON(w, http.StatusOK, catalogResponse{Vendors: len(cat)})
}

func (s *server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}
