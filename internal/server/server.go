// Package server exposes a comparison session as a JSON API with Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/huangsam/loadcompare/core"
	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

// Handler serves one session.
type Handler struct {
	session *core.Session

	Metrics *prometheus.Registry
}

type okResponse struct {
	Status string `json:"status"`
}

var ok = okResponse{Status: "ok"}

// NewHandler returns a handler over the given session.
func NewHandler(session *core.Session) *Handler {
	return &Handler{session: session}
}

// RegisterRoutes mounts the API on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", routeListHandler(r))
	r.Get("/healthz", statusHandler(func(context.Context) (okResponse, error) {
		return ok, nil
	}))
	if h.Metrics != nil {
		r.Get("/metrics", promhttp.HandlerFor(h.Metrics, promhttp.HandlerOpts{}).ServeHTTP)
	}

	api := chi.NewRouter()
	api.Get("/state", statusHandler(func(context.Context) (schema.SessionState, error) {
		return h.session.State(), nil
	}))
	api.Get("/status", statusHandler(h.session.Status))
	api.Post("/filter", requHandler(func(ctx context.Context, update schema.FilterUpdate) (schema.SessionState, error) {
		if err := h.session.UpdateFilter(ctx, update); err != nil {
			return schema.SessionState{}, err
		}
		return h.session.State(), nil
	}))
	api.Get("/scenarios", statusHandler(func(context.Context) (scenariosResponse, error) {
		view := core.GetScenariosView(h.session)
		return scenariosResponse{Config: view.Config, Selected: view.Selected, Available: view.Available}, nil
	}))
	api.Get("/rows", statusHandler(func(context.Context) (rowsResponse, error) {
		view := core.GetRowsView(h.session)
		return rowsResponse{ScenarioID: view.Scenario.ID, Metric: view.Metric, Rows: view.Rows}, nil
	}))
	api.Get("/chart", statusHandler(func(context.Context) (schema.ChartSeries, error) {
		return core.GetChartSeries(h.session), nil
	}))
	api.Get("/compare", h.handleCompare)
	api.Get("/", routeListHandler(api))
	r.Mount("/api", api)
}

type scenariosResponse struct {
	Config    schema.Configuration    `json:"config"`
	Selected  string                  `json:"selected"`
	Available schema.AvailableFilters `json:"available_filters"`
}

type rowsResponse struct {
	ScenarioID string           `json:"scenario_id"`
	Metric     schema.Metric    `json:"metric"`
	Rows       []schema.FlatRow `json:"rows"`
}

// handleCompare reports the comparison of the current selection.
// The all_metrics and detail query flags widen the report.
func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	allMetrics, err := boolQuery(r, "all_metrics")
	if err != nil {
		writeError(w, err)
		return
	}
	detail, err := boolQuery(r, "detail")
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := core.GetComparisonReport(r.Context(), h.session, allMetrics, detail)
	writeResponse(w, report, err)
}

func boolQuery(r *http.Request, key string) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", contract.ErrInvalidFilterUpdate, key)
	}
	return v, nil
}

func routeListHandler(router chi.Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type routePath struct {
			Method string `json:"method"`
			Path   string `json:"path"`
		}

		var routes []routePath
		err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			routes = append(routes, routePath{Method: method, Path: route})
			return nil
		})

		type response struct {
			Routes []routePath `json:"routes"`
		}
		writeResponse(w, response{Routes: routes}, err)
	}
}

func statusHandler[O any](fn func(context.Context) (O, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		resp, err := fn(r.Context())
		writeResponse(w, resp, err)
	}
}

func requHandler[I any, O any](fn func(ctx context.Context, requ I) (O, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var requ I
		if r.ContentLength != 0 {
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				writeError(w, fmt.Errorf("%w: invalid content type %q", contract.ErrInvalidFilterUpdate, ct))
				return
			}
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&requ); err != nil {
				writeError(w, fmt.Errorf("%w: failed to decode request: %v", contract.ErrInvalidFilterUpdate, err))
				return
			}
		}

		resp, err := fn(r.Context(), requ)
		writeResponse(w, resp, err)
	}
}

func writeResponse[T any](w http.ResponseWriter, resp T, err error) {
	if err != nil {
		writeError(w, err)
		return
	}

	enc, err := json.Marshal(resp)
	if err != nil {
		writeError(w, fmt.Errorf("failed to marshal response: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(enc)
}

func writeError(w http.ResponseWriter, err error) {
	status := contract.StatusCode(err)
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Int("status", status).Str("category", string(contract.CategoryOf(err))).Msg("Request failed")

	enc, _ := json.Marshal(map[string]string{
		"error":    err.Error(),
		"category": string(contract.CategoryOf(err)),
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(enc)
}

// requestLogger logs every request with zerolog once it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("Handled request")
	})
}

// NewRouter builds the router with middleware, metrics and the session API.
func NewRouter(h *Handler) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.CleanPath)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger)
	h.RegisterRoutes(router)
	return router
}

// Serve opens a session from the runtime config and serves it on cfg.ListenAddr
// until ctx is canceled.
func Serve(ctx context.Context, cfg *contract.Config) error {
	registry := prometheus.NewRegistry()
	metrics := &SessionMetrics{}
	metrics.Register(registry)

	session, err := core.OpenSession(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	defer session.Close()

	h := NewHandler(session)
	h.Metrics = registry

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("session", session.ID()).Msg("Listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info().Msg("Shutting down")
	return srv.Shutdown(shutdownCtx)
}
