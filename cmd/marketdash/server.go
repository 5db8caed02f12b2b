package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"marketdash/internal/dashboard"
	"marketdash/internal/encoding"
	"marketdash/internal/market"
	"marketdash/internal/metrics"
	"marketdash/internal/provider"
	"marketdash/internal/ranking"
	"marketdash/internal/series"
)

// response is the envelope every API endpoint answers with.
type response struct {
	Status    string `json:"status"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Retryable *bool  `json:"retryable,omitempty"`
	Dropped   int    `json:"dropped,omitempty"`
}

type server struct {
	svc     *dashboard.Service
	metrics *metrics.Registry
	log     zerolog.Logger
	timeout time.Duration
}

func newRouter(s *server) http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestID)
	r.Use(s.accessLog)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.withTimeout)
	api.HandleFunc("/home", s.handleHome).Methods(http.MethodGet)
	api.HandleFunc("/coins", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/heatmap", s.handleHeatmap).Methods(http.MethodGet)
	api.HandleFunc("/coins/{id}", s.handleDetail).Methods(http.MethodGet)
	api.HandleFunc("/coins/{id}/history", s.handleHistory).Methods(http.MethodGet)

	return withJSONHeaders(withGzip(recoverPanic(limitBody(r))))
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	home, err := s.svc.Home(r.Context())
	s.write(w, r, home, home.Dropped, err)
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key, err := ranking.ParseSortKey(q.Get("sort"))
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	tf, err := market.ParseTimeframe(q.Get("timeframe"))
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	list, err := s.svc.List(r.Context(), dashboard.ListQuery{Query: q.Get("q"), SortKey: key, Timeframe: tf})
	s.write(w, r, list, list.Dropped, err)
}

func (s *server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dim, err := encoding.ParseDimension(q.Get("dimension"))
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	tf, err := market.ParseTimeframe(q.Get("timeframe"))
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	view, err := s.svc.Heatmap(r.Context(), dashboard.ViewState{
		Dimension: dim,
		Timeframe: tf,
		HoveredID: q.Get("hovered"),
		Query:     q.Get("q"),
	})
	s.write(w, r, view, view.Dropped, err)
}

func (s *server) handleDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.Detail(r.Context(), mux.Vars(r)["id"])
	s.write(w, r, detail, 0, err)
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	rng, err := series.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	chart, err := s.svc.Chart(r.Context(), mux.Vars(r)["id"], rng)
	s.write(w, r, chart, 0, err)
}

// write maps pipeline outcomes onto HTTP: empty batches are a 200 with
// status "empty", missing coins a 404, upstream failures a 502.
func (s *server) write(w http.ResponseWriter, r *http.Request, data any, dropped int, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, response{Status: "ok", Data: data, Dropped: dropped})
	case errors.Is(err, dashboard.ErrEmptyResult):
		writeJSON(w, http.StatusOK, response{Status: "empty", Dropped: dropped})
	case errors.Is(err, provider.ErrNotFound):
		writeJSON(w, http.StatusNotFound, response{Status: "error", Error: "coin not found"})
	default:
		retryable := dashboard.IsRetryable(err)
		zerolog.Ctx(r.Context()).Warn().Err(err).Bool("retryable", retryable).Msg("upstream fetch failed")
		writeJSON(w, http.StatusBadGateway, response{Status: "error", Error: err.Error(), Retryable: &retryable})
	}
}

func (s *server) badRequest(w http.ResponseWriter, _ *http.Request, err error) {
	writeJSON(w, http.StatusBadRequest, response{Status: "error", Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func (s *server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.timeout <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
