package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/radieske/election-odds-ingest/internal/odds-ingest/parser"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/reconcile"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/repo"
	"github.com/radieske/election-odds-ingest/pkg/contracts/events"
)

// Ingestor é o pipeline visto pelo handler
type Ingestor interface {
	Run(ctx context.Context) (reconcile.Result, error)
	Preview(ctx context.Context) (*parser.Snapshot, []repo.Candidate, error)
}

type CandidateLister interface {
	ListAll(ctx context.Context) ([]repo.Candidate, error)
}

// RunReader lê o resumo da última execução (cache Redis); opcional
type RunReader interface {
	Latest(ctx context.Context) (events.IngestionCompleted, bool, error)
}

// API expõe o gatilho de ingestão e as consultas de candidatos
type API struct {
	Ingest Ingestor
	Store  CandidateLister
	Runs   RunReader        // nil quando Redis está desabilitado
	WS     http.HandlerFunc // nil quando Redis está desabilitado
	Log    *zap.Logger
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.requestLogger)

	r.Get("/", a.index)
	r.Get("/store-election-data", a.storeElectionData) // dispara a ingestão
	r.Get("/electiondata", a.electionData)             // feed interpretado + tabela, sem gravar
	r.Get("/v1/candidates", a.listCandidates)
	r.Get("/v1/runs/latest", a.latestRun)
	if a.WS != nil {
		r.Get("/ws", a.WS)
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("election odds ingest service"))
}

// storeElectionData devolve {"success":200} ou {"error":400} para qualquer falha do pipeline
func (a *API) storeElectionData(w http.ResponseWriter, r *http.Request) {
	res, err := a.Ingest.Run(r.Context())
	if err != nil {
		a.Log.Warn("ingestion failed",
			zap.String("run_id", res.RunID),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Int("outcomes", len(res.Outcomes)),
			zap.Error(err),
		)
		writeJSON(w, http.StatusBadRequest, map[string]int{"error": http.StatusBadRequest})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"success": http.StatusOK})
}

func (a *API) electionData(w http.ResponseWriter, r *http.Request) {
	snap, rows, err := a.Ingest.Preview(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: http.StatusBadRequest, Description: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, electionDataResponse{Data: snap.Map(), QueryResults: toCandidates(rows)})
}

func (a *API) listCandidates(w http.ResponseWriter, r *http.Request) {
	rows, err := a.Store.ListAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, toCandidates(rows))
}

func (a *API) latestRun(w http.ResponseWriter, r *http.Request) {
	if a.Runs == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run cache disabled"})
		return
	}
	ev, ok, err := a.Runs.Latest(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.Log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
