package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	votingrights "assembly/contexts/assembly-governance/voting-rights"
	domainerrors "assembly/contexts/assembly-governance/voting-rights/domain/errors"
	httptransport "assembly/contexts/assembly-governance/voting-rights/transport/http"
	_ "assembly/internal/platform/httpserver/docs"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	votingRights votingrights.Module
	auth         Authenticator
	metrics      http.Handler
}

// New builds the API server. metrics may be nil, in which case /metrics is
// not served.
func New(
	votingRightsModule votingrights.Module,
	auth Authenticator,
	metrics http.Handler,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		votingRights: votingRightsModule,
		auth:         auth,
		metrics:      metrics,
	}
	s.registerRoutes()
	return s
}

// Handler returns the mux wrapped with request tracing.
func (s *Server) Handler() http.Handler {
	return s.traced(s.mux)
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("http server stopping",
			"event", "http_server_stopping",
			"module", "internal/platform/httpserver",
			"layer", "platform",
		)
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}

	s.mux.HandleFunc("POST /v1/delegations/digital", s.handleRequestDelegation)
	s.mux.HandleFunc("POST /v1/delegations/digital/verify", s.handleVerifyDelegation)
	s.mux.HandleFunc("POST /v1/delegations/manual", s.handleManualDelegation)
	s.mux.HandleFunc("POST /v1/delegations/{proxy_id}/revoke", s.handleRevokeDelegation)

	s.mux.HandleFunc("POST /v1/votes", s.handleCreateVote)
	s.mux.HandleFunc("PUT /v1/votes/{vote_id}/status", s.handleUpdateVoteStatus)
	s.mux.HandleFunc("PATCH /v1/votes/{vote_id}", s.handleUpdateVoteDetails)
	s.mux.HandleFunc("DELETE /v1/votes/{vote_id}", s.handleDeleteVote)
	s.mux.HandleFunc("POST /v1/votes/{vote_id}/ballots", s.handleCastVote)
	s.mux.HandleFunc("GET /v1/votes/{vote_id}/tally", s.handleGetTally)
	s.mux.HandleFunc("GET /v1/votes/{vote_id}/tally/live", s.handleGetLiveTally)

	s.mux.HandleFunc("POST /v1/units/{unit_id}/attendance", s.handleToggleAttendance)
	s.mux.HandleFunc("GET /v1/assemblies/{assembly_id}/quorum", s.handleGetQuorum)
	s.mux.HandleFunc("GET /v1/assemblies/{assembly_id}/representation/{identity_id}", s.handleGetRepresentation)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireActor writes 401 and returns false when the request carries no
// usable identity.
func (s *Server) requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actorID, err := s.auth.ResolveActor(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "unauthenticated", err.Error())
		return "", false
	}
	return actorID, true
}

func (s *Server) traced(next http.Handler) http.Handler {
	tracer := otel.Tracer("assembly/internal/platform/httpserver")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
			attribute.Int("http.response.status_code", rec.status),
		)
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	code, kind := domainerrors.Describe(err)
	switch kind {
	case domainerrors.KindValidation:
		writeError(w, http.StatusBadRequest, code, string(kind), err.Error())
	case domainerrors.KindForbidden:
		writeError(w, http.StatusForbidden, code, string(kind), err.Error())
	case domainerrors.KindNotFound:
		writeError(w, http.StatusNotFound, code, string(kind), err.Error())
	case domainerrors.KindConflict:
		writeError(w, http.StatusConflict, code, string(kind), err.Error())
	case domainerrors.KindExpired:
		writeError(w, http.StatusGone, code, string(kind), err.Error())
	case domainerrors.KindExternalDependencyFailed:
		writeError(w, http.StatusBadGateway, code, string(kind), err.Error())
	default:
		s.logger.Error("unhandled request error",
			"event", "http_request_internal_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, code, string(kind), "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code string, kind string, message string) {
	writeJSON(w, status, httptransport.ErrorResponse{
		Success: false,
		Code:    code,
		Kind:    kind,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", string(domainerrors.KindValidation), "request body must be valid JSON")
		return false
	}
	return true
}

func resolveClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	return r.RemoteAddr
}
