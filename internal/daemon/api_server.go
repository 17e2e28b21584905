package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"samplesort/internal/api"
	"samplesort/internal/broadcast"
	"samplesort/internal/config"
	"samplesort/internal/grouping"
	"samplesort/internal/items"
	"samplesort/internal/logging"
	"samplesort/internal/services"
)

const maxBodyBytes = 1 << 20

type apiServer struct {
	bind    string
	logger  *slog.Logger
	svc     *grouping.Service
	handler http.Handler
	status  func(context.Context) api.StatusResponse

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, svc *grouping.Service, hub *broadcast.Hub, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		svc:    svc,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/items", srv.handleListItems)
	mux.HandleFunc("POST /api/items", srv.handleCreateItem)
	mux.HandleFunc("DELETE /api/items", srv.handleClear)
	mux.HandleFunc("GET /api/items/{id}", srv.handleGetItem)
	mux.HandleFunc("DELETE /api/items/{id}", srv.handleRemoveItem)
	mux.HandleFunc("POST /api/items/{id}/extracting", srv.handleMarkExtracting)
	mux.HandleFunc("POST /api/items/{id}/extraction", srv.handleExtraction)
	mux.HandleFunc("PUT /api/items/{id}/group", srv.handleGroupEdit)
	mux.HandleFunc("POST /api/items/{id}/retry", srv.handleRetry)
	mux.HandleFunc("GET /api/groups", srv.handleGroups)
	mux.HandleFunc("POST /api/groups/rename", srv.handleRenameGroup)
	mux.HandleFunc("POST /api/groups/resequence", srv.handleResequenceAll)
	mux.HandleFunc("POST /api/groups/{group}/resequence", srv.handleResequenceGroup)
	mux.HandleFunc("POST /api/sweeps/infer", srv.handleInfer)
	mux.HandleFunc("POST /api/sweeps/auto", srv.handleAutoGroup)
	mux.HandleFunc("GET /api/status", srv.handleStatus)
	if hub != nil {
		mux.Handle("GET /ws", hub)
	}

	var handler http.Handler = mux
	handler = authMiddleware(cfg.Paths.APIToken, handler)
	handler = rateLimitMiddleware(newRateLimiter(cfg.API.RateLimit, cfg.API.Burst), handler)
	handler = requestIDMiddleware(srv.logger, handler)
	srv.handler = handler
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil || s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown incomplete", logging.Error(err))
	}
}

func (s *apiServer) address() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleListItems(w http.ResponseWriter, r *http.Request) {
	var statuses []items.Status
	for _, value := range r.URL.Query()["status"] {
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, ok := items.ParseStatus(part)
			if !ok {
				s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown status %q", part))
				return
			}
			statuses = append(statuses, status)
		}
	}
	list, err := s.svc.List(r.Context(), statuses...)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ItemListResponse{Items: api.FromItems(list)})
}

func (s *apiServer) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req api.CreateItemRequest
	if !s.decode(w, r, &req) {
		return
	}
	capturedAt, err := api.ParseTime(strings.TrimSpace(req.CapturedAt))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "capturedAt must be RFC3339")
		return
	}
	item, err := s.svc.Ingest(r.Context(), req.Origin, capturedAt)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.ItemResponse{Item: api.FromItem(item)})
}

func (s *apiServer) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ItemResponse{Item: api.FromItem(item)})
}

func (s *apiServer) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Remove(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleMarkExtracting(w http.ResponseWriter, r *http.Request) {
	item, err := s.svc.MarkExtracting(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ItemResponse{Item: api.FromItem(item)})
}

func (s *apiServer) handleExtraction(w http.ResponseWriter, r *http.Request) {
	var req api.ExtractionRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.svc.OnExtractionResult(r.Context(), r.PathValue("id"), grouping.Extraction{
		Code:        req.Code,
		Description: req.Description,
		Colors:      req.Colors,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromResult(result))
}

func (s *apiServer) handleGroupEdit(w http.ResponseWriter, r *http.Request) {
	var req api.GroupEditRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.svc.OnManualGroupEdit(r.Context(), r.PathValue("id"), req.Group)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromResult(result))
}

func (s *apiServer) handleRetry(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Retry(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromResult(result))
}

func (s *apiServer) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.svc.Groups(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.GroupListResponse{Groups: api.FromGroups(groups)})
}

func (s *apiServer) handleRenameGroup(w http.ResponseWriter, r *http.Request) {
	var req api.RenameGroupRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.svc.RenameGroup(r.Context(), req.From, req.To)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromRename(result))
}

func (s *apiServer) handleResequenceGroup(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.ResequenceGroup(r.Context(), r.PathValue("group"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromReport(report))
}

func (s *apiServer) handleResequenceAll(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.ResequenceAll(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromReport(report))
}

func (s *apiServer) handleInfer(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.InferUngrouped(r.Context())
	s.writeSweep(w, r, report, err)
}

func (s *apiServer) handleAutoGroup(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.AutoGroup(r.Context())
	s.writeSweep(w, r, report, err)
}

func (s *apiServer) writeSweep(w http.ResponseWriter, r *http.Request, report grouping.SweepReport, err error) {
	if err != nil && !report.Cancelled {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSweep(report))
}

func (s *apiServer) handleClear(w http.ResponseWriter, r *http.Request) {
	removed, err := s.svc.ClearAll(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ClearResponse{Removed: removed})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		s.writeJSON(w, http.StatusOK, api.StatusResponse{Running: true})
		return
	}
	s.writeJSON(w, http.StatusOK, s.status(r.Context()))
}

func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "api_request_failed",
			logging.String("path", r.URL.Path),
			logging.Error(err),
		)
	}
	s.writeError(w, r, status, err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	requestID, _ := services.RequestIDFromContext(r.Context())
	s.writeJSON(w, status, api.ErrorResponse{Error: message, RequestID: requestID})
}
