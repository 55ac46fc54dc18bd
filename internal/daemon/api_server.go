package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"miqa/internal/api"
	"miqa/internal/config"
	"miqa/internal/logging"
	"miqa/internal/manifest"
	"miqa/internal/services"
	"miqa/internal/session"
	"miqa/internal/settings"
)

const (
	maxBodyBytes     = 1 << 20
	downloadBaseName = "_output"
)

type apiServer struct {
	bind    string
	user    string
	logger  *slog.Logger
	daemon  *Daemon
	session *session.Service
	handler http.Handler

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:    strings.TrimSpace(cfg.Paths.APIBind),
		user:    cfg.Session.DefaultUser,
		logger:  logging.NewComponentLogger(logger, "api-server"),
		daemon:  d,
		session: d.session,
	}

	token := cfg.Paths.APIToken
	adminToken := cfg.Paths.AdminToken
	if adminToken == "" {
		adminToken = token
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("POST /miqa/data/import", authMiddleware(token, srv.handleImport))
	mux.HandleFunc("GET /miqa/sessions", authMiddleware(token, srv.handleSessions))
	mux.HandleFunc("PUT /miqa/sessions/{folderId}/annotation", authMiddleware(token, srv.handleAnnotate))
	mux.HandleFunc("GET /miqa/data/export", authMiddleware(token, srv.handleExport))
	mux.HandleFunc("GET /miqa/data/export/download", authMiddleware(adminToken, srv.handleDownload))
	mux.HandleFunc("GET /miqa/files/{fileId}/download", authMiddleware(token, srv.handleFileDownload))
	mux.HandleFunc("GET /miqa/sites", authMiddleware(token, srv.handleSites))
	mux.HandleFunc("GET /miqa/settings", authMiddleware(token, srv.handleGetSettings))
	mux.HandleFunc("PUT /miqa/settings", authMiddleware(adminToken, srv.handlePutSettings))

	srv.handler = requestIDMiddleware(srv.logRequests(mux))
	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	payload := api.Status{
		Running:      status.Running,
		PID:          status.PID,
		StartedAt:    api.FormatTime(status.StartedAt),
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		Healthy:      status.Healthy,
		Stats:        api.FromStoreStats(status.Stats),
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleImport(w http.ResponseWriter, r *http.Request) {
	result, err := s.session.Import(r.Context(), s.user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromImportResult(result))
}

func (s *apiServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	tree, err := s.session.Sessions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromExperiments(tree))
}

func (s *apiServer) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("folderId"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "annotate", "invalid folder id", nil))
		return
	}
	var req api.AnnotationRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	folder, err := s.session.Annotate(r.Context(), id, req.ToAnnotation())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromScanFolder(folder))
}

func (s *apiServer) handleExport(w http.ResponseWriter, r *http.Request) {
	summary, err := s.session.Export(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromExportSummary(summary))
}

// handleDownload streams the export table. JSON is the default; ?format=csv
// switches encoding, content type and file name together.
func (s *apiServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	format, err := session.ParseFormat(r.URL.Query().Get("format"), session.FormatJSON)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rows, err := s.session.ExportRows(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	filename := downloadBaseName + "." + string(format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	if err := session.WriteRows(w, rows, format); err != nil {
		logging.WithContext(r.Context(), s.logger).Warn("download interrupted", logging.Error(err))
	}
}

// handleFileDownload streams one dataset file as an attachment.
func (s *apiServer) handleFileDownload(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("fileId"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "download file", "invalid file id", nil))
		return
	}
	file, rc, err := s.session.OpenFile(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer rc.Close()

	contentType := file.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		logging.WithContext(r.Context(), s.logger).Warn("file download interrupted",
			logging.Int64("file_id", id),
			logging.Error(err),
		)
	}
}

func (s *apiServer) handleSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.session.Sites(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SitesResponse{Sites: api.FromSites(sites)})
}

func (s *apiServer) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	values, err := s.session.Settings().All(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SettingsResponse{Settings: values})
}

func (s *apiServer) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req api.SettingsResponse
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Settings) == 0 {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "settings", "no settings given", nil))
		return
	}
	set := s.session.Settings()
	for key := range req.Settings {
		if !slices.Contains(settings.Keys, key) {
			s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "settings", fmt.Sprintf("unknown setting %q", key), nil))
			return
		}
	}
	for _, key := range settings.Keys {
		value, ok := req.Settings[key]
		if !ok {
			continue
		}
		if err := set.Set(r.Context(), key, value); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	s.handleGetSettings(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return services.Wrap(services.ErrValidation, "api", "decode", "invalid request body", err)
	}
	return nil
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

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	resp := api.ErrorResponse{Error: err.Error()}
	var verr *manifest.ValidationError
	if errors.As(err, &verr) {
		resp.Error = "invalid manifest"
		resp.Details = verr.Violations
	}
	logger := logging.WithContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logger, "request failed", "api_request_failed",
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
		)
	} else {
		logger.Debug("request rejected",
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Error(err),
		)
	}
	s.writeJSON(w, status, resp)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *apiServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.WithContext(r.Context(), s.logger).Info("request handled",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("duration", time.Since(start)),
		)
	})
}
