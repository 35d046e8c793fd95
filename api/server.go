// Package api はtaskboardのAPIサーバー実装を提供します。
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stsysd/taskboard/config"
	"github.com/stsysd/taskboard/logging"
	"github.com/stsysd/taskboard/model"
	"github.com/stsysd/taskboard/service"
)

// Server はAPIサーバーの構造体です。
type Server struct {
	router  *http.ServeMux
	handler http.Handler
	service *service.Service
	config  *config.Config
	logger  logrus.FieldLogger
	metrics *Metrics
}

// Option はServerの設定を変更します。
type Option func(*Server)

// WithLogger はリクエストログの出力先を指定します。
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics はPrometheusメトリクスを有効にし、/metrics を公開します。
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// ErrorResponse はエラーレスポンスの構造体です。
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
	// Rule は整合性ルール違反の場合のみ設定されます。
	Rule string `json:"rule,omitempty"`
}

// HealthResponse はヘルスチェックのレスポンスです。
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewServer は新しいAPIサーバーインスタンスを生成します。
func NewServer(svc *service.Service, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		router:  http.NewServeMux(),
		service: svc,
		config:  cfg,
		logger:  logging.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	s.handler = s.corsMiddleware(s.loggingMiddleware(s.router))
	return s
}

// routes はAPIエンドポイントのルーティングを設定します。
func (s *Server) routes() {
	s.router.HandleFunc("GET /api/health", s.handleHealthCheck)

	// Project endpoints
	s.router.HandleFunc("GET /api/projects", s.handleListProjects)
	s.router.HandleFunc("POST /api/projects", s.handleCreateProjects)
	s.router.HandleFunc("GET /api/projects/{project_id}", s.handleGetProject)
	s.router.HandleFunc("PUT /api/projects/{project_id}", s.handleUpdateProject)
	s.router.HandleFunc("DELETE /api/projects/{project_id}", s.handleDeleteProject)

	// Task endpoints
	s.router.HandleFunc("POST /api/projects/{project_id}/tasks", s.handleCreateTasks)
	s.router.HandleFunc("PUT /api/tasks/{task_id}", s.handleUpdateTask)
	s.router.HandleFunc("DELETE /api/tasks/{task_id}", s.handleDeleteTask)

	if s.metrics != nil {
		s.router.Handle("GET /metrics", s.metrics.Handler())
	}
}

// ServeHTTP はServer構造体をhttp.Handlerとして実装します。
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// handleHealthCheck はヘルスチェックエンドポイントのハンドラーです。
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Health(r.Context()); err != nil {
		s.logger.WithError(err).Error("health check failed")
		writeJSON(w, s.logger, http.StatusServiceUnavailable, HealthResponse{
			Status:  "ERROR",
			Message: "Database is unavailable",
		})
		return
	}
	writeJSON(w, s.logger, http.StatusOK, HealthResponse{
		Status:  "OK",
		Message: "Backend is running",
	})
}

// writeJSON はJSON形式でレスポンスを返却します。
func writeJSON(w http.ResponseWriter, logger logrus.FieldLogger, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}

// writeJSONError はJSON形式でエラーレスポンスを返却します。
func (s *Server) writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, s.logger, statusCode, ErrorResponse{
		Error: message,
		Code:  statusCode,
	})
}

// writeServiceError はサービス層のエラーをHTTPステータスに変換して返却します。
// 想定外のエラーはログにのみ詳細を残し、fallback を返します。
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		validationErr *model.ValidationError
		violation     *model.RuleViolation
	)
	switch {
	case errors.Is(err, model.ErrProjectNotFound):
		s.writeJSONError(w, "Project not found", http.StatusNotFound)
	case errors.Is(err, model.ErrTaskNotFound):
		s.writeJSONError(w, "Task not found", http.StatusNotFound)
	case errors.As(err, &violation):
		writeJSON(w, s.logger, http.StatusBadRequest, ErrorResponse{
			Error: violation.Message,
			Code:  http.StatusBadRequest,
			Rule:  violation.Rule,
		})
	case errors.As(err, &validationErr):
		s.writeJSONError(w, validationErr.Message, http.StatusBadRequest)
	default:
		s.logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error(fallback)
		s.writeJSONError(w, fallback, http.StatusInternalServerError)
	}
}

// Run はサーバーを指定されたアドレスで起動し、ctx がキャンセルされると停止します。
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
