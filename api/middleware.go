package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// corsMiddleware はCORSヘッダーを付与し、プリフライトリクエストに応答するミドルウェアです。
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	origin := "*"
	if s.config != nil && s.config.CORSOrigin != "" {
		origin = s.config.CORSOrigin
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		if origin != "*" {
			h.Add("Vary", "Origin")
		}

		// プリフライト
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder はレスポンスのステータスコードを記録します。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// loggingMiddleware はリクエストごとにログを出力し、メトリクスを記録するミドルウェアです。
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		// ServeMux がマッチしたパターンを r.Pattern に設定する
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		if s.metrics != nil {
			s.metrics.observeRequest(r.Method, route, strconv.Itoa(rec.status), elapsed)
		}

		entry := s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"route":    route,
			"status":   rec.status,
			"duration": elapsed.String(),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Info("request handled")
	})
}
