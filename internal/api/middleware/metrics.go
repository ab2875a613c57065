// metrics.go — Prometheus метрики mock-сервера.
// HTTP метрики (cm_http_requests_total, cm_http_request_duration_seconds)
// пишет MetricsMiddleware. Бизнес-метрики регистрируются здесь же
// и обновляются из сервисного слоя и панели оператора.
package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cm_http_requests_total",
			Help: "Общее количество HTTP-запросов к mock-серверу",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cm_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к mock-серверу в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики (экспортируются для обновления из сервисного слоя)
var (
	// ListingTotal — количество построенных листингов файлов.
	ListingTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cm_listing_total",
			Help: "Количество построенных листингов файлов",
		},
	)

	// ResourceFiles — количество файлов в корне ресурсов при последнем обходе.
	ResourceFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cm_resource_files",
			Help: "Количество файлов в корне ресурсов при последнем обходе",
		},
	)

	// ResourceStreamsTotal — отдачи файлов по результату (ok, not_found, error).
	ResourceStreamsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cm_resource_streams_total",
			Help: "Количество запросов на отдачу файлов",
		},
		[]string{"result"},
	)

	// OperatorActionsTotal — действия оператора по типу и результату.
	OperatorActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cm_operator_actions_total",
			Help: "Количество действий оператора",
		},
		[]string{"action", "result"},
	)

	// HomeworkRecords — текущее количество записей домашних заданий.
	HomeworkRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cm_homework_records",
			Help: "Текущее количество записей домашних заданий",
		},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Путь в лейблах — шаблон маршрута chi, поэтому /resources/* не
// порождает отдельную серию на каждый файл.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)
			path := routePattern(r)

			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

// routePattern возвращает шаблон сработавшего маршрута или "unmatched".
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "unmatched"
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return "unmatched"
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *metricsResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack не поддерживается")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
