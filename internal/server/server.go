// Пакет server — сборка маршрутов и HTTP-серверы mock API и операторского API
// с graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apierrors "github.com/bigkaa/goartstore/classroom-mock/internal/api/errors"
	"github.com/bigkaa/goartstore/classroom-mock/internal/api/handlers"
	"github.com/bigkaa/goartstore/classroom-mock/internal/api/middleware"
	"github.com/bigkaa/goartstore/classroom-mock/internal/config"
)

// Префиксы эмулируемой платформы. Клиенты обращаются к части endpoints
// как напрямую, так и через префикс приложения.
const (
	appPrefix           = "/classInApp"
	teachPlatformPrefix = "/serv-teachplatform"
	coursewarePath      = teachPlatformPrefix + "/courseware/student/selectShareFileList"
	homeworkListPath    = teachPlatformPrefix + "/homework/student/selectPadHomeworkList"
	homeworkDetailPath  = teachPlatformPrefix + "/homework/student/selectPadHomeworkDetail"
)

// APIHandlers — обработчики mock API. Homework == nil отключает
// endpoints домашних заданий.
type APIHandlers struct {
	Platform   *handlers.PlatformHandler
	Courseware *handlers.CoursewareHandler
	Homework   *handlers.HomeworkHandler
	Health     *handlers.HealthHandler
	APIDoc     http.Handler
}

// NewAPIRouter собирает маршруты эмулируемой платформы.
func NewAPIRouter(h APIHandlers, logger *slog.Logger) http.Handler {
	r := newRouter(logger)

	getPost(r, "/qlBox-manager/getBindedSchoolInfo", h.Platform.SchoolInfo)
	getPost(r, appPrefix+"/box/auth/tokenValid", h.Platform.Account)
	getPost(r, appPrefix+"/serv-manager/j_spring_security_check", h.Platform.Account)
	getPost(r, appPrefix+teachPlatformPrefix+"/pub/alive", h.Platform.Alive)

	getPost(r, coursewarePath, h.Courseware.ShareFileList)
	getPost(r, appPrefix+coursewarePath, h.Courseware.ShareFileList)

	if h.Homework != nil {
		getPost(r, homeworkListPath, h.Homework.List)
		getPost(r, appPrefix+homeworkListPath, h.Homework.List)
		getPost(r, homeworkDetailPath, h.Homework.Detail)
		getPost(r, appPrefix+homeworkDetailPath, h.Homework.Detail)
	}

	r.Get(handlers.ResourcesPrefix+"*", h.Courseware.Resource)

	r.Get("/health/live", h.Health.HealthLive)
	r.Get("/health/ready", h.Health.HealthReady)
	r.Handle("/metrics", promhttp.Handler())
	if h.APIDoc != nil {
		r.Handle("/openapi.json", h.APIDoc)
	}

	return r
}

// NewOperatorRouter собирает маршруты операторского API.
// events — websocket-поток событий панели.
func NewOperatorRouter(op *handlers.OperatorHandler, events http.Handler, health *handlers.HealthHandler, logger *slog.Logger) http.Handler {
	r := newRouter(logger)

	r.Route("/operator", func(r chi.Router) {
		r.Get("/files", op.ListFiles)
		r.Post("/files", op.AddFiles)
		r.Delete("/files", op.DeleteFiles)

		r.Get("/homework", op.ListRecords)
		r.Post("/homework", op.CreateRecord)
		r.Put("/homework/{id}", op.SaveRecord)
		r.Delete("/homework/{id}", op.DeleteRecord)

		r.Get("/status", op.Status)
		r.Handle("/events", events)
	})

	r.Get("/health/live", health.HealthLive)
	r.Get("/health/ready", health.HealthReady)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func newRouter(logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.MetricsMiddleware())
	r.Use(chimw.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierrors.NotFound(w, fmt.Sprintf("Маршрут не найден: %s", r.URL.Path))
	})
	return r
}

// getPost регистрирует обработчик на GET и POST: платформа принимает оба.
func getPost(r chi.Router, pattern string, h http.HandlerFunc) {
	r.Get(pattern, h)
	r.Post(pattern, h)
}

// Server — HTTP-сервер с graceful shutdown по отмене контекста.
type Server struct {
	name            string
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// New создаёт сервер на адресе addr (host:port). name используется в логах.
func New(name, addr string, handler http.Handler, cfg *config.Config, logger *slog.Logger) *Server {
	return &Server{
		name: name,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  cfg.HTTPReadTimeout,
			WriteTimeout: cfg.HTTPWriteTimeout,
			IdleTimeout:  cfg.HTTPIdleTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger.With(slog.String("component", "server"), slog.String("server", name)),
	}
}

// Listen открывает сокет сервера. Порт занят — ошибка сразу при старте,
// до запуска остальных компонентов.
func (s *Server) Listen(ctx context.Context) (net.Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return nil, fmt.Errorf("ошибка запуска %s: %w", s.name, err)
	}
	return ln, nil
}

// Run слушает адрес сервера до отмены ctx.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen(ctx)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve обслуживает соединения ln до отмены ctx, затем выполняет
// graceful shutdown с таймаутом из конфигурации.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP-сервер запущен", slog.String("addr", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("ошибка HTTP-сервера %s: %w", s.name, err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown %s: %w", s.name, err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
