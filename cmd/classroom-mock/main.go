// Точка входа classroom-mock — эмулятора backend классной платформы
// для офлайн-тестирования клиентов.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/goartstore/classroom-mock/internal/api/apidoc"
	"github.com/bigkaa/goartstore/classroom-mock/internal/api/handlers"
	"github.com/bigkaa/goartstore/classroom-mock/internal/api/middleware"
	"github.com/bigkaa/goartstore/classroom-mock/internal/auth"
	"github.com/bigkaa/goartstore/classroom-mock/internal/config"
	"github.com/bigkaa/goartstore/classroom-mock/internal/console"
	"github.com/bigkaa/goartstore/classroom-mock/internal/panel"
	"github.com/bigkaa/goartstore/classroom-mock/internal/server"
	"github.com/bigkaa/goartstore/classroom-mock/internal/service"
	"github.com/bigkaa/goartstore/classroom-mock/internal/storage/homework"
	"github.com/bigkaa/goartstore/classroom-mock/internal/storage/resource"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("classroom-mock запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.Int("operator_port", cfg.OperatorPort),
		slog.String("operator_addr", cfg.OperatorAddr),
		slog.String("resources_dir", cfg.ResourcesDir),
		slog.Bool("homework", cfg.HomeworkEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, cfg, logger); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("classroom-mock остановлен")
}

// run собирает компоненты и работает до сигнала, команды quit
// или ошибки одного из серверов.
func run(ctx context.Context, stop context.CancelFunc, cfg *config.Config, logger *slog.Logger) error {
	// --- Инициализация компонентов ---

	// 1. Корень ресурсов (создаётся один раз при старте)
	resources, err := resource.New(cfg.ResourcesDir, logger)
	if err != nil {
		return fmt.Errorf("инициализация корня ресурсов: %w", err)
	}

	// 2. Домашние задания
	var records *homework.Store
	if cfg.HomeworkEnabled {
		records = homework.New(logger)
		if cfg.HomeworkSeed {
			if err := records.Seed(); err != nil {
				return fmt.Errorf("начальная запись домашнего задания: %w", err)
			}
		}
		middleware.HomeworkRecords.Set(float64(records.Count()))
	}

	// 3. OpenAPI-описание
	doc, err := apidoc.Load(ctx)
	if err != nil {
		return err
	}
	docHandler, err := apidoc.Handler(doc)
	if err != nil {
		return err
	}

	// 4. Сервисы и панель оператора
	coursewareSvc := service.NewCoursewareService(resources, logger)
	streamSvc := service.NewStreamService(resources, logger)
	hub := panel.NewHub(logger)
	defer hub.Close()
	p := panel.New(resources, records, hub, logger)

	aliveURL := fmt.Sprintf("http://127.0.0.1:%d/classInApp/serv-teachplatform/pub/alive", cfg.Port)
	liveness := service.NewLivenessService(aliveURL, p, cfg.LivenessInterval, logger)

	// 5. Handlers и маршруты
	apiHandlers := server.APIHandlers{
		Platform: handlers.NewPlatformHandler(
			handlers.Identity{SchoolID: cfg.SchoolID, SchoolName: cfg.SchoolName},
			auth.NewIssuer(cfg.TokenSecret, cfg.TokenTTL),
			logger,
		),
		Courseware: handlers.NewCoursewareHandler(coursewareSvc, streamSvc, logger),
		Health:     handlers.NewHealthHandler(cfg.ResourcesDir),
		APIDoc:     docHandler,
	}
	if records != nil {
		apiHandlers.Homework = handlers.NewHomeworkHandler(records, logger)
	}
	apiSrv := server.New("mock-api", fmt.Sprintf(":%d", cfg.Port), server.NewAPIRouter(apiHandlers, logger), cfg, logger)

	// Порт mock API занимается до запуска самопроверки
	apiLn, err := apiSrv.Listen(ctx)
	if err != nil {
		return err
	}

	// --- Запуск ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return apiSrv.Serve(gctx, apiLn)
	})

	if cfg.OperatorPort != 0 {
		opRouter := server.NewOperatorRouter(
			handlers.NewOperatorHandler(p, logger),
			hub,
			apiHandlers.Health,
			logger,
		)
		if !cfg.OperatorLoopback() {
			logger.Warn("Операторский API доступен по сети: он копирует в корень файлы хоста",
				slog.String("addr", cfg.OperatorListenAddr()),
			)
		}
		opSrv := server.New("operator-api", cfg.OperatorListenAddr(), opRouter, cfg, logger)
		g.Go(func() error {
			return opSrv.Run(gctx)
		})
	}

	g.Go(func() error {
		liveness.Start(gctx)
		<-gctx.Done()
		liveness.Stop()
		return nil
	})

	if cfg.ConsoleEnabled {
		con, restore, err := console.Stdio(p, logger)
		if err != nil {
			logger.Warn("Консоль оператора недоступна", slog.String("error", err.Error()))
		} else {
			g.Go(func() error {
				defer restore()
				err := con.Run(gctx)
				if errors.Is(err, console.ErrQuit) {
					stop()
					return nil
				}
				return err
			})
		}
	}

	return g.Wait()
}
