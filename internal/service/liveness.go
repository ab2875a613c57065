// liveness.go — периодическая самопроверка mock API для строки состояния
// панели оператора.
//
// Сервис раз в интервал (CM_LIVENESS_INTERVAL) запрашивает собственный
// эндпоинт pub/alive и пишет результат в панель. Общее состояние
// (корень ресурсов, записи) не трогает.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/classroom-mock/internal/panel"
)

// Сообщения строки состояния.
const (
	StatusRunning     = "服务器运行中 | 就绪"
	statusFailPrefix  = "服务器状态检查失败: "
	livenessTimeout   = 2 * time.Second
	livenessBodyLimit = 1 << 16
)

var livenessChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cm_liveness_checks_total",
	Help: "Количество самопроверок mock API",
}, []string{"result"})

// StatusSink принимает результат самопроверки.
type StatusSink interface {
	SetStatus(panel.Status)
}

// LivenessService — фоновая самопроверка.
type LivenessService struct {
	url      string
	client   *http.Client
	sink     StatusSink
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex // защита от параллельного запуска RunOnce
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLivenessService создаёт сервис. url — полный адрес pub/alive.
func NewLivenessService(url string, sink StatusSink, interval time.Duration, logger *slog.Logger) *LivenessService {
	return &LivenessService{
		url:      url,
		client:   &http.Client{Timeout: livenessTimeout},
		sink:     sink,
		interval: interval,
		logger:   logger.With(slog.String("component", "liveness")),
	}
}

// Start запускает фоновую горутину с тикером.
func (s *LivenessService) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.Run(runCtx)
	}()

	s.logger.Info("Самопроверка запущена",
		slog.String("interval", s.interval.String()),
		slog.String("url", s.url),
	)
}

// Stop останавливает фоновую горутину и ждёт её завершения.
func (s *LivenessService) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	s.logger.Info("Самопроверка остановлена")
}

// Run выполняет проверки до отмены ctx. Первая проверка — сразу.
func (s *LivenessService) Run(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет одну проверку и передаёт результат в sink.
func (s *LivenessService) RunOnce(ctx context.Context) panel.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := panel.Status{Running: true, Message: StatusRunning, CheckedAt: time.Now()}
	if err := s.probe(ctx); err != nil {
		if ctx.Err() != nil {
			return st
		}
		st.Running = false
		st.Message = statusFailPrefix + err.Error()
		livenessChecksTotal.WithLabelValues("fail").Inc()
		s.logger.Warn("Самопроверка не прошла", slog.String("error", err.Error()))
	} else {
		livenessChecksTotal.WithLabelValues("ok").Inc()
	}

	s.sink.SetStatus(st)
	return st
}

// probe запрашивает pub/alive и проверяет конверт ответа.
func (s *LivenessService) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var body struct {
		Status int `json:"status"`
		Result struct {
			Alive bool `json:"alive"`
		} `json:"result"`
	}
	dec := json.NewDecoder(io.LimitReader(resp.Body, livenessBodyLimit))
	if err := dec.Decode(&body); err != nil {
		return fmt.Errorf("некорректный ответ: %w", err)
	}
	if body.Status != 0 || !body.Result.Alive {
		return errors.New("сервер не подтвердил готовность")
	}
	return nil
}
