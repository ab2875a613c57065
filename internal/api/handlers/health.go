// health.go — обработчики health endpoints: /health/live, /health/ready.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/bigkaa/goartstore/classroom-mock/internal/config"
)

// statusFail — строковая константа для статуса "fail" в health checks.
const statusFail = "fail"

// serviceName — имя сервиса в ответах health.
const serviceName = "classroom-mock"

// HealthHandler реализует health endpoints.
type HealthHandler struct {
	version string
	// resourcesDir — корень ресурсов (для проверки готовности)
	resourcesDir string
}

// NewHealthHandler создаёт обработчик health endpoints.
func NewHealthHandler(resourcesDir string) *HealthHandler {
	return &HealthHandler{
		version:      config.Version,
		resourcesDir: resourcesDir,
	}
}

// HealthLive обрабатывает GET /health/live.
// Возвращает 200, если процесс жив. Не проверяет зависимости.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   serviceName,
	})
}

// HealthReady обрабатывает GET /health/ready.
// Проверяет, что корень ресурсов — читаемый каталог.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	overallStatus := "ok"
	httpStatus := http.StatusOK

	rootCheck := h.checkResources()
	if rootCheck["status"] != "ok" {
		overallStatus = statusFail
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   serviceName,
		"checks": map[string]any{
			"resources": rootCheck,
		},
	})
}

// checkResources проверяет, что корень ресурсов существует и читается.
func (h *HealthHandler) checkResources() map[string]any {
	info, err := os.Stat(h.resourcesDir)
	if err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": "Корень ресурсов недоступен: " + err.Error(),
		}
	}
	if !info.IsDir() {
		return map[string]any{
			"status":  statusFail,
			"message": "Корень ресурсов не является директорией",
		}
	}
	f, err := os.Open(h.resourcesDir)
	if err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": "Корень ресурсов недоступен для чтения: " + err.Error(),
		}
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return map[string]any{
			"status":  statusFail,
			"message": "Корень ресурсов недоступен для чтения: " + err.Error(),
		}
	}

	return map[string]any{
		"status": "ok",
		"path":   h.resourcesDir,
	}
}

// writeJSON отправляет JSON-ответ вне конверта платформы.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
