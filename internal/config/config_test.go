package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setEnvVars устанавливает переменные окружения для теста и возвращает
// функцию очистки. Всегда вызывать defer cleanup().
func setEnvVars(t *testing.T, vars map[string]string) func() {
	t.Helper()

	// Сохраняем оригинальные значения
	originals := make(map[string]string)
	origSet := make(map[string]bool)
	for k := range vars {
		if v, ok := os.LookupEnv(k); ok {
			originals[k] = v
			origSet[k] = true
		}
	}

	for k, v := range vars {
		os.Setenv(k, v)
	}

	return func() {
		for k := range vars {
			if origSet[k] {
				os.Setenv(k, originals[k])
			} else {
				os.Unsetenv(k)
			}
		}
	}
}

// clearAllCMEnvVars очищает все переменные окружения CM_* для чистого теста.
func clearAllCMEnvVars(t *testing.T) func() {
	t.Helper()
	keys := []string{
		"CM_PORT", "CM_OPERATOR_PORT", "CM_OPERATOR_ADDR", "CM_RESOURCES_DIR",
		"CM_HOMEWORK_ENABLED", "CM_HOMEWORK_SEED", "CM_CONSOLE_ENABLED",
		"CM_LIVENESS_INTERVAL", "CM_TOKEN_SECRET", "CM_TOKEN_TTL",
		"CM_SCHOOL_ID", "CM_SCHOOL_NAME", "CM_LOG_LEVEL", "CM_LOG_FORMAT",
		"CM_HTTP_READ_TIMEOUT", "CM_HTTP_WRITE_TIMEOUT", "CM_HTTP_IDLE_TIMEOUT",
		"CM_SHUTDOWN_TIMEOUT",
	}
	originals := make(map[string]string)
	origSet := make(map[string]bool)
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			originals[k] = v
			origSet[k] = true
		}
		os.Unsetenv(k)
	}
	return func() {
		for _, k := range keys {
			if origSet[k] {
				os.Setenv(k, originals[k])
			} else {
				os.Unsetenv(k)
			}
		}
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	cleanup := clearAllCMEnvVars(t)
	defer cleanup()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 80 {
		t.Errorf("Port: ожидалось 80, получено %d", cfg.Port)
	}
	if cfg.OperatorPort != 8090 {
		t.Errorf("OperatorPort: ожидалось 8090, получено %d", cfg.OperatorPort)
	}
	if cfg.OperatorAddr != "127.0.0.1" || !cfg.OperatorLoopback() {
		t.Errorf("OperatorAddr: ожидалось 127.0.0.1, получено %q", cfg.OperatorAddr)
	}
	if got := cfg.OperatorListenAddr(); got != "127.0.0.1:8090" {
		t.Errorf("OperatorListenAddr: ожидалось 127.0.0.1:8090, получено %q", got)
	}
	if !filepath.IsAbs(cfg.ResourcesDir) || filepath.Base(cfg.ResourcesDir) != "resources" {
		t.Errorf("ResourcesDir: ожидался абсолютный путь к resources, получено %q", cfg.ResourcesDir)
	}
	if !cfg.HomeworkEnabled || !cfg.HomeworkSeed || !cfg.ConsoleEnabled {
		t.Errorf("флаги вариантов: ожидалось true, получено homework=%v seed=%v console=%v",
			cfg.HomeworkEnabled, cfg.HomeworkSeed, cfg.ConsoleEnabled)
	}
	if cfg.LivenessInterval != 5*time.Second {
		t.Errorf("LivenessInterval: ожидалось 5s, получено %v", cfg.LivenessInterval)
	}
	if cfg.TokenSecret != "" {
		t.Errorf("TokenSecret: ожидалась пустая строка, получено %q", cfg.TokenSecret)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL: ожидалось 24h, получено %v", cfg.TokenTTL)
	}
	if cfg.SchoolID != "LOCAL_SCHOOL" {
		t.Errorf("SchoolID: ожидалось 'LOCAL_SCHOOL', получено %q", cfg.SchoolID)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel: ожидалось INFO, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat: ожидалось 'text', получено %q", cfg.LogFormat)
	}
	if cfg.HTTPReadTimeout != 30*time.Second {
		t.Errorf("HTTPReadTimeout: ожидалось 30s, получено %v", cfg.HTTPReadTimeout)
	}
	if cfg.HTTPWriteTimeout != 0 {
		t.Errorf("HTTPWriteTimeout: ожидалось 0, получено %v", cfg.HTTPWriteTimeout)
	}
	if cfg.HTTPIdleTimeout != 120*time.Second {
		t.Errorf("HTTPIdleTimeout: ожидалось 120s, получено %v", cfg.HTTPIdleTimeout)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout: ожидалось 5s, получено %v", cfg.ShutdownTimeout)
	}
}

func TestLoad_AllCustomValues(t *testing.T) {
	cleanup := clearAllCMEnvVars(t)
	defer cleanup()

	dir := t.TempDir()
	cleanupVars := setEnvVars(t, map[string]string{
		"CM_PORT":               "8080",
		"CM_OPERATOR_PORT":      "0",
		"CM_RESOURCES_DIR":      dir,
		"CM_HOMEWORK_ENABLED":   "false",
		"CM_HOMEWORK_SEED":      "false",
		"CM_CONSOLE_ENABLED":    "false",
		"CM_LIVENESS_INTERVAL":  "1s",
		"CM_TOKEN_SECRET":       "s3cr3t",
		"CM_TOKEN_TTL":          "1h",
		"CM_SCHOOL_ID":          "S-1",
		"CM_SCHOOL_NAME":        "Школа №1",
		"CM_LOG_LEVEL":          "debug",
		"CM_LOG_FORMAT":         "json",
		"CM_HTTP_READ_TIMEOUT":  "10s",
		"CM_HTTP_WRITE_TIMEOUT": "2m",
		"CM_HTTP_IDLE_TIMEOUT":  "30s",
		"CM_SHUTDOWN_TIMEOUT":   "1s",
	})
	defer cleanupVars()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port: ожидалось 8080, получено %d", cfg.Port)
	}
	if cfg.OperatorPort != 0 {
		t.Errorf("OperatorPort: ожидалось 0, получено %d", cfg.OperatorPort)
	}
	if cfg.ResourcesDir != dir {
		t.Errorf("ResourcesDir: ожидалось %q, получено %q", dir, cfg.ResourcesDir)
	}
	if cfg.HomeworkEnabled || cfg.HomeworkSeed || cfg.ConsoleEnabled {
		t.Error("флаги вариантов должны быть выключены")
	}
	if cfg.LivenessInterval != time.Second {
		t.Errorf("LivenessInterval: ожидалось 1s, получено %v", cfg.LivenessInterval)
	}
	if cfg.TokenSecret != "s3cr3t" || cfg.TokenTTL != time.Hour {
		t.Errorf("токен: получено secret=%q ttl=%v", cfg.TokenSecret, cfg.TokenTTL)
	}
	if cfg.SchoolID != "S-1" || cfg.SchoolName != "Школа №1" {
		t.Errorf("школа: получено %q / %q", cfg.SchoolID, cfg.SchoolName)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel: ожидалось DEBUG, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat: ожидалось 'json', получено %q", cfg.LogFormat)
	}
	if cfg.HTTPWriteTimeout != 2*time.Minute {
		t.Errorf("HTTPWriteTimeout: ожидалось 2m, получено %v", cfg.HTTPWriteTimeout)
	}
	if cfg.ShutdownTimeout != time.Second {
		t.Errorf("ShutdownTimeout: ожидалось 1s, получено %v", cfg.ShutdownTimeout)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{"нечисловой порт", map[string]string{"CM_PORT": "abc"}, "CM_PORT"},
		{"порт вне диапазона", map[string]string{"CM_PORT": "70000"}, "CM_PORT"},
		{"нулевой порт API", map[string]string{"CM_PORT": "0"}, "CM_PORT"},
		{"порты совпадают", map[string]string{"CM_PORT": "9000", "CM_OPERATOR_PORT": "9000"}, "CM_OPERATOR_PORT"},
		{"отрицательный операторский порт", map[string]string{"CM_OPERATOR_PORT": "-1"}, "CM_OPERATOR_PORT"},
		{"адрес операторского API", map[string]string{"CM_OPERATOR_ADDR": "not an ip"}, "CM_OPERATOR_ADDR"},
		{"некорректный bool", map[string]string{"CM_HOMEWORK_ENABLED": "yes please"}, "CM_HOMEWORK_ENABLED"},
		{"некорректная длительность", map[string]string{"CM_LIVENESS_INTERVAL": "5"}, "CM_LIVENESS_INTERVAL"},
		{"нулевой интервал", map[string]string{"CM_LIVENESS_INTERVAL": "0s"}, "CM_LIVENESS_INTERVAL"},
		{"уровень логов", map[string]string{"CM_LOG_LEVEL": "trace"}, "CM_LOG_LEVEL"},
		{"формат логов", map[string]string{"CM_LOG_FORMAT": "xml"}, "CM_LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := clearAllCMEnvVars(t)
			defer cleanup()
			cleanupVars := setEnvVars(t, tt.vars)
			defer cleanupVars()

			_, err := Load()
			if err == nil {
				t.Fatal("ожидалась ошибка")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ошибка должна упоминать %s: %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.input)
		if err != nil {
			t.Errorf("parseLogLevel(%q): неожиданная ошибка %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q): ожидалось %v, получено %v", tt.input, tt.want, got)
		}
	}
}

func TestSetupLogger(t *testing.T) {
	cfg := &Config{LogLevel: slog.LevelWarn, LogFormat: "json"}
	logger := SetupLogger(cfg)
	if logger == nil {
		t.Fatal("логгер не создан")
	}
	if logger.Enabled(t.Context(), slog.LevelInfo) {
		t.Error("INFO не должен быть включён при уровне WARN")
	}
}

func TestConfig_OperatorAddr(t *testing.T) {
	tests := []struct {
		addr     string
		listen   string
		loopback bool
	}{
		{"127.0.0.1", "127.0.0.1:8090", true},
		{"localhost", "localhost:8090", true},
		{"::1", "[::1]:8090", true},
		{"0.0.0.0", "0.0.0.0:8090", false},
		{"192.168.1.10", "192.168.1.10:8090", false},
	}
	for _, tt := range tests {
		cfg := &Config{OperatorAddr: tt.addr, OperatorPort: 8090}
		if got := cfg.OperatorListenAddr(); got != tt.listen {
			t.Errorf("%s: OperatorListenAddr = %q, ожидалось %q", tt.addr, got, tt.listen)
		}
		if got := cfg.OperatorLoopback(); got != tt.loopback {
			t.Errorf("%s: OperatorLoopback = %v, ожидалось %v", tt.addr, got, tt.loopback)
		}
	}
}
