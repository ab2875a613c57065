// Пакет config — загрузка и валидация конфигурации mock-сервера
// учебной платформы из переменных окружения.
//
// Конфигурация загружается один раз при старте процесса и дальше
// используется только на чтение.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации mock-сервера.
type Config struct {
	// Порт mock API (оригинальный клиент ходит на 80)
	Port int
	// Порт операторского HTTP API (0 — выключен)
	OperatorPort int
	// Адрес интерфейса операторского API (по умолчанию только loopback)
	OperatorAddr string
	// Корневая директория раздаваемых ресурсов
	ResourcesDir string

	// Включает вариант с домашними заданиями
	HomeworkEnabled bool
	// Создать одну демонстрационную запись при старте
	HomeworkSeed bool

	// Интерактивная консоль оператора в терминале
	ConsoleEnabled bool
	// Интервал самопроверки панели оператора
	LivenessInterval time.Duration

	// Секрет для подписи токена аккаунта (пусто — статический mock-token)
	TokenSecret string
	// Время жизни подписанного токена
	TokenTTL time.Duration

	// Идентификатор и название школы в mock-ответах
	SchoolID   string
	SchoolName string

	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// Таймауты HTTP-сервера
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	// Таймаут graceful shutdown
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// значения и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// CM_PORT — порт mock API (по умолчанию 80)
	port, err := getEnvInt("CM_PORT", 80)
	if err != nil {
		return nil, fmt.Errorf("CM_PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("CM_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// CM_OPERATOR_PORT — порт операторского API (по умолчанию 8090, 0 — выключен)
	opPort, err := getEnvInt("CM_OPERATOR_PORT", 8090)
	if err != nil {
		return nil, fmt.Errorf("CM_OPERATOR_PORT: %w", err)
	}
	if opPort < 0 || opPort > 65535 {
		return nil, fmt.Errorf("CM_OPERATOR_PORT: значение %d вне допустимого диапазона 0-65535", opPort)
	}
	if opPort != 0 && opPort == cfg.Port {
		return nil, fmt.Errorf("CM_OPERATOR_PORT: совпадает с CM_PORT (%d)", port)
	}
	cfg.OperatorPort = opPort

	// CM_OPERATOR_ADDR — IP-адрес интерфейса операторского API (по умолчанию 127.0.0.1)
	cfg.OperatorAddr = getEnvDefault("CM_OPERATOR_ADDR", "127.0.0.1")
	if cfg.OperatorAddr != "localhost" && net.ParseIP(cfg.OperatorAddr) == nil {
		return nil, fmt.Errorf("CM_OPERATOR_ADDR: %q не является IP-адресом", cfg.OperatorAddr)
	}

	// CM_RESOURCES_DIR — корень ресурсов (по умолчанию <каталог бинарника>/resources)
	cfg.ResourcesDir = getEnvDefault("CM_RESOURCES_DIR", defaultResourcesDir())
	abs, err := filepath.Abs(cfg.ResourcesDir)
	if err != nil {
		return nil, fmt.Errorf("CM_RESOURCES_DIR: %w", err)
	}
	cfg.ResourcesDir = abs

	if cfg.HomeworkEnabled, err = getEnvBool("CM_HOMEWORK_ENABLED", true); err != nil {
		return nil, fmt.Errorf("CM_HOMEWORK_ENABLED: %w", err)
	}
	if cfg.HomeworkSeed, err = getEnvBool("CM_HOMEWORK_SEED", true); err != nil {
		return nil, fmt.Errorf("CM_HOMEWORK_SEED: %w", err)
	}
	if cfg.ConsoleEnabled, err = getEnvBool("CM_CONSOLE_ENABLED", true); err != nil {
		return nil, fmt.Errorf("CM_CONSOLE_ENABLED: %w", err)
	}

	// CM_LIVENESS_INTERVAL — самопроверка панели (по умолчанию 5s)
	cfg.LivenessInterval, err = getEnvDuration("CM_LIVENESS_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_LIVENESS_INTERVAL: %w", err)
	}
	if cfg.LivenessInterval <= 0 {
		return nil, fmt.Errorf("CM_LIVENESS_INTERVAL: значение должно быть положительным")
	}

	cfg.TokenSecret = getEnvDefault("CM_TOKEN_SECRET", "")
	cfg.TokenTTL, err = getEnvDuration("CM_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("CM_TOKEN_TTL: %w", err)
	}

	cfg.SchoolID = getEnvDefault("CM_SCHOOL_ID", "LOCAL_SCHOOL")
	cfg.SchoolName = getEnvDefault("CM_SCHOOL_NAME", "QRQLL 模拟学校")

	// CM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("CM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("CM_LOG_LEVEL: %w", err)
	}

	// CM_LOG_FORMAT — формат логов (по умолчанию text: рядом работает консоль оператора)
	cfg.LogFormat = getEnvDefault("CM_LOG_FORMAT", "text")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	if cfg.HTTPReadTimeout, err = getEnvDuration("CM_HTTP_READ_TIMEOUT", 30*time.Second); err != nil {
		return nil, fmt.Errorf("CM_HTTP_READ_TIMEOUT: %w", err)
	}
	// 0 — без ограничения: отдача больших файлов не должна обрываться
	if cfg.HTTPWriteTimeout, err = getEnvDuration("CM_HTTP_WRITE_TIMEOUT", 0); err != nil {
		return nil, fmt.Errorf("CM_HTTP_WRITE_TIMEOUT: %w", err)
	}
	if cfg.HTTPIdleTimeout, err = getEnvDuration("CM_HTTP_IDLE_TIMEOUT", 120*time.Second); err != nil {
		return nil, fmt.Errorf("CM_HTTP_IDLE_TIMEOUT: %w", err)
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("CM_SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		return nil, fmt.Errorf("CM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// defaultResourcesDir возвращает <каталог исполняемого файла>/resources.
// Если путь к бинарнику недоступен, используется рабочая директория.
func defaultResourcesDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "resources"
	}
	return filepath.Join(filepath.Dir(exe), "resources")
}

// --- Вспомогательные функции ---

// OperatorListenAddr возвращает адрес host:port операторского API.
func (c *Config) OperatorListenAddr() string {
	return net.JoinHostPort(c.OperatorAddr, strconv.Itoa(c.OperatorPort))
}

// OperatorLoopback сообщает, доступен ли операторский API только локально.
func (c *Config) OperatorLoopback() bool {
	if c.OperatorAddr == "localhost" {
		return true
	}
	ip := net.ParseIP(c.OperatorAddr)
	return ip != nil && ip.IsLoopback()
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 5s, 1m, 24h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
