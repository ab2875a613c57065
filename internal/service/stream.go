// stream.go — сервис отдачи файлов из корня ресурсов.
package service

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"

	apierrors "github.com/bigkaa/goartstore/classroom-mock/internal/api/errors"
	"github.com/bigkaa/goartstore/classroom-mock/internal/api/middleware"
	"github.com/bigkaa/goartstore/classroom-mock/internal/storage/resource"
)

// ResourceOpener открывает файл из корня ресурсов для отдачи.
type ResourceOpener interface {
	Open(relPath string) (*os.File, fs.FileInfo, error)
}

// StreamService — сервис отдачи файлов.
type StreamService struct {
	store  ResourceOpener
	logger *slog.Logger
}

// NewStreamService создаёт сервис отдачи файлов.
func NewStreamService(store ResourceOpener, logger *slog.Logger) *StreamService {
	return &StreamService{
		store:  store,
		logger: logger.With(slog.String("component", "stream_service")),
	}
}

// ServeError — ошибка отдачи с HTTP-кодом.
type ServeError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Serve отдаёт файл клиенту через http.ServeContent (Range, If-Modified-Since).
// Файл открывается под блокировкой чтения хранилища, а байты идут уже
// по открытому дескриптору: удаление файла оператором во время отдачи
// не прерывает её, а удаление до открытия даёт 404.
func (s *StreamService) Serve(w http.ResponseWriter, r *http.Request, relPath string) *ServeError {
	file, info, err := s.store.Open(relPath)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) || errors.Is(err, resource.ErrOutsideRoot) {
			middleware.ResourceStreamsTotal.WithLabelValues("not_found").Inc()
			s.logger.Debug("Ресурс не найден",
				slog.String("path", relPath),
				slog.String("error", err.Error()),
			)
			return &ServeError{
				StatusCode: http.StatusNotFound,
				Code:       apierrors.CodeNotFound,
				Message:    fmt.Sprintf("Ресурс %s не найден", relPath),
			}
		}
		middleware.ResourceStreamsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Ошибка открытия ресурса",
			slog.String("path", relPath),
			slog.String("error", err.Error()),
		)
		return &ServeError{
			StatusCode: http.StatusInternalServerError,
			Code:       apierrors.CodeInternalError,
			Message:    "Ошибка чтения файла",
		}
	}
	defer file.Close()

	name := path.Base(relPath)
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": name}))
	w.Header().Set("Accept-Ranges", "bytes")

	http.ServeContent(w, r, name, info.ModTime(), file)

	middleware.ResourceStreamsTotal.WithLabelValues("ok").Inc()
	s.logger.Debug("Ресурс отдан",
		slog.String("path", relPath),
		slog.Int64("size", info.Size()),
	)
	return nil
}
