// operator.go — операторский HTTP API поверх panel.Panel.
// Слушает отдельный порт (по умолчанию только на loopback); эмулируемая
// платформа его не видит. Изменяющие запросы принимаются только
// с Content-Type: application/json.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goartstore/classroom-mock/internal/api/errors"
	"github.com/bigkaa/goartstore/classroom-mock/internal/domain/model"
	"github.com/bigkaa/goartstore/classroom-mock/internal/panel"
	"github.com/bigkaa/goartstore/classroom-mock/internal/storage/homework"
)

// maxOperatorBody — лимит тела запроса операторского API.
const maxOperatorBody = 1 << 20

// OperatorPanel — команды оператора, доступные по HTTP.
type OperatorPanel interface {
	AddFiles(paths []string, policy panel.OverwritePolicy) panel.AddResult
	DeleteSelected(relPaths []string) []panel.ItemResult
	Refresh() (panel.Snapshot, error)
	Records() ([]model.HomeworkRecord, error)
	CreateRecord(name, targetURL string) (model.HomeworkRecord, error)
	SaveRecord(id, name, targetURL string) error
	DeleteRecord(id string) error
	Status() panel.Status
}

// OperatorHandler — обработчик операторского API.
type OperatorHandler struct {
	panel  OperatorPanel
	logger *slog.Logger
}

// NewOperatorHandler создаёт обработчик операторского API.
func NewOperatorHandler(p OperatorPanel, logger *slog.Logger) *OperatorHandler {
	return &OperatorHandler{
		panel:  p,
		logger: logger.With(slog.String("component", "operator_handler")),
	}
}

// addFilesRequest — тело POST /operator/files.
type addFilesRequest struct {
	Paths     []string `json:"paths"`
	Overwrite bool     `json:"overwrite"`
}

// deleteFilesRequest — тело DELETE /operator/files.
type deleteFilesRequest struct {
	Paths []string `json:"paths"`
}

// recordRequest — тело POST /operator/homework и PUT /operator/homework/{id}.
type recordRequest struct {
	Name      string `json:"name"`
	TargetURL string `json:"targetUrl"`
}

// recordResponse — запись в ответах операторского API.
type recordResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	LessonName string `json:"lessonName"`
	TargetURL  string `json:"targetUrl"`
}

func toRecordResponse(r model.HomeworkRecord) recordResponse {
	return recordResponse{ID: r.ID, Name: r.Name, LessonName: r.LessonName, TargetURL: r.TargetURL}
}

// ListFiles обрабатывает GET /operator/files.
func (h *OperatorHandler) ListFiles(w http.ResponseWriter, _ *http.Request) {
	snap, err := h.panel.Refresh()
	if err != nil {
		h.logger.Error("Ошибка чтения корня ресурсов", slog.String("error", err.Error()))
		apierrors.InternalError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// AddFiles обрабатывает POST /operator/files.
// Пути — на файловой системе хоста mock-сервера.
func (h *OperatorHandler) AddFiles(w http.ResponseWriter, r *http.Request) {
	var req addFilesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Paths) == 0 {
		apierrors.ValidationError(w, "Поле 'paths' обязательно")
		return
	}

	policy := panel.OverwriteNever
	if req.Overwrite {
		policy = panel.OverwriteAlways
	}
	writeJSON(w, http.StatusOK, h.panel.AddFiles(req.Paths, policy))
}

// DeleteFiles обрабатывает DELETE /operator/files.
func (h *OperatorHandler) DeleteFiles(w http.ResponseWriter, r *http.Request) {
	var req deleteFilesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Paths) == 0 {
		apierrors.ValidationError(w, "Поле 'paths' обязательно")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": h.panel.DeleteSelected(req.Paths)})
}

// ListRecords обрабатывает GET /operator/homework.
func (h *OperatorHandler) ListRecords(w http.ResponseWriter, _ *http.Request) {
	records, err := h.panel.Records()
	if err != nil {
		h.writePanelError(w, err)
		return
	}
	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

// CreateRecord обрабатывает POST /operator/homework.
// Пустое тело создаёт запись со значениями по умолчанию.
func (h *OperatorHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req recordRequest
	if r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}
	rec, err := h.panel.CreateRecord(req.Name, req.TargetURL)
	if err != nil {
		h.writePanelError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordResponse(rec))
}

// SaveRecord обрабатывает PUT /operator/homework/{id}.
func (h *OperatorHandler) SaveRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req recordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.panel.SaveRecord(id, req.Name, req.TargetURL); err != nil {
		h.writePanelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordResponse{
		ID:         id,
		Name:       req.Name,
		LessonName: homework.DefaultLessonName,
		TargetURL:  req.TargetURL,
	})
}

// DeleteRecord обрабатывает DELETE /operator/homework/{id}.
func (h *OperatorHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.panel.DeleteRecord(chi.URLParam(r, "id")); err != nil {
		h.writePanelError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Status обрабатывает GET /operator/status.
func (h *OperatorHandler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.panel.Status())
}

func (h *OperatorHandler) writePanelError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, homework.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, panel.ErrHomeworkDisabled):
		apierrors.NotFound(w, err.Error())
	default:
		h.logger.Error("Ошибка операции оператора", slog.String("error", err.Error()))
		apierrors.InternalError(w, err.Error())
	}
}

// requireJSON проверяет Content-Type запроса. При ошибке ответ уже записан.
func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mt != "application/json" {
		apierrors.UnsupportedMediaType(w, "Ожидается Content-Type: application/json")
		return false
	}
	return true
}

// decodeBody разбирает JSON-тело. При ошибке ответ уже записан.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !requireJSON(w, r) {
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOperatorBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Некорректное тело запроса: %s", err.Error()))
		return false
	}
	return true
}
