// homework.go — список и детали домашних заданий.
package handlers

import (
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/classroom-mock/internal/api/errors"
	"github.com/bigkaa/goartstore/classroom-mock/internal/api/envelope"
	"github.com/bigkaa/goartstore/classroom-mock/internal/api/params"
	"github.com/bigkaa/goartstore/classroom-mock/internal/domain/model"
)

// HomeworkReader — чтение коллекции записей для mock API.
type HomeworkReader interface {
	List(req model.PageRequest) model.PageResult[model.HomeworkRecord]
	Get(id string) (model.HomeworkRecord, bool)
}

// HomeworkHandler — обработчик endpoints домашних заданий.
type HomeworkHandler struct {
	records HomeworkReader
	logger  *slog.Logger
}

// NewHomeworkHandler создаёт обработчик.
func NewHomeworkHandler(records HomeworkReader, logger *slog.Logger) *HomeworkHandler {
	return &HomeworkHandler{
		records: records,
		logger:  logger.With(slog.String("component", "homework_handler")),
	}
}

// List обрабатывает selectPadHomeworkList: страница записей без фильтров.
func (h *HomeworkHandler) List(w http.ResponseWriter, r *http.Request) {
	req, err := params.Page(r)
	if err != nil {
		h.logger.Warn("Некорректные параметры страницы", slog.String("error", err.Error()))
		apierrors.InvalidParam(w, err.Error())
		return
	}
	envelope.Write(w, toPage(h.records.List(req), toHomeworkSummary))
}

// Detail обрабатывает selectPadHomeworkDetail. Неизвестный или
// отсутствующий homeworkId не ошибка: отдаётся первая запись,
// а при пустой коллекции — пустая структура того же вида.
func (h *HomeworkHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id := params.String(r, params.HomeworkID, "")
	rec, found := h.records.Get(id)
	if !found {
		h.logger.Debug("Запись не найдена, используется подстановка",
			slog.String("requested", id),
			slog.String("served", rec.ID),
		)
	}
	envelope.Write(w, toHomeworkDetail(rec))
}
