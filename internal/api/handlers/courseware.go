// courseware.go — листинг файлов учителя и отдача самих файлов.
package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/goartstore/classroom-mock/internal/api/errors"
	"github.com/bigkaa/goartstore/classroom-mock/internal/api/envelope"
	"github.com/bigkaa/goartstore/classroom-mock/internal/api/params"
	"github.com/bigkaa/goartstore/classroom-mock/internal/service"
)

// ResourcesPrefix — префикс URL отдачи файлов; fileUrl в листинге
// строится относительно него.
const ResourcesPrefix = "/resources/"

// CoursewareHandler — обработчик листинга и отдачи файлов.
type CoursewareHandler struct {
	courseware *service.CoursewareService
	stream     *service.StreamService
	logger     *slog.Logger
}

// NewCoursewareHandler создаёт обработчик.
func NewCoursewareHandler(courseware *service.CoursewareService, stream *service.StreamService, logger *slog.Logger) *CoursewareHandler {
	return &CoursewareHandler{
		courseware: courseware,
		stream:     stream,
		logger:     logger.With(slog.String("component", "courseware_handler")),
	}
}

// ShareFileList обрабатывает selectShareFileList (GET и POST).
// Параметры: pageIndex, pageSize, fuzzyName, fileType.
// Нечисловые pageIndex/pageSize — HTTP 500, как у эмулируемой платформы.
func (h *CoursewareHandler) ShareFileList(w http.ResponseWriter, r *http.Request) {
	req, err := params.FileListing(r)
	if err != nil {
		h.logger.Warn("Некорректные параметры листинга",
			slog.String("error", err.Error()),
			slog.String("kind", params.KindOf(err).String()),
		)
		apierrors.InvalidParam(w, err.Error())
		return
	}

	res := h.courseware.ListFiles(req)
	envelope.Write(w, toPage(res, toShareFile))
}

// Resource обрабатывает GET /resources/<path>.
func (h *CoursewareHandler) Resource(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, ResourcesPrefix)
	if serr := h.stream.Serve(w, r, rel); serr != nil {
		apierrors.WriteError(w, serr.StatusCode, serr.Code, serr.Message)
	}
}
