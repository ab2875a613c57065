// courseware.go — сервис листинга файлов для mock API.
package service

import (
	"log/slog"
	"time"

	"github.com/bigkaa/goartstore/classroom-mock/internal/api/middleware"
	"github.com/bigkaa/goartstore/classroom-mock/internal/domain/model"
	"github.com/bigkaa/goartstore/classroom-mock/internal/listing"
)

// ResourceLister — то, что сервису нужно от хранилища ресурсов.
type ResourceLister interface {
	List() []string
	Size(relPath string) int64
}

// CoursewareService строит листинг файлов заново на каждый запрос.
// Кеша нет: изменения оператора видны со следующего запроса.
type CoursewareService struct {
	store  ResourceLister
	now    func() time.Time
	logger *slog.Logger
}

// NewCoursewareService создаёт сервис листинга.
func NewCoursewareService(store ResourceLister, logger *slog.Logger) *CoursewareService {
	return &CoursewareService{
		store:  store,
		now:    time.Now,
		logger: logger.With(slog.String("component", "courseware_service")),
	}
}

// ListFiles возвращает страницу листинга. Ошибки чтения корня
// превращаются в пустой листинг на уровне хранилища.
func (s *CoursewareService) ListFiles(req model.PageRequest) model.PageResult[model.FileEntry] {
	paths := s.store.List()
	result := listing.BuildFiles(paths, req, s.store.Size, s.now())

	middleware.ListingTotal.Inc()
	middleware.ResourceFiles.Set(float64(len(paths)))

	s.logger.Debug("Листинг построен",
		slog.Int("files", len(paths)),
		slog.Int("matched", result.RecordCount),
		slog.Int("page_index", result.PageIndex),
		slog.Int("page_size", result.PageSize),
	)
	return result
}
