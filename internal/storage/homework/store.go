// Пакет homework — потокобезопасное in-memory хранилище записей
// домашних заданий.
//
// Коллекция упорядочена по времени создания и живёт ровно столько же,
// сколько процесс. Изменяет её только оператор (Create, Update, Delete),
// читает mock API (List, Get). Все операции идут под одним RWMutex.
package homework

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/bigkaa/goartstore/classroom-mock/internal/domain/model"
	"github.com/bigkaa/goartstore/classroom-mock/internal/listing"
)

// ErrNotFound — запись с указанным ID отсутствует.
var ErrNotFound = errors.New("запись домашнего задания не найдена")

// Значения новой записи по умолчанию.
const (
	DefaultName       = "新作业"
	DefaultLessonName = "QRQLL 模拟课程"
	DefaultTargetURL  = "about:blank"
)

// Store — упорядоченная коллекция записей.
type Store struct {
	mu      sync.RWMutex
	records []model.HomeworkRecord
	newID   func() (string, error)
	logger  *slog.Logger
}

// New создаёт пустое хранилище.
func New(logger *slog.Logger) *Store {
	return &Store{
		newID:  newRecordID,
		logger: logger.With(slog.String("component", "homework_store")),
	}
}

// newRecordID выдаёт UUIDv7: старшие биты содержат время создания,
// поэтому ID стабилен и упорядочен по моменту создания.
func newRecordID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Seed добавляет демонстрационную запись, если коллекция пуста.
func (s *Store) Seed() error {
	if s.Count() > 0 {
		return nil
	}
	_, err := s.Create("QRQLL 模拟作业", "https://www.example.com/")
	return err
}

// List возвращает страницу коллекции в порядке создания.
// Фильтров нет: SearchKey и TypeFilter игнорируются.
func (s *Store) List(req model.PageRequest) model.PageResult[model.HomeworkRecord] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listing.Paginate(s.records, model.PageRequest{
		PageIndex: req.PageIndex,
		PageSize:  req.PageSize,
	})
}

// Get возвращает запись по ID. Неизвестный ID не ошибка: возвращается
// первая запись коллекции, а для пустой коллекции — нулевая запись.
// Второе значение сообщает, найден ли именно запрошенный ID.
func (s *Store) Get(id string) (model.HomeworkRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.records[i], true
	}
	if len(s.records) > 0 {
		return s.records[0], false
	}
	return model.HomeworkRecord{}, false
}

// Lookup возвращает запись строго по ID, без подстановки.
func (s *Store) Lookup(id string) (model.HomeworkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.HomeworkRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.records[i], nil
}

// Create добавляет запись в конец коллекции и возвращает её ID.
// Пустое имя заменяется значением по умолчанию.
func (s *Store) Create(name, targetURL string) (string, error) {
	id, err := s.newID()
	if err != nil {
		return "", fmt.Errorf("ошибка генерации ID записи: %w", err)
	}
	if name == "" {
		name = DefaultName
	}
	if targetURL == "" {
		targetURL = DefaultTargetURL
	}

	s.mu.Lock()
	s.records = append(s.records, model.HomeworkRecord{
		ID:         id,
		Name:       name,
		LessonName: DefaultLessonName,
		TargetURL:  targetURL,
	})
	s.mu.Unlock()

	s.logger.Info("Запись создана", slog.String("id", id), slog.String("name", name))
	return id, nil
}

// Update меняет имя и адрес записи на месте. Позиция в коллекции
// не меняется.
func (s *Store) Update(id, name, targetURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.records[i].Name = name
	s.records[i].TargetURL = targetURL

	s.logger.Info("Запись обновлена", slog.String("id", id))
	return nil
}

// Delete удаляет запись по ID.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.records = slices.Delete(s.records, i, i+1)

	s.logger.Info("Запись удалена", slog.String("id", id))
	return nil
}

// Count возвращает количество записей.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// All возвращает копию всей коллекции.
func (s *Store) All() []model.HomeworkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

// indexOf ищет позицию записи. Вызывать под блокировкой.
func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.records, func(r model.HomeworkRecord) bool {
		return r.ID == id
	})
}
