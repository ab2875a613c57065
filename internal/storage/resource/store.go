// Пакет resource — корень раздаваемых ресурсов на диске.
//
// Корень одновременно читают HTTP-обработчики и изменяет оператор.
// Синхронизация узкая: обход каталога и открытие файла для отдачи идут
// под RLock, импорт (временный файл → атомарный rename) и удаление под
// Lock. Сама отдача байтов идёт по уже открытому дескриптору вне
// блокировки, поэтому долгая загрузка не задерживает оператора.
// Строгой согласованности между листингом и последующей отдачей нет:
// файл может исчезнуть между ними, это даёт обычный not found.
package resource

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/otiai10/copy"
)

// Ошибки хранилища ресурсов.
var (
	// ErrNotFound — файл не существует (или исчез во время запроса).
	ErrNotFound = errors.New("ресурс не найден")
	// ErrOutsideRoot — путь выходит за пределы корня ресурсов.
	ErrOutsideRoot = errors.New("путь вне корня ресурсов")
	// ErrExists — файл с таким именем уже есть в корне.
	ErrExists = errors.New("ресурс уже существует")
	// ErrInvalidSource — у источника импорта нет допустимого имени.
	ErrInvalidSource = errors.New("недопустимое имя источника")
)

// importPrefix — префикс временных файлов импорта. Такие файлы
// не попадают в листинг, пока не переименованы в итоговое имя.
const importPrefix = ".cm-import-"

// Node — элемент дерева ресурсов для панели оператора.
type Node struct {
	// RelPath — путь относительно корня, разделитель "/"
	RelPath string
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Store — корень ресурсов.
type Store struct {
	// root — абсолютный путь к корню ресурсов
	root   string
	mu     sync.RWMutex
	logger *slog.Logger
}

// New создаёт хранилище. Директория корня создаётся один раз здесь,
// а не при каждом обходе.
func New(root string, logger *slog.Logger) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("некорректный путь корня ресурсов %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать корень ресурсов %s: %w", abs, err)
	}

	return &Store{
		root:   abs,
		logger: logger.With(slog.String("component", "resource_store")),
	}, nil
}

// Root возвращает абсолютный путь к корню ресурсов.
func (s *Store) Root() string {
	return s.root
}

// List возвращает относительные пути всех файлов под корнем
// (рекурсивно, разделитель "/"). Порядок не гарантируется.
// Отсутствующий или нечитаемый корень даёт пустой список, а не ошибку;
// нечитаемые подкаталоги пропускаются.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var files []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == s.root {
				return err
			}
			s.logger.Debug("Пропуск нечитаемого элемента",
				slog.String("path", p),
				slog.String("error", err.Error()),
			)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), importPrefix) {
			return skipEntry(d)
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(s.root, p)
		if relErr != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		s.logger.Warn("Корень ресурсов недоступен, листинг пуст",
			slog.String("root", s.root),
			slog.String("error", err.Error()),
		)
		return []string{}
	}
	if files == nil {
		files = []string{}
	}
	return files
}

// Size возвращает размер файла по относительному пути.
// Если файл исчез или недоступен, возвращается 0.
func (s *Store) Size(relPath string) int64 {
	full, err := s.resolve(relPath)
	if err != nil {
		return 0
	}
	info, err := os.Stat(full)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Open открывает файл для отдачи клиенту. Вызывающий код обязан
// закрыть файл. Путь должен оставаться внутри корня, в том числе после
// разрешения символических ссылок; иначе ErrOutsideRoot.
// Каталоги и отсутствующие файлы дают ErrNotFound.
func (s *Store) Open(relPath string) (*os.File, fs.FileInfo, error) {
	name, err := localName(relPath)
	if err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	root, err := os.OpenRoot(s.root)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, relPath)
	}
	defer root.Close()

	f, err := root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, relPath)
		}
		// os.Root отвергает выход за корень через ссылки
		return nil, nil, fmt.Errorf("%w: %s", ErrOutsideRoot, relPath)
	}

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, relPath)
	}
	return f, info, nil
}

// Exists проверяет, есть ли в корне элемент с таким относительным путём.
func (s *Store) Exists(relPath string) bool {
	full, err := s.resolve(relPath)
	if err != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err = os.Lstat(full)
	return err == nil
}

// Import копирует файл или каталог src в корень под его базовым именем.
// Копирование идёт во временный элемент вне блокировки, затем под Lock
// выполняется атомарный rename, поэтому листинг никогда не видит
// частично скопированный файл. Если имя занято и overwrite == false,
// возвращается ErrExists. Возвращает относительный путь результата.
func (s *Store) Import(src string, overwrite bool) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("источник %s недоступен: %w", src, err)
	}

	name, err := ImportName(src)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(s.root, name)
	if dest == s.root {
		return "", fmt.Errorf("%w: корень не заменяется", ErrInvalidSource)
	}

	if !overwrite && s.Exists(name) {
		return "", fmt.Errorf("%w: %s", ErrExists, name)
	}

	tmp := filepath.Join(s.root, importPrefix+uuid.New().String()[:8]+"-"+name)
	opts := copy.Options{
		PreserveTimes: true,
		Sync:          true,
	}
	if err := copy.Copy(src, tmp, opts); err != nil {
		os.RemoveAll(tmp)
		return "", fmt.Errorf("ошибка копирования %s: %w", src, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Lstat(dest); err == nil {
		if !overwrite {
			os.RemoveAll(tmp)
			return "", fmt.Errorf("%w: %s", ErrExists, name)
		}
		if err := os.RemoveAll(dest); err != nil {
			os.RemoveAll(tmp)
			return "", fmt.Errorf("ошибка замены %s: %w", name, err)
		}
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.RemoveAll(tmp)
		return "", fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	s.logger.Info("Ресурс импортирован",
		slog.String("source", src),
		slog.String("name", name),
		slog.Bool("dir", info.IsDir()),
	)
	return name, nil
}

// ImportName возвращает имя, под которым src появится в корне.
// Источники без собственного имени ("dir/.", "/") и имена временных
// файлов импорта отвергаются с ErrInvalidSource.
func ImportName(src string) (string, error) {
	name := filepath.Base(src)
	if name == "." || name == string(filepath.Separator) || strings.HasPrefix(name, importPrefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, src)
	}
	if _, err := localName(name); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, src)
	}
	return name, nil
}

// Remove удаляет файл или каталог (рекурсивно) по относительному пути.
func (s *Store) Remove(relPath string) error {
	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if full == s.root {
		return fmt.Errorf("%w: корень не удаляется", ErrOutsideRoot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Lstat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, relPath)
		}
		return fmt.Errorf("ошибка доступа к %s: %w", relPath, err)
	}

	if info.IsDir() {
		err = os.RemoveAll(full)
	} else {
		err = os.Remove(full)
	}
	if err != nil {
		return fmt.Errorf("ошибка удаления %s: %w", relPath, err)
	}

	s.logger.Info("Ресурс удалён", slog.String("path", relPath), slog.Bool("dir", info.IsDir()))
	return nil
}

// Walk возвращает все каталоги и файлы под корнем для панели оператора.
// Элементы, исчезнувшие во время обхода, пропускаются.
func (s *Store) Walk() ([]Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var nodes []Node
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == s.root {
				return err
			}
			return nil
		}
		if p == s.root {
			return nil
		}
		if strings.HasPrefix(d.Name(), importPrefix) {
			return skipEntry(d)
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		rel, relErr := filepath.Rel(s.root, p)
		if relErr != nil {
			return nil
		}
		nodes = append(nodes, Node{
			RelPath: filepath.ToSlash(rel),
			Name:    d.Name(),
			IsDir:   d.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения корня ресурсов %s: %w", s.root, err)
	}
	return nodes, nil
}

// skipEntry пропускает элемент обхода; каталог пропускается целиком.
func skipEntry(d fs.DirEntry) error {
	if d.IsDir() {
		return fs.SkipDir
	}
	return nil
}

// resolve переводит относительный путь со слэшами в абсолютный путь
// внутри корня. Пустой путь или "." означают сам корень.
func (s *Store) resolve(relPath string) (string, error) {
	if relPath == "" || relPath == "." {
		return s.root, nil
	}
	name, err := localName(relPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, name), nil
}

// localName проверяет, что путь локален (не абсолютный, без выхода через
// ".."), и возвращает его в формате ОС.
func localName(relPath string) (string, error) {
	name := filepath.FromSlash(path.Clean(relPath))
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, relPath)
	}
	return name, nil
}
