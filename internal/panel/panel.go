// Пакет panel — команды оператора над общими с mock API ресурсами.
//
// Panel — единственная точка, через которую оператор меняет корень
// ресурсов и коллекцию домашних заданий. Консоль и операторский HTTP API
// вызывают одни и те же методы; сами методы ничего не спрашивают у
// человека: решение о перезаписи передаётся как OverwritePolicy.
package panel

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/goartstore/classroom-mock/internal/api/middleware"
	"github.com/bigkaa/goartstore/classroom-mock/internal/domain/model"
	"github.com/bigkaa/goartstore/classroom-mock/internal/listing"
	"github.com/bigkaa/goartstore/classroom-mock/internal/storage/homework"
	"github.com/bigkaa/goartstore/classroom-mock/internal/storage/resource"
)

// ErrHomeworkDisabled — вариант с домашними заданиями выключен.
var ErrHomeworkDisabled = errors.New("домашние задания выключены")

// TimeLayout — формат времени изменения в снимке.
const TimeLayout = "2006-01-02 15:04:05"

// OverwritePolicy решает, перезаписывать ли существующий элемент с именем name.
type OverwritePolicy func(name string) bool

// OverwriteAlways и OverwriteNever — готовые политики.
var (
	OverwriteAlways OverwritePolicy = func(string) bool { return true }
	OverwriteNever  OverwritePolicy = func(string) bool { return false }
)

// ResourceStore — операции над корнем ресурсов, нужные панели.
type ResourceStore interface {
	Root() string
	Exists(relPath string) bool
	Import(src string, overwrite bool) (string, error)
	Remove(relPath string) error
	Walk() ([]resource.Node, error)
}

// ItemResult — результат операции над одним элементом пакета.
type ItemResult struct {
	Path  string `json:"path"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// AddResult — итог добавления файлов.
type AddResult struct {
	// Copied — сколько элементов скопировано
	Copied  int          `json:"copied"`
	Skipped []string     `json:"skipped"`
	Items   []ItemResult `json:"items"`
}

// SnapshotItem — строка снимка корня ресурсов.
type SnapshotItem struct {
	Name      string `json:"name"`
	RelPath   string `json:"relPath"`
	Folder    bool   `json:"folder"`
	Size      string `json:"size"`
	SizeBytes int64  `json:"sizeBytes"`
	Type      string `json:"type"`
	Modified  string `json:"modified"`
}

// Snapshot — текущее содержимое корня ресурсов: сначала каталоги,
// затем файлы, внутри групп по имени без учёта регистра.
type Snapshot struct {
	Root    string         `json:"root"`
	Items   []SnapshotItem `json:"items"`
	Files   int            `json:"files"`
	Folders int            `json:"folders"`
	Summary string         `json:"summary"`
}

// Status — строка состояния панели.
type Status struct {
	Running   bool      `json:"running"`
	Message   string    `json:"message"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Panel — операторский интерфейс.
type Panel struct {
	resources ResourceStore
	// records == nil, если вариант с домашними заданиями выключен
	records *homework.Store
	hub     *Hub
	logger  *slog.Logger

	statusMu sync.RWMutex
	status   Status
}

// New создаёт панель. records может быть nil.
func New(resources ResourceStore, records *homework.Store, hub *Hub, logger *slog.Logger) *Panel {
	p := &Panel{
		resources: resources,
		records:   records,
		hub:       hub,
		logger:    logger.With(slog.String("component", "panel")),
		status:    Status{Message: "就绪"},
	}
	if records != nil {
		middleware.HomeworkRecords.Set(float64(records.Count()))
	}
	return p
}

// Root возвращает путь к корню ресурсов.
func (p *Panel) Root() string {
	return p.resources.Root()
}

// Events возвращает поток событий панели.
func (p *Panel) Events() *Hub {
	return p.hub
}

// HomeworkEnabled сообщает, доступны ли команды над записями.
func (p *Panel) HomeworkEnabled() bool {
	return p.records != nil
}

// AddFiles копирует файлы и каталоги в корень под их базовыми именами.
// Если имя занято, решает policy; отказ — пропуск, а не ошибка.
// Ошибка одного элемента не прерывает пакет.
func (p *Panel) AddFiles(paths []string, policy OverwritePolicy) AddResult {
	if policy == nil {
		policy = OverwriteNever
	}
	res := AddResult{Skipped: []string{}, Items: make([]ItemResult, 0, len(paths))}

	for _, src := range paths {
		name, err := resource.ImportName(src)
		if err != nil {
			middleware.OperatorActionsTotal.WithLabelValues("add", "error").Inc()
			res.Items = append(res.Items, ItemResult{Path: src, Error: err.Error()})
			continue
		}
		overwrite := false
		if p.resources.Exists(name) {
			if !policy(name) {
				res.Skipped = append(res.Skipped, src)
				continue
			}
			overwrite = true
		}

		_, err = p.resources.Import(src, overwrite)
		if errors.Is(err, resource.ErrExists) {
			// имя заняли между проверкой и копированием
			if !policy(name) {
				res.Skipped = append(res.Skipped, src)
				continue
			}
			_, err = p.resources.Import(src, true)
		}
		if err != nil {
			p.logger.Warn("Ошибка добавления файла",
				slog.String("source", src),
				slog.String("error", err.Error()),
			)
			middleware.OperatorActionsTotal.WithLabelValues("add", "error").Inc()
			res.Items = append(res.Items, ItemResult{Path: src, Error: err.Error()})
			continue
		}
		middleware.OperatorActionsTotal.WithLabelValues("add", "ok").Inc()
		res.Copied++
		res.Items = append(res.Items, ItemResult{Path: src, OK: true})
	}

	if res.Copied > 0 {
		p.hub.Publish(EventFilesAdded, fmt.Sprintf("成功添加 %d 个文件", res.Copied), res)
	}
	return res
}

// DeleteSelected удаляет элементы корня по относительным путям.
// Каталоги удаляются рекурсивно. Результат — по элементу на путь.
func (p *Panel) DeleteSelected(relPaths []string) []ItemResult {
	results := make([]ItemResult, 0, len(relPaths))
	deleted := 0
	for _, rel := range relPaths {
		if err := p.resources.Remove(rel); err != nil {
			middleware.OperatorActionsTotal.WithLabelValues("delete", "error").Inc()
			results = append(results, ItemResult{Path: rel, Error: err.Error()})
			continue
		}
		middleware.OperatorActionsTotal.WithLabelValues("delete", "ok").Inc()
		deleted++
		results = append(results, ItemResult{Path: rel, OK: true})
	}

	if deleted > 0 {
		p.hub.Publish(EventFilesDeleted, fmt.Sprintf("成功删除 %d 个项目", deleted), results)
	}
	return results
}

// Refresh возвращает снимок корня ресурсов.
func (p *Panel) Refresh() (Snapshot, error) {
	nodes, err := p.resources.Walk()
	if err != nil {
		return Snapshot{}, fmt.Errorf("无法读取目录: %w", err)
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].IsDir != nodes[j].IsDir {
			return nodes[i].IsDir
		}
		return strings.ToLower(nodes[i].Name) < strings.ToLower(nodes[j].Name)
	})

	snap := Snapshot{Root: p.resources.Root(), Items: make([]SnapshotItem, 0, len(nodes))}
	for _, n := range nodes {
		item := SnapshotItem{
			Name:     n.Name,
			RelPath:  n.RelPath,
			Folder:   n.IsDir,
			Modified: n.ModTime.Format(TimeLayout),
		}
		if n.IsDir {
			item.Size = "<文件夹>"
			item.Type = "FOLDER"
			snap.Folders++
		} else {
			item.Size = FormatSize(n.Size)
			item.SizeBytes = n.Size
			if ext := listing.Extension(n.Name); ext != "" {
				item.Type = "." + strings.ToUpper(ext)
			}
			snap.Files++
		}
		snap.Items = append(snap.Items, item)
	}
	snap.Summary = fmt.Sprintf("已加载 %d 个文件，%d 个文件夹", snap.Files, snap.Folders)
	return snap, nil
}

// Records возвращает все записи домашних заданий.
func (p *Panel) Records() ([]model.HomeworkRecord, error) {
	if p.records == nil {
		return nil, ErrHomeworkDisabled
	}
	return p.records.All(), nil
}

// AddRecord создаёт запись со значениями по умолчанию.
func (p *Panel) AddRecord() (model.HomeworkRecord, error) {
	return p.CreateRecord("", "")
}

// CreateRecord создаёт запись с заданными именем и адресом.
func (p *Panel) CreateRecord(name, targetURL string) (model.HomeworkRecord, error) {
	if p.records == nil {
		return model.HomeworkRecord{}, ErrHomeworkDisabled
	}
	id, err := p.records.Create(name, targetURL)
	if err != nil {
		middleware.OperatorActionsTotal.WithLabelValues("homework_create", "error").Inc()
		return model.HomeworkRecord{}, err
	}
	rec, err := p.records.Lookup(id)
	if err != nil {
		return model.HomeworkRecord{}, err
	}
	p.recordChanged("homework_create", EventHomeworkCreated, rec)
	return rec, nil
}

// SaveRecord меняет имя и адрес записи.
func (p *Panel) SaveRecord(id, name, targetURL string) error {
	if p.records == nil {
		return ErrHomeworkDisabled
	}
	if err := p.records.Update(id, name, targetURL); err != nil {
		middleware.OperatorActionsTotal.WithLabelValues("homework_save", "error").Inc()
		return err
	}
	rec, err := p.records.Lookup(id)
	if err != nil {
		// запись удалили сразу после обновления
		return err
	}
	p.recordChanged("homework_save", EventHomeworkUpdated, rec)
	return nil
}

// DeleteRecord удаляет запись.
func (p *Panel) DeleteRecord(id string) error {
	if p.records == nil {
		return ErrHomeworkDisabled
	}
	if err := p.records.Delete(id); err != nil {
		middleware.OperatorActionsTotal.WithLabelValues("homework_delete", "error").Inc()
		return err
	}
	p.recordChanged("homework_delete", EventHomeworkDeleted, model.HomeworkRecord{ID: id})
	return nil
}

func (p *Panel) recordChanged(action, eventType string, rec model.HomeworkRecord) {
	middleware.OperatorActionsTotal.WithLabelValues(action, "ok").Inc()
	middleware.HomeworkRecords.Set(float64(p.records.Count()))
	p.hub.Publish(eventType, rec.ID, rec)
}

// Status возвращает текущую строку состояния.
func (p *Panel) Status() Status {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.status
}

// SetStatus обновляет строку состояния. Событие публикуется только
// при смене сообщения, чтобы периодическая самопроверка не засоряла поток.
func (p *Panel) SetStatus(st Status) {
	p.statusMu.Lock()
	changed := p.status.Message != st.Message || p.status.Running != st.Running
	p.status = st
	p.statusMu.Unlock()

	if changed {
		p.hub.Publish(EventStatus, st.Message, st)
	}
}

// FormatSize форматирует размер: 512.0 B, 1.5 KB, ... TB.
func FormatSize(size int64) string {
	value := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if value < 1024.0 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024.0
	}
	return fmt.Sprintf("%.1f TB", value)
}
