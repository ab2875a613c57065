// Пакет listing — фильтрация и пагинация коллекций для mock API.
//
// Листинг файлов строится заново на каждый запрос из списка путей,
// который отдаёт хранилище ресурсов. Порядок обхода определяется здесь,
// а не в хранилище: пути сортируются побайтно (с учётом регистра), и от
// этого порядка зависят позиционные идентификаторы "file-<n>".
package listing

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/bigkaa/goartstore/classroom-mock/internal/domain/model"
)

// ShareTimeLayout — формат поля shareTime в ответах.
const ShareTimeLayout = "2006-01-02 15:04:05"

// SizeFunc возвращает размер файла по относительному пути.
// Вызывается только для элементов запрошенной страницы.
type SizeFunc func(relPath string) int64

// Paginate нарезает уже отфильтрованную коллекцию на страницу.
// Запрос нормализуется (PageIndex <= 0 → 1, PageSize <= 0 → 20).
// Страница за пределами коллекции — пустой Items, а не ошибка.
func Paginate[T any](items []T, req model.PageRequest) model.PageResult[T] {
	req = req.Normalize()
	total := len(items)

	start, end := bounds(total, req.PageIndex, req.PageSize)
	page := make([]T, 0, end-start)
	page = append(page, items[start:end]...)

	return model.PageResult[T]{
		Items:       page,
		PageIndex:   req.PageIndex,
		PageSize:    req.PageSize,
		PageCount:   PageCount(total, req.PageSize),
		RecordCount: total,
	}
}

// PageCount — max(ceil(total/pageSize), 1).
func PageCount(total, pageSize int) int {
	if pageSize <= 0 {
		pageSize = model.DefaultPageSize
	}
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	if pages < 1 {
		return 1
	}
	return pages
}

// BuildFiles строит страницу листинга файлов.
//
// Алгоритм:
//  1. пути сортируются по возрастанию с учётом регистра;
//  2. за один проход применяются фильтр по подстроке имени и фильтр
//     по расширению, счётчик ID растёт только для прошедших фильтры;
//  3. RecordCount/PageCount считаются по отфильтрованной коллекции;
//  4. результат нарезается на страницу, размер запрашивается через
//     sizeOf только для элементов страницы.
//
// Входной срез paths не изменяется.
func BuildFiles(paths []string, req model.PageRequest, sizeOf SizeFunc, now time.Time) model.PageResult[model.FileEntry] {
	req = req.Normalize()

	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	wantExt, extActive := normalizeTypeFilter(req.TypeFilter)
	shareTime := now.Format(ShareTimeLayout)

	entries := make([]model.FileEntry, 0, len(sorted))
	for _, rel := range sorted {
		name := path.Base(rel)
		if !MatchName(name, req.SearchKey) {
			continue
		}
		ext := Extension(name)
		if extActive && ext != wantExt {
			continue
		}
		entries = append(entries, model.FileEntry{
			ID:             fmt.Sprintf("file-%d", len(entries)+1),
			Name:           name,
			RelativePath:   rel,
			Extension:      ext,
			ShareTimestamp: shareTime,
		})
	}

	result := Paginate(entries, req)
	if sizeOf != nil {
		for i := range result.Items {
			result.Items[i].SizeBytes = sizeOf(result.Items[i].RelativePath)
		}
	}
	return result
}

// MatchName — подстрока с учётом регистра; пустой ключ подходит всем.
func MatchName(name, searchKey string) bool {
	return searchKey == "" || strings.Contains(name, searchKey)
}

// Extension возвращает расширение имени в нижнем регистре без точки.
// Ведущие точки не считаются началом расширения: у ".bashrc" его нет.
func Extension(name string) string {
	trimmed := strings.TrimLeft(name, ".")
	return strings.ToLower(strings.TrimPrefix(path.Ext(trimmed), "."))
}

// IsCategoryCode сообщает, является ли фильтр типа числовым кодом категории.
// Такие коды пока ни на что не отображаются, и фильтр для них не действует.
func IsCategoryCode(typeFilter string) bool {
	if typeFilter == "" {
		return false
	}
	for _, r := range typeFilter {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// normalizeTypeFilter приводит фильтр типа к виду расширения.
// Второе значение — активен ли фильтр вообще.
func normalizeTypeFilter(typeFilter string) (string, bool) {
	if typeFilter == "" || IsCategoryCode(typeFilter) {
		return "", false
	}
	return strings.ToLower(strings.TrimLeft(typeFilter, ".")), true
}

// bounds вычисляет границы среза [start, end) с зажатием в [0, total].
func bounds(total, pageIndex, pageSize int) (int, int) {
	// проверка до умножения: огромный pageIndex не должен переполнить start
	if pageIndex < 1 || pageSize < 1 || pageIndex-1 > total/pageSize {
		return total, total
	}
	start := (pageIndex - 1) * pageSize
	if start > total {
		return total, total
	}
	end := start + pageSize
	if end > total || end < start {
		end = total
	}
	return start, end
}
