// Пакет model — доменные модели mock-сервера учебной платформы.
package model

// FileEntry — файл из корня ресурсов в том виде, в каком он попадает
// в листинг. Не хранится: строится заново на каждый запрос.
//
// ID позиционный ("file-<n>" в порядке обхода после фильтрации) и
// поэтому не стабилен между запросами: добавление или удаление файла
// сдвигает нумерацию. Клиенты должны считать ID действительным только
// в пределах одного ответа.
type FileEntry struct {
	// ID — позиционный идентификатор в пределах листинга
	ID string
	// Name — базовое имя файла
	Name string
	// RelativePath — путь относительно корня ресурсов, разделитель "/"
	RelativePath string
	// Extension — расширение в нижнем регистре, без точки
	Extension string
	// SizeBytes — размер файла в байтах (0, если файл исчез после обхода)
	SizeBytes int64
	// ShareTimestamp — время "публикации", одинаковое для всего листинга
	ShareTimestamp string
}
