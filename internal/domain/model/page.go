package model

// Значения пагинации по умолчанию.
const (
	DefaultPageIndex = 1
	DefaultPageSize  = 20
)

// PageRequest — параметры запроса страницы.
// SearchKey и TypeFilter используются только листингом файлов.
type PageRequest struct {
	PageIndex  int
	PageSize   int
	SearchKey  string
	TypeFilter string
}

// Normalize возвращает копию запроса с приведёнными значениями:
// PageIndex <= 0 → 1, PageSize <= 0 → 20.
func (r PageRequest) Normalize() PageRequest {
	if r.PageIndex <= 0 {
		r.PageIndex = DefaultPageIndex
	}
	if r.PageSize <= 0 {
		r.PageSize = DefaultPageSize
	}
	return r
}

// PageResult — одна страница отфильтрованной коллекции.
// RecordCount и PageCount считаются после фильтрации, до нарезки.
type PageResult[T any] struct {
	Items       []T
	PageIndex   int
	PageSize    int
	PageCount   int
	RecordCount int
}
