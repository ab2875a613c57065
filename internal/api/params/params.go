// Пакет params — типизированный разбор параметров запросов mock API.
//
// Значение ищется сначала в query string, затем в теле формы
// (application/x-www-form-urlencoded или multipart/form-data).
// Параметр, присутствующий в query string, побеждает форму, даже если
// он пуст. Ошибки классифицируются (Kind), чтобы обработчик мог выбрать
// ответ; приведение pageIndex/pageSize <= 0 ошибкой не считается.
package params

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bigkaa/goartstore/classroom-mock/internal/domain/model"
)

// Имена параметров эмулируемой платформы.
const (
	PageIndex  = "pageIndex"
	PageSize   = "pageSize"
	FuzzyName  = "fuzzyName"
	FileType   = "fileType"
	HomeworkID = "homeworkId"
)

// formMemory — лимит памяти для multipart-формы.
const formMemory = 1 << 20

// Kind — класс ошибки параметра.
type Kind int

const (
	// Malformed — значение есть, но не разбирается.
	Malformed Kind = iota + 1
	// Missing — обязательный параметр отсутствует.
	Missing
	// OutOfRange — число не помещается в int.
	OutOfRange
)

func (k Kind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case Missing:
		return "missing"
	case OutOfRange:
		return "out_of_range"
	default:
		return "unknown"
	}
}

// ParamError — ошибка разбора параметра.
type ParamError struct {
	Name  string
	Value string
	Kind  Kind
	Err   error
}

func (e *ParamError) Error() string {
	if e.Kind == Missing {
		return fmt.Sprintf("параметр %s: отсутствует", e.Name)
	}
	return fmt.Sprintf("параметр %s=%q: %s", e.Name, e.Value, e.Kind)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

// KindOf возвращает класс ошибки параметра или 0, если err не ParamError.
func KindOf(err error) Kind {
	var pe *ParamError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// Lookup возвращает значение параметра и признак его наличия.
func Lookup(r *http.Request, name string) (string, bool) {
	if values, ok := r.URL.Query()[name]; ok && len(values) > 0 {
		return values[0], true
	}
	if values, ok := postForm(r)[name]; ok && len(values) > 0 {
		return values[0], true
	}
	return "", false
}

// String возвращает значение параметра или def, если его нет.
func String(r *http.Request, name, def string) string {
	if v, ok := Lookup(r, name); ok {
		return v
	}
	return def
}

// Required возвращает значение обязательного параметра.
func Required(r *http.Request, name string) (string, error) {
	v, ok := Lookup(r, name)
	if !ok {
		return "", &ParamError{Name: name, Kind: Missing}
	}
	return v, nil
}

// Int разбирает целочисленный параметр. Отсутствующий параметр даёт def,
// присутствующий, но пустой или нечисловой — Malformed.
func Int(r *http.Request, name string, def int) (int, error) {
	raw, ok := Lookup(r, name)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		kind := Malformed
		if errors.Is(err, strconv.ErrRange) {
			kind = OutOfRange
		}
		return 0, &ParamError{Name: name, Value: raw, Kind: kind, Err: err}
	}
	return n, nil
}

// Page разбирает pageIndex и pageSize. Значения <= 0 передаются как есть,
// их приводит листинг.
func Page(r *http.Request) (model.PageRequest, error) {
	index, err := Int(r, PageIndex, model.DefaultPageIndex)
	if err != nil {
		return model.PageRequest{}, err
	}
	size, err := Int(r, PageSize, model.DefaultPageSize)
	if err != nil {
		return model.PageRequest{}, err
	}
	return model.PageRequest{PageIndex: index, PageSize: size}, nil
}

// FileListing разбирает параметры листинга файлов: страницу, fuzzyName
// и fileType.
func FileListing(r *http.Request) (model.PageRequest, error) {
	req, err := Page(r)
	if err != nil {
		return model.PageRequest{}, err
	}
	req.SearchKey = String(r, FuzzyName, "")
	req.TypeFilter = String(r, FileType, "")
	return req, nil
}

// postForm возвращает параметры тела запроса. Ошибка разбора тела
// не фатальна: параметр просто считается отсутствующим.
func postForm(r *http.Request) url.Values {
	if r.PostForm == nil {
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			_ = r.ParseMultipartForm(formMemory)
		} else {
			_ = r.ParseForm()
		}
	}
	return r.PostForm
}
