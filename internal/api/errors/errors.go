// Пакет errors — ответы с ошибками вне конверта mock API.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
//
// Конверт {status, message, result} используется только для успешных
// ответов эмулируемой платформы. Всё, что клиент платформы должен
// воспринять как сбой сервера (404 при отдаче файла, 500 при
// некорректных параметрах пагинации), и все ошибки операторского API
// пишутся через WriteError.
package errors //nolint:revive // имя совпадает со stdlib, импортируется как apierrors

import (
	"encoding/json"
	"net/http"
)

// Машиночитаемые коды ошибок.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeInvalidParam    = "INVALID_PARAMETER"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeUnsupportedType = "UNSUPPORTED_MEDIA_TYPE"
	CodeInternalError   = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// ValidationError — 400 некорректное тело запроса оператора.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// InvalidParam — 500 некорректный параметр запроса mock API.
// Эмулируемая платформа отвечает на такие запросы ошибкой сервера,
// а не конвертом, и клиенты рассчитывают именно на это.
func InvalidParam(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInvalidParam, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// Conflict — 409 ресурс уже существует.
func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeConflict, message)
}

// UnsupportedMediaType — 415 тело запроса не в JSON.
func UnsupportedMediaType(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnsupportedMediaType, CodeUnsupportedType, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
