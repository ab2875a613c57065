// Пакет envelope — конверт успешных ответов эмулируемой платформы:
// {"status": 0, "message": "...", "result": {...}}.
package envelope

import (
	"encoding/json"
	"net/http"
)

// StatusOK — единственное значение поля status. Клиенты платформы
// проверяют именно его, ошибки конвертом не передаются.
const StatusOK = 0

// Envelope — тело ответа.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Result  any    `json:"result"`
}

// emptyResult сериализуется в {}.
type emptyResult struct{}

// New собирает конверт. nil result превращается в пустой объект.
func New(result any, message string) Envelope {
	if result == nil {
		result = emptyResult{}
	}
	return Envelope{Status: StatusOK, Message: message, Result: result}
}

// Write отправляет конверт с кодом 200.
func Write(w http.ResponseWriter, result any) {
	WriteMessage(w, result, "")
}

// WriteMessage отправляет конверт с сообщением.
func WriteMessage(w http.ResponseWriter, result any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(New(result, message))
}
