package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriters(t *testing.T) {
	tests := []struct {
		name       string
		write      func(http.ResponseWriter, string)
		wantStatus int
		wantCode   string
	}{
		{"validation", ValidationError, http.StatusBadRequest, CodeValidationError},
		{"invalid param", InvalidParam, http.StatusInternalServerError, CodeInvalidParam},
		{"not found", NotFound, http.StatusNotFound, CodeNotFound},
		{"conflict", Conflict, http.StatusConflict, CodeConflict},
		{"unsupported media type", UnsupportedMediaType, http.StatusUnsupportedMediaType, CodeUnsupportedType},
		{"internal", InternalError, http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec, "сообщение")

			if rec.Code != tt.wantStatus {
				t.Errorf("статус: ожидалось %d, получено %d", tt.wantStatus, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type: %q", ct)
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("тело не JSON: %v", err)
			}
			if body.Error.Code != tt.wantCode || body.Error.Message != "сообщение" {
				t.Errorf("тело: %+v", body)
			}
		})
	}
}
