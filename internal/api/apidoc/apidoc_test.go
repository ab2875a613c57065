package apidoc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	doc, err := Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "3.0.3", doc.OpenAPI)

	for _, path := range []string{
		"/qlBox-manager/getBindedSchoolInfo",
		"/classInApp/box/auth/tokenValid",
		"/classInApp/serv-manager/j_spring_security_check",
		"/classInApp/serv-teachplatform/pub/alive",
		"/serv-teachplatform/courseware/student/selectShareFileList",
		"/classInApp/serv-teachplatform/courseware/student/selectShareFileList",
		"/serv-teachplatform/homework/student/selectPadHomeworkList",
		"/serv-teachplatform/homework/student/selectPadHomeworkDetail",
		"/resources/{path}",
	} {
		require.NotNil(t, doc.Paths.Find(path), "путь %s отсутствует в документе", path)
	}
}

func TestHandler(t *testing.T) {
	doc, err := Load(context.Background())
	require.NoError(t, err)
	h, err := Handler(doc)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "3.0.3", body["openapi"])
	require.Contains(t, body, "paths")
}
