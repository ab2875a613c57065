package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bigkaa/goartstore/classroom-mock/internal/domain/model"
	"github.com/bigkaa/goartstore/classroom-mock/internal/panel"
	"github.com/bigkaa/goartstore/classroom-mock/internal/storage/resource"
)

// testLogger возвращает логгер для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

type fakeLister struct {
	paths []string
	sizes map[string]int64
}

func (f *fakeLister) List() []string        { return f.paths }
func (f *fakeLister) Size(rel string) int64 { return f.sizes[rel] }

func TestCoursewareService_ListFiles(t *testing.T) {
	lister := &fakeLister{
		paths: []string{"b.txt", "a.pdf"},
		sizes: map[string]int64{"a.pdf": 100, "b.txt": 50},
	}
	svc := NewCoursewareService(lister, testLogger())
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local) }

	res := svc.ListFiles(model.PageRequest{PageIndex: 1, PageSize: 20})
	require.Equal(t, 2, res.RecordCount)
	require.Equal(t, 1, res.PageCount)
	require.Equal(t, "a.pdf", res.Items[0].Name)
	require.Equal(t, int64(100), res.Items[0].SizeBytes)
	require.Equal(t, "2026-01-02 03:04:05", res.Items[1].ShareTimestamp)
}

func newStore(t *testing.T) *resource.Store {
	t.Helper()
	s, err := resource.New(t.TempDir(), testLogger())
	require.NoError(t, err)
	return s
}

func TestStreamService_Serve(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Join(store.Root(), "docs"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "docs", "a.txt"), []byte("hello world"), 0o640))
	svc := NewStreamService(store, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/resources/docs/a.txt", nil)
	require.Nil(t, svc.Serve(rec, req, "docs/a.txt"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hello world", rec.Body.String())
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "inline")

	// Range
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/resources/docs/a.txt", nil)
	req.Header.Set("Range", "bytes=0-4")
	require.Nil(t, svc.Serve(rec, req, "docs/a.txt"))
	require.Equal(t, http.StatusPartialContent, rec.Code)
	require.Equal(t, "hello", rec.Body.String())
}

func TestStreamService_NotFoundAndTraversal(t *testing.T) {
	svc := NewStreamService(newStore(t), testLogger())

	for _, p := range []string{"missing.pdf", "../etc/passwd", "/etc/passwd", ""} {
		rec := httptest.NewRecorder()
		serr := svc.Serve(rec, httptest.NewRequest(http.MethodGet, "/resources/x", nil), p)
		require.NotNil(t, serr, p)
		require.Equal(t, http.StatusNotFound, serr.StatusCode, p)
	}
}

// TestStreamService_ConcurrentDelete — удаление оператором параллельно
// с отдачей: либо полный файл, либо 404, без паники.
func TestStreamService_ConcurrentDelete(t *testing.T) {
	store := newStore(t)
	payload := strings.Repeat("x", 64<<10)
	svc := NewStreamService(store, testLogger())

	for i := 0; i < 20; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "big.bin"), []byte(payload), 0o640))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Remove("big.bin")
		}()
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			serr := svc.Serve(rec, httptest.NewRequest(http.MethodGet, "/resources/big.bin", nil), "big.bin")
			if serr != nil {
				if serr.StatusCode != http.StatusNotFound {
					t.Errorf("ожидался 404, получено %d", serr.StatusCode)
				}
				return
			}
			if rec.Body.Len() != len(payload) {
				t.Errorf("неполная отдача: %d байт", rec.Body.Len())
			}
		}()
		wg.Wait()
	}
}

type statusRecorder struct {
	mu       sync.Mutex
	statuses []panel.Status
}

func (s *statusRecorder) SetStatus(st panel.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, st)
}

func (s *statusRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.statuses)
}

func TestLivenessService_RunOnce(t *testing.T) {
	var alive atomic.Bool
	alive.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !alive.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":0,"message":"","result":{"alive":true}}`)
	}))
	defer srv.Close()

	sink := &statusRecorder{}
	svc := NewLivenessService(srv.URL, sink, time.Hour, testLogger())

	st := svc.RunOnce(context.Background())
	require.True(t, st.Running)
	require.Equal(t, StatusRunning, st.Message)

	alive.Store(false)
	st = svc.RunOnce(context.Background())
	require.False(t, st.Running)
	require.Contains(t, st.Message, "HTTP 500")
	require.Equal(t, 2, sink.count())
}

func TestLivenessService_StartStop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":0,"result":{"alive":true}}`)
	}))
	defer srv.Close()

	sink := &statusRecorder{}
	svc := NewLivenessService(srv.URL, sink, 10*time.Millisecond, testLogger())
	svc.Start(context.Background())

	require.Eventually(t, func() bool { return sink.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	svc.Stop()

	n := sink.count()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, n, sink.count(), "после Stop проверки продолжаются")
}

func TestLivenessService_Unreachable(t *testing.T) {
	sink := &statusRecorder{}
	svc := NewLivenessService("http://127.0.0.1:1/alive", sink, time.Hour, testLogger())
	st := svc.RunOnce(context.Background())
	require.False(t, st.Running)
	require.True(t, strings.HasPrefix(st.Message, statusFailPrefix))
}
