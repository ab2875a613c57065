package console

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bigkaa/goartstore/classroom-mock/internal/panel"
	"github.com/bigkaa/goartstore/classroom-mock/internal/storage/homework"
	"github.com/bigkaa/goartstore/classroom-mock/internal/storage/resource"
)

// testLogger возвращает логгер для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func newPanel(t *testing.T) (*panel.Panel, *resource.Store, *homework.Store) {
	t.Helper()
	store, err := resource.New(filepath.Join(t.TempDir(), "resources"), testLogger())
	require.NoError(t, err)
	records := homework.New(testLogger())
	return panel.New(store, records, panel.NewHub(testLogger()), testLogger()), store, records
}

func run(t *testing.T, p Commands, script ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(p, strings.NewReader(strings.Join(script, "\n")+"\n"), &out, testLogger())
	err := c.Run(context.Background())
	return out.String(), err
}

func TestConsole_Files(t *testing.T) {
	p, store, _ := newPanel(t)
	src := filepath.Join(t.TempDir(), "lesson.pdf")
	require.NoError(t, os.WriteFile(src, []byte("v1"), 0o640))

	out, err := run(t, p,
		"add "+src,
		"add "+src,
		"n",
		"ls",
	)
	require.NoError(t, err)
	require.Contains(t, out, "Скопировано: 1")
	require.Contains(t, out, "lesson.pdf уже существует. Перезаписать? [y/N]")
	require.Contains(t, out, src+": пропущен")
	require.Contains(t, out, "已加载 1 个文件，0 个文件夹")
	require.True(t, store.Exists("lesson.pdf"))

	require.NoError(t, os.WriteFile(src, []byte("v2"), 0o640))
	_, err = run(t, p, "add "+src, "y")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(store.Root(), "lesson.pdf"))
	require.NoError(t, err)
	require.Equal(t, "v2", string(data))

	out, err = run(t, p, "rm lesson.pdf missing.txt")
	require.NoError(t, err)
	require.Contains(t, out, "Удалено: 1")
	require.Contains(t, out, "missing.txt:")
	require.False(t, store.Exists("lesson.pdf"))
}

func TestConsole_ForceAdd(t *testing.T) {
	p, store, _ := newPanel(t)
	src := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "a.txt"), []byte("old"), 0o640))

	out, err := run(t, p, "add -f "+src)
	require.NoError(t, err)
	require.NotContains(t, out, "Перезаписать")
	data, err := os.ReadFile(filepath.Join(store.Root(), "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
}

func TestConsole_Homework(t *testing.T) {
	p, _, records := newPanel(t)
	id, err := records.Create("Старое", "https://old.example/")
	require.NoError(t, err)

	out, err := run(t, p,
		"hw save "+id+" Дроби и проценты https://new.example/",
		"hw add",
		"hw ls",
		"hw rm "+id,
		"hw rm "+id,
	)
	require.NoError(t, err)
	require.Contains(t, out, "Задание "+id+" сохранено")
	require.Contains(t, out, "Создано задание ")
	require.Contains(t, out, "Дроби и проценты")
	require.Contains(t, out, "Заданий: 2")
	require.Contains(t, out, "Задание "+id+" удалено")
	require.Contains(t, out, "Ошибка:")

	all := records.All()
	require.Len(t, all, 1)
	require.Equal(t, homework.DefaultName, all[0].Name)
}

func TestConsole_StatusHelpUnknown(t *testing.T) {
	p, _, _ := newPanel(t)

	out, err := run(t, p, "", "help", "status", "frobnicate")
	require.NoError(t, err)
	require.Contains(t, out, "hw save <id> <название> <url>")
	require.Contains(t, out, "就绪")
	require.Contains(t, out, "Неизвестная команда: frobnicate")
}

func TestConsole_Quit(t *testing.T) {
	p, _, _ := newPanel(t)

	out, err := run(t, p, "quit", "ls")
	require.ErrorIs(t, err, ErrQuit)
	require.NotContains(t, out, "已加载")
}

func TestConsole_ContextCancel(t *testing.T) {
	p, _, _ := newPanel(t)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := New(p, pr, io.Discard, testLogger())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("консоль не остановилась")
	}
}
