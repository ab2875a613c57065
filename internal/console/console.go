// Пакет console — терминальная консоль оператора.
//
// Команды вызывают те же методы panel.Panel, что и операторский HTTP API.
// Если stdin — терминал, строка редактируется через golang.org/x/term;
// иначе команды читаются построчно (удобно для скриптов и тестов).
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/bigkaa/goartstore/classroom-mock/internal/domain/model"
	"github.com/bigkaa/goartstore/classroom-mock/internal/panel"
)

// ErrQuit — оператор завершил работу командой quit.
var ErrQuit = errors.New("консоль: выход по команде оператора")

const prompt = "cm> "

const helpText = `Команды:
  help                          список команд
  ls                            содержимое корня ресурсов
  add [-f] <путь>...            скопировать файлы или каталоги в корень (-f — перезаписывать)
  rm <путь>...                  удалить элементы корня
  hw ls                         домашние задания
  hw add                        создать задание со значениями по умолчанию
  hw save <id> <название> <url> изменить задание
  hw rm <id>                    удалить задание
  status                        состояние сервера
  quit                          остановить сервер`

// Commands — команды панели, доступные из консоли.
type Commands interface {
	Root() string
	AddFiles(paths []string, policy panel.OverwritePolicy) panel.AddResult
	DeleteSelected(relPaths []string) []panel.ItemResult
	Refresh() (panel.Snapshot, error)
	Records() ([]model.HomeworkRecord, error)
	AddRecord() (model.HomeworkRecord, error)
	SaveRecord(id, name, targetURL string) error
	DeleteRecord(id string) error
	Status() panel.Status
}

// lineReader — источник строк ввода.
type lineReader interface {
	ReadLine() (string, error)
}

type scanLines struct {
	s *bufio.Scanner
}

func (r scanLines) ReadLine() (string, error) {
	if r.s.Scan() {
		return r.s.Text(), nil
	}
	if err := r.s.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

type readResult struct {
	line string
	err  error
}

// Console — цикл чтения команд оператора.
type Console struct {
	panel Commands
	lines lineReader
	out   io.Writer
	// interactive — ввод с терминала: EOF (Ctrl-D) означает выход
	interactive bool
	input       chan readResult
	logger      *slog.Logger
}

// New создаёт консоль поверх произвольного ввода и вывода.
func New(p Commands, in io.Reader, out io.Writer, logger *slog.Logger) *Console {
	return &Console{
		panel:  p,
		lines:  scanLines{s: bufio.NewScanner(in)},
		out:    out,
		logger: logger.With(slog.String("component", "console")),
	}
}

// Stdio создаёт консоль на stdin/stdout. Для терминала включается
// raw-режим; возвращаемая функция восстанавливает его состояние.
func Stdio(p Commands, logger *slog.Logger) (*Console, func(), error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return New(p, os.Stdin, os.Stdout, logger), func() {}, nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка перевода терминала в raw-режим: %w", err)
	}
	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, prompt)

	c := &Console{
		panel:       p,
		lines:       t,
		out:         t,
		interactive: true,
		logger:      logger.With(slog.String("component", "console")),
	}
	return c, func() { _ = term.Restore(fd, state) }, nil
}

// Run читает и выполняет команды до отмены ctx, конца ввода или quit.
// quit (и Ctrl-D в терминале) возвращает ErrQuit; конец неинтерактивного
// ввода — nil, сервер продолжает работать.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.input = make(chan readResult)
	go c.readLoop(ctx)

	c.printf("Корень ресурсов: %s\nВведите help для списка команд.\n", c.panel.Root())
	for {
		line, err := c.next(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, io.EOF):
				if c.interactive {
					return ErrQuit
				}
				c.logger.Debug("Ввод консоли закрыт")
				return nil
			default:
				return fmt.Errorf("ошибка чтения команды: %w", err)
			}
		}
		if c.exec(ctx, line) {
			c.printf("Остановка сервера...\n")
			return ErrQuit
		}
	}
}

func (c *Console) readLoop(ctx context.Context) {
	for {
		line, err := c.lines.ReadLine()
		select {
		case c.input <- readResult{line: line, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

// next печатает приглашение и ждёт строку.
func (c *Console) next(ctx context.Context) (string, error) {
	if !c.interactive {
		c.printf("%s", prompt)
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-c.input:
		return r.line, r.err
	}
}

// exec выполняет одну команду. Возвращает true для quit.
func (c *Console) exec(ctx context.Context, line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}

	switch args[0] {
	case "help", "?":
		c.printf("%s\n", helpText)
	case "ls":
		c.list()
	case "add":
		c.add(ctx, args[1:])
	case "rm":
		c.remove(args[1:])
	case "hw":
		c.homework(args[1:])
	case "status":
		st := c.panel.Status()
		c.printf("%s\n", st.Message)
	case "quit", "exit":
		return true
	default:
		c.printf("Неизвестная команда: %s\n", args[0])
	}
	return false
}

func (c *Console) list() {
	snap, err := c.panel.Refresh()
	if err != nil {
		c.printf("Ошибка: %s\n", err)
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, item := range snap.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.RelPath, item.Size, item.Type, item.Modified)
	}
	_ = tw.Flush()
	c.printf("%s\n", snap.Summary)
}

func (c *Console) add(ctx context.Context, args []string) {
	force := false
	if len(args) > 0 && args[0] == "-f" {
		force, args = true, args[1:]
	}
	if len(args) == 0 {
		c.printf("Использование: add [-f] <путь>...\n")
		return
	}

	policy := panel.OverwriteAlways
	if !force {
		policy = func(name string) bool { return c.confirm(ctx, fmt.Sprintf("%s уже существует. Перезаписать? [y/N] ", name)) }
	}

	res := c.panel.AddFiles(args, policy)
	for _, item := range res.Items {
		if !item.OK {
			c.printf("  %s: %s\n", item.Path, item.Error)
		}
	}
	for _, path := range res.Skipped {
		c.printf("  %s: пропущен\n", path)
	}
	c.printf("Скопировано: %d\n", res.Copied)
}

// confirm задаёт вопрос оператору и ждёт ответа y/yes.
func (c *Console) confirm(ctx context.Context, question string) bool {
	c.printf("%s", question)
	select {
	case <-ctx.Done():
		return false
	case r := <-c.input:
		if r.err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(r.line))
		return answer == "y" || answer == "yes"
	}
}

func (c *Console) remove(args []string) {
	if len(args) == 0 {
		c.printf("Использование: rm <путь>...\n")
		return
	}
	deleted := 0
	for _, item := range c.panel.DeleteSelected(args) {
		if item.OK {
			deleted++
			continue
		}
		c.printf("  %s: %s\n", item.Path, item.Error)
	}
	c.printf("Удалено: %d\n", deleted)
}

func (c *Console) homework(args []string) {
	if len(args) == 0 {
		c.printf("Использование: hw ls | hw add | hw save <id> <название> <url> | hw rm <id>\n")
		return
	}

	switch args[0] {
	case "ls":
		records, err := c.panel.Records()
		if err != nil {
			c.printf("Ошибка: %s\n", err)
			return
		}
		tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		for _, rec := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", rec.ID, rec.Name, rec.TargetURL)
		}
		_ = tw.Flush()
		c.printf("Заданий: %d\n", len(records))

	case "add":
		rec, err := c.panel.AddRecord()
		if err != nil {
			c.printf("Ошибка: %s\n", err)
			return
		}
		c.printf("Создано задание %s\n", rec.ID)

	case "save":
		// название может содержать пробелы, адрес — последний аргумент
		if len(args) < 4 {
			c.printf("Использование: hw save <id> <название> <url>\n")
			return
		}
		id, name, url := args[1], strings.Join(args[2:len(args)-1], " "), args[len(args)-1]
		if err := c.panel.SaveRecord(id, name, url); err != nil {
			c.printf("Ошибка: %s\n", err)
			return
		}
		c.printf("Задание %s сохранено\n", id)

	case "rm":
		if len(args) != 2 {
			c.printf("Использование: hw rm <id>\n")
			return
		}
		if err := c.panel.DeleteRecord(args[1]); err != nil {
			c.printf("Ошибка: %s\n", err)
			return
		}
		c.printf("Задание %s удалено\n", args[1])

	default:
		c.printf("Неизвестная команда: hw %s\n", args[0])
	}
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
