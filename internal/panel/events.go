// events.go — поток событий панели оператора по WebSocket.
// Каждое действие оператора публикуется всем подключённым клиентам;
// новому клиенту сначала отправляются последние события из кольцевого буфера.
package panel

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Типы событий.
const (
	EventFilesAdded      = "files.added"
	EventFilesDeleted    = "files.deleted"
	EventHomeworkCreated = "homework.created"
	EventHomeworkUpdated = "homework.updated"
	EventHomeworkDeleted = "homework.deleted"
	EventStatus          = "status"
)

// historySize — сколько последних событий получает новый клиент.
const historySize = 50

// sendBuffer — очередь исходящих сообщений клиента. Вмещает всю историю
// и запас на рассылку; клиент с переполненной очередью отключается.
const sendBuffer = historySize + 64

// writeTimeout ограничивает запись одному клиенту.
const writeTimeout = 5 * time.Second

// Event — событие панели.
type Event struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
}

// client — подключение с собственной очередью и единственным писателем.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub рассылает события подключённым WebSocket-клиентам.
// Publish только кладёт сообщение в очереди клиентов; в сокет пишет
// лишь горутина клиента.
type Hub struct {
	// mu защищает clients, history и closed
	mu      sync.Mutex
	clients map[*client]struct{}
	history []Event
	closed  bool

	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHub создаёт пустой Hub. Upgrader по умолчанию принимает только
// запросы без Origin или с Origin того же хоста.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger.With(slog.String("component", "event_hub")),
	}
}

// Publish сохраняет событие в буфере и ставит его в очередь клиентам.
// Клиенты с переполненной очередью отключаются.
func (h *Hub) Publish(eventType, message string, data any) {
	ev := Event{
		Timestamp: time.Now().Format(time.RFC3339),
		Type:      eventType,
		Message:   message,
		Data:      data,
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Ошибка сериализации события",
			slog.String("type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.history = append(h.history, ev)
	if len(h.history) > historySize {
		h.history = h.history[len(h.history)-historySize:]
	}

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("Клиент событий не успевает читать, отключён")
			h.dropLocked(c)
		}
	}
}

// Recent возвращает копию последних событий в хронологическом порядке.
func (h *Hub) Recent() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Event, len(h.history))
	copy(out, h.history)
	return out
}

// Clients возвращает количество подключённых клиентов.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP обрабатывает GET /operator/events: апгрейд до WebSocket,
// постановка истории в очередь и регистрация клиента. Входящие сообщения
// клиента читаются только чтобы заметить закрытие соединения.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Не удалось открыть WebSocket", slog.String("error", err.Error()))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	for _, ev := range h.history {
		payload, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		c.send <- payload
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("Клиент событий подключён", slog.String("remote_addr", r.RemoteAddr))

	go h.writeLoop(c)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(c)
				return
			}
		}
	}()
}

// writeLoop — единственный писатель в соединение клиента. Завершается,
// когда очередь закрыта (клиент удалён) или запись не удалась.
func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for payload := range c.send {
		if err := writeText(c.conn, payload); err != nil {
			h.remove(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
		time.Now().Add(time.Second))
}

// Close отключает всех клиентов. Новые подключения после Close отклоняются.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.dropLocked(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

// dropLocked удаляет клиента и закрывает его очередь; writeLoop
// дописывает поставленное и закрывает соединение. Вызывается под mu.
func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func writeText(conn *websocket.Conn, payload []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}
