// platform.go — служебные endpoints эмулируемой платформы:
// привязанная школа, проверка токена/вход, pub/alive.
package handlers

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/goartstore/classroom-mock/internal/api/errors"
	"github.com/bigkaa/goartstore/classroom-mock/internal/api/envelope"
)

// TokenIssuer выдаёт значение поля token.
type TokenIssuer interface {
	Issue(userID, schoolKey string) (string, error)
}

// Identity — школа, от имени которой отвечает mock.
type Identity struct {
	SchoolID   string
	SchoolName string
}

// PlatformHandler — обработчик служебных endpoints.
type PlatformHandler struct {
	identity Identity
	tokens   TokenIssuer
	logger   *slog.Logger
}

// NewPlatformHandler создаёт обработчик служебных endpoints.
func NewPlatformHandler(identity Identity, tokens TokenIssuer, logger *slog.Logger) *PlatformHandler {
	return &PlatformHandler{
		identity: identity,
		tokens:   tokens,
		logger:   logger.With(slog.String("component", "platform_handler")),
	}
}

// SchoolInfo обрабатывает /qlBox-manager/getBindedSchoolInfo.
func (h *PlatformHandler) SchoolInfo(w http.ResponseWriter, _ *http.Request) {
	envelope.Write(w, SchoolInfo{
		SchoolID:   h.identity.SchoolID,
		SchoolName: h.identity.SchoolName,
	})
}

// Account обрабатывает tokenValid и j_spring_security_check:
// оба отвечают одним и тем же аккаунтом.
func (h *PlatformHandler) Account(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.Issue(mockUserID, h.identity.SchoolID)
	if err != nil {
		h.logger.Error("Ошибка выдачи токена", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Ошибка выдачи токена")
		return
	}

	envelope.Write(w, Account{
		UserID:            mockUserID,
		SchoolKey:         h.identity.SchoolID,
		SchoolName:        h.identity.SchoolName,
		ClassroomID:       mockClassroomID,
		ClassroomName:     mockClassroomName,
		ClassName:         mockClassName,
		LoginIP:           hostWithoutPort(r.Host),
		ClassInSocketPort: mockSocketPort,
		Token:             token,
		IsBoxClass:        true,
		IsAirClass:        false,
	})
}

// Alive обрабатывает /classInApp/serv-teachplatform/pub/alive.
func (h *PlatformHandler) Alive(w http.ResponseWriter, _ *http.Request) {
	envelope.Write(w, Alive{Alive: true})
}

// hostWithoutPort возвращает хост из заголовка Host без порта.
// IPv6-адрес возвращается без квадратных скобок.
func hostWithoutPort(hostport string) string {
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}
	return strings.TrimSuffix(strings.TrimPrefix(hostport, "["), "]")
}
