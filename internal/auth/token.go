// Пакет auth — выдача токена для mock-ответа аккаунта.
//
// Проверки подлинности нет: токен только попадает в поле token ответа.
// Без секрета выдаётся статическое значение, с секретом — HS256 JWT,
// который клиент может передавать дальше как непрозрачную строку.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StaticToken — значение поля token, если секрет не задан.
const StaticToken = "mock-token"

// ErrInvalidToken — токен не прошёл проверку подписи или срока.
var ErrInvalidToken = errors.New("недействительный токен")

// Claims — утверждения токена аккаунта.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"userId"`
	SchoolKey string `json:"schoolKey"`
}

// Issuer выдаёт токены аккаунта.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer создаёт Issuer. Пустой secret включает статический токен.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Signed сообщает, выдаёт ли Issuer подписанные токены.
func (i *Issuer) Signed() bool {
	return len(i.secret) > 0
}

// Issue возвращает токен для пользователя.
func (i *Issuer) Issue(userID, schoolKey string) (string, error) {
	if !i.Signed() {
		return StaticToken, nil
	}

	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserID:    userID,
		SchoolKey: schoolKey,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, nil
}

// Parse проверяет подписанный токен и возвращает его утверждения.
// Используется операторскими инструментами и тестами.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	if !i.Signed() {
		if tokenString == StaticToken {
			return &Claims{}, nil
		}
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
