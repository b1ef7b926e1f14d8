package service

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionService emite y valida tokens de sesion firmados. La sesion solo
// transporta el id de identidad; todo lo demas se proyecta desde la cache
// del registro sombra en cada request.
type SessionService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

var (
	ErrSessionInvalid = errors.New("session token invalid")
	ErrSessionExpired = errors.New("session token expired")
)

func NewSessionService(secret string, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "dubclub-auth",
	}
}

// Issue firma un token de sesion para la identidad dada y devuelve el
// token junto con su expiracion.
func (s *SessionService) Issue(identityID int64) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrSessionInvalid
	}
	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(identityID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse valida el token y devuelve el id de identidad que transporta.
func (s *SessionService) Parse(tokenString string) (int64, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return 0, ErrSessionInvalid
	}
	var claims sessionClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrSessionExpired
		}
		return 0, ErrSessionInvalid
	}
	identityID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrSessionInvalid
	}
	return identityID, nil
}
