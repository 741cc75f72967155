package httpx

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AuthCookie carries the admin token for browser clients.
const AuthCookie = "admin-auth-token"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Authenticator checks the admin password and the tokens issued for it.
// A token is base64("<password>_<issued at, unix millis>") and expires
// after ttl. The password itself is only kept as a bcrypt hash.
type Authenticator struct {
	hash []byte
	ttl  time.Duration
	now  func() time.Time
}

func NewAuthenticator(password string, ttl time.Duration) (*Authenticator, error) {
	if password == "" {
		return nil, errors.New("empty admin password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Authenticator{hash: hash, ttl: ttl, now: time.Now}, nil
}

func (a *Authenticator) TTL() time.Duration {
	return a.ttl
}

// Login returns a fresh token when password is right.
func (a *Authenticator) Login(password string) (string, error) {
	if bcrypt.CompareHashAndPassword(a.hash, []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	raw := password + "_" + strconv.FormatInt(a.now().UnixMilli(), 10)
	return base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

func (a *Authenticator) Verify(token string) error {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return ErrInvalidToken
	}

	i := strings.LastIndexByte(string(decoded), '_')
	if i < 0 {
		return ErrInvalidToken
	}
	password, stamp := decoded[:i], string(decoded[i+1:])

	issued, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return ErrInvalidToken
	}
	if a.now().Sub(time.UnixMilli(issued)) >= a.ttl {
		return ErrInvalidToken
	}
	if bcrypt.CompareHashAndPassword(a.hash, password) != nil {
		return ErrInvalidToken
	}
	return nil
}

// TokenFromRequest reads a bearer token, falling back to the auth cookie.
func TokenFromRequest(r *http.Request) string {
	auth := r.Header.Get("authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if c, err := r.Cookie(AuthCookie); err == nil {
		return c.Value
	}
	return ""
}
