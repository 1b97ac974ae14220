// Package session holds the per-browser authentication state of the dashboard:
// the backend's access and refresh tokens, the user's role and pending banners.
package session

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("session not found")

// nowFunc is mockable in tests.
var nowFunc = time.Now

// Banner kinds
const (
	BannerSuccess = "success"
	BannerError   = "error"
)

type (
	// Banner is a one-shot message shown on the next rendered page.
	Banner struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	}

	Session struct {
		ID           string    `json:"id"`
		AccessToken  string    `json:"access_token"`
		RefreshToken string    `json:"refresh_token"`
		Role         string    `json:"user_role"`
		UserID       int       `json:"user_id"`
		Username     string    `json:"username"`
		Email        string    `json:"email"`
		GroupID      int       `json:"group_id"`
		ExpiresAt    time.Time `json:"expires_at"`
		Banners      []Banner  `json:"banners,omitempty"`
	}

	Store interface {
		Get(ctx context.Context, id string) (Session, error)
		Save(ctx context.Context, sess Session) error
		Delete(ctx context.Context, id string) error
	}
)

// New starts an anonymous session that expires after maxAge.
func New(maxAge time.Duration) Session {
	return Session{
		ID:        uuid.NewString(),
		ExpiresAt: nowFunc().Add(maxAge).UTC(),
	}
}

// SetTokens stores the backend tokens. The session never outlives the access token.
func (s *Session) SetTokens(access, refresh string) {
	s.AccessToken = access
	s.RefreshToken = refresh
	if exp, ok := TokenExpiry(access); ok && exp.Before(s.ExpiresAt) {
		s.ExpiresAt = exp
	}
}

// Token returns the access token, if any.
func (s Session) Token() (string, bool) {
	return s.AccessToken, s.AccessToken != ""
}

func (s Session) IsAuthenticated() bool {
	_, ok := s.Token()
	return ok && !s.Expired()
}

func (s Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && !nowFunc().Before(s.ExpiresAt)
}

// TTL is the remaining lifetime, never negative.
func (s Session) TTL() time.Duration {
	ttl := s.ExpiresAt.Sub(nowFunc())
	if ttl < 0 {
		return 0
	}
	return ttl
}

func (s *Session) AddBanner(kind, msg string) {
	s.Banners = append(s.Banners, Banner{Kind: kind, Message: msg})
}

// PopBanners returns and clears the pending banners.
func (s *Session) PopBanners() []Banner {
	banners := s.Banners
	s.Banners = nil
	return banners
}

// Clear drops everything but the id.
func (s *Session) Clear() {
	*s = Session{ID: s.ID, ExpiresAt: s.ExpiresAt}
}

// TokenExpiry reads the `exp` claim of a JWT access token.
// The signature is not verified: the token was issued to us by the backend,
// which stays the only authority on its validity.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(int64(exp), 0).UTC(), true
}

type ctxKey struct{}

func NewContext(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(Session)
	return sess, ok
}

// Token returns the access token of the session carried by ctx.
func Token(ctx context.Context) (string, bool) {
	sess, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return sess.Token()
}

// WithToken is a shortcut for contexts that only need to carry a token (CLI, tests).
func WithToken(ctx context.Context, token string) context.Context {
	sess, _ := FromContext(ctx)
	sess.AccessToken = token
	return NewContext(ctx, sess)
}
