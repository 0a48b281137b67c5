package domain

import (
	"context"
	"time"
)

// Session is an access/refresh token pair issued by the authentication provider.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         *User
}

// Expired reports whether the access token is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// AuthProvider is the hosted authentication backend. Everything that creates users
// or issues sessions goes through it.
type AuthProvider interface {
	CreateUser(ctx context.Context, user NewUser) (*User, error)
	// SignUp may return a nil session when the provider requires email confirmation.
	SignUp(ctx context.Context, email, password, redirectTo string) (*User, *Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	GetUser(ctx context.Context, accessToken string) (*User, error)
	SignOut(ctx context.Context, accessToken string) error
	AuthorizeURL(provider, redirectTo, codeChallenge string) (string, error)
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*Session, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
}

// StoredSession is a refresh-capable session row kept by the local provider.
type StoredSession struct {
	ID           string
	UserID       string
	RefreshToken string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// SessionRepository defines persistence operations for locally issued sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *StoredSession) error
	GetByID(ctx context.Context, id string) (*StoredSession, error)
	GetByRefreshToken(ctx context.Context, token string) (*StoredSession, error)
	Delete(ctx context.Context, id string) error
}

// AuthEvent names an auth-state change.
type AuthEvent string

const (
	AuthEventSignedIn  AuthEvent = "signed_in"
	AuthEventSignedOut AuthEvent = "signed_out"
	AuthEventRefreshed AuthEvent = "token_refreshed"
)
