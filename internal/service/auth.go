package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tavoloai/tavolo-web/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegisterInput is the payload of an account registration.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Business string
}

// OAuthStart is the redirect for an OAuth sign-in and the PKCE verifier the
// caller must keep until the callback.
type OAuthStart struct {
	URL      string
	Verifier string
}

// AuthService fronts the authentication provider. A nil provider means the
// hosted backend is not configured: every call reports domain.ErrNotConfigured.
type AuthService struct {
	provider domain.AuthProvider
	events   *SessionEvents
	baseURL  string
}

// NewAuthService creates an AuthService. baseURL is the public origin used for
// provider redirects.
func NewAuthService(provider domain.AuthProvider, events *SessionEvents, baseURL string) *AuthService {
	if events == nil {
		events = NewSessionEvents()
	}
	return &AuthService{
		provider: provider,
		events:   events,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Configured reports whether a provider is available.
func (s *AuthService) Configured() bool {
	return s.provider != nil
}

// Events returns the broker that receives auth-state changes.
func (s *AuthService) Events() *SessionEvents {
	return s.events
}

// Register creates a confirmed account through the provider's admin API.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if s.provider == nil {
		return nil, domain.ErrNotConfigured
	}

	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Business = strings.TrimSpace(in.Business)
	if in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	user, err := s.provider.CreateUser(ctx, domain.NewUser{
		Email:    in.Email,
		Password: in.Password,
		Name:     in.Name,
		Business: in.Business,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// SignIn exchanges email and password for a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	if s.provider == nil {
		return nil, domain.ErrNotConfigured
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	sess, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if sess.User != nil {
		s.events.Publish(sess.User.ID, domain.AuthEventSignedIn)
	}
	return sess, nil
}

// SignUp creates an account with email confirmation handled by the provider.
// The session is nil while confirmation is pending.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	if s.provider == nil {
		return nil, nil, domain.ErrNotConfigured
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	user, sess, err := s.provider.SignUp(ctx, email, password, s.baseURL+"/dashboard")
	if err != nil {
		return nil, nil, fmt.Errorf("sign up: %w", err)
	}
	return user, sess, nil
}

// SignOut revokes the session and notifies the user's open dashboards. The
// event is published even when the provider call fails, since the caller
// drops its cookies either way.
func (s *AuthService) SignOut(ctx context.Context, userID, accessToken string) error {
	defer s.events.Publish(userID, domain.AuthEventSignedOut)
	if s.provider == nil || accessToken == "" {
		return nil
	}
	if err := s.provider.SignOut(ctx, accessToken); err != nil && !errors.Is(err, domain.ErrUnauthorized) {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// StartOAuth builds the provider redirect for an OAuth sign-in using PKCE.
func (s *AuthService) StartOAuth(provider string) (*OAuthStart, error) {
	if s.provider == nil {
		return nil, domain.ErrNotConfigured
	}
	verifier, err := randomToken(32)
	if err != nil {
		return nil, err
	}
	url, err := s.provider.AuthorizeURL(provider, s.baseURL+"/auth/callback", pkceChallenge(verifier))
	if err != nil {
		return nil, fmt.Errorf("authorize url: %w", err)
	}
	return &OAuthStart{URL: url, Verifier: verifier}, nil
}

// CompleteOAuth exchanges the callback code for a session.
func (s *AuthService) CompleteOAuth(ctx context.Context, code, verifier string) (*domain.Session, error) {
	if s.provider == nil {
		return nil, domain.ErrNotConfigured
	}
	if code == "" || verifier == "" {
		return nil, fmt.Errorf("%w: missing oauth code or verifier", domain.ErrInvalidInput)
	}
	sess, err := s.provider.ExchangeCode(ctx, code, verifier)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	if sess.User != nil {
		s.events.Publish(sess.User.ID, domain.AuthEventSignedIn)
	}
	return sess, nil
}

// ResetPassword sends a recovery email. The address must look like an email.
func (s *AuthService) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if !ValidEmail(email) {
		return fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	if s.provider == nil {
		return domain.ErrNotConfigured
	}
	if err := s.provider.ResetPasswordForEmail(ctx, email, s.baseURL+"/"); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

// Session resolves the current session from the cookie tokens. When the access
// token is rejected and a refresh token is present, the session is refreshed
// and refreshed is true so the caller can store the new tokens.
func (s *AuthService) Session(ctx context.Context, accessToken, refreshToken string) (sess *domain.Session, refreshed bool, err error) {
	if s.provider == nil {
		return nil, false, domain.ErrNotConfigured
	}
	if accessToken == "" && refreshToken == "" {
		return nil, false, domain.ErrUnauthorized
	}

	if accessToken != "" {
		user, err := s.provider.GetUser(ctx, accessToken)
		if err == nil {
			return &domain.Session{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, false, nil
		}
		if !errors.Is(err, domain.ErrUnauthorized) {
			return nil, false, fmt.Errorf("get user: %w", err)
		}
	}

	if refreshToken == "" {
		return nil, false, domain.ErrUnauthorized
	}
	sess, err = s.provider.RefreshSession(ctx, refreshToken)
	if err != nil {
		var perr *domain.ProviderError
		if errors.Is(err, domain.ErrUnauthorized) || errors.As(err, &perr) {
			return nil, false, domain.ErrUnauthorized
		}
		return nil, false, fmt.Errorf("refresh session: %w", err)
	}
	if sess.Expired(time.Now()) {
		return nil, false, domain.ErrUnauthorized
	}
	if sess.User == nil {
		if sess.User, err = s.provider.GetUser(ctx, sess.AccessToken); err != nil {
			return nil, false, domain.ErrUnauthorized
		}
	}
	s.events.Publish(sess.User.ID, domain.AuthEventRefreshed)
	return sess, true, nil
}

// ValidEmail reports whether email has the shape local@domain.tld.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func pkceChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
