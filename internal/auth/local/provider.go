// Package local implements domain.AuthProvider on SQLite so the site can run
// without the hosted auth service. OAuth is not available.
package local

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tavoloai/tavolo-web/internal/auth/token"
	"github.com/tavoloai/tavolo-web/internal/domain"
)

const (
	accessTokenTTL  = time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
	minPasswordLen  = 6
)

// Provider is the SQLite-backed authentication provider.
type Provider struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	codec      *token.Codec
	bcryptCost int
	now        func() time.Time
}

// New creates a Provider.
func New(users domain.UserRepository, sessions domain.SessionRepository, jwtSecret string, bcryptCost int) *Provider {
	return &Provider{
		users:      users,
		sessions:   sessions,
		codec:      token.NewCodec(jwtSecret),
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// CreateUser creates a confirmed account.
func (p *Provider) CreateUser(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	u, err := p.create(ctx, nu, true)
	if err != nil {
		return nil, err
	}
	return &u.User, nil
}

// SignUp creates an account and signs it in immediately; there is no email
// confirmation step locally.
func (p *Provider) SignUp(ctx context.Context, email, password, _ string) (*domain.User, *domain.Session, error) {
	u, err := p.create(ctx, domain.NewUser{Email: email, Password: password}, true)
	if err != nil {
		return nil, nil, err
	}
	session, err := p.issue(ctx, &u.User)
	if err != nil {
		return nil, nil, err
	}
	return &u.User, session, nil
}

// SignInWithPassword verifies credentials and issues a session.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	u, err := p.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, invalidCredentials()
	}

	return p.issue(ctx, &u.User)
}

// RefreshSession rotates the refresh token and issues a new access token.
func (p *Provider) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	stored, err := p.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !p.now().Before(stored.ExpiresAt) {
		_ = p.sessions.Delete(ctx, stored.ID)
		return nil, domain.ErrUnauthorized
	}

	u, err := p.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	// Only the caller that deletes the row may mint the replacement.
	if err := p.sessions.Delete(ctx, stored.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("rotate session: %w", err)
	}
	return p.issue(ctx, &u.User)
}

// GetUser validates the access token and checks that its session is still live.
func (p *Provider) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := p.codec.Verify(accessToken)
	if err != nil {
		return nil, err
	}
	if _, err := p.sessions.GetByID(ctx, claims.SessionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	u, err := p.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u.User, nil
}

// SignOut revokes the session the access token belongs to.
func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	claims, err := p.codec.Verify(accessToken)
	if err != nil {
		return err
	}
	if err := p.sessions.Delete(ctx, claims.SessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (p *Provider) AuthorizeURL(provider, _, _ string) (string, error) {
	return "", fmt.Errorf("oauth provider %q: %w", provider, domain.ErrUnsupported)
}

func (p *Provider) ExchangeCode(context.Context, string, string) (*domain.Session, error) {
	return nil, fmt.Errorf("oauth code exchange: %w", domain.ErrUnsupported)
}

// ResetPasswordForEmail accepts the request without sending mail; the local
// provider has no mailer.
func (p *Provider) ResetPasswordForEmail(context.Context, string, string) error {
	return nil
}

func (p *Provider) create(ctx context.Context, nu domain.NewUser, confirmed bool) (*domain.LocalUser, error) {
	if len(nu.Password) < minPasswordLen {
		return nil, &domain.ProviderError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "weak_password",
			Message: fmt.Sprintf("Password should be at least %d characters.", minPasswordLen),
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), p.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.LocalUser{
		User: domain.User{
			ID:             uuid.NewString(),
			Email:          strings.TrimSpace(nu.Email),
			Name:           nu.Name,
			Business:       nu.Business,
			EmailConfirmed: confirmed,
		},
		PasswordHash: string(hash),
	}
	if err := p.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, &domain.ProviderError{
				Status:  http.StatusUnprocessableEntity,
				Code:    "email_exists",
				Message: "A user with this email address has already been registered",
			}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (p *Provider) issue(ctx context.Context, u *domain.User) (*domain.Session, error) {
	refresh, err := randomToken()
	if err != nil {
		return nil, err
	}
	now := p.now().UTC()
	stored := &domain.StoredSession{
		ID:           uuid.NewString(),
		UserID:       u.ID,
		RefreshToken: refresh,
		CreatedAt:    now,
		ExpiresAt:    now.Add(refreshTokenTTL),
	}
	if err := p.sessions.Create(ctx, stored); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	access, expires, err := p.codec.Sign(u, stored.ID, accessTokenTTL)
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expires,
		User:         u,
	}, nil
}

func invalidCredentials() error {
	return &domain.ProviderError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_credentials",
		Message: "Invalid login credentials",
	}
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
