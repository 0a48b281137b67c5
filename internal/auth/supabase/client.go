// Package supabase is a client for the hosted Supabase Auth (GoTrue) REST API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tavoloai/tavolo-web/internal/auth/token"
	"github.com/tavoloai/tavolo-web/internal/domain"
)

const tracerName = "github.com/tavoloai/tavolo-web/internal/auth/supabase"

// Config holds the project settings.
type Config struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	// JWTSecret, when set, lets GetUser verify access tokens locally instead
	// of calling the user endpoint.
	JWTSecret  string
	HTTPClient *http.Client
}

// Client implements domain.AuthProvider against Supabase Auth.
type Client struct {
	baseURL        string
	anonKey        string
	serviceRoleKey string
	codec          *token.Codec
	http           *http.Client
	tracer         trace.Tracer
}

// New creates a Client. URL and AnonKey are required.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" || cfg.AnonKey == "" {
		return nil, fmt.Errorf("supabase url and anon key: %w", domain.ErrNotConfigured)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	c := &Client{
		baseURL:        strings.TrimRight(cfg.URL, "/") + "/auth/v1",
		anonKey:        cfg.AnonKey,
		serviceRoleKey: cfg.ServiceRoleKey,
		http:           httpClient,
		tracer:         otel.Tracer(tracerName),
	}
	if cfg.JWTSecret != "" {
		c.codec = token.NewCodec(cfg.JWTSecret)
	}
	return c, nil
}

// CreateUser calls the admin API; the account is created already confirmed.
func (c *Client) CreateUser(ctx context.Context, nu domain.NewUser) (*domain.User, error) {
	if c.serviceRoleKey == "" {
		return nil, fmt.Errorf("supabase service role key: %w", domain.ErrNotConfigured)
	}
	body := map[string]any{
		"email":         nu.Email,
		"password":      nu.Password,
		"email_confirm": true,
		"user_metadata": map[string]any{"name": nu.Name, "business": nu.Business},
	}
	var raw json.RawMessage
	if err := c.do(ctx, "CreateUser", http.MethodPost, "/admin/users", nil, c.serviceRoleKey, body, &raw); err != nil {
		return nil, err
	}
	var out userJSON
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode CreateUser response: %w", err)
	}
	user := out.toDomain()
	user.Raw = raw
	return user, nil
}

// SignUp registers with email and password. The session is nil when the
// project requires email confirmation.
func (c *Client) SignUp(ctx context.Context, email, password, redirectTo string) (*domain.User, *domain.Session, error) {
	q := url.Values{}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	var out signUpJSON
	if err := c.do(ctx, "SignUp", http.MethodPost, "/signup", q, "", map[string]any{"email": email, "password": password}, &out); err != nil {
		return nil, nil, err
	}
	if out.AccessToken != "" {
		s := out.sessionJSON.toDomain()
		return s.User, s, nil
	}
	return out.userJSON.toDomain(), nil, nil
}

// SignInWithPassword uses the password grant.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	return c.token(ctx, "SignInWithPassword", "password", map[string]any{"email": email, "password": password})
}

// RefreshSession uses the refresh_token grant.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	return c.token(ctx, "RefreshSession", "refresh_token", map[string]any{"refresh_token": refreshToken})
}

// ExchangeCode completes a PKCE OAuth flow.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*domain.Session, error) {
	return c.token(ctx, "ExchangeCode", "pkce", map[string]any{"auth_code": code, "code_verifier": codeVerifier})
}

// GetUser returns the user the access token belongs to.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	if c.codec != nil {
		claims, err := c.codec.Verify(accessToken)
		if err != nil {
			return nil, err
		}
		return claims.User(), nil
	}

	var out userJSON
	if err := c.do(ctx, "GetUser", http.MethodGet, "/user", nil, accessToken, nil, &out); err != nil {
		return nil, unauthorized(err)
	}
	return out.toDomain(), nil
}

// SignOut revokes the session server-side.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return unauthorized(c.do(ctx, "SignOut", http.MethodPost, "/logout", nil, accessToken, nil, nil))
}

// unauthorized maps a rejected token to domain.ErrUnauthorized.
func unauthorized(err error) error {
	var perr *domain.ProviderError
	if errors.As(err, &perr) && (perr.Status == http.StatusUnauthorized || perr.Status == http.StatusForbidden) {
		return domain.ErrUnauthorized
	}
	return err
}

// AuthorizeURL builds the OAuth redirect for provider using a PKCE S256 challenge.
func (c *Client) AuthorizeURL(provider, redirectTo, codeChallenge string) (string, error) {
	if provider == "" {
		return "", fmt.Errorf("%w: oauth provider is required", domain.ErrInvalidInput)
	}
	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	if codeChallenge != "" {
		q.Set("code_challenge", codeChallenge)
		q.Set("code_challenge_method", "s256")
	}
	return c.baseURL + "/authorize?" + q.Encode(), nil
}

// ResetPasswordForEmail sends a recovery email.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	q := url.Values{}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.do(ctx, "ResetPasswordForEmail", http.MethodPost, "/recover", q, "", map[string]any{"email": email}, nil)
}

func (c *Client) token(ctx context.Context, op, grant string, body map[string]any) (*domain.Session, error) {
	var out sessionJSON
	if err := c.do(ctx, op, http.MethodPost, "/token", url.Values{"grant_type": {grant}}, "", body, &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

// do sends one request. bearer defaults to the anon key.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, bearer string, body, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "supabase."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("apikey", c.apiKeyFor(bearer))
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}

	if resp.StatusCode >= 300 {
		return parseError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// apiKeyFor picks the apikey header: admin calls send the service role key,
// everything else sends the anon key.
func (c *Client) apiKeyFor(bearer string) string {
	if c.serviceRoleKey != "" && bearer == c.serviceRoleKey {
		return c.serviceRoleKey
	}
	return c.anonKey
}
