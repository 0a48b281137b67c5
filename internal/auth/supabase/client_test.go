package supabase_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/tavoloai/tavolo-web/internal/auth/supabase"
	"github.com/tavoloai/tavolo-web/internal/auth/token"
	"github.com/tavoloai/tavolo-web/internal/domain"
)

var _ domain.AuthProvider = (*supabase.Client)(nil)

const (
	anonKey    = "anon-key"
	serviceKey = "service-key"
)

// fakeGoTrue is a minimal stand-in for the auth REST API.
type fakeGoTrue struct {
	t        *testing.T
	password string
	lastReq  *http.Request
	lastBody map[string]any
}

func (f *fakeGoTrue) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.lastReq = r
	f.lastBody = nil
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
	}

	user := map[string]any{
		"id":                 "user-1",
		"aud":                "authenticated",
		"role":               "authenticated",
		"email":              "chef@example.com",
		"app_metadata":       map[string]any{"provider": "email", "providers": []string{"email"}},
		"email_confirmed_at": "2026-01-01T00:00:00Z",
		"user_metadata":      map[string]any{"name": "Chef", "business": "Trattoria"},
		"created_at":         "2026-01-01T00:00:00Z",
		"updated_at":         "2026-01-01T00:00:00Z",
	}
	session := map[string]any{
		"access_token":  "access-1",
		"refresh_token": "refresh-1",
		"expires_in":    3600,
		"expires_at":    time.Now().Add(time.Hour).Unix(),
		"user":          user,
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/auth/v1/admin/users":
		if r.Header.Get("Authorization") != "Bearer "+serviceKey {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"code":403,"error_code":"not_admin","msg":"User not allowed"}`))
			return
		}
		if f.lastBody["email"] == "taken@example.com" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"code":422,"error_code":"email_exists","msg":"A user with this email address has already been registered"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(user)
	case "/auth/v1/signup":
		if f.lastBody["email"] == "confirm@example.com" {
			_ = json.NewEncoder(w).Encode(user)
			return
		}
		_ = json.NewEncoder(w).Encode(session)
	case "/auth/v1/token":
		if r.URL.Query().Get("grant_type") == "password" && f.lastBody["password"] != f.password {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(session)
	case "/auth/v1/user":
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid JWT"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(user)
	case "/auth/v1/logout":
		if r.Header.Get("Authorization") == "Bearer expired" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401,"error_code":"bad_jwt","msg":"invalid JWT: token is expired"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case "/auth/v1/recover":
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, jwtSecret string) (*supabase.Client, *fakeGoTrue) {
	t.Helper()
	fake := &fakeGoTrue{t: t, password: "secret123"}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := supabase.New(supabase.Config{
		URL:            srv.URL + "/",
		AnonKey:        anonKey,
		ServiceRoleKey: serviceKey,
		JWTSecret:      jwtSecret,
		HTTPClient:     srv.Client(),
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c, fake
}

func TestNew_RequiresURLAndKey(t *testing.T) {
	_, err := supabase.New(supabase.Config{URL: "https://example.supabase.co"})
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCreateUser(t *testing.T) {
	c, fake := newTestClient(t, "")

	user, err := c.CreateUser(context.Background(), domain.NewUser{
		Email: "chef@example.com", Password: "secret123", Name: "Chef", Business: "Trattoria",
	})
	if err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	if user.ID != "user-1" || user.Name != "Chef" || user.Business != "Trattoria" || !user.EmailConfirmed {
		t.Errorf("unexpected user: %+v", user)
	}
	if got := fake.lastReq.Header.Get("apikey"); got != serviceKey {
		t.Errorf("apikey = %q, want service key", got)
	}
	if fake.lastBody["email_confirm"] != true {
		t.Errorf("expected email_confirm true, got %v", fake.lastBody["email_confirm"])
	}
	meta, _ := fake.lastBody["user_metadata"].(map[string]any)
	if meta["business"] != "Trattoria" {
		t.Errorf("expected business metadata, got %v", meta)
	}

	var raw map[string]any
	if err := json.Unmarshal(user.Raw, &raw); err != nil {
		t.Fatalf("user.Raw is not the provider's JSON: %v", err)
	}
	if raw["role"] != "authenticated" || raw["app_metadata"] == nil || raw["email_confirmed_at"] == nil {
		t.Errorf("provider fields missing from Raw: %v", raw)
	}
}

func TestCreateUser_RelaysProviderMessage(t *testing.T) {
	c, _ := newTestClient(t, "")

	_, err := c.CreateUser(context.Background(), domain.NewUser{Email: "taken@example.com", Password: "secret123"})
	var perr *domain.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Status != http.StatusUnprocessableEntity || perr.Code != "email_exists" {
		t.Errorf("unexpected provider error: %+v", perr)
	}
	if err.Error() != "A user with this email address has already been registered" {
		t.Errorf("message not relayed verbatim: %q", err.Error())
	}
}

func TestCreateUser_WithoutServiceKey(t *testing.T) {
	c, err := supabase.New(supabase.Config{URL: "http://127.0.0.1:1", AnonKey: anonKey})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.CreateUser(context.Background(), domain.NewUser{Email: "a@b.co", Password: "secret123"})
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSignUp(t *testing.T) {
	c, fake := newTestClient(t, "")

	user, sess, err := c.SignUp(context.Background(), "chef@example.com", "secret123", "http://localhost/dashboard")
	if err != nil {
		t.Fatalf("SignUp() error: %v", err)
	}
	if sess == nil || sess.AccessToken != "access-1" {
		t.Fatalf("expected session, got %+v", sess)
	}
	if user == nil || user.ID != "user-1" {
		t.Errorf("expected user from session, got %+v", user)
	}
	if got := fake.lastReq.URL.Query().Get("redirect_to"); got != "http://localhost/dashboard" {
		t.Errorf("redirect_to = %q", got)
	}

	user, sess, err = c.SignUp(context.Background(), "confirm@example.com", "secret123", "")
	if err != nil {
		t.Fatalf("SignUp() error: %v", err)
	}
	if sess != nil {
		t.Errorf("expected no session while confirmation is pending, got %+v", sess)
	}
	if user == nil || user.ID != "user-1" {
		t.Errorf("expected bare user, got %+v", user)
	}
}

func TestSignInWithPassword(t *testing.T) {
	c, fake := newTestClient(t, "")

	sess, err := c.SignInWithPassword(context.Background(), "chef@example.com", "secret123")
	if err != nil {
		t.Fatalf("SignInWithPassword() error: %v", err)
	}
	if sess.AccessToken != "access-1" || sess.RefreshToken != "refresh-1" {
		t.Errorf("unexpected session: %+v", sess)
	}
	if sess.Expired(time.Now()) {
		t.Error("fresh session reported as expired")
	}
	if got := fake.lastReq.URL.Query().Get("grant_type"); got != "password" {
		t.Errorf("grant_type = %q", got)
	}
	if got := fake.lastReq.Header.Get("apikey"); got != anonKey {
		t.Errorf("apikey = %q, want anon key", got)
	}

	_, err = c.SignInWithPassword(context.Background(), "chef@example.com", "wrong")
	if err == nil || err.Error() != "Invalid login credentials" {
		t.Fatalf("expected relayed message, got %v", err)
	}
}

func TestRefreshAndExchange(t *testing.T) {
	c, fake := newTestClient(t, "")

	if _, err := c.RefreshSession(context.Background(), "refresh-1"); err != nil {
		t.Fatalf("RefreshSession() error: %v", err)
	}
	if fake.lastBody["refresh_token"] != "refresh-1" {
		t.Errorf("refresh_token not sent: %v", fake.lastBody)
	}

	if _, err := c.ExchangeCode(context.Background(), "code-1", "verifier-1"); err != nil {
		t.Fatalf("ExchangeCode() error: %v", err)
	}
	if fake.lastReq.URL.Query().Get("grant_type") != "pkce" || fake.lastBody["auth_code"] != "code-1" || fake.lastBody["code_verifier"] != "verifier-1" {
		t.Errorf("unexpected pkce request: %s %v", fake.lastReq.URL, fake.lastBody)
	}
}

func TestGetUser_Remote(t *testing.T) {
	c, _ := newTestClient(t, "")

	user, err := c.GetUser(context.Background(), "access-1")
	if err != nil {
		t.Fatalf("GetUser() error: %v", err)
	}
	if user.Email != "chef@example.com" {
		t.Errorf("unexpected user: %+v", user)
	}

	if _, err := c.GetUser(context.Background(), "stale"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGetUser_LocalVerification(t *testing.T) {
	secret := strings.Repeat("s", 32)
	c, fake := newTestClient(t, secret)

	signed, _, err := token.NewCodec(secret).Sign(&domain.User{ID: "user-9", Email: "nine@example.com", Name: "Nine"}, "sess", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	user, err := c.GetUser(context.Background(), signed)
	if err != nil {
		t.Fatalf("GetUser() error: %v", err)
	}
	if user.ID != "user-9" || user.Name != "Nine" {
		t.Errorf("unexpected user: %+v", user)
	}
	if fake.lastReq != nil {
		t.Error("expected no request to the user endpoint")
	}

	if _, err := c.GetUser(context.Background(), "garbage"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSignOutAndRecover(t *testing.T) {
	c, fake := newTestClient(t, "")

	if err := c.SignOut(context.Background(), "access-1"); err != nil {
		t.Fatalf("SignOut() error: %v", err)
	}
	if fake.lastReq.Header.Get("Authorization") != "Bearer access-1" {
		t.Errorf("logout sent wrong bearer: %q", fake.lastReq.Header.Get("Authorization"))
	}

	if err := c.SignOut(context.Background(), "expired"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("SignOut(expired) = %v, want ErrUnauthorized", err)
	}

	if err := c.ResetPasswordForEmail(context.Background(), "chef@example.com", "http://localhost/"); err != nil {
		t.Fatalf("ResetPasswordForEmail() error: %v", err)
	}
	if fake.lastBody["email"] != "chef@example.com" {
		t.Errorf("email not sent: %v", fake.lastBody)
	}
}

func TestAuthorizeURL(t *testing.T) {
	c, _ := newTestClient(t, "")

	raw, err := c.AuthorizeURL("google", "http://localhost:8080/auth/callback", "challenge")
	if err != nil {
		t.Fatalf("AuthorizeURL() error: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if u.Path != "/auth/v1/authorize" {
		t.Errorf("path = %q", u.Path)
	}
	q := u.Query()
	if q.Get("provider") != "google" || q.Get("code_challenge") != "challenge" || q.Get("code_challenge_method") != "s256" {
		t.Errorf("unexpected query: %v", q)
	}
	if q.Get("redirect_to") != "http://localhost:8080/auth/callback" {
		t.Errorf("redirect_to = %q", q.Get("redirect_to"))
	}

	if _, err := c.AuthorizeURL("", "", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
