package supabase

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/tavoloai/tavolo-web/internal/domain"
)

type userJSON struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (u userJSON) toDomain() *domain.User {
	out := &domain.User{
		ID:             u.ID,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmedAt != nil,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
	if name, ok := u.UserMetadata["name"].(string); ok {
		out.Name = name
	}
	if business, ok := u.UserMetadata["business"].(string); ok {
		out.Business = business
	}
	return out
}

type sessionJSON struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	User         *userJSON `json:"user"`
}

func (s sessionJSON) toDomain() *domain.Session {
	out := &domain.Session{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
	switch {
	case s.ExpiresAt > 0:
		out.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		out.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	if s.User != nil {
		out.User = s.User.toDomain()
	}
	return out
}

// signUpJSON decodes either a session (auto-confirm projects) or a bare user.
type signUpJSON struct {
	sessionJSON
	userJSON
}

func (s *signUpJSON) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &s.sessionJSON); err != nil {
		return err
	}
	return json.Unmarshal(data, &s.userJSON)
}

// errorJSON covers the error shapes the auth API returns.
type errorJSON struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func parseError(status int, data []byte) error {
	var e errorJSON
	_ = json.Unmarshal(data, &e)

	perr := &domain.ProviderError{Status: status, Code: firstNonEmpty(e.ErrorCode, e.Error)}
	perr.Message = firstNonEmpty(e.Msg, e.ErrorDescription, e.Message, e.Error)
	if perr.Message == "" {
		perr.Message = strings.TrimSpace(http.StatusText(status))
	}
	return perr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
