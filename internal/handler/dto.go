package handler

import (
	"encoding/json"
	"time"

	"github.com/tavoloai/tavolo-web/internal/domain"
)

// userDTO mirrors the Supabase Auth user object for providers that do not
// return one of their own.
type userDTO struct {
	ID               string         `json:"id"`
	Aud              string         `json:"aud"`
	Role             string         `json:"role"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	AppMetadata      map[string]any `json:"app_metadata"`
	UserMetadata     map[string]any `json:"user_metadata"`
	CreatedAt        *time.Time     `json:"created_at,omitempty"`
	UpdatedAt        *time.Time     `json:"updated_at,omitempty"`
}

// userPayload is the user as the provider returned it, or a synthesized
// equivalent.
func userPayload(u *domain.User) any {
	if len(u.Raw) > 0 && json.Valid(u.Raw) {
		return u.Raw
	}
	dto := userDTO{
		ID:           u.ID,
		Aud:          "authenticated",
		Role:         "authenticated",
		Email:        u.Email,
		AppMetadata:  map[string]any{"provider": "email", "providers": []string{"email"}},
		UserMetadata: map[string]any{"name": u.Name, "business": u.Business},
		CreatedAt:    timePtr(u.CreatedAt),
		UpdatedAt:    timePtr(u.UpdatedAt),
	}
	if u.EmailConfirmed {
		dto.EmailConfirmedAt = timePtr(u.CreatedAt)
		if dto.EmailConfirmedAt == nil {
			now := time.Now().UTC()
			dto.EmailConfirmedAt = &now
		}
	}
	return dto
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
