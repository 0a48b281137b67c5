package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tavoloai/tavolo-web/internal/handler"
	"github.com/tavoloai/tavolo-web/internal/repository/postgres"
)

func TestHandleHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.HandleHealthz(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "application/json" {
		t.Fatalf("expected Content-Type application/json, got %s", contentType)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body["status"] != "ok" {
		t.Fatalf("expected status=ok, got %s", body["status"])
	}
}

func TestHandleHealthzRouting(t *testing.T) {
	auth := newTestAuthService(t)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Deps{Auth: auth})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

type fakePinger struct {
	configured bool
	err        error
}

func (p fakePinger) Configured() bool { return p.configured }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHandleReadyz(t *testing.T) {
	unconfigured, err := postgres.Open(context.Background(), "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	tests := []struct {
		name       string
		db         handler.Pinger
		wantStatus int
		wantDB     string
	}{
		{"nil", nil, http.StatusOK, "not_configured"},
		{"empty dsn", unconfigured, http.StatusOK, "not_configured"},
		{"healthy", fakePinger{configured: true}, http.StatusOK, "ok"},
		{"down", fakePinger{configured: true, err: errors.New("connection refused")}, http.StatusServiceUnavailable, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.HandleReadyz(tt.db).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["database"] != tt.wantDB {
				t.Errorf("database = %q, want %q", body["database"], tt.wantDB)
			}
		})
	}
}
