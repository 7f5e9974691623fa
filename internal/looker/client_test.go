package looker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newTestServer(t *testing.T, lookml string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var logins atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/4.0/login":
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			if r.FormValue("client_id") != "id" || r.FormValue("client_secret") != "secret" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			logins.Add(1)
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
		case "/api/4.0/dashboards/42/lookml":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			body, _ := jsonBody(lookml)
			_, _ = w.Write(body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &logins
}

func jsonBody(lookml string) ([]byte, error) {
	escaped := strings.ReplaceAll(lookml, "\n", `\n`)
	return []byte(`{"dashboard_id":"42","lookml":"` + escaped + `"}`), nil
}

func TestDashboardLookMLLogsInOnce(t *testing.T) {
	srv, logins := newTestServer(t, "- dashboard: sales")

	c, err := New(Credentials{BaseURL: srv.URL + "/", ClientID: "id", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	for i := 0; i < 2; i++ {
		lookml, err := c.DashboardLookML(context.Background(), "42")
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if !strings.Contains(lookml, "- dashboard: sales") {
			t.Fatalf("unexpected lookml %q", lookml)
		}
	}
	if logins.Load() != 1 {
		t.Fatalf("expected one login, got %d", logins.Load())
	}
}

func TestDashboardLookMLRejectsEmpty(t *testing.T) {
	srv, _ := newTestServer(t, "")

	c, err := New(Credentials{BaseURL: srv.URL, ClientID: "id", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = c.DashboardLookML(context.Background(), "42")
	if !errors.Is(err, ErrEmptyLookML) {
		t.Fatalf("expected ErrEmptyLookML, got %v", err)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(Credentials{}); err == nil {
		t.Fatalf("expected error without base URL")
	}
	if _, err := New(Credentials{BaseURL: "https://looker.example.com"}); err == nil {
		t.Fatalf("expected error without client credentials")
	}
}
