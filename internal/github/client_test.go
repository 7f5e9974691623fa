package github

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDispatchWorkflow(t *testing.T) {
	var gotPath, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New("tok123", WithBaseURL(srv.URL))
	err := c.DispatchWorkflow(context.Background(), "acme", "base_project", "update_dashboard.yml", "main",
		map[string]string{"dashboard_id": "42"})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if gotPath != "/repos/acme/base_project/actions/workflows/update_dashboard.yml/dispatches" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer tok123" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	want := `{"ref":"main","inputs":{"dashboard_id":"42"}}`
	if gotBody != want {
		t.Fatalf("body mismatch:\n got %s\nwant %s", gotBody, want)
	}
}

func TestDispatchWorkflowReportsStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"no ref"}`))
	}))
	defer srv.Close()

	c := New("tok", WithBaseURL(srv.URL))
	err := c.DispatchWorkflow(context.Background(), "a", "b", "wf.yml", "main", nil)
	if err == nil || !strings.Contains(err.Error(), "error 422") || !strings.Contains(err.Error(), "no ref") {
		t.Fatalf("expected status error with body, got %v", err)
	}
}

func TestGetFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/vnd.github.v3.raw" {
			t.Errorf("unexpected accept header %q", r.Header.Get("Accept"))
		}
		if r.URL.Query().Get("ref") != "v1.2.0" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("- dashboard: sales\n"))
	}))
	defer srv.Close()

	c := New("tok", WithBaseURL(srv.URL))
	data, err := c.GetFile(context.Background(), "acme", "base_project", "v1.2.0", "dashboards/sales.dashboard.lookml")
	if err != nil {
		t.Fatalf("get file: %v", err)
	}
	if string(data) != "- dashboard: sales\n" {
		t.Fatalf("unexpected contents %q", data)
	}

	_, err = c.GetFile(context.Background(), "acme", "base_project", "missing", "dashboards/sales.dashboard.lookml")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
