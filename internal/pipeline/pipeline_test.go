package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lookmlops/dashctl/internal/github"
)

type fakeSource map[string]string

func (f fakeSource) DashboardLookML(_ context.Context, id string) (string, error) {
	lookml, ok := f[id]
	if !ok {
		return "", fmt.Errorf("dashboard %s not found", id)
	}
	return lookml, nil
}

const rawFromLooker = `- dashboard: ventas
  title: Ventas
  id: 42
  slug: xyz
  elements:
  - name: pedidos
    title: Pedidos
    model: prod_model
    explore: orders
`

func TestImportBaseCreatesThenUpdates(t *testing.T) {
	dir := t.TempDir()
	src := fakeSource{"42": rawFromLooker}

	result, err := ImportBase(context.Background(), src, BaseOptions{DashboardID: "42", DashboardsDir: dir})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.DashboardName != "ventas" {
		t.Fatalf("unexpected name %q", result.DashboardName)
	}
	if result.Action != ActionCreated {
		t.Fatalf("expected %s, got %s", ActionCreated, result.Action)
	}
	want := filepath.Join(dir, "ventas.dashboard.lookml")
	if result.FilePath != want {
		t.Fatalf("unexpected path %q", result.FilePath)
	}
	content, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if strings.Contains(string(content), "slug: xyz") || strings.Contains(string(content), "id: 42") {
		t.Fatalf("expected volatile keys stripped:\n%s", content)
	}
	if !strings.Contains(string(content), `model: "@{model_name}"`) {
		t.Fatalf("expected model constant:\n%s", content)
	}

	again, err := ImportBase(context.Background(), src, BaseOptions{DashboardID: "42", DashboardsDir: dir})
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if again.Action != ActionUpdated {
		t.Fatalf("expected %s, got %s", ActionUpdated, again.Action)
	}
}

func TestImportBaseDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	src := fakeSource{"42": rawFromLooker}

	result, err := ImportBase(context.Background(), src, BaseOptions{DashboardID: "42", DashboardsDir: dir, DryRun: true})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Output == "" {
		t.Fatalf("expected rendered output on dry run")
	}
	if _, err := os.Stat(result.FilePath); !os.IsNotExist(err) {
		t.Fatalf("expected no file written, stat err=%v", err)
	}
}

func TestImportBaseRequiresDashboardID(t *testing.T) {
	if _, err := ImportBase(context.Background(), fakeSource{}, BaseOptions{}); err == nil {
		t.Fatalf("expected error without dashboard ID")
	}
}

func TestAppendGitHubOutputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	t.Setenv("GITHUB_OUTPUT", path)

	result := Result{DashboardName: "ventas", FilePath: "/tmp/v.dashboard.lookml", Action: ActionCreated, IsExtend: true}
	if err := AppendGitHubOutputs(result, true); err != nil {
		t.Fatalf("append: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "dashboard_name=ventas\nfile_path=/tmp/v.dashboard.lookml\naction=CREADO\nis_extend=true\n"
	if string(content) != want {
		t.Fatalf("output mismatch:\n got %q\nwant %q", content, want)
	}

	t.Setenv("GITHUB_OUTPUT", "")
	if err := AppendGitHubOutputs(result, false); err != nil {
		t.Fatalf("expected no-op without env, got %v", err)
	}
}

var _ BaseFetcher = fakeFetcher{}

type fakeFetcher map[string]string

func (f fakeFetcher) GetFile(_ context.Context, owner, repo, ref, path string) ([]byte, error) {
	content, ok := f[owner+"/"+repo+"@"+ref+":"+path]
	if !ok {
		return nil, github.ErrNotFound
	}
	return []byte(content), nil
}
