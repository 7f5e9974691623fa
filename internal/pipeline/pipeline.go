// Package pipeline implements the dashboard import workflows: pull a
// dashboard's LookML from the Looker API, clean it, and write it into the
// base project or a tenant project.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lookmlops/dashctl/internal/lookml"
)

// Action values are consumed verbatim by the downstream GitHub Actions
// workflow; they keep the original Spanish labels for compatibility.
const (
	ActionCreated = "CREADO"
	ActionUpdated = "ACTUALIZADO"
)

// LookMLSource provides dashboard LookML, normally the Looker API client.
type LookMLSource interface {
	DashboardLookML(ctx context.Context, dashboardID string) (string, error)
}

// Result describes what an import produced.
type Result struct {
	DashboardName string
	FilePath      string
	Action        string
	IsExtend      bool
	// Output is the rendered dashboard document, also available on dry runs.
	Output string
}

// BaseOptions configure a base project import.
type BaseOptions struct {
	DashboardID   string
	DashboardsDir string
	DryRun        bool
}

// ImportBase fetches a dashboard from Looker, strips the volatile
// identifiers, replaces the model reference with the manifest constant, and
// writes the result into the base project's dashboards directory. An
// existing file for the dashboard (by name or content) is updated in place.
func ImportBase(ctx context.Context, src LookMLSource, opts BaseOptions) (Result, error) {
	if strings.TrimSpace(opts.DashboardID) == "" {
		return Result{}, fmt.Errorf("dashboard ID is required")
	}
	raw, err := src.DashboardLookML(ctx, opts.DashboardID)
	if err != nil {
		return Result{}, err
	}
	name, err := lookml.ExtractName(raw)
	if err != nil {
		return Result{}, err
	}

	cleaned := lookml.StripVolatileKeys(raw)
	cleaned = lookml.ReplaceModel(cleaned, lookml.DefaultModelTarget)

	result := Result{
		DashboardName: name,
		Output:        cleaned,
	}
	result.FilePath, result.Action = resolveTarget(opts.DashboardsDir, name)
	if opts.DryRun {
		return result, nil
	}
	if err := writeDashboard(result.FilePath, cleaned); err != nil {
		return Result{}, err
	}
	return result, nil
}

func resolveTarget(dir, name string) (string, string) {
	if existing := lookml.FindExistingFile(dir, name); existing != "" {
		return existing, ActionUpdated
	}
	return filepath.Join(dir, name+".dashboard.lookml"), ActionCreated
}

func writeDashboard(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dashboards dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write dashboard: %w", err)
	}
	return nil
}
