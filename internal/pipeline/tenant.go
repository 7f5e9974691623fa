package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lookmlops/dashctl/internal/github"
	"github.com/lookmlops/dashctl/internal/lookml"
	"pkt.systems/pslog"
)

// BaseFetcher retrieves base project files at a pinned ref, normally the
// GitHub contents API.
type BaseFetcher interface {
	GetFile(ctx context.Context, owner, repo, ref, path string) ([]byte, error)
}

// TenantOptions configure a tenant project import. Owner, repo, ref, and
// model name default to the values in the tenant's manifest.lkml; explicit
// options win.
type TenantOptions struct {
	DashboardID   string
	TenantName    string
	TenantDir     string
	BaseDashboard string
	BaseOwner     string
	BaseRepo      string
	DryRun        bool
}

// ImportTenant imports a dashboard into a tenant project. A dashboard that
// extends a base dashboard is reduced to the elements and filters that
// differ from the base version at the tenant's pinned ref; anything else is
// written as a standalone dashboard pointing at the tenant's model.
func ImportTenant(ctx context.Context, src LookMLSource, gh BaseFetcher, opts TenantOptions) (Result, error) {
	if strings.TrimSpace(opts.DashboardID) == "" {
		return Result{}, fmt.Errorf("dashboard ID is required")
	}
	if strings.TrimSpace(opts.TenantName) == "" {
		return Result{}, fmt.Errorf("tenant name is required")
	}
	log := pslog.Ctx(ctx)

	raw, err := src.DashboardLookML(ctx, opts.DashboardID)
	if err != nil {
		return Result{}, err
	}
	name, err := lookml.ExtractName(raw)
	if err != nil {
		return Result{}, err
	}

	dashboardsDir := filepath.Join(opts.TenantDir, "dashboards")

	tenantModel := opts.TenantName
	baseRef := "main"
	baseOwner := opts.BaseOwner
	baseRepo := opts.BaseRepo
	if manifest, ok := readManifest(opts.TenantDir); ok {
		if manifest.ModelName != "" {
			tenantModel = manifest.ModelName
		}
		if manifest.BaseRef != "" {
			baseRef = manifest.BaseRef
		}
		if baseOwner == "" {
			baseOwner = manifest.BaseOwner
		}
		if baseRepo == "" {
			baseRepo = manifest.BaseRepo
		}
	}

	baseDashboard := opts.BaseDashboard
	if baseDashboard == "" {
		baseDashboard = detectBaseDashboard(dashboardsDir, name)
	}

	var output string
	isExtend := false
	if baseDashboard != "" {
		log.Info("tenant dashboard extends base", "base", baseDashboard, "ref", baseRef, "repo", baseOwner+"/"+baseRepo, "model", tenantModel)
		baseRaw, err := gh.GetFile(ctx, baseOwner, baseRepo, baseRef, "dashboards/"+baseDashboard+".dashboard.lookml")
		switch {
		case errors.Is(err, github.ErrNotFound):
			log.Warn("base dashboard not found; generating standalone", "base", baseDashboard, "ref", baseRef)
			output, err = renderStandalone(raw, tenantModel)
			if err != nil {
				return Result{}, err
			}
		case err != nil:
			return Result{}, err
		default:
			output, err = renderExtends(raw, string(baseRaw), name, opts.TenantName, baseDashboard, tenantModel, log)
			if err != nil {
				return Result{}, err
			}
			isExtend = true
		}
	} else {
		log.Info("tenant dashboard has no base; generating standalone", "dashboard", name, "model", tenantModel)
		output, err = renderStandalone(raw, tenantModel)
		if err != nil {
			return Result{}, err
		}
	}

	result := Result{
		DashboardName: name,
		IsExtend:      isExtend,
		Output:        output,
	}
	result.FilePath, result.Action = resolveTarget(dashboardsDir, name)
	if opts.DryRun {
		return result, nil
	}
	if err := writeDashboard(result.FilePath, output); err != nil {
		return Result{}, err
	}
	return result, nil
}

func renderExtends(tenantRaw, baseRaw, name, tenantName, baseDashboard, tenantModel string, log pslog.Logger) (string, error) {
	tenantDash, err := lookml.ParseDashboard(tenantRaw)
	if err != nil {
		return "", err
	}
	baseDash, err := lookml.ParseDashboard(baseRaw)
	if err != nil {
		return "", err
	}

	diffElements, err := lookml.DiffByName(tenantDash.Elements(), baseDash.Elements())
	if err != nil {
		return "", err
	}
	diffFilters, err := lookml.DiffByName(tenantDash.Filters(), baseDash.Filters())
	if err != nil {
		return "", err
	}
	log.Info("tenant diff computed",
		"elements_total", len(tenantDash.Elements()),
		"elements_base", len(baseDash.Elements()),
		"elements_diff", len(diffElements),
		"filters_diff", len(diffFilters))

	title := tenantDash.Title()
	if title == "" {
		title = baseDashboard + " - " + tenantName
	}
	output, err := lookml.RenderExtends(name, title, baseDashboard, diffElements, diffFilters)
	if err != nil {
		return "", err
	}
	return lookml.ReplaceModel(output, tenantModel), nil
}

func renderStandalone(raw, tenantModel string) (string, error) {
	dash, err := lookml.ParseDashboard(raw)
	if err != nil {
		return "", err
	}
	output, err := lookml.RenderStandalone(dash)
	if err != nil {
		return "", err
	}
	return lookml.ReplaceModel(output, tenantModel), nil
}

func readManifest(tenantDir string) (lookml.Manifest, bool) {
	data, err := os.ReadFile(filepath.Join(tenantDir, "manifest.lkml"))
	if err != nil {
		return lookml.Manifest{}, false
	}
	return lookml.ParseManifest(string(data)), true
}

func detectBaseDashboard(dashboardsDir, name string) string {
	existing := lookml.FindExistingFile(dashboardsDir, name)
	if existing == "" {
		return ""
	}
	content, err := os.ReadFile(existing)
	if err != nil {
		return ""
	}
	return lookml.DetectExtends(string(content))
}
