package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lookmlops/dashctl/internal/appconfig"
	"github.com/lookmlops/dashctl/internal/github"
	"github.com/lookmlops/dashctl/internal/looker"
	"github.com/lookmlops/dashctl/internal/pipeline"
	"pkt.systems/pslog"
)

func newImportCmd() *cobra.Command {
	var cfgPath string
	var dashboardID string
	var outputDir string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a dashboard's LookML into the base project",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			src, err := lookerClient(cfg)
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = cfg.Project.DashboardsDir
			}
			result, err := pipeline.ImportBase(cmd.Context(), src, pipeline.BaseOptions{
				DashboardID:   dashboardID,
				DashboardsDir: outputDir,
				DryRun:        dryRun,
			})
			if err != nil {
				return err
			}
			return reportImport(cmd, result, false, dryRun)
		},
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.PersistentFlags().StringVar(&dashboardID, "dashboard-id", "", "Looker dashboard ID to import")
	cmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "render without writing files")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "dashboards directory (overrides config)")
	_ = cmd.MarkPersistentFlagRequired("dashboard-id")

	cmd.AddCommand(newImportTenantCmd(&cfgPath, &dashboardID, &dryRun))
	return cmd
}

func newImportTenantCmd(cfgPath, dashboardID *string, dryRun *bool) *cobra.Command {
	var tenantName string
	var tenantDir string
	var baseDashboard string
	var baseOwner string
	var baseRepo string
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Import a dashboard into a tenant project",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(*cfgPath)
			if err != nil {
				return err
			}
			src, err := lookerClient(cfg)
			if err != nil {
				return err
			}
			if baseOwner == "" {
				baseOwner = cfg.Hub.GitHub.Owner
			}
			if baseRepo == "" {
				baseRepo = cfg.Hub.GitHub.Repo
			}
			result, err := pipeline.ImportTenant(cmd.Context(), src, github.New(cfg.Hub.GitHub.Token), pipeline.TenantOptions{
				DashboardID:   *dashboardID,
				TenantName:    tenantName,
				TenantDir:     tenantDir,
				BaseDashboard: baseDashboard,
				BaseOwner:     baseOwner,
				BaseRepo:      baseRepo,
				DryRun:        *dryRun,
			})
			if err != nil {
				return err
			}
			return reportImport(cmd, result, true, *dryRun)
		},
	}
	cmd.Flags().StringVar(&tenantName, "tenant-name", "", "tenant project name")
	cmd.Flags().StringVar(&tenantDir, "tenant-dir", "", "tenant project directory")
	cmd.Flags().StringVar(&baseDashboard, "base-dashboard", "", "base dashboard to extend (overrides detection)")
	cmd.Flags().StringVar(&baseOwner, "base-repo-owner", "", "base project repository owner")
	cmd.Flags().StringVar(&baseRepo, "base-repo-name", "", "base project repository name")
	_ = cmd.MarkFlagRequired("tenant-name")
	_ = cmd.MarkFlagRequired("tenant-dir")
	return cmd
}

func lookerClient(cfg appconfig.Config) (*looker.Client, error) {
	return looker.New(looker.Credentials{
		BaseURL:      cfg.Looker.BaseURL,
		ClientID:     cfg.Looker.ClientID,
		ClientSecret: cfg.Looker.ClientSecret,
	})
}

func reportImport(cmd *cobra.Command, result pipeline.Result, includeExtend, dryRun bool) error {
	logger := pslog.Ctx(cmd.Context()).With("dashboard", result.DashboardName, "action", result.Action)
	if dryRun {
		logger.Info("dry run, nothing written", "path", result.FilePath)
		fmt.Fprint(cmd.OutOrStdout(), result.Output)
		return nil
	}
	logger.Info("dashboard written", "path", result.FilePath, "extend", result.IsExtend)
	return pipeline.AppendGitHubOutputs(result, includeExtend)
}
