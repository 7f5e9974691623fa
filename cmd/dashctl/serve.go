package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lookmlops/dashctl/hubserver"
	"github.com/lookmlops/dashctl/internal/appconfig"
	"github.com/lookmlops/dashctl/internal/github"
	"pkt.systems/pslog"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the action hub server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Hub.Addr = addr
			}
			if cfg.Hub.GitHub.Owner == "" || cfg.Hub.GitHub.Repo == "" {
				return fmt.Errorf("hub.github.owner and hub.github.repo are required")
			}
			if cfg.Hub.GitHub.Token == "" {
				return fmt.Errorf("hub.github.token is required")
			}

			logger := pslog.Ctx(ctx)
			srv := hubserver.New(hubserver.Config{
				Addr:         cfg.Hub.Addr,
				Secret:       cfg.Action.Secret,
				Owner:        cfg.Hub.GitHub.Owner,
				Repo:         cfg.Hub.GitHub.Repo,
				WorkflowFile: cfg.Hub.GitHub.WorkflowFile,
				Ref:          cfg.Hub.GitHub.Ref,
			}, github.New(cfg.Hub.GitHub.Token))

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()
			logger.Info("action hub listening", "addr", cfg.Hub.Addr, "repo", cfg.Hub.GitHub.Owner+"/"+cfg.Hub.GitHub.Repo)

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down action hub")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
