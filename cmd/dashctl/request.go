package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lookmlops/dashctl/internal/appconfig"
	"github.com/lookmlops/dashctl/requester"
)

func newRequestCmd() *cobra.Command {
	var cfgPath string
	var endpoint string
	var dashboardID string
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Request a dashboard update through the action hub",
		Long: `Request submits a dashboard ID to the deployed action hub, which in
turn dispatches the update workflow. With --dashboard-id it submits once
and exits; without it, it reads dashboard IDs interactively from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if endpoint == "" {
				cfg, err := appconfig.Load(cfgPath)
				if err != nil {
					return err
				}
				endpoint = cfg.Action.Endpoint
			}
			session := requester.NewSession(endpoint)
			if dashboardID != "" {
				return submitOnce(cmd, session, dashboardID)
			}
			return runInteractive(cmd, session)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "action hub endpoint (overrides config)")
	cmd.Flags().StringVar(&dashboardID, "dashboard-id", "", "submit this dashboard ID once and exit")
	return cmd
}

func submitOnce(cmd *cobra.Command, session *requester.Session, dashboardID string) error {
	notice := session.Submit(cmd.Context(), dashboardID)
	printNotice(cmd.OutOrStdout(), notice)
	if notice.Kind != requester.KindSuccess {
		return fmt.Errorf("update request failed: %s", notice.Message)
	}
	return nil
}

func runInteractive(cmd *cobra.Command, session *requester.Session) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "Dashboard ID> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "q" || line == "quit" || line == "exit" {
			return nil
		}
		printNotice(out, session.Submit(cmd.Context(), line))
	}
}

func printNotice(w io.Writer, notice requester.Notice) {
	switch notice.Kind {
	case requester.KindSuccess:
		fmt.Fprintf(w, "✅ %s\n", notice.Message)
	default:
		fmt.Fprintf(w, "❌ %s\n", notice.Message)
	}
}
