package pipeline

import (
	"fmt"
	"os"
)

// AppendGitHubOutputs appends the import result to the file named by
// GITHUB_OUTPUT so workflow steps can consume it. A no-op outside GitHub
// Actions. includeExtend adds the is_extend output of the tenant pipeline.
func AppendGitHubOutputs(result Result, includeExtend bool) error {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open GITHUB_OUTPUT: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "dashboard_name=%s\nfile_path=%s\naction=%s\n",
		result.DashboardName, result.FilePath, result.Action); err != nil {
		return fmt.Errorf("write GITHUB_OUTPUT: %w", err)
	}
	if includeExtend {
		if _, err := fmt.Fprintf(f, "is_extend=%t\n", result.IsExtend); err != nil {
			return fmt.Errorf("write GITHUB_OUTPUT: %w", err)
		}
	}
	return nil
}
