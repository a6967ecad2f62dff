package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ProviderSummary reports which provider packages were installed.
type ProviderSummary struct {
	Installed []string
	Failed    []string
}

// InstallProviders installs each package with installCmd + package, one at a
// time. A failed package is reported and skipped; the run never aborts early.
func InstallProviders(ctx context.Context, runner Runner, out io.Writer, installCmd, packages []string) (ProviderSummary, error) {
	if out == nil {
		out = os.Stdout
	}
	var summary ProviderSummary
	if len(installCmd) == 0 {
		return summary, fmt.Errorf("provider install command is empty")
	}

	fmt.Fprintln(out, "Installing provider servers...")
	for _, pkg := range packages {
		args := append(append([]string{}, installCmd[1:]...), pkg)
		err := runner.Run(ctx, Command{Name: installCmd[0], Args: args})
		if err != nil {
			fmt.Fprintf(out, "✗ Failed to install %s: %v\n", pkg, err)
			summary.Failed = append(summary.Failed, pkg)
			continue
		}
		fmt.Fprintf(out, "✓ Installed %s\n", pkg)
		summary.Installed = append(summary.Installed, pkg)
	}
	fmt.Fprintln(out, "Provider server installation completed.")
	return summary, nil
}
