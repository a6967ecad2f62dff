package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"travelplanner/internal/launcher"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "install-providers",
	Short: "Install the booking/travel provider tool servers",
	Long: `Install each configured provider tool server package globally
(npm install -g by default). A package that fails to install is reported
and skipped; the command always finishes the list.`,
	Args: cobra.NoArgs,
	RunE: runInstallProviders,
}

func runInstallProviders(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err := launcher.InstallProviders(ctx,
		launcher.NewExecRunner(),
		cmd.OutOrStdout(),
		cfg.Launcher.ProviderInstall,
		cfg.Launcher.ProviderPackages,
	)
	return err
}
