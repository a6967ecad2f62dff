package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"travelplanner/internal/config"
	"travelplanner/internal/launcher"
	"travelplanner/internal/utils"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	address  string
	port     int

	// cfg is populated by PersistentPreRunE and shared with all subcommands.
	cfg *config.Config

	// exitCode is what Execute hands to os.Exit.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "launcher",
	Short: "Install dependencies and start the AI Travel Planner server",
	Long: `Launcher resolves the dependency manifest in the working directory,
runs the package installer against it, and then starts the planner server.
The server is never started when installation fails. The launcher exits
with the status of the failing step, or with the server's own status.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runStart,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Install dependencies, then run the server (default)",
	Args:  cobra.NoArgs,
	RunE:  runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&address, "address", "", "server bind address (default 0.0.0.0)")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "server port (default 8502)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// Flags take precedence over file and environment.
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("address") {
			cfg.Launcher.Address = address
		}
		if cmd.Flags().Changed("port") {
			cfg.Launcher.Port = port
		}

		// Structured logs go to stderr; stdout carries the progress lines.
		utils.InitLoggerTo(os.Stderr, cfg.Log.Level)
		return nil
	}

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(providersCmd)
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if exitCode == 0 {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func runStart(cmd *cobra.Command, args []string) error {
	// Signals are forwarded to the running child instead of killing the
	// launcher, so the child's exit status can still be reported.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	l := launcher.New(launcher.Config{
		AppName:        cfg.Launcher.AppName,
		Dir:            dir,
		Manifest:       cfg.Launcher.Manifest,
		InstallCommand: cfg.Launcher.InstallCommand,
		ServerCommand:  cfg.Launcher.ServerCommand,
		Address:        cfg.Launcher.Address,
		Port:           cfg.Launcher.Port,
	}, launcher.NewExecRunner(), cmd.OutOrStdout())

	err = l.Start(ctx)
	exitCode = launcher.ExitCode(err)
	return err
}
