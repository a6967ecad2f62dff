// Package launcher installs the application's declared dependencies and then
// hands the terminal over to the server process. The two steps run strictly
// in order on the calling goroutine; the server is never started when the
// install step fails, and the launcher's exit status mirrors whichever
// sub-process decided the outcome.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	StepInstall = "install"
	StepServer  = "server"
)

// Placeholders expanded in configured command arguments.
const (
	placeholderManifest = "{manifest}"
	placeholderAddress  = "{address}"
	placeholderPort     = "{port}"
)

// Command is one sub-process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner starts a command and blocks until it exits. A non-zero exit is
// reported as *ExitError.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// Config describes the two steps. InstallCommand may reference {manifest};
// ServerCommand may reference {address} and {port}. When ServerCommand has
// neither placeholder, --address and --port flags are appended.
type Config struct {
	AppName        string
	Dir            string
	Manifest       string
	InstallCommand []string
	ServerCommand  []string
	Address        string
	Port           int
}

type Launcher struct {
	cfg    Config
	runner Runner
	out    io.Writer
}

// New builds a Launcher. Progress lines go to out (stdout when nil).
func New(cfg Config, runner Runner, out io.Writer) *Launcher {
	if out == nil {
		out = os.Stdout
	}
	if cfg.AppName == "" {
		cfg.AppName = "Advanced AI Travel Planner"
	}
	return &Launcher{cfg: cfg, runner: runner, out: out}
}

// Start runs install then server. It returns nil only when the server
// process exits cleanly.
func (l *Launcher) Start(ctx context.Context) error {
	fmt.Fprintf(l.out, "Starting %s...\n", l.cfg.AppName)

	manifest, err := l.resolveManifest()
	if err != nil {
		return err
	}

	install, err := l.installCommand(manifest)
	if err != nil {
		return err
	}
	fmt.Fprintf(l.out, "Installing requirements: %s\n", manifest)
	if err := l.run(ctx, StepInstall, install); err != nil {
		return err
	}

	server, err := l.serverCommand()
	if err != nil {
		return err
	}
	fmt.Fprintf(l.out, "Starting %s application...\n", l.cfg.AppName)
	return l.run(ctx, StepServer, server)
}

func (l *Launcher) resolveManifest() (string, error) {
	name := strings.TrimSpace(l.cfg.Manifest)
	if name == "" {
		return "", &ManifestError{Err: errors.New("no dependency manifest configured")}
	}
	path := name
	if !filepath.IsAbs(path) && l.cfg.Dir != "" {
		path = filepath.Join(l.cfg.Dir, name)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", &ManifestError{Path: path, Err: err}
	}
	if info.IsDir() {
		return "", &ManifestError{Path: path, Err: errors.New("is a directory")}
	}
	return path, nil
}

func (l *Launcher) installCommand(manifest string) (Command, error) {
	if len(l.cfg.InstallCommand) == 0 {
		return Command{}, errors.New("install command is empty")
	}
	r := strings.NewReplacer(placeholderManifest, manifest)
	args := make([]string, 0, len(l.cfg.InstallCommand)-1)
	for _, a := range l.cfg.InstallCommand[1:] {
		args = append(args, r.Replace(a))
	}
	return Command{Name: l.cfg.InstallCommand[0], Args: args, Dir: l.cfg.Dir}, nil
}

func (l *Launcher) serverCommand() (Command, error) {
	if len(l.cfg.ServerCommand) == 0 {
		return Command{}, errors.New("server command is empty")
	}
	if l.cfg.Port <= 0 || l.cfg.Port > 65535 {
		return Command{}, fmt.Errorf("invalid port %d", l.cfg.Port)
	}
	address := l.cfg.Address
	if address == "" {
		address = "0.0.0.0"
	}
	port := strconv.Itoa(l.cfg.Port)

	r := strings.NewReplacer(placeholderAddress, address, placeholderPort, port)
	templated := false
	args := make([]string, 0, len(l.cfg.ServerCommand)+3)
	for _, a := range l.cfg.ServerCommand[1:] {
		if strings.Contains(a, placeholderAddress) || strings.Contains(a, placeholderPort) {
			templated = true
		}
		args = append(args, r.Replace(a))
	}
	if !templated {
		args = append(args, "--address", address, "--port", port)
	}
	return Command{Name: l.cfg.ServerCommand[0], Args: args, Dir: l.cfg.Dir}, nil
}

func (l *Launcher) run(ctx context.Context, step string, cmd Command) error {
	err := l.runner.Run(ctx, cmd)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return &StepError{Step: step, Code: exitErr.Code, Err: err}
	}
	if errors.Is(err, ErrNotFound) {
		return &StepError{Step: step, Code: ExitNotFound, Err: err}
	}
	return &StepError{Step: step, Code: 1, Err: err}
}
