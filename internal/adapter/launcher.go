package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"runtime"
)

// ErrNoLink is returned when there is nothing to open.
var ErrNoLink = errors.New("no link to open")

// Launcher opens trailer and movie-page links in a browser
type Launcher struct {
	command string   // configured browser command, empty for system default
	args    []string // additional arguments placed before the URL
	logger  *slog.Logger

	// start runs the resolved command; replaced in tests
	start func(name string, args ...string) error
}

// NewLauncher creates a Launcher. An empty command selects the system default handler.
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command: command,
		args:    args,
		logger:  logger,
		start:   startDetached,
	}
}

// Open launches link in the configured browser or the system default
func (l *Launcher) Open(link string) error {
	if link == "" {
		return ErrNoLink
	}
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("refusing to open %q: not an http(s) link", link)
	}

	name, args := l.commandFor(link)
	l.logger.Info("opening link", "command", name, "args", args)

	if err := l.start(name, args...); err != nil {
		l.logger.Error("failed to open link", "error", err, "command", name)
		return fmt.Errorf("failed to open link: %w", err)
	}
	return nil
}

// commandFor resolves the command line used to open link
func (l *Launcher) commandFor(link string) (string, []string) {
	if l.command != "" {
		args := append(append([]string{}, l.args...), link)
		return l.command, args
	}

	switch runtime.GOOS {
	case "darwin":
		return "open", []string{link}
	case "windows":
		return "cmd", []string{"/c", "start", "", link}
	default:
		// Linux and other Unix-like systems
		return "xdg-open", []string{link}
	}
}

func startDetached(name string, args ...string) error {
	if _, err := exec.LookPath(name); err != nil {
		return err
	}
	return exec.Command(name, args...).Start() // Start async, don't wait
}
