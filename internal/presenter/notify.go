package presenter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/raysh454/phishguard/internal/logging"
)

// ErrNoBackend is returned when no desktop notification backend is available.
var ErrNoBackend = errors.New("no notification backend available")

// Notifier raises a user-visible alert.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// ciEnvVars indicate a CI environment where popping alerts makes no sense.
var ciEnvVars = []string{
	"CI",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"BUILDKITE",
	"JENKINS_URL",
}

// DesktopNotifier shows alerts through notify-send (Linux) or osascript (macOS).
type DesktopNotifier struct {
	AppName string
}

// CanShow reports whether a desktop alert can be displayed here.
func (d DesktopNotifier) CanShow() bool {
	for _, env := range ciEnvVars {
		if os.Getenv(env) != "" {
			return false
		}
	}
	switch runtime.GOOS {
	case "linux":
		if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
			return false
		}
		_, err := exec.LookPath("notify-send")
		return err == nil
	case "darwin":
		_, err := exec.LookPath("osascript")
		return err == nil
	default:
		return false
	}
}

func (d DesktopNotifier) Notify(ctx context.Context, title, message string) error {
	if !d.CanShow() {
		return ErrNoBackend
	}
	app := d.AppName
	if app == "" {
		app = "PhishGuard"
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", message, title)
		cmd = exec.CommandContext(ctx, "osascript", "-e", script)
	default:
		cmd = exec.CommandContext(ctx, "notify-send", "--urgency=critical", "--app-name="+app, title, message)
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify: %w (%s)", err, out)
	}
	return nil
}

// LogNotifier writes alerts to a logger; used when no desktop is available.
type LogNotifier struct {
	Logger logging.Logger
}

func (n LogNotifier) Notify(_ context.Context, title, message string) error {
	if n.Logger == nil {
		return nil
	}
	n.Logger.Warn(title, logging.Field{Key: "message", Value: message})
	return nil
}

// MultiNotifier fans an alert out to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, title, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
