package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kardianos/service"
)

// ServiceName is the name the background watcher is installed under
const ServiceName = "codextop-watch"

// Actions are the service control commands accepted by Control
var Actions = []string{"install", "start", "stop", "uninstall", "status"}

// Program runs a watch loop under the service manager
type Program struct {
	run    func(ctx context.Context) error
	cancel context.CancelFunc
	done   chan struct{}
	logger service.Logger
}

// NewProgram wraps run, which must return once its context is cancelled
func NewProgram(run func(ctx context.Context) error) *Program {
	return &Program{run: run}
}

// SetLogger routes run errors to the service manager's log
func (p *Program) SetLogger(logger service.Logger) {
	p.logger = logger
}

func (p *Program) Start(s service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		if err := p.run(ctx); err != nil {
			slog.Error("watch stopped", "error", err)
			if p.logger != nil {
				p.logger.Error(err)
			}
		}
	}()
	return nil
}

func (p *Program) Stop(s service.Service) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	<-p.done
	return nil
}

// ServiceConfig describes the background watcher. args are passed to the
// executable when the service manager starts it.
func ServiceConfig(args []string) *service.Config {
	return &service.Config{
		Name:        ServiceName,
		DisplayName: "codextop watcher",
		Description: "Regenerates the Codex token usage report when session logs change",
		Arguments:   args,
		Option:      service.KeyValue{"UserService": true},
	}
}

// Control runs one of Actions against s and prints the outcome to w
func Control(s service.Service, action string, w io.Writer) error {
	switch action {
	case "install":
		if err := s.Install(); err != nil {
			return fmt.Errorf("failed to install service: %w", err)
		}
		if err := s.Start(); err != nil {
			return fmt.Errorf("service installed but failed to start: %w", err)
		}
		fmt.Fprintln(w, "Service installed and started.")

	case "start":
		if err := s.Start(); err != nil {
			return fmt.Errorf("failed to start service: %w", err)
		}
		fmt.Fprintln(w, "Service started.")

	case "stop":
		if err := s.Stop(); err != nil {
			return fmt.Errorf("failed to stop service: %w", err)
		}
		fmt.Fprintln(w, "Service stopped.")

	case "uninstall":
		_ = s.Stop()
		if err := s.Uninstall(); err != nil {
			return fmt.Errorf("failed to uninstall service: %w", err)
		}
		fmt.Fprintln(w, "Service uninstalled.")

	case "status":
		status, err := s.Status()
		if err != nil {
			if errors.Is(err, service.ErrNotInstalled) {
				fmt.Fprintln(w, "Service status: not installed")
				return nil
			}
			return fmt.Errorf("failed to query service: %w", err)
		}
		fmt.Fprintf(w, "Service status: %s\n", statusText(status))

	default:
		return fmt.Errorf("unknown service action %q", action)
	}
	return nil
}

func statusText(status service.Status) string {
	switch status {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
