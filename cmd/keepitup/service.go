// Service command for the keepitup CLI.
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

const serviceName = "keepitup"

// program runs the daemon under the service manager.
type program struct {
	st     *state
	cancel context.CancelFunc
	done   chan error
}

func (p *program) Start(s service.Service) error {
	// Start must not block.
	ctx, cancel := context.WithCancel(context.Background())
	d, err := p.st.startDaemon(ctx)
	if err != nil {
		cancel()
		return err
	}
	p.cancel = cancel
	p.done = make(chan error, 1)
	go func() {
		defer d.close()
		p.done <- d.serve(ctx)
	}()
	return nil
}

func (p *program) Stop(s service.Service) error {
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	return <-p.done
}

func newServiceCmd(st *state) *cobra.Command {
	var op struct {
		install, uninstall, start, stop, status bool
	}
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage keepitup as a system service",
		Long: `Install, uninstall, start, stop, or check the status of the keepitup
scheduler as a system service (systemd, launchd or Windows service).

Without flags the command runs the scheduler under the service manager.`,
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			n := 0
			for _, set := range []bool{op.install, op.uninstall, op.start, op.stop, op.status} {
				if set {
					n++
				}
			}
			if n > 1 {
				return fmt.Errorf("%w: give only one of --install, --uninstall, --start, --stop, --status", errUsage)
			}

			dataDir, err := st.resolveDataDir()
			if err != nil {
				return err
			}
			cfg := &service.Config{
				Name:        serviceName,
				DisplayName: "KeepItUp network monitor",
				Description: "Probes network hosts on a schedule and logs the results.",
				Arguments:   []string{"service", "--config-dir", st.configDir, "--data-dir", dataDir},
			}
			s, err := service.New(&program{st: st}, cfg)
			if err != nil {
				return fmt.Errorf("create service: %w", err)
			}

			switch {
			case op.install:
				if err := s.Install(); err != nil {
					return fmt.Errorf("install service: %w", err)
				}
				st.printf("Service %s installed. Start it with: keepitup service --start\n", serviceName)
			case op.uninstall:
				_ = s.Stop()
				if err := s.Uninstall(); err != nil {
					return fmt.Errorf("uninstall service: %w", err)
				}
				st.printf("Service %s uninstalled\n", serviceName)
			case op.start:
				if err := s.Start(); err != nil {
					return fmt.Errorf("start service: %w", err)
				}
				st.printf("Service %s started\n", serviceName)
			case op.stop:
				if err := s.Stop(); err != nil {
					return fmt.Errorf("stop service: %w", err)
				}
				st.printf("Service %s stopped\n", serviceName)
			case op.status:
				status, err := s.Status()
				label := serviceStatusLabel(status, err)
				if st.flagJSON {
					return st.printJSON(map[string]string{"service": serviceName, "status": label})
				}
				st.printf("Service %s is %s\n", serviceName, label)
			default:
				if service.Interactive() {
					return fmt.Errorf("%w: give one of --install, --uninstall, --start, --stop, --status", errUsage)
				}
				return s.Run()
			}
			return nil
		}),
	}
	f := cmd.Flags()
	f.BoolVar(&op.install, "install", false, "install the service")
	f.BoolVar(&op.uninstall, "uninstall", false, "uninstall the service")
	f.BoolVar(&op.start, "start", false, "start the installed service")
	f.BoolVar(&op.stop, "stop", false, "stop the service")
	f.BoolVar(&op.status, "status", false, "print the service status")
	return cmd
}

func serviceStatusLabel(status service.Status, err error) string {
	switch {
	case errors.Is(err, service.ErrNotInstalled):
		return "not installed"
	case err != nil:
		return "unknown (" + err.Error() + ")"
	case status == service.StatusRunning:
		return "running"
	case status == service.StatusStopped:
		return "stopped"
	}
	return "unknown"
}
