package provision

import (
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// Runner runs external commands
type Runner interface {
	// Output runs a command to completion and returns its combined output
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// Start launches a command in the background, stdout and stderr go to w
	Start(ctx context.Context, w io.Writer, name string, args ...string) error
}

// ExecRunner runs commands on the host
type ExecRunner struct {
	Logger logrus.FieldLogger
}

var _ Runner = (*ExecRunner)(nil)

func (r *ExecRunner) logger() logrus.FieldLogger {
	if r.Logger == nil {
		return logrus.StandardLogger()
	}
	return r.Logger
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.logger().WithField("cmd", commandLine(name, args)).Debug("run")
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Start does not bind the command to ctx, the process keeps running after the caller returns.
func (r *ExecRunner) Start(ctx context.Context, w io.Writer, name string, args ...string) error {
	r.logger().WithField("cmd", commandLine(name, args)).Debug("start")
	cmd := exec.Command(name, args...)
	cmd.Stdout = w
	cmd.Stderr = w
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			r.logger().WithError(err).WithField("cmd", name).Warn("background command exited")
		}
	}()
	return nil
}

func commandLine(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}
