package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/bububa/finagents/config"
)

const (
	// ContainerDataDir is where the image keeps its cluster
	ContainerDataDir = "/var/lib/postgresql/data"
	ContainerPort    = 5432
)

// Provisioner creates and starts the pgvector container
type Provisioner struct {
	cfg    config.ContainerConfig
	runner Runner
	logger logrus.FieldLogger
}

type ProvisionerOption func(*Provisioner)

func WithRunner(r Runner) ProvisionerOption {
	return func(p *Provisioner) {
		p.runner = r
	}
}

func WithProvisionerLogger(l logrus.FieldLogger) ProvisionerOption {
	return func(p *Provisioner) {
		p.logger = l
	}
}

// NewProvisioner returns a Provisioner for the container settings
func NewProvisioner(cfg config.ContainerConfig, opts ...ProvisionerOption) *Provisioner {
	ret := &Provisioner{cfg: cfg}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.cfg.Binary == "" {
		ret.cfg.Binary = "docker"
	}
	if ret.logger == nil {
		ret.logger = logrus.StandardLogger()
	}
	if ret.runner == nil {
		ret.runner = &ExecRunner{Logger: ret.logger}
	}
	return ret
}

// Command is a container cli invocation
type Command []string

func (c Command) String() string {
	return commandLine(c[0], c[1:])
}

func (p *Provisioner) cmd(args ...string) Command {
	return append(Command{p.cfg.Binary}, args...)
}

// RemoveCommand removes a previous container with the same name
func (p *Provisioner) RemoveCommand() Command {
	return p.cmd("rm", "-f", p.cfg.Name)
}

func (p *Provisioner) PullCommand() Command {
	return p.cmd("pull", p.cfg.Image)
}

// CreateCommand creates the container with credentials, data volume and port mapping
func (p *Provisioner) CreateCommand() (Command, error) {
	dataDir, err := filepath.Abs(p.cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return p.cmd(
		"create",
		"--name="+p.cfg.Name,
		"--env=POSTGRES_DB="+p.cfg.DB,
		"--env=POSTGRES_USER="+p.cfg.User,
		"--env=POSTGRES_PASSWORD="+p.cfg.Password,
		"--env=PGDATA="+ContainerDataDir+"/pgdata",
		fmt.Sprintf("--volume=%s:%s", dataDir, ContainerDataDir),
		fmt.Sprintf("--publish=%s:%d", strconv.Itoa(p.cfg.Port), ContainerPort),
		p.cfg.Image,
	), nil
}

// StartCommand runs the container attached so its output can be logged
func (p *Provisioner) StartCommand() Command {
	return p.cmd("start", "--attach", p.cfg.Name)
}

// Plan returns the commands Up runs, in order
func (p *Provisioner) Plan() ([]Command, error) {
	var ret []Command
	if p.cfg.Clean {
		ret = append(ret, p.RemoveCommand())
	}
	create, err := p.CreateCommand()
	if err != nil {
		return nil, err
	}
	return append(ret, p.PullCommand(), create, p.StartCommand()), nil
}

func (p *Provisioner) run(ctx context.Context, c Command) error {
	p.logger.WithField("cmd", c.String()).Info("running")
	out, err := p.runner.Output(ctx, c[0], c[1:]...)
	if err != nil {
		return fmt.Errorf("%s: %w: %s", c, err, out)
	}
	return nil
}

// Up prepares the data directory, pulls and creates the container, then starts it
// in the background with its output written to the log file. It does not wait for
// the database; use a Probe for that.
func (p *Provisioner) Up(ctx context.Context) error {
	if err := os.MkdirAll(p.cfg.DataDir, 0o777); err != nil {
		return err
	}
	if err := os.Chmod(p.cfg.DataDir, 0o777); err != nil {
		return err
	}
	if p.cfg.Clean {
		if err := p.run(ctx, p.RemoveCommand()); err != nil {
			p.logger.WithError(err).Warn("remove previous container")
		}
		if err := os.Remove(p.cfg.LogFile); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if err := p.run(ctx, p.PullCommand()); err != nil {
		return err
	}
	create, err := p.CreateCommand()
	if err != nil {
		return err
	}
	if err := p.run(ctx, create); err != nil {
		return err
	}
	logFile, err := os.OpenFile(p.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer logFile.Close()
	start := p.StartCommand()
	p.logger.WithFields(logrus.Fields{"cmd": start.String(), "log": p.cfg.LogFile}).Info("starting")
	if err := p.runner.Start(ctx, logFile, start[0], start[1:]...); err != nil {
		return fmt.Errorf("%s: %w", start, err)
	}
	return nil
}

// Down removes the container
func (p *Provisioner) Down(ctx context.Context) error {
	return p.run(ctx, p.RemoveCommand())
}
