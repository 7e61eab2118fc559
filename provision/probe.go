package provision

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// ErrDatabaseUnavailable is returned when every connection attempt failed
var ErrDatabaseUnavailable = errors.New("database unavailable")

const (
	DefaultMaxRetries  = 5
	DefaultWait        = 10 * time.Second
	DefaultInitialWait = 30 * time.Second
	// LogTailLines number of log lines printed after a failed attempt
	LogTailLines = 20
)

// Probe polls a freshly started database until it accepts connections and has
// the vector extension, with a bounded number of attempts at a fixed interval.
type Probe struct {
	url         string
	maxRetries  int
	wait        time.Duration
	initialWait time.Duration
	logFile     string
	connect     Connector
	runner      Runner
	timer       backoff.Timer
	out         io.Writer
	logger      logrus.FieldLogger
}

type ProbeOption func(*Probe)

// WithMaxRetries set the number of connection attempts
func WithMaxRetries(n int) ProbeOption {
	return func(p *Probe) {
		p.maxRetries = n
	}
}

// WithWait set the pause between two attempts
func WithWait(d time.Duration) ProbeOption {
	return func(p *Probe) {
		p.wait = d
	}
}

// WithInitialWait set the pause before the first attempt
func WithInitialWait(d time.Duration) ProbeOption {
	return func(p *Probe) {
		p.initialWait = d
	}
}

// WithLogFile set the container log printed after failures
func WithLogFile(f string) ProbeOption {
	return func(p *Probe) {
		p.logFile = f
	}
}

func WithConnector(c Connector) ProbeOption {
	return func(p *Probe) {
		p.connect = c
	}
}

// WithProbeRunner set the runner used to list postgres processes
func WithProbeRunner(r Runner) ProbeOption {
	return func(p *Probe) {
		p.runner = r
	}
}

// WithTimer set the timer used for every pause
func WithTimer(t backoff.Timer) ProbeOption {
	return func(p *Probe) {
		p.timer = t
	}
}

// WithOutput set where progress is printed
func WithOutput(w io.Writer) ProbeOption {
	return func(p *Probe) {
		p.out = w
	}
}

func WithProbeLogger(l logrus.FieldLogger) ProbeOption {
	return func(p *Probe) {
		p.logger = l
	}
}

// NewProbe returns a Probe for the database url
func NewProbe(url string, opts ...ProbeOption) *Probe {
	ret := &Probe{
		url:         url,
		maxRetries:  DefaultMaxRetries,
		wait:        DefaultWait,
		initialWait: DefaultInitialWait,
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.maxRetries <= 0 {
		ret.maxRetries = 1
	}
	if ret.connect == nil {
		ret.connect = PoolConnector
	}
	if ret.out == nil {
		ret.out = io.Discard
	}
	if ret.logger == nil {
		ret.logger = logrus.StandardLogger()
	}
	if ret.runner == nil {
		ret.runner = &ExecRunner{Logger: ret.logger}
	}
	if ret.timer == nil {
		ret.timer = new(realTimer)
	}
	return ret
}

func (p *Probe) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// sleep pauses on the probe timer, returning early when ctx is done
func (p *Probe) sleep(ctx context.Context, d time.Duration) error {
	p.timer.Start(d)
	defer p.timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.timer.C():
		return nil
	}
}

// Wait blocks until the database is usable. It makes at most maxRetries attempts,
// pausing wait between two attempts, and returns ErrDatabaseUnavailable when none
// succeeded. Each attempt selects the server version and creates the vector extension.
func (p *Probe) Wait(ctx context.Context) (DB, error) {
	if p.initialWait > 0 {
		p.printf("Waiting for database to initialize...\n")
		if err := p.sleep(ctx, p.initialWait); err != nil {
			return nil, err
		}
	}
	var (
		db      DB
		attempt int
	)
	operation := func() error {
		attempt++
		p.printf("\nConnection attempt %d/%d\n", attempt, p.maxRetries)
		ret, err := p.attempt(ctx)
		if err != nil {
			err = classify(err)
			logger := p.logger.WithError(err).WithField("attempt", attempt)
			var permanent *backoff.PermanentError
			if errors.As(err, &permanent) {
				logger.Error("database rejected connection")
				return err
			}
			logger.Warn("database not ready")
			if attempt < p.maxRetries {
				p.printf("Attempt %d failed, waiting %g seconds...\n", attempt, p.wait.Seconds())
			} else {
				p.printf("Attempt %d failed\n", attempt)
			}
			p.diagnose(ctx)
			return err
		}
		db = ret
		return nil
	}
	notify := func(err error, next time.Duration) {
		p.logger.WithField("attempt", attempt).Debugf("next attempt in %s", next)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(p.wait), uint64(p.maxRetries-1)), ctx)
	if err := backoff.RetryNotifyWithTimer(operation, b, notify, p.timer); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w after %d attempts: %w", ErrDatabaseUnavailable, attempt, err)
	}
	return db, nil
}

func (p *Probe) attempt(ctx context.Context) (DB, error) {
	db, err := p.connect(ctx, p.url)
	if err != nil {
		return nil, err
	}
	var version string
	if err := db.QueryRow(ctx, "SELECT version();").Scan(&version); err != nil {
		db.Close()
		return nil, err
	}
	p.printf("✅ Successfully connected to PostgreSQL!\n")
	p.printf("Server Version: %s\n", version)
	if _, err := db.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector;"); err != nil {
		db.Close()
		return nil, err
	}
	p.printf("✅ Vector extension ready!\n")
	return db, nil
}

// diagnose prints the running postgres processes and the end of the container log
func (p *Probe) diagnose(ctx context.Context) {
	p.printf("\nChecking postgres status:\n")
	if out, err := p.runner.Output(ctx, "ps", "aux"); err != nil {
		p.printf("ps failed: %v\n", err)
	} else {
		for _, line := range FilterLines(out, "postgres") {
			p.printf("%s\n", line)
		}
	}
	if p.logFile == "" {
		return
	}
	p.printf("\nLatest logs:\n")
	lines, err := TailFile(p.logFile, LogTailLines)
	if err != nil {
		p.printf("%v\n", err)
		return
	}
	for _, line := range lines {
		p.printf("%s\n", line)
	}
}

// FilterLines returns the lines containing substr
func FilterLines(out []byte, substr string) []string {
	var ret []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := scanner.Text(); strings.Contains(line, substr) {
			ret = append(ret, line)
		}
	}
	return ret
}

// TailFile returns the last n lines of a file
func TailFile(name string, n int) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ret := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ret) == n {
			ret = append(ret[:0], ret[1:]...)
		}
		ret = append(ret, scanner.Text())
	}
	return ret, scanner.Err()
}

type realTimer struct {
	timer *time.Timer
}

func (t *realTimer) Start(d time.Duration) {
	if t.timer == nil {
		t.timer = time.NewTimer(d)
		return
	}
	t.timer.Reset(d)
}

func (t *realTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *realTimer) C() <-chan time.Time {
	return t.timer.C
}
