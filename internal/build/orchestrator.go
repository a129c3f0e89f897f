// Package build drives the external build tool and hands back the path of
// the structured log it produced.
package build

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"buildcap/internal/cmdline"
	"buildcap/internal/errors"
	"buildcap/internal/logger"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options configures an Orchestrator.
type Options struct {
	// Command is the driver executable, "dotnet" when empty.
	Command string
	// Args go between the executable and the msbuild switches, ["msbuild"]
	// when nil.
	Args []string
	// LogDir holds temporary structured logs; the system temp dir when empty.
	LogDir string
	// Timeout bounds one build. Zero means no deadline beyond the context.
	Timeout time.Duration
	Logger  *zap.SugaredLogger
}

// Orchestrator spawns full rebuilds with a structured log sink.
type Orchestrator struct {
	command string
	args    []string
	logDir  string
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewOrchestrator creates an orchestrator from opts.
func NewOrchestrator(opts Options) *Orchestrator {
	o := &Orchestrator{
		command: opts.Command,
		args:    opts.Args,
		logDir:  opts.LogDir,
		timeout: opts.Timeout,
		log:     logger.Component(opts.Logger, "build"),
	}
	if o.command == "" {
		o.command = "dotnet"
	}
	if o.args == nil {
		o.args = []string{"msbuild"}
	}
	return o
}

// MergeProperties returns {Configuration, Platform} overridden by extra.
func MergeProperties(configuration, platform string, extra map[string]string) map[string]string {
	merged := map[string]string{
		"Configuration": configuration,
		"Platform":      platform,
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// RunBuild rebuilds path and returns the structured log file. The caller
// owns the returned file and must delete it. On any failure the log file
// has already been removed.
func (o *Orchestrator) RunBuild(ctx context.Context, path, configuration, platform string, extra map[string]string) (string, error) {
	if err := checkPath(path); err != nil {
		return "", err
	}
	// The driver runs from the project directory, so a relative path would
	// resolve twice.
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	logPath, err := o.allocateLog()
	if err != nil {
		return "", &LaunchFailure{Path: path, Cause: err}
	}

	if err := o.run(ctx, path, logPath, MergeProperties(configuration, platform, extra)); err != nil {
		if rmErr := os.Remove(logPath); rmErr != nil && !os.IsNotExist(rmErr) {
			o.log.Warnw("failed to remove build log", logger.FieldPath, logPath, logger.FieldError, rmErr)
		}
		return "", err
	}
	return logPath, nil
}

func checkPath(path string) error {
	if path == "" {
		return errors.WithHint(errors.Wrap(ErrInvalidPath, "path is empty"), "pass a .sln or project file")
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(ErrInvalidPath, "invalid file path argument `%s`: the file path does not exist", path)
	}
	if info.IsDir() {
		return errors.Wrapf(ErrInvalidPath, "invalid file path argument `%s`: it is a directory", path)
	}
	return nil
}

func (o *Orchestrator) allocateLog() (string, error) {
	f, err := os.CreateTemp(o.logDir, "buildcap-*.binlog")
	if err != nil {
		return "", errors.Wrap(err, "failed to allocate build log")
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

// CommandArgs returns the argument vector passed to the driver, without the
// executable itself. Properties are emitted in key order.
func (o *Orchestrator) CommandArgs(path, logPath string, properties map[string]string) []string {
	args := append([]string{}, o.args...)
	args = append(args,
		"/t:rebuild",
		"/binaryLogger:"+cmdline.EscapeValue(logPath),
		"/verbosity:minimal",
		"/nologo",
		"/nodeReuse:false",
		path,
	)

	keys := make([]string, 0, len(properties))
	for k := range properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "/p:"+k+"="+cmdline.EscapeValue(properties[k]))
	}
	return args
}

func (o *Orchestrator) run(ctx context.Context, path, logPath string, properties map[string]string) error {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	args := o.CommandArgs(path, logPath, properties)
	cmd := exec.CommandContext(ctx, o.command, args...)
	cmd.Dir = filepath.Dir(path)
	cmd.Env = append(os.Environ(), "MSBUILDDISABLENODEREUSE=1", "DOTNET_CLI_TELEMETRY_OPTOUT=1")
	isolate(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &LaunchFailure{Path: path, Cause: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &LaunchFailure{Path: path, Cause: err}
	}

	o.log.Infow("starting build",
		logger.FieldPath, path,
		logger.FieldCommand, shellquote.Join(append([]string{o.command}, args...)...),
	)
	start := time.Now()

	if err := cmd.Start(); err != nil {
		return errors.WithStack(&LaunchFailure{Path: path, Cause: err})
	}

	out := &lineBuffer{log: o.log}
	var g errgroup.Group
	g.Go(func() error { return out.drain(stdout, "stdout") })
	g.Go(func() error { return out.drain(stderr, "stderr") })

	// Both pipes must be fully read before Wait closes them.
	readErr := g.Wait()
	waitErr := cmd.Wait()

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	o.log.Infow("build finished",
		logger.FieldPath, path,
		logger.FieldExitCode, exitCode,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.WithStack(&BuildFailure{Path: path, ExitCode: exitCode, Output: out.String(), Cause: ctxErr})
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return errors.WithStack(&BuildFailure{Path: path, ExitCode: exitErr.ExitCode(), Output: out.String()})
		}
		return errors.WithStack(&BuildFailure{Path: path, ExitCode: exitCode, Output: out.String(), Cause: waitErr})
	}
	if readErr != nil {
		return errors.WithStack(&BuildFailure{Path: path, ExitCode: exitCode, Output: out.String(), Cause: readErr})
	}
	return nil
}
