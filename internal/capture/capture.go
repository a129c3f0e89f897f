// Package capture runs a full rebuild of a solution or project and turns
// the compiler invocations it recorded into a workspace.
package capture

import (
	"context"
	"os"
	"time"

	"buildcap/internal/build"
	"buildcap/internal/csargs"
	"buildcap/internal/errors"
	"buildcap/internal/logger"
	"buildcap/internal/workspace"
)

// Build rebuilds path, reads the compiler invocations from the build log
// and assembles them into a Result. The temporary log is removed before
// Build returns, whatever the outcome.
func Build(ctx context.Context, path string, opts ...Option) (*Result, error) {
	s := defaults()
	for _, opt := range opts {
		opt(s)
	}
	log := logger.Component(s.log, "capture")
	start := time.Now()

	orch := build.NewOrchestrator(build.Options{
		Command: s.command,
		Args:    s.args,
		LogDir:  s.logDir,
		Timeout: s.timeout,
		Logger:  s.log,
	})
	logPath, err := orch.RunBuild(ctx, path, s.configuration, s.platform, s.properties)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(logPath); err != nil && !os.IsNotExist(err) {
			log.Warnw("failed to remove build log", logger.FieldPath, logPath, logger.FieldError, err)
		}
	}()

	invocations, err := s.reader.ReadInvocations(ctx, logPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read compiler invocations of %s", path)
	}
	log.Debugw("invocations read", logger.FieldPath, logPath, logger.FieldCount, len(invocations))

	builder := workspace.NewBuilder(workspace.BuilderOptions{
		Language:    s.language,
		Interpreter: s.interpreter,
		Loader:      s.loader,
		Logger:      s.log,
	})
	ws, args, err := builder.Assemble(ctx, invocations)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to assemble workspace of %s", path)
	}

	log.Infow("capture complete",
		logger.FieldPath, path,
		logger.FieldCount, ws.Len(),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return newResult(ws, args), nil
}

// Result is a captured workspace plus the interpreted compiler arguments of
// each of its projects. It is read-only once returned.
type Result struct {
	workspace *workspace.Workspace
	args      map[workspace.ProjectID]*csargs.Arguments
}

func newResult(ws *workspace.Workspace, args map[workspace.ProjectID]*csargs.Arguments) *Result {
	return &Result{workspace: ws, args: args}
}

// Workspace returns the captured projects.
func (r *Result) Workspace() *workspace.Workspace {
	return r.workspace
}

// TryGetCommandLineArguments returns the arguments the project with the
// given identity was compiled with.
func (r *Result) TryGetCommandLineArguments(id workspace.ProjectID) (*csargs.Arguments, bool) {
	a, ok := r.args[id]
	return a, ok
}

// TryGetProjectArguments is TryGetCommandLineArguments keyed by p's identity.
func (r *Result) TryGetProjectArguments(p *workspace.Project) (*csargs.Arguments, bool) {
	if p == nil {
		return nil, false
	}
	return r.TryGetCommandLineArguments(p.ID)
}
