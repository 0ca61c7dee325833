package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// LocalExecutor implements SandboxExecutor using host processes. It applies
// only a timeout and a scrubbed environment; use it for development.
type LocalExecutor struct {
	logger    *zap.Logger
	config    *Config
	runtimes  Runtimes
	cmdRunner CommandRunner
	fs        FileSystem
}

// LocalExecutorOption defines a functional option for LocalExecutor
type LocalExecutorOption func(*LocalExecutor)

// WithLocalCommandRunner sets the CommandRunner for LocalExecutor
func WithLocalCommandRunner(cmdRunner CommandRunner) LocalExecutorOption {
	return func(l *LocalExecutor) {
		l.cmdRunner = cmdRunner
	}
}

// WithLocalFileSystem sets the FileSystem for LocalExecutor
func WithLocalFileSystem(fs FileSystem) LocalExecutorOption {
	return func(l *LocalExecutor) {
		l.fs = fs
	}
}

// NewLocalExecutor creates a new LocalExecutor
func NewLocalExecutor(logger *zap.Logger, config *Config, runtimes Runtimes, opts ...LocalExecutorOption) *LocalExecutor {
	executor := &LocalExecutor{
		logger:    logger,
		config:    config,
		runtimes:  runtimes,
		cmdRunner: &RealCommandRunner{},
		fs:        &RealFileSystem{},
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Execute runs the code as a host process in a throwaway directory.
//
//nolint:gocritic // request struct passed by value to match SandboxExecutor
func (l *LocalExecutor) Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error) {
	rt, err := l.runtimes.Lookup(req.Language)
	if err != nil {
		return ExecuteResult{}, err
	}

	tempDir, err := l.fs.MkdirTemp("", "spectrascout-local-*")
	if err != nil {
		return ExecuteResult{}, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if rmErr := l.fs.RemoveAll(tempDir); rmErr != nil {
			l.logger.Error("failed to remove temp directory", zap.String("path", tempDir), zap.Error(rmErr))
		}
	}()

	codeFilePath := filepath.Join(tempDir, rt.FileName)
	if writeErr := l.fs.WriteFile(codeFilePath, []byte(rt.Source(req.Code)), FilePermission); writeErr != nil {
		return ExecuteResult{}, fmt.Errorf("failed to write user code: %w", writeErr)
	}

	timeout := timeoutFor(req, l.config.Timeout())
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := Command{
		Args: rt.Command,
		Dir:  tempDir,
		Env:  localEnv(tempDir, rt.Env),
	}

	start := time.Now()
	stdout, stderr, exitCode, err := l.cmdRunner.RunCommand(execCtx, cmd)
	elapsed := time.Since(start)

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		l.logger.Warn("local execution timed out", zap.Duration("timeout", timeout))
		return timedOutResult(stdout, stderr, elapsed), nil
	}

	if err != nil {
		return ExecuteResult{}, fmt.Errorf("failed to execute command: %w", err)
	}

	return ExecuteResult{
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Duration: elapsed,
	}, nil
}

// localEnv keeps PATH from the host and nothing else besides the runtime env.
func localEnv(home string, extra []string) []string {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + home,
		"TMPDIR=" + home,
	}
	return append(env, extra...)
}
