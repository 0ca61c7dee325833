package sandbox

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/xid"
	"go.uber.org/zap"
)

// Config holds the resource limits shared by all executors
type Config struct {
	TimeoutSec     int
	MemoryMB       int
	CPULimit       float64
	PoolSize       int
	NetworkEnabled bool
}

// Timeout returns the default execution timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// ContainerExecutor implements SandboxExecutor by shelling out to a
// docker-compatible CLI (docker or podman).
type ContainerExecutor struct {
	logger    *zap.Logger
	config    *Config
	binary    string
	runtimes  Runtimes
	cmdRunner CommandRunner
	fs        FileSystem
}

// ContainerExecutorOption defines a functional option for ContainerExecutor
type ContainerExecutorOption func(*ContainerExecutor)

// WithCommandRunner sets the CommandRunner for ContainerExecutor
func WithCommandRunner(cmdRunner CommandRunner) ContainerExecutorOption {
	return func(c *ContainerExecutor) {
		c.cmdRunner = cmdRunner
	}
}

// WithFileSystem sets the FileSystem for ContainerExecutor
func WithFileSystem(fs FileSystem) ContainerExecutorOption {
	return func(c *ContainerExecutor) {
		c.fs = fs
	}
}

// NewContainerExecutor creates a ContainerExecutor driving binary ("docker" or "podman").
func NewContainerExecutor(logger *zap.Logger, config *Config, binary string, runtimes Runtimes, opts ...ContainerExecutorOption) *ContainerExecutor {
	executor := &ContainerExecutor{
		logger:    logger,
		config:    config,
		binary:    binary,
		runtimes:  runtimes,
		cmdRunner: &RealCommandRunner{},
		fs:        &RealFileSystem{},
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Execute runs the code in a fresh, network-less, unprivileged container.
//
//nolint:gocritic // request struct passed by value to match SandboxExecutor
func (c *ContainerExecutor) Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error) {
	rt, err := c.runtimes.Lookup(req.Language)
	if err != nil {
		return ExecuteResult{}, err
	}

	tempDir, err := c.fs.MkdirTemp("", "spectrascout-exec-*")
	if err != nil {
		return ExecuteResult{}, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if rmErr := c.fs.RemoveAll(tempDir); rmErr != nil {
			c.logger.Error("failed to remove temp directory", zap.String("path", tempDir), zap.Error(rmErr))
		}
	}()

	workdirPath := filepath.Join(tempDir, "workdir")
	if mkdirErr := c.fs.MkdirAll(workdirPath, DirPermission); mkdirErr != nil {
		return ExecuteResult{}, fmt.Errorf("failed to create workdir: %w", mkdirErr)
	}

	codeFilePath := filepath.Join(workdirPath, rt.FileName)
	if writeErr := c.fs.WriteFile(codeFilePath, []byte(rt.Source(req.Code)), FilePermission); writeErr != nil {
		return ExecuteResult{}, fmt.Errorf("failed to write user code: %w", writeErr)
	}

	containerName := "spectrascout-" + xid.New().String()
	args := c.runArgs(containerName, workdirPath, rt, req)

	c.logger.Debug("starting sandbox container",
		zap.String("binary", c.binary),
		zap.String("container", containerName),
		zap.String("image", rt.Image),
		zap.String("language", req.Language))

	timeout := timeoutFor(req, c.config.Timeout())
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, exitCode, err := c.cmdRunner.RunCommand(execCtx, Command{Args: args})
	elapsed := time.Since(start)

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		c.removeContainer(containerName)
		c.logger.Warn("sandbox execution timed out",
			zap.String("container", containerName),
			zap.Duration("timeout", timeout))
		return timedOutResult(stdout, stderr, elapsed), nil
	}

	if err != nil {
		return ExecuteResult{}, fmt.Errorf("failed to execute container: %w", err)
	}

	return ExecuteResult{
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Duration: elapsed,
	}, nil
}

// runArgs builds the CLI invocation with the sandbox restrictions applied.
//
//nolint:gocritic // request struct passed by value for symmetry with Execute
func (c *ContainerExecutor) runArgs(name, workdirPath string, rt Runtime, req ExecuteRequest) []string {
	memoryMB := req.MemoryMB
	if memoryMB <= 0 {
		memoryMB = c.config.MemoryMB
	}

	network := "none"
	if req.Network || c.config.NetworkEnabled {
		network = "bridge"
	}

	args := []string{
		c.binary, "run",
		"--rm",
		"--name", name,
		"--network", network,
		"--memory", fmt.Sprintf("%dm", memoryMB),
		"--pids-limit", "128",
		"--read-only",
		"--tmpfs", "/tmp:rw,exec,size=256m,mode=1777",
		"--security-opt", "no-new-privileges",
		"--cap-drop", "ALL",
		"--user", "65534:65534",
		"-v", workdirPath + ":/workdir:ro",
		"--workdir", "/workdir",
	}

	if c.config.CPULimit > 0 {
		args = append(args, "--cpus", fmt.Sprintf("%.2f", c.config.CPULimit))
	}

	for _, kv := range rt.Env {
		args = append(args, "-e", kv)
	}

	args = append(args, rt.Image)
	return append(args, rt.Command...)
}

// removeContainer force-removes a container left behind by a timeout.
func (c *ContainerExecutor) removeContainer(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, stderr, exitCode, err := c.cmdRunner.RunCommand(ctx, Command{Args: []string{c.binary, "rm", "-f", name}})
	if err != nil || exitCode != 0 {
		c.logger.Warn("failed to remove container after timeout",
			zap.String("container", name),
			zap.String("stderr", stderr),
			zap.Error(err))
	}
}
