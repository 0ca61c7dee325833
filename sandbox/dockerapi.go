package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"go.uber.org/zap"
)

// ErrExecutorClosed is returned by Execute after Close.
var ErrExecutorClosed = errors.New("sandbox executor is closed")

// DockerClient is the subset of the Engine API used by DockerAPIExecutor and
// Pool. *client.Client satisfies it.
type DockerClient interface {
	ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
		networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerExecCreate(ctx context.Context, containerID string, options container.ExecOptions) (container.ExecCreateResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, options container.ExecAttachOptions) (types.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (container.ExecInspect, error)
	Close() error
}

// DockerAPIExecutor implements SandboxExecutor against the Docker Engine API,
// running code in pre-warmed containers. One pool is kept per image and is
// created on first use.
type DockerAPIExecutor struct {
	cli      DockerClient
	config   *Config
	runtimes Runtimes
	logger   *zap.Logger

	mu     sync.Mutex
	closed bool
	pools  map[string]*poolEntry
}

// poolEntry is published before the image pull so concurrent callers wait on
// one pull per image. ready is closed once pool or err is set.
type poolEntry struct {
	ready chan struct{}
	pool  *Pool
	err   error
}

// DockerAPIExecutorOption defines a functional option for DockerAPIExecutor
type DockerAPIExecutorOption func(*DockerAPIExecutor)

// WithDockerClient replaces the client built from the environment.
func WithDockerClient(cli DockerClient) DockerAPIExecutorOption {
	return func(d *DockerAPIExecutor) {
		d.cli = cli
	}
}

// NewDockerAPIExecutor connects to the Docker daemon from the environment
// unless a client is supplied with WithDockerClient.
func NewDockerAPIExecutor(logger *zap.Logger, config *Config, runtimes Runtimes, opts ...DockerAPIExecutorOption) (*DockerAPIExecutor, error) {
	d := &DockerAPIExecutor{
		config:   config,
		runtimes: runtimes,
		logger:   logger,
		pools:    make(map[string]*poolEntry),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.cli == nil {
		cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			return nil, fmt.Errorf("failed to create docker client: %w", err)
		}
		d.cli = cli
	}
	return d, nil
}

// Close stops every pool and closes the Docker client.
func (d *DockerAPIExecutor) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	for _, entry := range d.pools {
		if entry.pool != nil {
			entry.pool.Stop()
		}
	}
	d.pools = map[string]*poolEntry{}
	return d.cli.Close()
}

// Execute streams the code into a pooled container over exec stdin and runs it.
//
//nolint:gocritic // request struct passed by value to match SandboxExecutor
func (d *DockerAPIExecutor) Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error) {
	rt, err := d.runtimes.Lookup(req.Language)
	if err != nil {
		return ExecuteResult{}, err
	}

	pool, err := d.pool(ctx, rt)
	if err != nil {
		return ExecuteResult{}, err
	}

	timeout := timeoutFor(req, d.config.Timeout())
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	containerID, err := pool.Get(execCtx)
	if err != nil {
		return ExecuteResult{}, fmt.Errorf("failed to get container from pool: %w", err)
	}
	defer pool.Remove(containerID)

	execResp, err := d.cli.ContainerExecCreate(execCtx, containerID, container.ExecOptions{
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		Env:          rt.Env,
		WorkingDir:   "/workdir",
		Cmd:          []string{"sh", "-c", execScript(rt)},
	})
	if err != nil {
		return ExecuteResult{}, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := d.cli.ContainerExecAttach(execCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return ExecuteResult{}, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	if _, err := io.WriteString(attachResp.Conn, rt.Source(req.Code)); err != nil {
		return ExecuteResult{}, fmt.Errorf("failed to send code: %w", err)
	}
	if err := attachResp.CloseWrite(); err != nil {
		return ExecuteResult{}, fmt.Errorf("failed to close exec stdin: %w", err)
	}

	var stdout, stderr bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		close(done)
	}()

	select {
	case <-done:
	case <-execCtx.Done():
		// Closing the stream unblocks StdCopy before the buffers are read.
		attachResp.Close()
		<-done
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return timedOutResult(stdout.String(), stderr.String(), time.Since(start)), nil
		}
		return ExecuteResult{}, execCtx.Err()
	}

	inspectCtx, inspectCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer inspectCancel()

	inspect, err := d.cli.ContainerExecInspect(inspectCtx, execResp.ID)
	if err != nil {
		return ExecuteResult{}, fmt.Errorf("failed to inspect exec: %w", err)
	}

	return ExecuteResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: inspect.ExitCode,
		Duration: time.Since(start),
	}, nil
}

// pool returns the pool for rt's image, pulling the image and starting the
// pool on first use. The pull runs without holding d.mu.
func (d *DockerAPIExecutor) pool(ctx context.Context, rt Runtime) (*Pool, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrExecutorClosed
	}
	entry, ok := d.pools[rt.Image]
	if !ok {
		entry = &poolEntry{ready: make(chan struct{})}
		d.pools[rt.Image] = entry
	}
	d.mu.Unlock()

	if !ok {
		d.startPool(ctx, rt.Image, entry)
	}

	select {
	case <-entry.ready:
		return entry.pool, entry.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *DockerAPIExecutor) startPool(ctx context.Context, ref string, entry *poolEntry) {
	defer close(entry.ready)

	if err := d.pullImage(ctx, ref); err != nil {
		entry.err = err
		// Forget the failed entry so the next call retries the pull.
		d.mu.Lock()
		if d.pools[ref] == entry {
			delete(d.pools, ref)
		}
		d.mu.Unlock()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		entry.err = ErrExecutorClosed
		return
	}
	entry.pool = NewPool(d.cli, d.config, ref, d.logger)
	entry.pool.Start()
}

func (d *DockerAPIExecutor) pullImage(ctx context.Context, ref string) error {
	pullCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	d.logger.Info("ensuring docker image is available", zap.String("image", ref))
	reader, err := d.cli.ImagePull(pullCtx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer reader.Close()

	// The pull only completes once the progress stream is drained.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	return nil
}

// execScript writes stdin to the runtime's source file and runs it.
func execScript(rt Runtime) string {
	return "cat > " + shellQuote(rt.FileName) + " && exec " + shellJoin(rt.Command)
}
