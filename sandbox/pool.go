package sandbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/rs/xid"
	"go.uber.org/zap"
)

const (
	poolRetryDelay = time.Second
	poolIdleDelay  = 100 * time.Millisecond
	pidsLimit      = int64(128)
)

// Pool keeps a number of idle containers of one image ready to run code.
// Containers are single use: the caller removes them after execution.
type Pool struct {
	cli        DockerClient
	config     *Config
	image      string
	logger     *zap.Logger
	containers chan string
	done       chan struct{}
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

// NewPool initializes a pool for image; call Start to begin warming it.
func NewPool(cli DockerClient, cfg *Config, image string, logger *zap.Logger) *Pool {
	size := cfg.PoolSize
	if size <= 0 {
		size = 1
	}
	return &Pool{
		cli:        cli,
		config:     cfg,
		image:      image,
		logger:     logger.With(zap.String("image", image)),
		containers: make(chan string, size),
		done:       make(chan struct{}),
	}
}

// Start begins filling the pool in the background.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting container pool", zap.Int("pool_size", cap(p.containers)))
		p.wg.Add(1)
		go p.manager()
	})
}

// Stop shuts down the manager and removes all idle containers.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("stopping container pool")
		close(p.done)
		p.wg.Wait()

		for {
			select {
			case id := <-p.containers:
				p.Remove(id)
			default:
				return
			}
		}
	})
}

// Get returns an idle container ID, blocking until one is ready or ctx ends.
func (p *Pool) Get(ctx context.Context) (string, error) {
	select {
	case id := <-p.containers:
		return id, nil
	case <-p.done:
		return "", fmt.Errorf("container pool for %s is stopped", p.image)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Remove force-removes a container.
func (p *Pool) Remove(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		p.logger.Warn("failed to remove container", zap.String("id", id), zap.Error(err))
	}
}

func (p *Pool) manager() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		default:
		}

		if len(p.containers) == cap(p.containers) {
			p.sleep(poolIdleDelay)
			continue
		}

		id, err := p.createContainer()
		if err != nil {
			p.logger.Error("failed to create pre-warmed container", zap.Error(err))
			p.sleep(poolRetryDelay)
			continue
		}

		select {
		case p.containers <- id:
		case <-p.done:
			p.Remove(id)
			return
		}
	}
}

func (p *Pool) sleep(d time.Duration) {
	select {
	case <-time.After(d):
	case <-p.done:
	}
}

// createContainer starts an idle container that exec sessions attach to.
func (p *Pool) createContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	networkMode := "none"
	if p.config.NetworkEnabled {
		networkMode = "bridge"
	}

	limit := pidsLimit
	hostConfig := &container.HostConfig{
		NetworkMode: container.NetworkMode(networkMode),
		Resources: container.Resources{
			Memory:    int64(p.config.MemoryMB) * 1024 * 1024,
			NanoCPUs:  int64(p.config.CPULimit * 1e9),
			PidsLimit: &limit,
		},
		ReadonlyRootfs: true,
		Tmpfs: map[string]string{
			"/tmp":     "rw,exec,size=256m,mode=1777",
			"/workdir": "rw,exec,size=64m,mode=1777",
		},
		SecurityOpt: []string{"no-new-privileges"},
		CapDrop:     []string{"ALL"},
	}

	resp, err := p.cli.ContainerCreate(ctx, &container.Config{
		Image:      p.image,
		Cmd:        []string{"sleep", "infinity"},
		User:       "65534:65534",
		WorkingDir: "/workdir",
	}, hostConfig, nil, nil, "spectrascout-pool-"+xid.New().String())
	if err != nil {
		return "", fmt.Errorf("ContainerCreate failed: %w", err)
	}

	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		p.Remove(resp.ID)
		return "", fmt.Errorf("ContainerStart failed: %w", err)
	}

	return resp.ID, nil
}
