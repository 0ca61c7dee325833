package sandbox

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Overwatch47/SpectraScout/config"
)

// NewExecutor creates the sandbox executor selected by sandbox.backend.
func NewExecutor(logger *zap.Logger, cfg *config.Config) (SandboxExecutor, error) {
	executorConfig := &Config{
		TimeoutSec:     cfg.Sandbox.TimeoutSec,
		MemoryMB:       cfg.Sandbox.MemoryMB,
		CPULimit:       cfg.Sandbox.CPULimit,
		PoolSize:       cfg.Sandbox.PoolSize,
		NetworkEnabled: cfg.Sandbox.NetworkEnabled,
	}
	runtimes := RuntimesFromConfig(cfg.Languages)
	logger = logger.Named("sandbox").With(zap.String("backend", cfg.Sandbox.Backend))

	switch cfg.Sandbox.Backend {
	case "docker", "podman":
		return NewContainerExecutor(logger, executorConfig, cfg.Sandbox.Backend, runtimes), nil
	case "dockerapi":
		return NewDockerAPIExecutor(logger, executorConfig, runtimes)
	case "local":
		if !cfg.Sandbox.EnableLocalBackend {
			return nil, fmt.Errorf("local backend requires sandbox.enable_local_backend")
		}
		logger.Warn("local sandbox backend runs code on the host without isolation")
		return NewLocalExecutor(logger, executorConfig, runtimes), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Sandbox.Backend)
	}
}
