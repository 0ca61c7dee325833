// Package sandbox provides isolated code execution.
//
// The sandbox package is the execution engine behind the run_code tool and the
// Python syntax probe. It supports three kinds of backends:
//
//   - ContainerExecutor drives the docker or podman CLI and starts one
//     throwaway container per run, without network, capabilities or a
//     writable root file system.
//   - DockerAPIExecutor talks to the Docker Engine API and keeps a pool of
//     pre-warmed containers per image; code is streamed in over exec stdin.
//   - LocalExecutor runs code as a host process and is meant for development.
//
// Language runtimes (image, file name, command, environment, prefix and postfix
// code) come from configuration. Process and file system access go through the
// CommandRunner and FileSystem interfaces so executors can be tested without
// containers.
//
// Usage:
//
//	executor, err := sandbox.NewExecutor(logger, cfg)
//	result, err := executor.Execute(ctx, sandbox.ExecuteRequest{
//	    Language: "python",
//	    Code:     "print('Hello, World!')",
//	})
package sandbox
