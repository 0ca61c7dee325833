// Package execution implements the run_code tool.
//
// A Reporter forwards source code to an Engine and turns the outcome into the
// text shown to the agent: "Output:\n<stdout>" on success and
// "Runtime Error: <error>" otherwise. The Reporter adds no isolation of its
// own; isolation, resource limits and timeouts belong to the Engine, normally a
// SandboxEngine over one of the sandbox backends.
package execution
