package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/Overwatch47/SpectraScout/config"
)

// ErrUnsupportedLanguage is returned for languages without a configured runtime.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language names with built-in defaults.
const (
	LanguagePython = "python"
	LanguageGo     = "go"
)

// TimeoutExitCode is reported when execution is cut off by the timeout,
// matching coreutils timeout(1).
const TimeoutExitCode = 124

// timedOutMessage is appended to stderr when execution is cut off.
const timedOutMessage = "Execution timed out"

// File permission constants. Code is read by an unprivileged container user.
const (
	DirPermission  = 0o755
	FilePermission = 0o644
)

// ExecuteRequest represents the parameters for code execution
type ExecuteRequest struct {
	Language   string
	Code       string
	TimeoutSec int
	MemoryMB   int
	Network    bool
}

// ExecuteResult represents the result of code execution
type ExecuteResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// SandboxExecutor defines the interface for sandbox execution
type SandboxExecutor interface {
	Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error)
}

// Command is a process invocation handed to a CommandRunner.
type Command struct {
	Args []string
	Dir  string
	Env  []string // nil inherits the parent environment
}

// CommandRunner defines an interface for executing system commands
type CommandRunner interface {
	RunCommand(ctx context.Context, cmd Command) (stdout, stderr string, exitCode int, err error)
}

// RealCommandRunner implements CommandRunner using actual exec commands
type RealCommandRunner struct{}

// RunCommand executes the given command. A non-zero exit is reported through
// exitCode, not err; err is set only when the process could not run.
func (RealCommandRunner) RunCommand(ctx context.Context, c Command) (stdout, stderr string, exitCode int, err error) {
	if len(c.Args) < 1 {
		return "", "", 0, fmt.Errorf("no command provided")
	}

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...) //nolint:gosec // arguments come from configuration
	cmd.Dir = c.Dir
	cmd.Env = c.Env

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()

	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return stdoutBuf.String(), stderrBuf.String(), exitError.ExitCode(), nil
		}
		return stdoutBuf.String(), stderrBuf.String(), 0, err
	}

	return stdoutBuf.String(), stderrBuf.String(), 0, nil
}

// FileSystem defines an interface for file system operations
type FileSystem interface {
	MkdirTemp(dir, pattern string) (string, error)
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(filename string, data []byte, perm os.FileMode) error
	RemoveAll(path string) error
}

// RealFileSystem implements FileSystem using actual file system operations
type RealFileSystem struct{}

func (RealFileSystem) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

func (RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (RealFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	return os.WriteFile(filename, data, perm)
}

func (RealFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Runtime describes how one language is run.
type Runtime struct {
	Language    string
	Image       string
	FileName    string
	Command     []string
	Env         []string
	PrefixCode  string
	PostfixCode string
}

// Source returns the code wrapped in the runtime's prefix and postfix hooks.
func (r Runtime) Source(code string) string {
	return r.PrefixCode + code + r.PostfixCode
}

// Runtimes maps language names to their runtime.
type Runtimes map[string]Runtime

// RuntimesFromConfig converts the configured languages into runtimes.
func RuntimesFromConfig(langs map[string]config.Language) Runtimes {
	runtimes := make(Runtimes, len(langs))
	for name, lang := range langs {
		runtimes[name] = Runtime{
			Language:    name,
			Image:       lang.Image,
			FileName:    lang.FileName,
			Command:     append([]string(nil), lang.Command...),
			Env:         append([]string(nil), lang.Env...),
			PrefixCode:  lang.PrefixCode,
			PostfixCode: lang.PostfixCode,
		}
	}
	return runtimes
}

// Lookup returns the runtime for language.
func (rs Runtimes) Lookup(language string) (Runtime, error) {
	rt, ok := rs[language]
	if !ok {
		return Runtime{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	return rt, nil
}

// Languages returns the configured language names in sorted order.
func (rs Runtimes) Languages() []string {
	names := make([]string, 0, len(rs))
	for name := range rs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// shellQuote quotes s for POSIX sh.
func shellQuote(s string) string {
	if s != "" && strings.Trim(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_./=:") == "" {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// shellJoin renders args as a single sh command line.
func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

// timeoutFor returns the request timeout, falling back to def.
func timeoutFor(req ExecuteRequest, def time.Duration) time.Duration {
	if req.TimeoutSec > 0 {
		return time.Duration(req.TimeoutSec) * time.Second
	}
	return def
}

func timedOutResult(stdout, stderr string, elapsed time.Duration) ExecuteResult {
	if stderr != "" && !strings.HasSuffix(stderr, "\n") {
		stderr += "\n"
	}
	return ExecuteResult{
		Stdout:   stdout,
		Stderr:   stderr + timedOutMessage,
		ExitCode: TimeoutExitCode,
		TimedOut: true,
		Duration: elapsed,
	}
}
