package syntaxcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Overwatch47/SpectraScout/sandbox"
)

// pythonProbe parses the embedded source with ast.parse and prints a JSON
// verdict on its last line. %s receives the source as a JSON string literal,
// which is also a valid Python string literal.
const pythonProbe = `import ast, json
src = %s
try:
    ast.parse(src)
    verdict = {"kind": "ok"}
except SyntaxError as e:
    verdict = {"kind": "syntax", "msg": e.msg, "line": e.lineno, "column": e.offset}
except Exception as e:
    verdict = {"kind": "other", "msg": "%%s: %%s" %% (type(e).__name__, e)}
print(json.dumps(verdict))
`

type probeVerdict struct {
	Kind   string `json:"kind"`
	Msg    string `json:"msg"`
	Line   *int   `json:"line"`
	Column *int   `json:"column"`
}

// PythonParser checks Python source with the interpreter's own parser,
// running a parse-only probe in the sandbox.
type PythonParser struct {
	executor sandbox.SandboxExecutor
}

// NewPythonParser creates a PythonParser over executor.
func NewPythonParser(executor sandbox.SandboxExecutor) *PythonParser {
	return &PythonParser{executor: executor}
}

// Parse runs the probe and translates its verdict.
func (p *PythonParser) Parse(ctx context.Context, src string) error {
	literal, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("failed to encode source: %w", err)
	}

	res, err := p.executor.Execute(ctx, sandbox.ExecuteRequest{
		Language: sandbox.LanguagePython,
		Code:     fmt.Sprintf(pythonProbe, literal),
	})
	if err != nil {
		return fmt.Errorf("python parser unavailable: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("python parser exited with status %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	verdict, err := decodeVerdict(res.Stdout)
	if err != nil {
		return err
	}

	switch verdict.Kind {
	case "ok":
		return nil
	case "syntax":
		return &GrammarError{
			Line:   intOrZero(verdict.Line),
			Column: intOrZero(verdict.Column),
			Msg:    verdict.Msg,
		}
	default:
		return errors.New(verdict.Msg)
	}
}

// decodeVerdict reads the last non-empty stdout line; runtime prefix hooks may
// print before it.
func decodeVerdict(stdout string) (probeVerdict, error) {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])

	var verdict probeVerdict
	if err := json.Unmarshal([]byte(last), &verdict); err != nil {
		return probeVerdict{}, fmt.Errorf("malformed python parser output %q: %w", last, err)
	}
	return verdict, nil
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
