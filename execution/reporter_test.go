package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

// stubEngine returns a fixed result and counts calls.
type stubEngine struct {
	result Result
	err    error
	calls  []string
}

func (s *stubEngine) Run(_ context.Context, code string) (Result, error) {
	s.calls = append(s.calls, code)
	return s.result, s.err
}

func TestReporter(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("Output", func(t *testing.T) {
		engine := &stubEngine{result: Result{Output: "4"}}
		reporter := NewReporter(engine, logger)

		assert.Equal(t, "Output:\n4", reporter.Report(context.Background(), "print(2+2)"))
		assert.Equal(t, []string{"print(2+2)"}, engine.calls)
	})

	t.Run("RuntimeError", func(t *testing.T) {
		engine := &stubEngine{result: Result{Error: "ZeroDivisionError", Output: ""}}
		reporter := NewReporter(engine, logger)

		assert.Equal(t, "Runtime Error: ZeroDivisionError", reporter.Report(context.Background(), "1/0"))
	})

	t.Run("ErrorWinsOverOutput", func(t *testing.T) {
		engine := &stubEngine{result: Result{Error: "NameError: name 'x' is not defined", Output: "partial\n"}}
		reporter := NewReporter(engine, logger)

		assert.Equal(t, "Runtime Error: NameError: name 'x' is not defined", reporter.Report(context.Background(), "print('partial'); x"))
	})

	t.Run("EmptyOutput", func(t *testing.T) {
		reporter := NewReporter(&stubEngine{}, logger)
		assert.Equal(t, "Output:\n", reporter.Report(context.Background(), "pass"))
	})

	t.Run("EngineFailureIsReported", func(t *testing.T) {
		engine := &stubEngine{err: errors.New("docker daemon unavailable")}
		reporter := NewReporter(engine, logger)

		assert.Equal(t, "Runtime Error: docker daemon unavailable", reporter.Report(context.Background(), "print(1)"))
	})

	t.Run("Idempotent", func(t *testing.T) {
		reporter := NewReporter(&stubEngine{result: Result{Output: "4"}}, logger)
		first := reporter.Report(context.Background(), "print(4)")
		second := reporter.Report(context.Background(), "print(4)")
		assert.Equal(t, first, second)
	})

	t.Run("EngineFunc", func(t *testing.T) {
		engine := EngineFunc(func(_ context.Context, code string) (Result, error) {
			return Result{Output: code}, nil
		})
		reporter := NewReporter(engine, logger)
		assert.Equal(t, "Output:\necho", reporter.Report(context.Background(), "echo"))
	})
}
