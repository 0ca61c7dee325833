package execution

import (
	"context"

	"go.uber.org/zap"
)

const (
	outputLabel       = "Output:\n"
	runtimeErrorLabel = "Runtime Error: "
)

// Result is the outcome of running code. An empty Error means success.
type Result struct {
	Error  string
	Output string
}

// Engine runs source code in some isolated environment.
type Engine interface {
	Run(ctx context.Context, code string) (Result, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, code string) (Result, error)

// Run calls f.
func (f EngineFunc) Run(ctx context.Context, code string) (Result, error) {
	return f(ctx, code)
}

// Reporter formats engine results for display.
type Reporter struct {
	engine Engine
	logger *zap.Logger
}

// NewReporter creates a Reporter over the process-wide engine.
func NewReporter(engine Engine, logger *zap.Logger) *Reporter {
	return &Reporter{
		engine: engine,
		logger: logger.Named("run_code"),
	}
}

// Report runs code and returns the formatted outcome. It never fails: an
// engine error is reported the same way as an error inside the program.
func (r *Reporter) Report(ctx context.Context, code string) string {
	result, err := r.engine.Run(ctx, code)
	if err != nil {
		r.logger.Warn("execution engine failed", zap.Error(err))
		return runtimeErrorLabel + err.Error()
	}

	if result.Error != "" {
		r.logger.Debug("code raised a runtime error", zap.String("error", result.Error))
		return runtimeErrorLabel + result.Error
	}

	r.logger.Debug("code ran successfully", zap.Int("output_len", len(result.Output)))
	return outputLabel + result.Output
}
