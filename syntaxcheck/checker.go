package syntaxcheck

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Overwatch47/SpectraScout/sandbox"
)

// NoErrorsMessage is returned for source that parses cleanly.
const NoErrorsMessage = "No syntax errors detected."

// DefaultLanguage is assumed when the caller names no language.
const DefaultLanguage = sandbox.LanguagePython

// GrammarError is a parser diagnostic with its position.
type GrammarError struct {
	Line   int
	Column int
	Msg    string
}

func (e *GrammarError) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", e.Msg, e.Line, e.Column)
}

// Parser parses source text of one language. It returns nil for valid
// source, a *GrammarError for the first grammar violation and any other error
// when parsing itself failed.
type Parser interface {
	Parse(ctx context.Context, src string) error
}

// Checker dispatches source text to the parser of its language.
type Checker struct {
	parsers map[string]Parser
	logger  *zap.Logger
}

// NewChecker creates a Checker over the given parsers, keyed by language.
func NewChecker(logger *zap.Logger, parsers map[string]Parser) *Checker {
	return &Checker{
		parsers: parsers,
		logger:  logger.Named("debug_code"),
	}
}

// NewFromSandbox creates a Checker for Go and for Python, the latter parsed
// by the interpreter inside executor.
func NewFromSandbox(logger *zap.Logger, executor sandbox.SandboxExecutor) *Checker {
	return NewChecker(logger, map[string]Parser{
		sandbox.LanguageGo:     GoParser{},
		sandbox.LanguagePython: NewPythonParser(executor),
	})
}

// Languages returns the supported language names in sorted order.
func (c *Checker) Languages() []string {
	names := make([]string, 0, len(c.parsers))
	for name := range c.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check parses code as language and describes the result.
func (c *Checker) Check(ctx context.Context, language, code string) (report string) {
	if language == "" {
		language = DefaultLanguage
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("parser panicked", zap.String("language", language), zap.Any("panic", r))
			report = unexpected(fmt.Errorf("%v", r))
		}
	}()

	parser, ok := c.parsers[language]
	if !ok {
		err := fmt.Errorf("%w: %s", sandbox.ErrUnsupportedLanguage, language)
		c.logger.Warn("unexpected failure while checking syntax", zap.Error(err))
		return unexpected(err)
	}

	err := parser.Parse(ctx, code)
	if err == nil {
		return NoErrorsMessage
	}

	var grammarErr *GrammarError
	if errors.As(err, &grammarErr) {
		c.logger.Debug("syntax error detected",
			zap.String("language", language),
			zap.Int("line", grammarErr.Line),
			zap.Int("column", grammarErr.Column),
			zap.String("msg", grammarErr.Msg))
		return "Syntax Error: " + grammarErr.Error()
	}

	c.logger.Warn("unexpected failure while checking syntax", zap.String("language", language), zap.Error(err))
	return unexpected(err)
}

func unexpected(err error) string {
	return "Unexpected issue: " + err.Error()
}
