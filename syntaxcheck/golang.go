package syntaxcheck

import (
	"context"
	"errors"
	"go/parser"
	"go/scanner"
	"go/token"
)

// GoParser checks Go source files with go/parser.
type GoParser struct{}

// Parse reports the first diagnostic of go/parser as a *GrammarError.
func (GoParser) Parse(_ context.Context, src string) error {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "main.go", src, parser.SkipObjectResolution)
	if err == nil {
		return nil
	}

	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		first := list[0]
		return &GrammarError{
			Line:   first.Pos.Line,
			Column: first.Pos.Column,
			Msg:    first.Msg,
		}
	}
	return err
}
