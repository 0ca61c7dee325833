package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Overwatch47/SpectraScout/chatapi"
)

const prompt = "you> "

// REPL chats with the assistant over a line-oriented stream. All lines go to
// one session, created with the first message the assistant answers.
type REPL struct {
	Runner chatapi.TurnRunner
	UserID string
	In     io.Reader
	Out    io.Writer
}

// Run reads messages until EOF, "exit" or "quit", or until ctx is done.
// Agent failures are printed and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.In)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	sessionID := ""
	fmt.Fprint(r.Out, prompt)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			fmt.Fprint(r.Out, prompt)
			continue
		case "exit", "quit":
			return nil
		}

		res, err := r.Runner.Run(ctx, r.UserID, sessionID, line)
		if err != nil {
			fmt.Fprintf(r.Out, "error: %v\n", err)
		} else {
			sessionID = res.SessionID
			fmt.Fprintf(r.Out, "assistant> %s\n", res.Reply)
		}
		fmt.Fprint(r.Out, prompt)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
