package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Overwatch47/SpectraScout/agent"
	"github.com/Overwatch47/SpectraScout/session"
)

// ErrEmptyMessage is returned for blank user messages.
var ErrEmptyMessage = errors.New("message must not be empty")

// Agent answers a user message given the prior history. *agent.Agent
// satisfies it.
type Agent interface {
	Run(ctx context.Context, history []*genai.Content, text string) (*agent.Reply, error)
}

// Result is the outcome of a turn.
type Result struct {
	SessionID string
	Reply     string
}

// Runner connects an agent to a session store.
type Runner struct {
	agent    Agent
	sessions session.Service
	logger   *zap.Logger
}

// New creates a Runner.
func New(a Agent, sessions session.Service, logger *zap.Logger) *Runner {
	return &Runner{
		agent:    a,
		sessions: sessions,
		logger:   logger.Named("runner"),
	}
}

// Run sends message to the agent within the session. An empty sessionID
// starts a new session, which is created only once the agent has answered.
// The turn is stored only when the agent succeeds.
func (r *Runner) Run(ctx context.Context, userID, sessionID, message string) (*Result, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	var history []*genai.Content
	if sessionID != "" {
		sess, err := r.sessions.Get(ctx, userID, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
		}
		history = sess.Events
	}

	reply, err := r.agent.Run(ctx, history, message)
	if err != nil {
		r.logger.Error("agent run failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("agent failed: %w", err)
	}

	if sessionID == "" {
		sess, err := r.sessions.Create(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		sessionID = sess.ID
		r.logger.Info("session created", zap.String("session_id", sessionID), zap.String("user_id", userID))
	}

	if err := r.sessions.Append(ctx, userID, sessionID, reply.Contents...); err != nil {
		return nil, fmt.Errorf("failed to store turn: %w", err)
	}

	r.logger.Debug("turn completed",
		zap.String("session_id", sessionID),
		zap.Int("contents", len(reply.Contents)))
	return &Result{SessionID: sessionID, Reply: reply.Text}, nil
}
