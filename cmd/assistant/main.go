package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/Overwatch47/SpectraScout/agent"
	"github.com/Overwatch47/SpectraScout/assistant"
	"github.com/Overwatch47/SpectraScout/chatapi"
	"github.com/Overwatch47/SpectraScout/config"
	"github.com/Overwatch47/SpectraScout/logger"
	"github.com/Overwatch47/SpectraScout/mcptoolset"
	"github.com/Overwatch47/SpectraScout/runner"
	"github.com/Overwatch47/SpectraScout/session"
	"github.com/Overwatch47/SpectraScout/tools"
)

const connectTimeout = 30 * time.Second

func main() {
	userID := pflag.String("user", "user", "user ID for the REPL session")
	pflag.Parse()

	app := fx.New(
		fx.Supply(replUser(*userID)),
		fx.Provide(
			config.New,
			logger.NewFromConfig,
			newGenerator,
			newGitHubTools,
			newSessionService,
			newRootAgent,
			newRunner,
		),
		tools.Module,

		fx.Invoke(startChat),

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	app.Run()
}

// replUser is the user the REPL talks as.
type replUser string

func newGenerator(cfg *config.Config) (agent.Generator, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := assistant.NewGenAIClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// newGitHubTools connects the GitHub MCP toolset. A missing token or an
// unreachable server leaves the assistant without GitHub tools.
func newGitHubTools(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) assistant.ToolSource {
	if !cfg.GitHubEnabled() {
		log.Warn("GITHUB_AUTH_TOKEN not set, GitHub MCP tools disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	ts, err := mcptoolset.Connect(ctx, log, mcptoolset.Options{
		URL:     cfg.GitHub.MCPURL,
		Token:   cfg.GitHub.AuthToken,
		Timeout: cfg.GitHubReadTimeout(),
		Include: cfg.GitHub.IncludeTools,
	})
	if err != nil {
		log.Warn("failed to connect to GitHub MCP server, continuing without it", zap.Error(err))
		return nil
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return ts.Close()
		},
	})
	return ts
}

func newSessionService(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (session.Service, error) {
	sessions, err := session.New(log, cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return sessions.Close()
		},
	})
	return sessions, nil
}

func newRootAgent(
	cfg *config.Config,
	log *zap.Logger,
	generator agent.Generator,
	github assistant.ToolSource,
	checker tools.SyntaxChecker,
	code tools.CodeRunner,
) (*agent.Agent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	return assistant.New(ctx, assistant.Deps{
		Generator: generator,
		Checker:   checker,
		Runner:    code,
		GitHub:    github,
		Model:     cfg.Model.Name,
		MaxSteps:  cfg.Model.MaxSteps,
	}, log)
}

func newRunner(root *agent.Agent, sessions session.Service, log *zap.Logger) *runner.Runner {
	return runner.New(root, sessions, log)
}

type chatParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Config     *config.Config
	Logger     *zap.Logger
	Runner     *runner.Runner
	Sessions   session.Service
	Checker    tools.SyntaxChecker
	Code       tools.CodeRunner
	User       replUser
}

func startChat(p chatParams) {
	if p.Config.Chat.Mode == "http" {
		api := chatapi.New(chatapi.Deps{
			Runner:   p.Runner,
			Sessions: p.Sessions,
			Checker:  p.Checker,
			Code:     p.Code,
		}, p.Logger)

		p.Lifecycle.Append(fx.Hook{
			OnStart: func(context.Context) error {
				return api.Start(p.Config.Chat.HTTPPort)
			},
			OnStop: api.Shutdown,
		})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				repl := &REPL{Runner: p.Runner, UserID: string(p.User), In: os.Stdin, Out: os.Stdout}
				if err := repl.Run(ctx); err != nil {
					p.Logger.Error("chat loop failed", zap.Error(err))
					_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
					return
				}
				_ = p.Shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return logger.Sync(p.Logger)
		},
	})
}
