package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/Overwatch47/SpectraScout/config"
	"github.com/Overwatch47/SpectraScout/logger"
	"github.com/Overwatch47/SpectraScout/mcpserver"
	"github.com/Overwatch47/SpectraScout/tools"
)

func main() {
	printConfig := pflag.Bool("print-config", false, "print the effective configuration as YAML and exit")
	pflag.Parse()

	if *printConfig {
		if err := writeConfig(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	app := fx.New(
		// Provide dependencies
		fx.Provide(
			config.New,
			logger.NewFromConfig,
			mcpserver.New,
		),
		tools.Module,

		// Start the transport selected in the config
		fx.Invoke(startServer),

		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	app.Run()
}

// startServer serves in the background and stops the app when the transport
// ends, e.g. when the stdio client disconnects.
func startServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, server *mcpserver.MCPServer, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := server.Serve(); err != nil {
					log.Error("MCP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
					return
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			return logger.Sync(log)
		},
	})
}

func writeConfig() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	return cfg.WriteYAML(os.Stdout)
}
