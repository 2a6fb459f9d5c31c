package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/focusflow/internal/api"
	"github.com/verte-zerg/focusflow/internal/auth"
	"github.com/verte-zerg/focusflow/internal/chat"
	"github.com/verte-zerg/focusflow/internal/config"
)

var (
	serveAddr       string
	serveUsersFile  string
	serveLogLevel   string
	serveCORSOrigin string
	serveProvider   string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (tutor relay, accounts, sessions, stats)",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&serveUsersFile, "users-file", "", "user file (default: data dir)")
	cmd.Flags().StringVar(&serveLogLevel, "log-level", defaultLogLevel, "log level (trace, debug, info, warn, error)")
	cmd.Flags().StringVar(&serveCORSOrigin, "cors-origin", "*", "Access-Control-Allow-Origin value")
	cmd.Flags().StringVar(&serveProvider, "provider", chat.ProviderOpenAI, "provider for /api/chat requests that name none")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	applyStringConfig(cmd, "users-file", &serveUsersFile, fileCfg.Server.UsersFile)
	applyStringConfig(cmd, "log-level", &serveLogLevel, fileCfg.Server.LogLevel)
	applyStringConfig(cmd, "cors-origin", &serveCORSOrigin, fileCfg.Server.CORSOrigin)
	applyStringConfig(cmd, "provider", &serveProvider, fileCfg.Chat.Provider)
	if err := validateProvider(serveProvider); err != nil {
		return err
	}
	level := hclog.LevelFromString(serveLogLevel)
	if level == hclog.NoLevel {
		return fmt.Errorf("--log-level %q is not a valid level", serveLogLevel)
	}
	if serveUsersFile == "" {
		serveUsersFile = config.DefaultUsersPath()
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "focusflow",
		Level:  level,
		Output: os.Stderr,
	})
	for _, key := range []string{"OPENAI_API_KEY", "GROQ_API_KEY"} {
		if os.Getenv(key) == "" {
			logger.Warn("api key not set; its provider will answer with an error reply", "env", key)
		}
	}

	relay, err := buildRelay(fileCfg.Chat, serveProvider, logger.Named("chat"))
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	users := auth.NewFileStore(serveUsersFile)
	userCount, err := users.Count()
	if err != nil {
		return err
	}
	server := api.NewServer(api.Config{
		Relay:      relay,
		Auth:       auth.NewService(users),
		Sessions:   st,
		Logger:     logger.Named("http"),
		CORSOrigin: serveCORSOrigin,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info("starting", "providers", relay.Providers(), "users_file", users.Path(), "users", userCount)
	if err := api.Serve(ctx, serveAddr, server.Handler(), logger); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
