package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/gigvoice/internal/profile"
	"github.com/hrygo/gigvoice/server"
	"github.com/hrygo/gigvoice/store"
	"github.com/hrygo/gigvoice/store/db"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0-dev"

var (
	rootCmd = &cobra.Command{
		Use:   "gigvoice",
		Short: "A voice assistant backend for delivery riders.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			instanceProfile := newProfileFromViper()
			if err := instanceProfile.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), instanceProfile)
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the gigvoice version.",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
)

func newProfileFromViper() *profile.Profile {
	return &profile.Profile{
		Mode:     viper.GetString("mode"),
		Addr:     viper.GetString("addr"),
		Port:     viper.GetInt("port"),
		Data:     viper.GetString("data"),
		Driver:   viper.GetString("driver"),
		DSN:      viper.GetString("dsn"),
		LogLevel: viper.GetString("log-level"),
		Version:  version,

		AIEnabled:     viper.GetBool("ai-enabled"),
		AILLMProvider: viper.GetString("ai-llm-provider"),
		AILLMModel:    viper.GetString("ai-llm-model"),
		AIAPIKey:      viper.GetString("ai-api-key"),
		AIBaseURL:     viper.GetString("ai-base-url"),
		AILLMTimeout:  viper.GetDuration("ai-llm-timeout"),

		SessionBackend:         viper.GetString("session-backend"),
		SessionMaxTurns:        viper.GetInt("session-max-turns"),
		SessionIdleTTL:         viper.GetDuration("session-idle-ttl"),
		SessionCleanupInterval: viper.GetDuration("session-cleanup-interval"),

		OrderAmount:  viper.GetFloat64("order-amount"),
		OrderExpense: viper.GetFloat64("order-expense"),
		LatePenalty:  viper.GetFloat64("late-penalty"),

		RateLimitRPS:   viper.GetFloat64("rate-limit-rps"),
		RateLimitBurst: viper.GetInt("rate-limit-burst"),
	}
}

func run(ctx context.Context, instanceProfile *profile.Profile) error {
	logger := server.NewLogger(instanceProfile, os.Stderr)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return fmt.Errorf("failed to create db driver: %w", err)
	}
	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		_ = storeInstance.Close()
		return fmt.Errorf("failed to migrate: %w", err)
	}

	s, err := server.NewServer(instanceProfile, storeInstance, logger)
	if err != nil {
		_ = storeInstance.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := s.Start(ctx); err != nil {
		_ = storeInstance.Close()
		return fmt.Errorf("failed to start server: %w", err)
	}
	printGreetings(instanceProfile)

	<-ctx.Done()
	s.Shutdown(context.Background())
	return nil
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("ai-llm-provider", "openai")
	viper.SetDefault("ai-llm-timeout", profile.DefaultLLMTimeout)
	viper.SetDefault("session-backend", "memory")
	viper.SetDefault("session-max-turns", profile.DefaultSessionMaxTurns)
	viper.SetDefault("session-idle-ttl", profile.DefaultSessionIdleTTL)
	viper.SetDefault("session-cleanup-interval", profile.DefaultSessionCleanupInterval)
	viper.SetDefault("order-amount", profile.DefaultOrderAmount)
	viper.SetDefault("order-expense", profile.DefaultOrderExpense)
	viper.SetDefault("late-penalty", profile.DefaultLatePenalty)
	viper.SetDefault("rate-limit-rps", profile.DefaultRateLimitRPS)
	viper.SetDefault("rate-limit-burst", profile.DefaultRateLimitBurst)

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 8081, "port of server")
	flags.String("data", "", "data directory")
	flags.String("driver", "sqlite", "database driver, sqlite or postgres")
	flags.String("dsn", "", "database source name(aka. DSN)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.Bool("ai-enabled", false, "enable the LLM for extraction and chat")
	flags.String("ai-llm-provider", "openai", "LLM provider: openai, deepseek or ollama")
	flags.String("ai-llm-model", "", "LLM model name")
	flags.String("ai-api-key", "", "LLM API key")
	flags.String("ai-base-url", "", "LLM base URL, required for ollama")
	flags.Duration("ai-llm-timeout", profile.DefaultLLMTimeout, "timeout of one LLM call")
	flags.String("session-backend", "memory", "session store: memory or cache")
	flags.Int("session-max-turns", profile.DefaultSessionMaxTurns, "turns kept per user")
	flags.Duration("session-idle-ttl", profile.DefaultSessionIdleTTL, "idle sessions older than this are reaped")
	flags.Duration("session-cleanup-interval", profile.DefaultSessionCleanupInterval, "interval between session reaps")
	flags.Float64("order-amount", profile.DefaultOrderAmount, "earning per order")
	flags.Float64("order-expense", profile.DefaultOrderExpense, "expense per order")
	flags.Float64("late-penalty", profile.DefaultLatePenalty, "penalty per late delivery")
	flags.Float64("rate-limit-rps", profile.DefaultRateLimitRPS, "requests per second per user")
	flags.Int("rate-limit-burst", profile.DefaultRateLimitBurst, "request burst per user")

	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("gigvoice")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(versionCmd)
}

func printGreetings(profile *profile.Profile) {
	if profile.IsDev() {
		println("Development mode is enabled")
		println("DSN: ", profile.DSN)
	}
	fmt.Printf(`---
Server profile
version: %s
data: %s
addr: %s
port: %d
mode: %s
driver: %s
ai: %t
session: %s
---
`, profile.Version, profile.Data, profile.Addr, profile.Port, profile.Mode, profile.Driver, profile.IsAIEnabled(), profile.SessionBackend)

	if len(profile.Addr) == 0 {
		fmt.Printf("gigvoice is listening on :%d\n", profile.Port)
	} else {
		fmt.Printf("gigvoice is listening on %s:%d\n", profile.Addr, profile.Port)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
