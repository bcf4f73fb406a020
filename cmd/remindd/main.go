package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hearthbot/remindd/internal/profile"
	"github.com/hearthbot/remindd/server"
	"github.com/hearthbot/remindd/server/chat"
	"github.com/hearthbot/remindd/store"
	"github.com/hearthbot/remindd/store/db"
)

const greetingBanner = `remindd - chat reminder service`

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "remindd",
	Short: "Chat reminder service",
	Run: func(_ *cobra.Command, _ []string) {
		serverProfile := &profile.Profile{
			Mode:               viper.GetString("mode"),
			Addr:               viper.GetString("addr"),
			Port:               viper.GetInt("port"),
			Data:               viper.GetString("data"),
			Driver:             viper.GetString("driver"),
			DSN:                viper.GetString("dsn"),
			HostWebhookURL:     viper.GetString("webhook-url"),
			HostWebhookSecret:  viper.GetString("webhook-secret"),
			ProcessingInterval: viper.GetDuration("processing-interval"),
			Version:            version,
		}
		serverProfile.FromEnv()
		if err := serverProfile.Validate(); err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}

		setupLogger(serverProfile)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dbDriver, err := db.NewDBDriver(serverProfile)
		if err != nil {
			slog.Error("failed to create db driver", "error", err)
			os.Exit(1)
		}

		storeInstance := store.New(dbDriver, serverProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			slog.Error("failed to migrate db", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := storeInstance.Close(); err != nil {
				slog.Error("failed to close store", "error", err)
			}
		}()

		transport := chat.NewWebhookTransport(chat.WebhookConfig{
			BaseURL: serverProfile.HostWebhookURL,
			Secret:  serverProfile.HostWebhookSecret,
			Timeout: 10 * time.Second,
		})

		fmt.Println(greetingBanner)
		slog.Info("starting remindd",
			"version", version,
			"mode", serverProfile.Mode,
			"driver", serverProfile.Driver,
		)

		if err := server.NewServer(serverProfile, storeInstance, transport).Start(ctx); err != nil {
			slog.Error("server exited with error", "error", err)
			os.Exit(1)
		}
		slog.Info("remindd stopped")
	},
}

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8231)
	viper.SetDefault("driver", "sqlite")

	rootCmd.PersistentFlags().String("mode", "demo", `mode of the server, can be "prod", "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of the server")
	rootCmd.PersistentFlags().Int("port", 8231, "port of the server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, can be "sqlite", "postgres" or "memory"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	rootCmd.PersistentFlags().String("webhook-url", "", "chat-host bridge endpoint for deliveries")
	rootCmd.PersistentFlags().String("webhook-secret", "", "secret sent with every bridge request")
	rootCmd.PersistentFlags().Duration("processing-interval", 0, "sweeper tick interval")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn", "webhook-url", "webhook-secret", "processing-interval"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("remindd")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// setupLogger installs the process-wide slog handler: human-readable text in
// dev, JSON in prod.
func setupLogger(p *profile.Profile) {
	var handler slog.Handler
	if p.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
