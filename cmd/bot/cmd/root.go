package cmd

import (
	"context"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/nikitaproks/vpn-bot/internal/bot"
	"github.com/nikitaproks/vpn-bot/internal/bot/config"
	"github.com/nikitaproks/vpn-bot/internal/shared/logger"
)

const version = "1.0.0"

var configPath string

// rootCmd runs the bot service until a shutdown signal arrives.
var rootCmd = &cobra.Command{
	Use:   "vpn-bot",
	Short: "Telegram bot that provisions Shadowsocks servers on Linode",
	Long: `vpn-bot is a Telegram bot front-end for Linode. Authorized chats can
spawn, list, and delete Shadowsocks VPN servers through a guided
conversation with inline keyboards.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func run() error {
	ctx := context.Background()

	log := logger.NewProduction("bot", version)
	log.InfoContext(ctx, "starting vpn-bot", "version", version)

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadWithPath(configPath)
	} else {
		cfg, err = config.NewLoader().Load()
	}
	if err != nil {
		log.ErrorCtx(ctx, "failed to load configuration", err)
		return err
	}

	// Rebuild the logger with the configured settings.
	log = logger.New(logger.LoggerConfig{
		Level:     logger.LogLevel(cfg.Log.Level),
		Format:    logger.OutputFormat(cfg.Log.Format),
		Component: "bot",
		Version:   version,
	})
	log.DebugContext(ctx, "configuration loaded successfully")

	service, err := bot.NewService(cfg, log)
	if err != nil {
		log.ErrorCtx(ctx, "failed to create service", err)
		return err
	}

	if err := service.Start(ctx); err != nil {
		log.ErrorCtx(ctx, "failed to start service", err)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if stopErr := service.Stop(shutdownCtx); stopErr != nil {
			log.ErrorCtx(ctx, "failed to cleanup service after startup failure", stopErr)
		}
		return err
	}

	service.WaitForShutdown()
	log.InfoContext(ctx, "main process exiting")
	return nil
}
