package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kinoxada/kinobot/internal/config"
	"github.com/kinoxada/kinobot/internal/gateway"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kinobot",
	Short: "kinobot - movie catalog bot for Telegram",
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the bot (channels + background jobs + health endpoint)",
	RunE:  runGateway,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize the config file",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show kinobot status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(gatewayCmd, onboardCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.Channels.Telegram.Token == "" {
		return fmt.Errorf("telegram token not set. Run 'kinobot onboard' or set KINOBOT_TELEGRAM_TOKEN")
	}
	if len(cfg.Bot.AdminIDs) == 0 {
		return fmt.Errorf("no admins configured. Set bot.adminIds in %s or KINOBOT_ADMIN_IDS", config.ConfigPath())
	}

	gw, err := gateway.New(cfg)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return gw.Run(context.Background())
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgPath := config.ConfigPath()

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.SaveConfig(config.DefaultConfig()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Edit %s to set the telegram token and admin IDs\n", cfgPath)
	fmt.Println("  2. Or set KINOBOT_TELEGRAM_TOKEN and KINOBOT_ADMIN_IDS")
	fmt.Println("  3. Run 'kinobot gateway' to start the bot")

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	if cfg.Channels.Telegram.Token != "" {
		fmt.Println("Telegram token: set")
	} else {
		fmt.Println("Telegram token: not set")
	}
	fmt.Printf("Telegram: enabled=%v\n", cfg.Channels.Telegram.Enabled)
	fmt.Printf("Admins: %d configured\n", len(cfg.Bot.AdminIDs))
	fmt.Printf("Required channels: %d\n", len(cfg.Bot.RequiredChannels))
	fmt.Printf("Store: %s (table %s)\n", cfg.Store.Backend, cfg.Store.Table)
	fmt.Printf("Sessions: %s\n", cfg.Sessions.Backend)
	fmt.Printf("Gateway: %s:%d\n", cfg.Gateway.Host, cfg.Gateway.Port)

	return nil
}
