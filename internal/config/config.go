package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultHost         = "0.0.0.0"
	DefaultPort         = 8080
	DefaultBufSize      = 100
	DefaultStoreBackend = "dynamo"
	DefaultStoreTable   = "kinobot-catalog"
	DefaultSessions     = "memory"
)

type Config struct {
	Bot      BotConfig      `json:"bot"`
	Channels ChannelsConfig `json:"channels"`
	Store    StoreConfig    `json:"store"`
	Sessions SessionsConfig `json:"sessions"`
	Gateway  GatewayConfig  `json:"gateway"`
}

type BotConfig struct {
	// AdminIDs is the fixed allow-list of admin sender identities.
	AdminIDs []string `json:"adminIds"`
	// RequiredChannels must all be joined before a user may use the bot.
	RequiredChannels []RequiredChannel `json:"requiredChannels"`
	SupportContact   string            `json:"supportContact,omitempty"`
}

type RequiredChannel struct {
	ID   string `json:"id"`   // @username or numeric channel ID
	Link string `json:"link"` // invite link shown to unsubscribed users
	Name string `json:"name"` // display name
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	Proxy   string `json:"proxy,omitempty"`
}

type StoreConfig struct {
	Backend  string `json:"backend"` // "dynamo" (default) or "memory"
	Table    string `json:"table"`
	Region   string `json:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty"` // local DynamoDB override
}

type SessionsConfig struct {
	Backend string `json:"backend"` // "memory" (default) or "sqlite"
	DBPath  string `json:"dbPath,omitempty"`
}

type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func DefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{},
		Channels: ChannelsConfig{
			Telegram: TelegramConfig{Enabled: true},
		},
		Store: StoreConfig{
			Backend: DefaultStoreBackend,
			Table:   DefaultStoreTable,
		},
		Sessions: SessionsConfig{
			Backend: DefaultSessions,
			DBPath:  filepath.Join(ConfigDir(), "data", "sessions.db"),
		},
		Gateway: GatewayConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".kinobot")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if token := os.Getenv("KINOBOT_TELEGRAM_TOKEN"); token != "" {
		cfg.Channels.Telegram.Token = token
	}
	if token := os.Getenv("BOT_TOKEN"); token != "" && cfg.Channels.Telegram.Token == "" {
		cfg.Channels.Telegram.Token = token
	}
	if ids := os.Getenv("KINOBOT_ADMIN_IDS"); ids != "" {
		cfg.Bot.AdminIDs = splitList(ids)
	}
	if backend := os.Getenv("KINOBOT_STORE_BACKEND"); backend != "" {
		cfg.Store.Backend = backend
	}
	if table := os.Getenv("KINOBOT_STORE_TABLE"); table != "" {
		cfg.Store.Table = table
	}
	if region := os.Getenv("KINOBOT_STORE_REGION"); region != "" {
		cfg.Store.Region = region
	}
	if endpoint := os.Getenv("KINOBOT_STORE_ENDPOINT"); endpoint != "" {
		cfg.Store.Endpoint = endpoint
	}
	if backend := os.Getenv("KINOBOT_SESSIONS_BACKEND"); backend != "" {
		cfg.Sessions.Backend = backend
	}
	if dbPath := os.Getenv("KINOBOT_SESSIONS_DB_PATH"); dbPath != "" {
		cfg.Sessions.DBPath = dbPath
	}
	if port := os.Getenv("PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			cfg.Gateway.Port = parsed
		}
	}

	if cfg.Store.Table == "" {
		cfg.Store.Table = DefaultStoreTable
	}
	if cfg.Sessions.DBPath == "" {
		cfg.Sessions.DBPath = DefaultConfig().Sessions.DBPath
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
