// Package gateway wires the bot together: storage, sessions, channels,
// background jobs and the inbound processing loop.
package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kinoxada/kinobot/internal/bot"
	"github.com/kinoxada/kinobot/internal/bus"
	"github.com/kinoxada/kinobot/internal/channel"
	"github.com/kinoxada/kinobot/internal/config"
	"github.com/kinoxada/kinobot/internal/cron"
	"github.com/kinoxada/kinobot/internal/session"
	"github.com/kinoxada/kinobot/internal/store"
)

// Options for creating a Gateway. Zero values select the configured
// production backends; tests inject fakes here.
type Options struct {
	Catalog    store.Catalog
	Sessions   session.Store
	BotFactory channel.BotFactory
	SignalChan chan os.Signal // for testing signal handling
}

type Gateway struct {
	cfg      *config.Config
	bus      *bus.MessageBus
	catalog  store.Catalog
	sessions session.Store
	bot      *bot.Bot
	channels *channel.ChannelManager
	cron     *cron.Service
	health   *http.Server

	signalChan chan os.Signal // for testing
}

// New creates a Gateway with default options
func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a Gateway with custom options for testing
func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	g := &Gateway{cfg: cfg}

	g.bus = bus.NewMessageBus(config.DefaultBufSize)

	cat := opts.Catalog
	if cat == nil {
		var err error
		cat, err = openCatalog(cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("open catalog store: %w", err)
		}
	}
	g.catalog = cat

	sessions := opts.Sessions
	if sessions == nil {
		var err error
		sessions, err = openSessions(cfg.Sessions)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
	}
	g.sessions = sessions

	factory := opts.BotFactory
	var (
		chMgr *channel.ChannelManager
		err   error
	)
	if factory == nil {
		chMgr, err = channel.NewChannelManager(cfg.Channels, g.bus)
	} else {
		chMgr, err = channel.NewChannelManagerWithFactory(cfg.Channels, g.bus, factory)
	}
	if err != nil {
		return nil, fmt.Errorf("create channel manager: %w", err)
	}
	g.channels = chMgr

	var membership bot.MembershipChecker
	if tg := chMgr.Telegram(); tg != nil {
		membership = tg
	}
	g.bot = bot.New(cfg.Bot, g.catalog, g.sessions, membership)

	g.cron = cron.NewService()
	g.cron.AddJob("daily-stats", "0 0 * * *", cron.StatsJob(g.catalog))

	g.health = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port),
		Handler: healthHandler(),
	}

	g.signalChan = opts.SignalChan
	return g, nil
}

func openCatalog(cfg config.StoreConfig) (store.Catalog, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemoryCatalog(), nil
	default:
		client, err := store.NewDynamoClient(context.Background(), cfg.Region, cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("create dynamodb client: %w", err)
		}
		return store.NewDynamoCatalog(client, cfg.Table), nil
	}
}

func openSessions(cfg config.SessionsConfig) (session.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		dbPath := cfg.DBPath
		if dbPath == "" {
			dbPath = filepath.Join(config.ConfigDir(), "data", "sessions.db")
		}
		return session.NewSQLiteStore(dbPath)
	default:
		return session.NewMemoryStore(), nil
	}
}

func healthHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Bot is running!")
	})
	return mux
}

func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go g.bus.DispatchOutbound(ctx)

	if err := g.channels.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	log.Printf("[gateway] channels started: %v", g.channels.EnabledChannels())

	if err := g.cron.Start(ctx); err != nil {
		log.Printf("[gateway] cron start warning: %v", err)
	}

	go func() {
		log.Printf("[gateway] health endpoint on %s", g.health.Addr)
		if err := g.health.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[gateway] health server error: %v", err)
		}
	}()

	go g.processLoop(ctx)

	log.Printf("[gateway] running on %s:%d", g.cfg.Gateway.Host, g.cfg.Gateway.Port)

	// Use injected signal channel for testing, or create default
	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	<-sigCh

	log.Printf("[gateway] shutting down...")
	return g.Shutdown()
}

func (g *Gateway) processLoop(ctx context.Context) {
	for {
		select {
		case msg := <-g.bus.Inbound:
			log.Printf("[gateway] inbound %s from %s/%s: %s",
				msg.Kind, msg.Channel, msg.SenderID, truncate(msg.Content, 80))

			for _, reply := range g.bot.Handle(ctx, msg) {
				g.bus.Outbound <- reply
			}
		case <-ctx.Done():
			return
		}
	}
}

func (g *Gateway) Shutdown() error {
	g.cron.Stop()
	_ = g.channels.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.health.Shutdown(shutdownCtx); err != nil {
		log.Printf("[gateway] health server shutdown warning: %v", err)
	}

	if closer, ok := g.sessions.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Printf("[gateway] close session store warning: %v", err)
		}
	}

	log.Printf("[gateway] shutdown complete")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
