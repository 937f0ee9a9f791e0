package channel

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kinoxada/kinobot/internal/bus"
	"github.com/kinoxada/kinobot/internal/config"
)

const telegramChannelName = "telegram"

// TelegramBot interface for mocking telegram bot API
type TelegramBot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetSelf() tgbotapi.User
}

// tgBotWrapper wraps tgbotapi.BotAPI to implement TelegramBot interface
type tgBotWrapper struct {
	bot *tgbotapi.BotAPI
}

func (w *tgBotWrapper) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return w.bot.GetUpdatesChan(config)
}

func (w *tgBotWrapper) StopReceivingUpdates() {
	w.bot.StopReceivingUpdates()
}

func (w *tgBotWrapper) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return w.bot.Send(c)
}

func (w *tgBotWrapper) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return w.bot.Request(c)
}

func (w *tgBotWrapper) GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	return w.bot.GetChatMember(config)
}

func (w *tgBotWrapper) GetSelf() tgbotapi.User {
	return w.bot.Self
}

// BotFactory creates TelegramBot instances (allows mocking)
type BotFactory func(token, apiEndpoint string, client *http.Client) (TelegramBot, error)

// defaultBotFactory creates real telegram bot
var defaultBotFactory BotFactory = func(token, apiEndpoint string, client *http.Client) (TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, client)
	if err != nil {
		return nil, err
	}
	return &tgBotWrapper{bot: bot}, nil
}

type TelegramChannel struct {
	BaseChannel
	token      string
	bot        TelegramBot
	proxy      string
	cancel     context.CancelFunc
	botFactory BotFactory
}

func NewTelegramChannel(cfg config.TelegramConfig, b *bus.MessageBus) (*TelegramChannel, error) {
	return NewTelegramChannelWithFactory(cfg, b, defaultBotFactory)
}

// NewTelegramChannelWithFactory creates a TelegramChannel with custom bot factory (for testing)
func NewTelegramChannelWithFactory(cfg config.TelegramConfig, b *bus.MessageBus, factory BotFactory) (*TelegramChannel, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	ch := &TelegramChannel{
		BaseChannel: NewBaseChannel(telegramChannelName, b),
		token:       cfg.Token,
		proxy:       cfg.Proxy,
		botFactory:  factory,
	}
	return ch, nil
}

func (t *TelegramChannel) initBot() error {
	client := http.DefaultClient
	if t.proxy != "" {
		proxyURL, err := url.Parse(t.proxy)
		if err != nil {
			return fmt.Errorf("parse proxy url: %w", err)
		}
		client = &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		}
	}

	bot, err := t.botFactory(t.token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return fmt.Errorf("create telegram bot: %w", err)
	}
	t.bot = bot
	log.Printf("[telegram] authorized as @%s", bot.GetSelf().UserName)
	return nil
}

func (t *TelegramChannel) Start(ctx context.Context) error {
	if err := t.initBot(); err != nil {
		return err
	}

	ctx, t.cancel = context.WithCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case update := <-updates:
				t.handleUpdate(update)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Printf("[telegram] polling started")
	return nil
}

func (t *TelegramChannel) handleUpdate(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		t.handleCallbackQuery(update.CallbackQuery)
	case update.Message != nil:
		t.handleMessage(update.Message)
	}
}

func (t *TelegramChannel) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	in := bus.InboundMessage{
		Channel:   telegramChannelName,
		SenderID:  strconv.FormatInt(msg.From.ID, 10),
		ChatID:    strconv.FormatInt(msg.Chat.ID, 10),
		Timestamp: time.Unix(int64(msg.Date), 0),
		Metadata: map[string]any{
			"username":   msg.From.UserName,
			"first_name": msg.From.FirstName,
			"message_id": msg.MessageID,
		},
	}

	switch {
	case msg.IsCommand():
		in.Kind = bus.KindCommand
		in.Command = msg.Command()
		in.Content = msg.CommandArguments()
	case msg.Video != nil:
		in.Kind = bus.KindFile
		in.FileID = msg.Video.FileID
		in.FileKind = "video"
		in.Caption = msg.Caption
	case msg.Document != nil:
		in.Kind = bus.KindFile
		in.FileID = msg.Document.FileID
		in.FileKind = "document"
		in.Caption = msg.Caption
	case msg.Text != "":
		in.Kind = bus.KindText
		in.Content = msg.Text
	default:
		return
	}

	t.bus.Inbound <- in
}

func (t *TelegramChannel) handleCallbackQuery(cq *tgbotapi.CallbackQuery) {
	// Acknowledge right away so the button stops spinning.
	if _, err := t.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		log.Printf("[telegram] answer callback %s: %v", cq.ID, err)
	}

	if cq.Message == nil {
		return
	}

	t.bus.Inbound <- bus.InboundMessage{
		Channel:   telegramChannelName,
		SenderID:  strconv.FormatInt(cq.From.ID, 10),
		ChatID:    strconv.FormatInt(cq.Message.Chat.ID, 10),
		Kind:      bus.KindCallback,
		Content:   cq.Data,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"username":   cq.From.UserName,
			"message_id": cq.Message.MessageID,
		},
	}
}

// IsMember reports whether a user belongs to a channel. The channel may
// be given as @username or as a numeric chat ID.
func (t *TelegramChannel) IsMember(_ context.Context, channelID, userID string) (bool, error) {
	if t.bot == nil {
		return false, fmt.Errorf("telegram bot not initialized")
	}

	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return false, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	cfg := tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{UserID: uid},
	}
	if strings.HasPrefix(channelID, "@") {
		cfg.SuperGroupUsername = channelID
	} else {
		cid, err := strconv.ParseInt(channelID, 10, 64)
		if err != nil {
			return false, fmt.Errorf("invalid channel id %q: %w", channelID, err)
		}
		cfg.ChatID = cid
	}

	member, err := t.bot.GetChatMember(cfg)
	if err != nil {
		return false, fmt.Errorf("get chat member: %w", err)
	}

	switch member.Status {
	case "creator", "administrator", "member":
		return true, nil
	default:
		return false, nil
	}
}

func (t *TelegramChannel) Stop() error {
	if t.cancel != nil {
		t.cancel()
	}
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
	log.Printf("[telegram] stopped")
	return nil
}

// SetBot sets the bot (for testing)
func (t *TelegramChannel) SetBot(bot TelegramBot) {
	t.bot = bot
}

func (t *TelegramChannel) Send(msg bus.OutboundMessage) error {
	if t.bot == nil {
		return fmt.Errorf("telegram bot not initialized")
	}

	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", msg.ChatID, err)
	}

	markup := buildReplyMarkup(msg)

	if msg.FileID != "" {
		return t.sendMedia(chatID, msg, markup)
	}
	return t.sendText(chatID, msg, markup)
}

// sendMedia delivers a stored file by its Telegram file reference.
// Movie files are usually videos; documents are retried as such.
func (t *TelegramChannel) sendMedia(chatID int64, msg bus.OutboundMessage, markup any) error {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FileID(msg.FileID))
	video.Caption = msg.Content
	video.ParseMode = tgbotapi.ModeHTML
	video.ReplyMarkup = markup
	if _, err := t.bot.Send(video); err == nil {
		return nil
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileID(msg.FileID))
	doc.Caption = msg.Content
	doc.ParseMode = tgbotapi.ModeHTML
	doc.ReplyMarkup = markup
	if _, err := t.bot.Send(doc); err != nil {
		return fmt.Errorf("send telegram media: %w", err)
	}
	return nil
}

func (t *TelegramChannel) sendText(chatID int64, msg bus.OutboundMessage, markup any) error {
	content := msg.Content

	// Telegram has a 4096 char limit per message
	const maxLen = 4000
	for len(content) > 0 {
		chunk := content
		if len(chunk) > maxLen {
			// Try to split at last newline before maxLen
			idx := strings.LastIndex(chunk[:maxLen], "\n")
			if idx > 0 {
				chunk = chunk[:idx]
			} else {
				chunk = chunk[:maxLen]
			}
		}
		content = content[len(chunk):]

		tgMsg := tgbotapi.NewMessage(chatID, chunk)
		tgMsg.ParseMode = tgbotapi.ModeHTML
		tgMsg.DisableWebPagePreview = msg.DisablePreview
		if len(content) == 0 {
			// Keyboards go on the final chunk only.
			tgMsg.ReplyMarkup = markup
		}
		if _, err := t.bot.Send(tgMsg); err != nil {
			// Retry without HTML parse mode
			tgMsg.ParseMode = ""
			if _, err2 := t.bot.Send(tgMsg); err2 != nil {
				return fmt.Errorf("send telegram message: %w", err2)
			}
		}
	}
	return nil
}

func buildReplyMarkup(msg bus.OutboundMessage) any {
	if len(msg.Buttons) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(msg.Buttons))
		for _, row := range msg.Buttons {
			btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, b := range row {
				if b.URL != "" {
					btns = append(btns, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				} else {
					btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Callback))
				}
			}
			rows = append(rows, btns)
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	if len(msg.Keyboard) > 0 {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(msg.Keyboard))
		for _, row := range msg.Keyboard {
			btns := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, label := range row {
				btns = append(btns, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, btns)
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.ResizeKeyboard = true
		return kb
	}

	return nil
}
