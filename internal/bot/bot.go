// Package bot dispatches inbound chat events to the admin workflows and
// the user lookup flow. It owns no transport: events arrive as bus
// messages and replies are returned as bus messages.
package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/kinoxada/kinobot/internal/bus"
	"github.com/kinoxada/kinobot/internal/config"
	"github.com/kinoxada/kinobot/internal/session"
	"github.com/kinoxada/kinobot/internal/store"
)

// Callback data prefixes for inline keyboard buttons.
const (
	cbAcceptCode  = "code:"    // accept a suggested movie code
	cbAcceptName  = "name"     // accept the caption-derived title
	cbSelectMovie = "movie:"   // pick one movie from a disambiguation list
	cbCheckSub    = "checksub" // re-check channel subscriptions
)

// Main reply keyboard labels.
const (
	btnMovieList = "🎬 Movie List"
	btnHelp      = "❓ Help"
)

// MembershipChecker reports whether a user is a member of a channel.
// The Telegram channel implements it over the bot API.
type MembershipChecker interface {
	IsMember(ctx context.Context, channelID, userID string) (bool, error)
}

// Bot routes one inbound update at a time. It holds no per-request
// state; workflow progress lives in the session store.
type Bot struct {
	cfg        config.BotConfig
	store      store.Catalog
	sessions   session.Store
	membership MembershipChecker
}

func New(cfg config.BotConfig, cat store.Catalog, sessions session.Store, membership MembershipChecker) *Bot {
	return &Bot{
		cfg:        cfg,
		store:      cat,
		sessions:   sessions,
		membership: membership,
	}
}

// Handle processes a single inbound update and returns the replies to
// send. It never returns an error: failures become user-visible
// messages and nothing is retried.
func (b *Bot) Handle(ctx context.Context, msg bus.InboundMessage) []bus.OutboundMessage {
	switch msg.Kind {
	case bus.KindCommand:
		return b.handleCommand(ctx, msg)
	case bus.KindCallback:
		return b.handleCallback(ctx, msg)
	case bus.KindFile:
		return b.handleFile(ctx, msg)
	default:
		return b.handleText(ctx, msg)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg bus.InboundMessage) []bus.OutboundMessage {
	switch msg.Command {
	case "start":
		return b.cmdStart(ctx, msg)
	case "userhelp":
		return b.cmdUserHelp(ctx, msg)
	case "adminhelp":
		return b.cmdAdminHelp(msg)
	case "myid":
		return b.cmdMyID(msg)
	case "addmovie":
		return b.cmdAddMovie(ctx, msg)
	case "deletemovie":
		return b.cmdDeleteMovie(msg)
	case "cancel":
		return b.cmdCancel(msg)
	case "listallmovies":
		return b.cmdListAllMovies(ctx, msg)
	default:
		if replies, ok := b.gate(ctx, msg); !ok {
			return replies
		}
		return []bus.OutboundMessage{b.replyWithKeyboard(msg,
			"I did not understand that command. Send a movie code, a title, or use the buttons below.")}
	}
}

func (b *Bot) isAdmin(senderID string) bool {
	for _, id := range b.cfg.AdminIDs {
		if id == senderID {
			return true
		}
	}
	return false
}

// requireAdmin guards privileged handlers. Unauthorized access clears
// any session and reports a permission error with no store access.
func (b *Bot) requireAdmin(msg bus.InboundMessage) ([]bus.OutboundMessage, bool) {
	if b.isAdmin(msg.SenderID) {
		return nil, true
	}
	if err := b.sessions.Clear(msg.SessionKey()); err != nil {
		log.Printf("[bot] clear session for %s: %v", msg.SessionKey(), err)
	}
	return []bus.OutboundMessage{b.reply(msg, "You are not allowed to use this command.")}, false
}

// gate enforces mandatory channel subscription for user-facing flows.
// Admins bypass the check; a failed membership lookup counts as not
// subscribed.
func (b *Bot) gate(ctx context.Context, msg bus.InboundMessage) ([]bus.OutboundMessage, bool) {
	if b.isAdmin(msg.SenderID) {
		return nil, true
	}
	missing := b.unsubscribedChannels(ctx, msg.SenderID)
	if len(missing) == 0 {
		return nil, true
	}
	return []bus.OutboundMessage{b.subscriptionPrompt(msg,
		"To use this bot you must first join the following channels:", missing)}, false
}

func (b *Bot) unsubscribedChannels(ctx context.Context, userID string) []config.RequiredChannel {
	if b.membership == nil || len(b.cfg.RequiredChannels) == 0 {
		return nil
	}
	var missing []config.RequiredChannel
	for _, ch := range b.cfg.RequiredChannels {
		ok, err := b.membership.IsMember(ctx, ch.ID, userID)
		if err != nil {
			log.Printf("[bot] membership check for user %s in %s: %v", userID, ch.ID, err)
			missing = append(missing, ch)
			continue
		}
		if !ok {
			missing = append(missing, ch)
		}
	}
	return missing
}

func (b *Bot) subscriptionPrompt(msg bus.InboundMessage, lead string, missing []config.RequiredChannel) bus.OutboundMessage {
	var sb strings.Builder
	sb.WriteString(lead)
	sb.WriteString("\n\n")

	var buttons [][]bus.Button
	for _, ch := range missing {
		fmt.Fprintf(&sb, "• <b>%s</b>: <a href=\"%s\">%s</a>\n", ch.Name, ch.Link, ch.Link)
		buttons = append(buttons, []bus.Button{{Text: "Join: " + ch.Name, URL: ch.Link}})
	}
	buttons = append(buttons, []bus.Button{{Text: "✅ Check Subscription", Callback: cbCheckSub}})

	out := b.reply(msg, sb.String())
	out.Buttons = buttons
	out.DisablePreview = true
	return out
}

func (b *Bot) cmdStart(ctx context.Context, msg bus.InboundMessage) []bus.OutboundMessage {
	if replies, ok := b.gate(ctx, msg); !ok {
		return replies
	}

	if err := b.store.RecordUser(ctx, msg.SenderID); err != nil {
		log.Printf("[bot] record user %s: %v", msg.SenderID, err)
	}
	total, err := b.store.CountUsers(ctx)
	if err != nil {
		log.Printf("[bot] count users: %v", err)
	}

	var sb strings.Builder
	sb.WriteString("<b>Welcome!</b> 👋\n\n")
	sb.WriteString("I help you find movies by their codes. ")
	sb.WriteString("Send me a movie code or type part of a title and I will find it for you.\n\n")
	sb.WriteString("For example, if you want the movie with code '1', just send '1'.")
	sb.WriteString("\n\nSend /userhelp for the full list of commands.")
	fmt.Fprintf(&sb, "\n\n🥳 Happy users so far: <b>%d</b>", total)

	if b.isAdmin(msg.SenderID) {
		sb.WriteString("\n\n<i>You are an admin! Send /adminhelp for admin commands.</i>")
	}

	return []bus.OutboundMessage{b.replyWithKeyboard(msg, sb.String())}
}

func (b *Bot) cmdUserHelp(ctx context.Context, msg bus.InboundMessage) []bus.OutboundMessage {
	if replies, ok := b.gate(ctx, msg); !ok {
		return replies
	}

	var sb strings.Builder
	sb.WriteString("<b>How to use this bot:</b>\n\n")
	sb.WriteString("• <b>Send a movie code:</b> if you know the code (for example '123'), just send it.\n")
	sb.WriteString("• <b>Type a title:</b> if you do not know the code, type part of the title (for example 'Avatar') and I will look for matches.\n")
	sb.WriteString("• <b>/listallmovies:</b> press '" + btnMovieList + "' or send /listallmovies to see everything available.\n")
	sb.WriteString("• <b>/start:</b> restart the bot.\n")
	if b.cfg.SupportContact != "" {
		sb.WriteString("\n<b>Support:</b> " + b.cfg.SupportContact)
	}

	return []bus.OutboundMessage{b.replyWithKeyboard(msg, sb.String())}
}

func (b *Bot) cmdAdminHelp(msg bus.InboundMessage) []bus.OutboundMessage {
	if replies, ok := b.requireAdmin(msg); !ok {
		return replies
	}

	help := "<b>Admin commands:</b>\n\n" +
		"• <b>/addmovie</b>\n  Start adding a new movie. You will be asked for the file, a code and a title.\n\n" +
		"• <b>/deletemovie</b>\n  Delete a movie by its code.\n\n" +
		"• <b>/listallmovies</b>\n  List all stored movie codes and titles.\n\n" +
		"• <b>/myid</b>\n  Show your user ID (useful for configuring admins).\n\n" +
		"• <b>/cancel</b>\n  Abort an add or delete operation in progress."

	return []bus.OutboundMessage{b.reply(msg, help)}
}

func (b *Bot) cmdMyID(msg bus.InboundMessage) []bus.OutboundMessage {
	return []bus.OutboundMessage{b.reply(msg,
		fmt.Sprintf("Your user ID: <code>%s</code>", msg.SenderID))}
}

func (b *Bot) cmdCancel(msg bus.InboundMessage) []bus.OutboundMessage {
	if replies, ok := b.requireAdmin(msg); !ok {
		return replies
	}

	sess, err := b.sessions.Get(msg.SessionKey())
	if err != nil {
		log.Printf("[bot] read session for %s: %v", msg.SessionKey(), err)
	}
	if sess == nil {
		return []bus.OutboundMessage{b.reply(msg, "Nothing to cancel.")}
	}
	if err := b.sessions.Clear(msg.SessionKey()); err != nil {
		return []bus.OutboundMessage{b.reply(msg, "Could not cancel: "+err.Error())}
	}
	return []bus.OutboundMessage{b.reply(msg, "Operation cancelled.")}
}

func (b *Bot) reply(msg bus.InboundMessage, content string) bus.OutboundMessage {
	return bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: content,
	}
}

func (b *Bot) replyWithKeyboard(msg bus.InboundMessage, content string) bus.OutboundMessage {
	out := b.reply(msg, content)
	out.Keyboard = [][]string{{btnMovieList, btnHelp}}
	return out
}
