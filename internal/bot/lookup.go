package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/kinoxada/kinobot/internal/bus"
	"github.com/kinoxada/kinobot/internal/catalog"
	"github.com/kinoxada/kinobot/internal/session"
)

// handleText routes free text. An active workflow session consumes the
// input first; otherwise the text is treated as a lookup query.
func (b *Bot) handleText(ctx context.Context, msg bus.InboundMessage) []bus.OutboundMessage {
	sess, err := b.sessions.Get(msg.SessionKey())
	if err != nil {
		log.Printf("[bot] read session for %s: %v", msg.SessionKey(), err)
	}
	if sess != nil {
		if replies, ok := b.requireAdmin(msg); !ok {
			return replies
		}
		switch sess.Stage {
		case session.StageAwaitingFile:
			return []bus.OutboundMessage{b.reply(msg,
				"I need the movie file first (video or document). Send the file, or /cancel to abort.")}
		case session.StageAwaitingCode:
			return b.acceptCode(ctx, msg, sess, msg.Content)
		case session.StageAwaitingName:
			return b.acceptName(ctx, msg, sess, strings.TrimSpace(msg.Content))
		case session.StageAwaitingDeleteCode:
			return b.acceptDeleteCode(ctx, msg, msg.Content)
		}
	}

	switch strings.TrimSpace(msg.Content) {
	case btnMovieList:
		return b.cmdListAllMovies(ctx, msg)
	case btnHelp:
		return b.cmdUserHelp(ctx, msg)
	}

	if replies, ok := b.gate(ctx, msg); !ok {
		return replies
	}
	return b.lookup(ctx, msg, msg.Content)
}

func (b *Bot) lookup(ctx context.Context, msg bus.InboundMessage, query string) []bus.OutboundMessage {
	all, err := b.store.ListMovies(ctx)
	if err != nil {
		log.Printf("[bot] list movies: %v", err)
		return []bus.OutboundMessage{b.reply(msg,
			"Something went wrong while searching. Please try again later.")}
	}

	res := catalog.Resolve(query, all)
	switch res.Outcome {
	case catalog.Hit:
		return []bus.OutboundMessage{b.movieMessage(msg, res.Movie)}
	case catalog.Ambiguous:
		var sb strings.Builder
		sb.WriteString("I found several matching movies. Pick one:\n\n")
		var buttons [][]bus.Button
		for _, c := range res.Candidates {
			fmt.Fprintf(&sb, "• <b>%s</b> (code %s)\n", c.Movie.Name, c.Code)
			buttons = append(buttons, []bus.Button{{
				Text:     fmt.Sprintf("%s (%s)", c.Movie.Name, c.Code),
				Callback: cbSelectMovie + c.Code,
			}})
		}
		out := b.reply(msg, sb.String())
		out.Buttons = buttons
		return []bus.OutboundMessage{out}
	default:
		return []bus.OutboundMessage{b.replyWithKeyboard(msg, fmt.Sprintf(
			"Sorry, I could not find anything for '%s'. 😔\n\n"+
				"Check the code, or try a different part of the title.", strings.TrimSpace(query)))}
	}
}

func (b *Bot) movieMessage(msg bus.InboundMessage, m catalog.Movie) bus.OutboundMessage {
	out := b.reply(msg, fmt.Sprintf("🎬 <b>%s</b>\nCode: <code>%s</code>", m.Name, m.Code))
	out.FileID = m.FileID
	return out
}

func (b *Bot) handleCallback(ctx context.Context, msg bus.InboundMessage) []bus.OutboundMessage {
	data := msg.Content
	switch {
	case data == cbCheckSub:
		return b.checkSubscription(ctx, msg)
	case strings.HasPrefix(data, cbAcceptCode):
		return b.callbackWithStage(ctx, msg, session.StageAwaitingCode, func(sess *session.Session) []bus.OutboundMessage {
			return b.acceptCode(ctx, msg, sess, strings.TrimPrefix(data, cbAcceptCode))
		})
	case data == cbAcceptName:
		return b.callbackWithStage(ctx, msg, session.StageAwaitingName, func(sess *session.Session) []bus.OutboundMessage {
			if sess.SuggestedName == "" {
				return b.abortMissingData(msg)
			}
			return b.acceptName(ctx, msg, sess, sess.SuggestedName)
		})
	case strings.HasPrefix(data, cbSelectMovie):
		return b.selectMovie(ctx, msg, strings.TrimPrefix(data, cbSelectMovie))
	default:
		log.Printf("[bot] unknown callback %q from %s", data, msg.SenderID)
		return nil
	}
}

// callbackWithStage runs a workflow callback only when the session is
// in the expected stage; stale buttons from a finished operation get a
// restart hint instead.
func (b *Bot) callbackWithStage(ctx context.Context, msg bus.InboundMessage, stage session.Stage, fn func(*session.Session) []bus.OutboundMessage) []bus.OutboundMessage {
	if replies, ok := b.requireAdmin(msg); !ok {
		return replies
	}
	sess, err := b.sessions.Get(msg.SessionKey())
	if err != nil {
		log.Printf("[bot] read session for %s: %v", msg.SessionKey(), err)
	}
	if sess == nil || sess.Stage != stage {
		return []bus.OutboundMessage{b.reply(msg,
			"This operation is no longer active. Start again with /addmovie.")}
	}
	return fn(sess)
}

func (b *Bot) selectMovie(ctx context.Context, msg bus.InboundMessage, code string) []bus.OutboundMessage {
	if replies, ok := b.gate(ctx, msg); !ok {
		return replies
	}
	movie, err := b.store.GetMovie(ctx, catalog.NormalizeCode(code))
	if err != nil {
		log.Printf("[bot] get movie %q: %v", code, err)
		return []bus.OutboundMessage{b.reply(msg,
			"Something went wrong while fetching the movie. Please try again later.")}
	}
	if movie == nil {
		return []bus.OutboundMessage{b.reply(msg,
			"That movie is no longer available.")}
	}
	return []bus.OutboundMessage{b.movieMessage(msg, *movie)}
}

func (b *Bot) checkSubscription(ctx context.Context, msg bus.InboundMessage) []bus.OutboundMessage {
	missing := b.unsubscribedChannels(ctx, msg.SenderID)
	if len(missing) > 0 {
		return []bus.OutboundMessage{b.subscriptionPrompt(msg,
			"You have not joined all channels yet:", missing)}
	}
	return []bus.OutboundMessage{b.replyWithKeyboard(msg,
		"Thanks for subscribing! 🎉 You can use the bot now. Send a movie code or a title.")}
}

func (b *Bot) cmdListAllMovies(ctx context.Context, msg bus.InboundMessage) []bus.OutboundMessage {
	if replies, ok := b.gate(ctx, msg); !ok {
		return replies
	}

	all, err := b.store.ListMovies(ctx)
	if err != nil {
		log.Printf("[bot] list movies: %v", err)
		return []bus.OutboundMessage{b.reply(msg,
			"Something went wrong while listing movies. Please try again later.")}
	}
	if len(all) == 0 {
		return []bus.OutboundMessage{b.replyWithKeyboard(msg, "No movies have been added yet.")}
	}

	codes := make([]string, 0, len(all))
	for code := range all {
		codes = append(codes, code)
	}
	codes = catalog.SortCodes(codes)

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>All movies (%d):</b>\n\n", len(codes))
	for _, code := range codes {
		fmt.Fprintf(&sb, "<code>%s</code> - %s\n", code, all[code].Name)
	}
	sb.WriteString("\nSend a code to get the movie.")

	return []bus.OutboundMessage{b.reply(msg, sb.String())}
}
