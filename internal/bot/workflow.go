package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/kinoxada/kinobot/internal/bus"
	"github.com/kinoxada/kinobot/internal/catalog"
	"github.com/kinoxada/kinobot/internal/session"
	"github.com/kinoxada/kinobot/internal/store"
)

func (b *Bot) cmdAddMovie(ctx context.Context, msg bus.InboundMessage) []bus.OutboundMessage {
	if replies, ok := b.requireAdmin(msg); !ok {
		return replies
	}

	all, err := b.store.ListMovies(ctx)
	if err != nil {
		return []bus.OutboundMessage{b.reply(msg, "Could not reach the catalog: "+err.Error())}
	}
	codes := make([]string, 0, len(all))
	for code := range all {
		codes = append(codes, code)
	}
	suggested := strconv.Itoa(catalog.NextAvailableCode(codes))

	sess := session.Session{
		Stage:         session.StageAwaitingFile,
		SuggestedCode: suggested,
	}
	if err := b.sessions.Put(msg.SessionKey(), sess); err != nil {
		return []bus.OutboundMessage{b.reply(msg, "Could not start the operation: "+err.Error())}
	}

	return []bus.OutboundMessage{b.reply(msg, fmt.Sprintf(
		"Please send the movie file (video or document).\n\n"+
			"Suggested code for the next movie: <b>%s</b>\n"+
			"Send /cancel to abort.", suggested))}
}

// handleFile accepts the movie file during registration. Files arriving
// outside an add operation fall through to the generic response.
func (b *Bot) handleFile(ctx context.Context, msg bus.InboundMessage) []bus.OutboundMessage {
	sess, err := b.sessions.Get(msg.SessionKey())
	if err != nil {
		log.Printf("[bot] read session for %s: %v", msg.SessionKey(), err)
	}
	if sess == nil || sess.Stage != session.StageAwaitingFile {
		if replies, ok := b.gate(ctx, msg); !ok {
			return replies
		}
		return []bus.OutboundMessage{b.replyWithKeyboard(msg,
			"I did not understand that. Send a movie code, a title, or use the buttons below.")}
	}
	if replies, ok := b.requireAdmin(msg); !ok {
		return replies
	}

	capCode, capName := catalog.ParseCaption(msg.Caption)

	sess.Stage = session.StageAwaitingCode
	sess.FileID = msg.FileID
	sess.FileKind = msg.FileKind
	sess.SuggestedName = capName
	if err := b.sessions.Put(msg.SessionKey(), *sess); err != nil {
		return []bus.OutboundMessage{b.reply(msg, "Could not save progress: "+err.Error())}
	}

	suggestions := []string{sess.SuggestedCode}
	if capCode != "" && capCode != sess.SuggestedCode {
		suggestions = append(suggestions, capCode)
	}

	var buttons [][]bus.Button
	for _, s := range suggestions {
		buttons = append(buttons, []bus.Button{{Text: s, Callback: cbAcceptCode + s}})
	}

	out := b.reply(msg, "File received. ✅\n\nNow send the code for this movie, or pick a suggestion below.")
	out.Buttons = buttons
	return []bus.OutboundMessage{out}
}

// acceptCode validates a proposed code and advances to the title step.
// Duplicate and failed lookups keep the session where it is so the
// admin can retry.
func (b *Bot) acceptCode(ctx context.Context, msg bus.InboundMessage, sess *session.Session, raw string) []bus.OutboundMessage {
	code := catalog.NormalizeCode(raw)
	if code == "" {
		return []bus.OutboundMessage{b.reply(msg, "The code cannot be empty. Please send a code.")}
	}
	if sess.FileID == "" {
		return b.abortMissingData(msg)
	}

	existing, err := b.store.GetMovie(ctx, code)
	if err != nil {
		return []bus.OutboundMessage{b.reply(msg, "Could not check the code: "+err.Error())}
	}
	if existing != nil {
		return []bus.OutboundMessage{b.reply(msg, fmt.Sprintf(
			"Code <b>%s</b> is already taken by '%s'. Please send a different code.",
			code, existing.Name))}
	}

	sess.Stage = session.StageAwaitingName
	sess.PendingCode = code
	if err := b.sessions.Put(msg.SessionKey(), *sess); err != nil {
		return []bus.OutboundMessage{b.reply(msg, "Could not save progress: "+err.Error())}
	}

	out := b.reply(msg, fmt.Sprintf("Code <b>%s</b> accepted. Now send the movie title.", code))
	if sess.SuggestedName != "" {
		out.Content += fmt.Sprintf("\n\nFrom the file caption: <b>%s</b>", sess.SuggestedName)
		out.Buttons = [][]bus.Button{{{Text: "Use: " + sess.SuggestedName, Callback: cbAcceptName}}}
	}
	return []bus.OutboundMessage{out}
}

// acceptName commits the movie. A commit failure keeps the session so
// the admin can resend the title; a code collision at commit time sends
// the flow back to the code step.
func (b *Bot) acceptName(ctx context.Context, msg bus.InboundMessage, sess *session.Session, name string) []bus.OutboundMessage {
	if name == "" {
		return []bus.OutboundMessage{b.reply(msg, "The title cannot be empty. Please send a title.")}
	}
	if sess.FileID == "" || sess.PendingCode == "" {
		return b.abortMissingData(msg)
	}

	movie := catalog.Movie{
		Code:    sess.PendingCode,
		FileID:  sess.FileID,
		Name:    name,
		AddedAt: time.Now().Unix(),
	}
	err := b.store.PutMovie(ctx, movie)
	if errors.Is(err, store.ErrCodeTaken) {
		// Someone claimed the code between validation and commit.
		sess.Stage = session.StageAwaitingCode
		sess.PendingCode = ""
		if perr := b.sessions.Put(msg.SessionKey(), *sess); perr != nil {
			log.Printf("[bot] save session for %s: %v", msg.SessionKey(), perr)
		}
		return []bus.OutboundMessage{b.reply(msg, fmt.Sprintf(
			"Code <b>%s</b> was just taken by someone else. Please send a different code.",
			movie.Code))}
	}
	if err != nil {
		return []bus.OutboundMessage{b.reply(msg, "Could not save the movie: "+err.Error())}
	}

	if err := b.sessions.Clear(msg.SessionKey()); err != nil {
		log.Printf("[bot] clear session for %s: %v", msg.SessionKey(), err)
	}
	return []bus.OutboundMessage{b.reply(msg, fmt.Sprintf(
		"Movie saved. ✅\n\nCode: <b>%s</b>\nTitle: <b>%s</b>", movie.Code, movie.Name))}
}

func (b *Bot) cmdDeleteMovie(msg bus.InboundMessage) []bus.OutboundMessage {
	if replies, ok := b.requireAdmin(msg); !ok {
		return replies
	}

	sess := session.Session{Stage: session.StageAwaitingDeleteCode}
	if err := b.sessions.Put(msg.SessionKey(), sess); err != nil {
		return []bus.OutboundMessage{b.reply(msg, "Could not start the operation: "+err.Error())}
	}
	return []bus.OutboundMessage{b.reply(msg,
		"Send the code of the movie to delete, or /cancel to abort.")}
}

// acceptDeleteCode resolves a deletion request. Found or not, the
// operation ends; only a store failure keeps the session for a retry.
func (b *Bot) acceptDeleteCode(ctx context.Context, msg bus.InboundMessage, raw string) []bus.OutboundMessage {
	code := catalog.NormalizeCode(raw)
	if code == "" {
		return []bus.OutboundMessage{b.reply(msg, "The code cannot be empty. Please send a code.")}
	}

	existing, err := b.store.GetMovie(ctx, code)
	if err != nil {
		return []bus.OutboundMessage{b.reply(msg, "Could not check the code: "+err.Error())}
	}
	if existing == nil {
		if cerr := b.sessions.Clear(msg.SessionKey()); cerr != nil {
			log.Printf("[bot] clear session for %s: %v", msg.SessionKey(), cerr)
		}
		return []bus.OutboundMessage{b.reply(msg, fmt.Sprintf(
			"No movie with code <b>%s</b> was found. Operation finished.", code))}
	}

	if err := b.store.DeleteMovie(ctx, code); err != nil {
		return []bus.OutboundMessage{b.reply(msg, "Could not delete the movie: "+err.Error())}
	}
	if err := b.sessions.Clear(msg.SessionKey()); err != nil {
		log.Printf("[bot] clear session for %s: %v", msg.SessionKey(), err)
	}
	return []bus.OutboundMessage{b.reply(msg, fmt.Sprintf(
		"Movie '%s' (code <b>%s</b>) has been deleted. 🗑", existing.Name, code))}
}

func (b *Bot) abortMissingData(msg bus.InboundMessage) []bus.OutboundMessage {
	if err := b.sessions.Clear(msg.SessionKey()); err != nil {
		log.Printf("[bot] clear session for %s: %v", msg.SessionKey(), err)
	}
	return []bus.OutboundMessage{b.reply(msg,
		"Something went wrong: the file for this operation is missing. Please start again with /addmovie.")}
}
