package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kinoxada/kinobot/internal/bus"
	"github.com/kinoxada/kinobot/internal/catalog"
	"github.com/kinoxada/kinobot/internal/config"
	"github.com/kinoxada/kinobot/internal/session"
	"github.com/kinoxada/kinobot/internal/store"
)

const (
	adminID = "100"
	userID  = "200"
)

type fakeMembership struct {
	members map[string]bool // key: channelID + "/" + userID
	err     error
}

func (f *fakeMembership) IsMember(_ context.Context, channelID, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.members[channelID+"/"+userID], nil
}

// flakyCatalog fails PutMovie with putErr when set, otherwise behaves
// like the in-memory catalog.
type flakyCatalog struct {
	*store.MemoryCatalog
	putErr error
}

func (c *flakyCatalog) PutMovie(ctx context.Context, m catalog.Movie) error {
	if c.putErr != nil {
		return c.putErr
	}
	return c.MemoryCatalog.PutMovie(ctx, m)
}

type fixture struct {
	bot      *Bot
	store    *store.MemoryCatalog
	sessions session.Store
}

func newFixture(t *testing.T, cfg config.BotConfig, membership MembershipChecker) *fixture {
	t.Helper()
	if cfg.AdminIDs == nil {
		cfg.AdminIDs = []string{adminID}
	}
	cat := store.NewMemoryCatalog()
	sessions := session.NewMemoryStore()
	return &fixture{
		bot:      New(cfg, cat, sessions, membership),
		store:    cat,
		sessions: sessions,
	}
}

func (f *fixture) seed(t *testing.T, movies ...catalog.Movie) {
	t.Helper()
	for _, m := range movies {
		if err := f.store.PutMovie(context.Background(), m); err != nil {
			t.Fatalf("seed movie %s: %v", m.Code, err)
		}
	}
}

func command(sender, name string) bus.InboundMessage {
	return bus.InboundMessage{Channel: "telegram", SenderID: sender, ChatID: sender, Kind: bus.KindCommand, Command: name}
}

func text(sender, body string) bus.InboundMessage {
	return bus.InboundMessage{Channel: "telegram", SenderID: sender, ChatID: sender, Kind: bus.KindText, Content: body}
}

func file(sender, fileID, caption string) bus.InboundMessage {
	return bus.InboundMessage{Channel: "telegram", SenderID: sender, ChatID: sender, Kind: bus.KindFile, FileID: fileID, FileKind: "video", Caption: caption}
}

func callback(sender, data string) bus.InboundMessage {
	return bus.InboundMessage{Channel: "telegram", SenderID: sender, ChatID: sender, Kind: bus.KindCallback, Content: data}
}

func single(t *testing.T, replies []bus.OutboundMessage) bus.OutboundMessage {
	t.Helper()
	if len(replies) != 1 {
		t.Fatalf("expected 1 reply, got %d: %+v", len(replies), replies)
	}
	return replies[0]
}

func TestStartRecordsUser(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	ctx := context.Background()

	out := single(t, f.bot.Handle(ctx, command(userID, "start")))
	if !strings.Contains(out.Content, "Welcome") {
		t.Errorf("expected welcome text, got %q", out.Content)
	}
	if !strings.Contains(out.Content, "<b>1</b>") {
		t.Errorf("expected user count 1 in %q", out.Content)
	}
	if len(out.Keyboard) == 0 {
		t.Error("expected main reply keyboard")
	}
	if strings.Contains(out.Content, "admin") {
		t.Errorf("non-admin start should not mention admin commands: %q", out.Content)
	}

	// Second start must not double-count the user.
	out = single(t, f.bot.Handle(ctx, command(userID, "start")))
	if !strings.Contains(out.Content, "<b>1</b>") {
		t.Errorf("expected user count still 1 in %q", out.Content)
	}
}

func TestStartAdminHint(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	out := single(t, f.bot.Handle(context.Background(), command(adminID, "start")))
	if !strings.Contains(out.Content, "/adminhelp") {
		t.Errorf("expected admin hint in %q", out.Content)
	}
}

func TestUnauthorizedAdminCommands(t *testing.T) {
	for _, cmd := range []string{"addmovie", "deletemovie", "cancel", "adminhelp"} {
		t.Run(cmd, func(t *testing.T) {
			f := newFixture(t, config.BotConfig{}, nil)
			out := single(t, f.bot.Handle(context.Background(), command(userID, cmd)))
			if !strings.Contains(out.Content, "not allowed") {
				t.Errorf("expected permission error, got %q", out.Content)
			}
			sess, _ := f.sessions.Get("telegram:" + userID)
			if sess != nil {
				t.Error("no session should exist after unauthorized command")
			}
			movies, _ := f.store.ListMovies(context.Background())
			if len(movies) != 0 {
				t.Error("unauthorized command must not touch the catalog")
			}
		})
	}
}

func TestUnauthorizedInputClearsSession(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	key := "telegram:" + userID
	if err := f.sessions.Put(key, session.Session{Stage: session.StageAwaitingCode, FileID: "f1"}); err != nil {
		t.Fatal(err)
	}

	out := single(t, f.bot.Handle(context.Background(), text(userID, "7")))
	if !strings.Contains(out.Content, "not allowed") {
		t.Errorf("expected permission error, got %q", out.Content)
	}
	sess, _ := f.sessions.Get(key)
	if sess != nil {
		t.Error("session should be cleared on unauthorized input")
	}
}

func TestSubscriptionGate(t *testing.T) {
	channels := []config.RequiredChannel{
		{ID: "@films", Link: "https://t.me/films", Name: "Films"},
	}
	membership := &fakeMembership{members: map[string]bool{}}
	f := newFixture(t, config.BotConfig{RequiredChannels: channels}, membership)
	ctx := context.Background()

	out := single(t, f.bot.Handle(ctx, text(userID, "1")))
	if !strings.Contains(out.Content, "join") {
		t.Errorf("expected join prompt, got %q", out.Content)
	}
	if len(out.Buttons) != 2 {
		t.Fatalf("expected join + check buttons, got %+v", out.Buttons)
	}
	if out.Buttons[0][0].URL != "https://t.me/films" {
		t.Errorf("expected join link button, got %+v", out.Buttons[0][0])
	}
	if out.Buttons[1][0].Callback != cbCheckSub {
		t.Errorf("expected check callback, got %+v", out.Buttons[1][0])
	}

	// Re-check while still unsubscribed keeps the prompt.
	out = single(t, f.bot.Handle(ctx, callback(userID, cbCheckSub)))
	if !strings.Contains(out.Content, "not joined") {
		t.Errorf("expected still-unsubscribed prompt, got %q", out.Content)
	}

	// Joining unblocks on the next check.
	membership.members["@films/"+userID] = true
	out = single(t, f.bot.Handle(ctx, callback(userID, cbCheckSub)))
	if !strings.Contains(out.Content, "Thanks for subscribing") {
		t.Errorf("expected success message, got %q", out.Content)
	}
}

func TestSubscriptionCheckErrorCountsAsUnsubscribed(t *testing.T) {
	channels := []config.RequiredChannel{{ID: "@films", Link: "https://t.me/films", Name: "Films"}}
	membership := &fakeMembership{err: errors.New("api down")}
	f := newFixture(t, config.BotConfig{RequiredChannels: channels}, membership)

	out := single(t, f.bot.Handle(context.Background(), text(userID, "1")))
	if !strings.Contains(out.Content, "join") {
		t.Errorf("expected join prompt on check failure, got %q", out.Content)
	}
}

func TestAdminBypassesSubscriptionGate(t *testing.T) {
	channels := []config.RequiredChannel{{ID: "@films", Link: "https://t.me/films", Name: "Films"}}
	membership := &fakeMembership{members: map[string]bool{}}
	f := newFixture(t, config.BotConfig{RequiredChannels: channels}, membership)
	f.seed(t, catalog.Movie{Code: "1", FileID: "f1", Name: "Alpha"})

	out := single(t, f.bot.Handle(context.Background(), text(adminID, "1")))
	if out.FileID != "f1" {
		t.Errorf("admin lookup should bypass the gate, got %+v", out)
	}
}

func TestAddMovieFlow(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	ctx := context.Background()

	out := single(t, f.bot.Handle(ctx, command(adminID, "addmovie")))
	if !strings.Contains(out.Content, "<b>1</b>") {
		t.Errorf("expected suggested code 1, got %q", out.Content)
	}

	out = single(t, f.bot.Handle(ctx, file(adminID, "file-7", "code: 7\ntitle: Sample")))
	if len(out.Buttons) != 2 {
		t.Fatalf("expected allocator + caption code suggestions, got %+v", out.Buttons)
	}
	if out.Buttons[1][0].Callback != cbAcceptCode+"7" {
		t.Errorf("expected caption code suggestion, got %+v", out.Buttons[1][0])
	}

	out = single(t, f.bot.Handle(ctx, callback(adminID, cbAcceptCode+"7")))
	if !strings.Contains(out.Content, "Sample") {
		t.Errorf("expected caption title suggestion, got %q", out.Content)
	}
	if len(out.Buttons) != 1 || out.Buttons[0][0].Callback != cbAcceptName {
		t.Fatalf("expected title suggestion button, got %+v", out.Buttons)
	}

	out = single(t, f.bot.Handle(ctx, callback(adminID, cbAcceptName)))
	if !strings.Contains(out.Content, "Movie saved") {
		t.Errorf("expected save confirmation, got %q", out.Content)
	}

	movie, err := f.store.GetMovie(ctx, "7")
	if err != nil || movie == nil {
		t.Fatalf("movie not stored: %v", err)
	}
	if movie.Name != "Sample" || movie.FileID != "file-7" {
		t.Errorf("stored movie = %+v", movie)
	}
	sess, _ := f.sessions.Get("telegram:" + adminID)
	if sess != nil {
		t.Error("session should be cleared after commit")
	}
}

func TestAddMovieTypedCodeAndName(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	ctx := context.Background()

	f.bot.Handle(ctx, command(adminID, "addmovie"))
	f.bot.Handle(ctx, file(adminID, "file-x", ""))

	out := single(t, f.bot.Handle(ctx, text(adminID, "  42 ")))
	if !strings.Contains(out.Content, "<b>42</b> accepted") {
		t.Errorf("expected trimmed code accepted, got %q", out.Content)
	}

	single(t, f.bot.Handle(ctx, text(adminID, "The Answer")))
	movie, _ := f.store.GetMovie(ctx, "42")
	if movie == nil || movie.Name != "The Answer" {
		t.Fatalf("stored movie = %+v", movie)
	}
}

func TestAddMovieDuplicateCodeKeepsState(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	f.seed(t, catalog.Movie{Code: "5", FileID: "f5", Name: "Taken"})
	ctx := context.Background()

	f.bot.Handle(ctx, command(adminID, "addmovie"))
	f.bot.Handle(ctx, file(adminID, "file-x", ""))

	out := single(t, f.bot.Handle(ctx, text(adminID, "5")))
	if !strings.Contains(out.Content, "already taken") || !strings.Contains(out.Content, "Taken") {
		t.Errorf("expected duplicate rejection naming the movie, got %q", out.Content)
	}

	sess, _ := f.sessions.Get("telegram:" + adminID)
	if sess == nil || sess.Stage != session.StageAwaitingCode {
		t.Fatalf("session should stay at code step, got %+v", sess)
	}

	out = single(t, f.bot.Handle(ctx, text(adminID, "6")))
	if !strings.Contains(out.Content, "accepted") {
		t.Errorf("retry with a free code should advance, got %q", out.Content)
	}
}

func TestAddMovieCaptionCodeMatchesSuggestion(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	ctx := context.Background()

	f.bot.Handle(ctx, command(adminID, "addmovie"))
	// Allocator suggests 1 on an empty catalog; the caption says the same.
	out := single(t, f.bot.Handle(ctx, file(adminID, "file-1", "code: 1\ntitle: Same")))
	if len(out.Buttons) != 1 {
		t.Fatalf("expected deduplicated suggestion, got %+v", out.Buttons)
	}
	if out.Buttons[0][0].Callback != cbAcceptCode+"1" {
		t.Errorf("unexpected suggestion button: %+v", out.Buttons[0][0])
	}
}

func TestCommitFailureKeepsSession(t *testing.T) {
	cat := &flakyCatalog{MemoryCatalog: store.NewMemoryCatalog()}
	sessions := session.NewMemoryStore()
	b := New(config.BotConfig{AdminIDs: []string{adminID}}, cat, sessions, nil)
	ctx := context.Background()

	b.Handle(ctx, command(adminID, "addmovie"))
	b.Handle(ctx, file(adminID, "file-x", ""))
	b.Handle(ctx, text(adminID, "8"))

	cat.putErr = errors.New("table unavailable")
	out := single(t, b.Handle(ctx, text(adminID, "Title")))
	if !strings.Contains(out.Content, "table unavailable") {
		t.Errorf("expected store error reported, got %q", out.Content)
	}
	sess, _ := sessions.Get("telegram:" + adminID)
	if sess == nil || sess.Stage != session.StageAwaitingName || sess.PendingCode != "8" {
		t.Fatalf("session should stay at title step, got %+v", sess)
	}

	// Resending the title once the store recovers commits the movie.
	cat.putErr = nil
	out = single(t, b.Handle(ctx, text(adminID, "Title")))
	if !strings.Contains(out.Content, "Movie saved") {
		t.Errorf("expected save confirmation on retry, got %q", out.Content)
	}
	movie, _ := cat.GetMovie(ctx, "8")
	if movie == nil || movie.Name != "Title" {
		t.Fatalf("stored movie = %+v", movie)
	}
}

func TestCommitCodeTakenFallsBackToCodeStep(t *testing.T) {
	cat := &flakyCatalog{MemoryCatalog: store.NewMemoryCatalog()}
	sessions := session.NewMemoryStore()
	b := New(config.BotConfig{AdminIDs: []string{adminID}}, cat, sessions, nil)
	ctx := context.Background()

	b.Handle(ctx, command(adminID, "addmovie"))
	b.Handle(ctx, file(adminID, "file-x", ""))
	b.Handle(ctx, text(adminID, "8"))

	cat.putErr = store.ErrCodeTaken
	out := single(t, b.Handle(ctx, text(adminID, "Title")))
	if !strings.Contains(out.Content, "just taken") {
		t.Errorf("expected collision message, got %q", out.Content)
	}
	sess, _ := sessions.Get("telegram:" + adminID)
	if sess == nil || sess.Stage != session.StageAwaitingCode {
		t.Fatalf("session should fall back to the code step, got %+v", sess)
	}
	if sess.PendingCode != "" {
		t.Errorf("pending code should be cleared, got %q", sess.PendingCode)
	}

	cat.putErr = nil
	out = single(t, b.Handle(ctx, text(adminID, "9")))
	if !strings.Contains(out.Content, "accepted") {
		t.Errorf("retry with a new code should advance, got %q", out.Content)
	}
}

func TestAddMovieSuggestsSmallestFreeCode(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	f.seed(t,
		catalog.Movie{Code: "1", FileID: "f1", Name: "A"},
		catalog.Movie{Code: "2", FileID: "f2", Name: "B"},
		catalog.Movie{Code: "4", FileID: "f4", Name: "D"},
	)

	out := single(t, f.bot.Handle(context.Background(), command(adminID, "addmovie")))
	if !strings.Contains(out.Content, "<b>3</b>") {
		t.Errorf("expected gap code 3 suggested, got %q", out.Content)
	}
}

func TestMissingFileAbortsCodeStep(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	key := "telegram:" + adminID
	if err := f.sessions.Put(key, session.Session{Stage: session.StageAwaitingCode}); err != nil {
		t.Fatal(err)
	}

	out := single(t, f.bot.Handle(context.Background(), text(adminID, "7")))
	if !strings.Contains(out.Content, "/addmovie") {
		t.Errorf("expected restart hint, got %q", out.Content)
	}
	sess, _ := f.sessions.Get(key)
	if sess != nil {
		t.Error("broken session should be cleared")
	}
}

func TestTextWhileAwaitingFileReprompts(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	ctx := context.Background()
	f.bot.Handle(ctx, command(adminID, "addmovie"))

	out := single(t, f.bot.Handle(ctx, text(adminID, "not a file")))
	if !strings.Contains(out.Content, "movie file") {
		t.Errorf("expected file re-prompt, got %q", out.Content)
	}
	sess, _ := f.sessions.Get("telegram:" + adminID)
	if sess == nil || sess.Stage != session.StageAwaitingFile {
		t.Errorf("session should stay at file step, got %+v", sess)
	}
}

func TestStaleWorkflowCallback(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	out := single(t, f.bot.Handle(context.Background(), callback(adminID, cbAcceptCode+"3")))
	if !strings.Contains(out.Content, "no longer active") {
		t.Errorf("expected stale-callback message, got %q", out.Content)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	ctx := context.Background()

	out := single(t, f.bot.Handle(ctx, command(adminID, "cancel")))
	if !strings.Contains(out.Content, "Nothing to cancel") {
		t.Errorf("expected no-op cancel message, got %q", out.Content)
	}

	f.bot.Handle(ctx, command(adminID, "addmovie"))
	out = single(t, f.bot.Handle(ctx, command(adminID, "cancel")))
	if !strings.Contains(out.Content, "cancelled") {
		t.Errorf("expected cancel confirmation, got %q", out.Content)
	}
	sess, _ := f.sessions.Get("telegram:" + adminID)
	if sess != nil {
		t.Error("cancel should clear the session")
	}
}

func TestDeleteMovie(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	f.seed(t, catalog.Movie{Code: "3", FileID: "f3", Name: "Gone Soon"})
	ctx := context.Background()

	f.bot.Handle(ctx, command(adminID, "deletemovie"))
	out := single(t, f.bot.Handle(ctx, text(adminID, "3")))
	if !strings.Contains(out.Content, "Gone Soon") || !strings.Contains(out.Content, "deleted") {
		t.Errorf("expected delete confirmation, got %q", out.Content)
	}

	movie, _ := f.store.GetMovie(ctx, "3")
	if movie != nil {
		t.Error("movie should be removed from the catalog")
	}
	sess, _ := f.sessions.Get("telegram:" + adminID)
	if sess != nil {
		t.Error("session should be cleared after delete")
	}
}

func TestDeleteMovieUnknownCodeEndsOperation(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	f.seed(t, catalog.Movie{Code: "1", FileID: "f1", Name: "Keeper"})
	ctx := context.Background()

	f.bot.Handle(ctx, command(adminID, "deletemovie"))
	out := single(t, f.bot.Handle(ctx, text(adminID, "99")))
	if !strings.Contains(out.Content, "No movie with code") {
		t.Errorf("expected not-found message, got %q", out.Content)
	}
	sess, _ := f.sessions.Get("telegram:" + adminID)
	if sess != nil {
		t.Error("session should be cleared even when the code is unknown")
	}
	movies, _ := f.store.ListMovies(ctx)
	if len(movies) != 1 {
		t.Errorf("catalog should be untouched, got %d movies", len(movies))
	}
}

func TestLookupExactCodeWins(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	f.seed(t,
		catalog.Movie{Code: "1", FileID: "f1", Name: "Number 2 Movie"},
		catalog.Movie{Code: "2", FileID: "f2", Name: "Other"},
	)

	out := single(t, f.bot.Handle(context.Background(), text(userID, "2")))
	if out.FileID != "f2" {
		t.Errorf("exact code must beat name matches, got %+v", out)
	}
	if !strings.Contains(out.Content, "Other") {
		t.Errorf("expected movie caption, got %q", out.Content)
	}
}

func TestLookupAmbiguous(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	f.seed(t,
		catalog.Movie{Code: "2", FileID: "f2", Name: "blue ocean"},
		catalog.Movie{Code: "1", FileID: "f1", Name: "Blue Sky"},
	)
	ctx := context.Background()

	out := single(t, f.bot.Handle(ctx, text(userID, "blue")))
	if len(out.Buttons) != 2 {
		t.Fatalf("expected 2 candidate buttons, got %+v", out.Buttons)
	}
	// Candidates ordered by lowered name: "blue ocean" before "blue sky".
	if out.Buttons[0][0].Callback != cbSelectMovie+"2" || out.Buttons[1][0].Callback != cbSelectMovie+"1" {
		t.Errorf("unexpected candidate order: %+v", out.Buttons)
	}

	out = single(t, f.bot.Handle(ctx, callback(userID, cbSelectMovie+"1")))
	if out.FileID != "f1" {
		t.Errorf("selection should deliver the movie, got %+v", out)
	}
}

func TestLookupNotFound(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	out := single(t, f.bot.Handle(context.Background(), text(userID, "nothing here")))
	if !strings.Contains(out.Content, "could not find") {
		t.Errorf("expected not-found message, got %q", out.Content)
	}
}

func TestSelectMovieDeletedBetween(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	out := single(t, f.bot.Handle(context.Background(), callback(userID, cbSelectMovie+"9")))
	if !strings.Contains(out.Content, "no longer available") {
		t.Errorf("expected gone message, got %q", out.Content)
	}
}

func TestListAllMoviesSorted(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	f.seed(t,
		catalog.Movie{Code: "10", FileID: "fa", Name: "Ten"},
		catalog.Movie{Code: "2", FileID: "fb", Name: "Two"},
		catalog.Movie{Code: "x", FileID: "fc", Name: "Extra"},
	)

	out := single(t, f.bot.Handle(context.Background(), command(userID, "listallmovies")))
	iTwo := strings.Index(out.Content, ">2<")
	iTen := strings.Index(out.Content, ">10<")
	iX := strings.Index(out.Content, ">x<")
	if iTwo == -1 || iTen == -1 || iX == -1 {
		t.Fatalf("missing codes in listing: %q", out.Content)
	}
	if !(iTwo < iTen && iTen < iX) {
		t.Errorf("expected numeric-then-alpha order, got %q", out.Content)
	}
}

func TestListAllMoviesEmpty(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	out := single(t, f.bot.Handle(context.Background(), command(userID, "listallmovies")))
	if !strings.Contains(out.Content, "No movies") {
		t.Errorf("expected empty-catalog message, got %q", out.Content)
	}
}

func TestKeyboardShortcuts(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	f.seed(t, catalog.Movie{Code: "1", FileID: "f1", Name: "Alpha"})
	ctx := context.Background()

	out := single(t, f.bot.Handle(ctx, text(userID, btnMovieList)))
	if !strings.Contains(out.Content, "All movies") {
		t.Errorf("movie list button should list movies, got %q", out.Content)
	}

	out = single(t, f.bot.Handle(ctx, text(userID, btnHelp)))
	if !strings.Contains(out.Content, "How to use") {
		t.Errorf("help button should show user help, got %q", out.Content)
	}
}

func TestMyID(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	out := single(t, f.bot.Handle(context.Background(), command(userID, "myid")))
	if !strings.Contains(out.Content, userID) {
		t.Errorf("expected sender ID in %q", out.Content)
	}
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t, config.BotConfig{}, nil)
	out := single(t, f.bot.Handle(context.Background(), command(userID, "frobnicate")))
	if !strings.Contains(out.Content, "did not understand") {
		t.Errorf("expected fallback message, got %q", out.Content)
	}
}
