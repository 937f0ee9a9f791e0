package bus

import "time"

// EventKind tags what an inbound update carries.
type EventKind string

const (
	KindText     EventKind = "text"     // free-text message
	KindCommand  EventKind = "command"  // /command with optional arguments
	KindFile     EventKind = "file"     // media message with a file reference
	KindCallback EventKind = "callback" // inline keyboard button press
)

type InboundMessage struct {
	Channel   string
	SenderID  string
	ChatID    string
	Kind      EventKind
	Content   string // text body, command arguments, or callback data
	Command   string // command name without the slash, for KindCommand
	FileID    string // opaque media reference, for KindFile
	FileKind  string // "video" or "document"
	Caption   string // media caption, for KindFile
	Timestamp time.Time
	Metadata  map[string]any
}

func (m *InboundMessage) SessionKey() string {
	return m.Channel + ":" + m.ChatID
}

// Button is one inline keyboard button; exactly one of URL and Callback
// should be set.
type Button struct {
	Text     string
	URL      string
	Callback string
}

type OutboundMessage struct {
	Channel        string
	ChatID         string
	Content        string
	FileID         string     // when set, send the media with Content as caption
	Buttons        [][]Button // inline keyboard rows
	Keyboard       [][]string // reply keyboard rows
	DisablePreview bool
}
