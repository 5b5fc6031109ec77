// Package chat defines the contract between the bot core and the chat
// transport. The core never talks to a chat network directly; it consumes
// Events and replies through a Transport.
package chat

import "context"

// Attachment is a file the user sent with a message. For photos the
// transport already picked the highest-resolution variant.
type Attachment struct {
	FileID string
	Name   string
}

// Event is one inbound chat message, already parsed. Command is set (without
// the leading slash) when the text was a command, with Args holding the rest.
type Event struct {
	UserID     int64 // stable identity of the sender
	ChatID     int64 // where replies go
	MessageID  int64
	Text       string
	Command    string
	Args       []string
	Attachment *Attachment
}

// Transport delivers outbound effects to the chat network.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	// DeleteMessage removes a message from the chat history. Best-effort:
	// callers ignore the error.
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	// DownloadFile fetches a transport-hosted file to a local path.
	DownloadFile(ctx context.Context, fileID, dest string) error
}
