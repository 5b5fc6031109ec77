// Package telegram implements chat.Transport over the Telegram Bot API with
// long polling. It only knows how to move messages and files; all behavior
// lives behind the dispatcher.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerbot/ledgerbot-go/internal/chat"
)

const (
	pollTimeout  = 30 * time.Second
	retryBackoff = 3 * time.Second
)

type Client struct {
	apiBase  string
	fileBase string
	http     *http.Client
}

func New(token string) *Client {
	return &Client{
		apiBase:  "https://api.telegram.org/bot" + token,
		fileBase: "https://api.telegram.org/file/bot" + token,
		// Longer than the poll timeout so long polls are not cut short.
		http: &http.Client{Timeout: pollTimeout + 20*time.Second},
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/"+method,
		strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return err
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram: %s failed: %s", method, apiResp.Description)
	}
	if out != nil {
		return json.Unmarshal(apiResp.Result, out)
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.call(ctx, "sendMessage", url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"text":       {text},
		"parse_mode": {"Markdown"},
	}, nil)
}

func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return c.call(ctx, "deleteMessage", url.Values{
		"chat_id":    {strconv.FormatInt(chatID, 10)},
		"message_id": {strconv.FormatInt(messageID, 10)},
	}, nil)
}

// DownloadFile resolves a file id to its hosted path and streams it to dest.
func (c *Client) DownloadFile(ctx context.Context, fileID, dest string) error {
	var file struct {
		FilePath string `json:"file_path"`
	}
	if err := c.call(ctx, "getFile", url.Values{"file_id": {fileID}}, &file); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.fileBase+"/"+file.FilePath, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: file download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, resp.Body)
	return err
}

// Run long-polls for updates until ctx is cancelled, handing each message to
// handle on its own goroutine. Poll errors are logged and retried.
func (c *Client) Run(ctx context.Context, handle func(context.Context, chat.Event)) error {
	var offset int64
	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, err := c.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("poll failed", "error", err)
			time.Sleep(retryBackoff)
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil {
				continue
			}
			go handle(ctx, buildEvent(*u.Message))
		}
	}
}

type update struct {
	UpdateID int64    `json:"update_id"`
	Message  *message `json:"message"`
}

type message struct {
	MessageID int64       `json:"message_id"`
	Text      string      `json:"text"`
	From      *peer       `json:"from"`
	Chat      peer        `json:"chat"`
	Document  *document   `json:"document"`
	Photo     []photoSize `json:"photo"`
}

type peer struct {
	ID int64 `json:"id"`
}

type document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
}

type photoSize struct {
	FileID string `json:"file_id"`
	Width  int    `json:"width"`
}

func (c *Client) getUpdates(ctx context.Context, offset int64) ([]update, error) {
	var updates []update
	err := c.call(ctx, "getUpdates", url.Values{
		"offset":  {strconv.FormatInt(offset, 10)},
		"timeout": {strconv.Itoa(int(pollTimeout.Seconds()))},
	}, &updates)
	return updates, err
}

// buildEvent converts a Telegram message into the transport-neutral event
// the dispatcher consumes.
func buildEvent(msg message) chat.Event {
	ev := chat.Event{
		ChatID:    msg.Chat.ID,
		UserID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      msg.Text,
	}
	if msg.From != nil {
		ev.UserID = msg.From.ID
	}

	if strings.HasPrefix(msg.Text, "/") {
		fields := strings.Fields(msg.Text)
		command := strings.TrimPrefix(fields[0], "/")
		// Strip the @botname suffix used in group chats.
		command, _, _ = strings.Cut(command, "@")
		ev.Command = strings.ToLower(command)
		ev.Args = fields[1:]
	}

	switch {
	case msg.Document != nil:
		ev.Attachment = &chat.Attachment{FileID: msg.Document.FileID, Name: msg.Document.FileName}
	case len(msg.Photo) > 0:
		best := msg.Photo[0]
		for _, p := range msg.Photo[1:] {
			if p.Width > best.Width {
				best = p
			}
		}
		ev.Attachment = &chat.Attachment{FileID: best.FileID, Name: "photo.jpg"}
	}

	return ev
}
